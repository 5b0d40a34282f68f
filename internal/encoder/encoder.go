// Package encoder builds the CLI invocations for each supported AV1/HEVC/
// AVC backend behind an Adapter interface with one implementation per
// encoder.
package encoder

import (
	"fmt"
	"os/exec"

	"github.com/av1an-go/av1an/internal/ffms"
)

// Format is the pixel-stream framing an Adapter expects on stdin.
type Format int

const (
	// FormatRaw10 is packed 10-bit-per-sample YUV420 planar with no
	// container framing, as FFMS2's ExtractFrame always produces
	// (internal/ffms). Width/height/depth are passed as CLI flags.
	FormatRaw10 Format = iota
	// FormatY4M prefixes the raw stream with a YUV4MPEG2 header so
	// encoders that only accept y4m (rather than bare raw planes) can
	// recover width/height/fps/chroma subsampling from the stream
	// itself.
	FormatY4M
)

// Params is the common configuration for encoding one chunk, shared
// across all backends. Backend-specific tuning lives in each adapter's
// own Options type and is threaded through via NewX(opts) constructors.
type Params struct {
	Inf        *ffms.VidInf
	Width      uint32
	Height     uint32
	Frames     int
	Quantizer  float64 // CRF/CQ/QP value; lower is always higher quality
	Preset     string
	Threads    int
	Output     string
	GrainTable *string
	// ExtraArgs carries verbatim zone-override arguments (chunk.Zone.Args)
	// appended after the adapter's own flags, so a zone can override any
	// flag the adapter set earlier on the command line.
	ExtraArgs []string
	// Reset marks a chunk fully contained in a reset zone: the adapter
	// must emit ExtraArgs with none of its own tunable defaults (CRF,
	// preset, profile, passes, tuning knobs, ...). Only the structural
	// plumbing a backend needs to parse its raw input stream and locate
	// its output file survives a reset.
	Reset bool
}

// Adapter builds an encoder invocation for one chunk. Implementations
// must be safe to call concurrently: the worker pool invokes Command
// once per chunk, in parallel, from different goroutines.
type Adapter interface {
	// Name is the encoder identifier used in --encoder and zone Encoder
	// overrides (e.g. "svt-av1", "aom", "rav1e", "vpx", "x264", "x265").
	Name() string
	// StdinFormat reports how the caller must frame bytes written to
	// the returned command's stdin.
	StdinFormat() Format
	// Header returns the bytes, if any, that must precede the raw frame
	// stream on stdin (a y4m header when StdinFormat is FormatY4M, nil
	// for FormatRaw10 backends).
	Header(p Params) []byte
	// Command builds the exec.Cmd; its Stdin is left unset for the
	// caller to attach (a pipe fed by the frame source).
	Command(p Params) *exec.Cmd
	// IsAvailable reports whether the backend binary is on PATH.
	IsAvailable() bool
}

// QuantizerBounds describes a backend's quantizer range. Nothing in this
// module reads it; the target-quality search takes its bounds from the
// --min-q/--max-q settings.
type QuantizerBounds struct {
	Min, Max float64
}

// ByName resolves an Adapter by its Name(). Construction is cheap (no
// binary lookups happen until IsAvailable/Command), so callers can build
// and discard adapters freely.
func ByName(name string, threads int) (Adapter, error) {
	switch name {
	case "svt-av1", "":
		return NewSVTAV1(SVTAV1Options{}), nil
	case "aom":
		return NewAOM(), nil
	case "rav1e":
		return NewRav1e(), nil
	case "vpx":
		return NewVPX(), nil
	case "x264":
		return NewX264(), nil
	case "x265":
		return NewX265(), nil
	default:
		return nil, fmt.Errorf("encoder: unknown backend %q", name)
	}
}

// y4mHeader builds a minimal YUV4MPEG2 stream header for 10-bit 4:2:0
// planar frames, the only chroma/bit-depth combination FFMS2's decode
// strategies (internal/ffms) ever emit.
func y4mHeader(width, height uint32, fpsNum, fpsDen uint32) []byte {
	return []byte(fmt.Sprintf("YUV4MPEG2 W%d H%d F%d:%d Ip A0:0 C420p10\n", width, height, fpsNum, fpsDen))
}

// YUV4MPEG2Header exposes y4mHeader for callers outside this package
// that need to write a standalone y4m file (internal/worker writes a
// reference clip per chunk for target-quality metric comparison).
func YUV4MPEG2Header(width, height, fpsNum, fpsDen uint32) []byte {
	return y4mHeader(width, height, fpsNum, fpsDen)
}

// FrameMarker is the per-frame delimiter a y4m stream requires before
// each frame's raw pixel data.
const FrameMarker = "FRAME\n"

func lookPath(binary string) bool {
	_, err := exec.LookPath(binary)
	return err == nil
}
