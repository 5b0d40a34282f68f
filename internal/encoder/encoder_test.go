package encoder

import (
	"strings"
	"testing"

	"github.com/av1an-go/av1an/internal/ffms"
)

func testParams() Params {
	return Params{
		Inf:       &ffms.VidInf{FPSNum: 24000, FPSDen: 1001},
		Width:     1920,
		Height:    1080,
		Frames:    240,
		Quantizer: 27,
		Preset:    "6",
		Output:    "/tmp/chunk-00001.ivf",
	}
}

func TestByName_KnownBackends(t *testing.T) {
	names := []string{"svt-av1", "", "aom", "rav1e", "vpx", "x264", "x265"}
	for _, name := range names {
		a, err := ByName(name, 0)
		if err != nil {
			t.Errorf("ByName(%q) error = %v", name, err)
			continue
		}
		if a == nil {
			t.Errorf("ByName(%q) returned nil adapter", name)
		}
	}
}

func TestByName_UnknownBackend(t *testing.T) {
	if _, err := ByName("bogus", 0); err == nil {
		t.Error("ByName(bogus) should error")
	}
}

func TestSVTAV1_Command_IncludesQuantizerAndOutput(t *testing.T) {
	enc := NewSVTAV1(SVTAV1Options{Tune: 0})
	cmd := enc.Command(testParams())

	args := strings.Join(cmd.Args, " ")
	if !strings.Contains(args, "--crf 27") {
		t.Errorf("command args = %q, want --crf 27", args)
	}
	if !strings.Contains(args, "-b /tmp/chunk-00001.ivf") {
		t.Errorf("command args = %q, want output flag", args)
	}
	if enc.StdinFormat() != FormatRaw10 {
		t.Error("SVT-AV1 should read FormatRaw10")
	}
	if enc.Header(testParams()) != nil {
		t.Error("SVT-AV1 Header() should be nil for raw stdin")
	}
}

func TestSVTAV1_Command_ExtraArgsAppendedAfterBaseFlags(t *testing.T) {
	enc := NewSVTAV1(SVTAV1Options{})
	p := testParams()
	p.ExtraArgs = []string{"--film-grain", "8"}
	cmd := enc.Command(p)

	args := cmd.Args
	idx := -1
	for i, a := range args {
		if a == "--film-grain" {
			idx = i
			break
		}
	}
	if idx < 0 {
		t.Fatal("--film-grain not found in command args")
	}
	if idx+1 >= len(args) || args[idx+1] != "8" {
		t.Errorf("--film-grain value = %v, want 8", args)
	}
}

func TestRav1e_RequiresY4MHeader(t *testing.T) {
	enc := NewRav1e()
	if enc.StdinFormat() != FormatY4M {
		t.Error("rav1e should require FormatY4M")
	}
	header := enc.Header(testParams())
	if !strings.HasPrefix(string(header), "YUV4MPEG2") {
		t.Errorf("header = %q, want YUV4MPEG2 prefix", header)
	}
	if !strings.Contains(string(header), "W1920 H1080") {
		t.Errorf("header = %q, want dimensions", header)
	}
}

func TestX264_Command_UsesCRFAndY4MDemuxer(t *testing.T) {
	enc := NewX264()
	cmd := enc.Command(testParams())
	args := strings.Join(cmd.Args, " ")
	if !strings.Contains(args, "--crf 27.0") {
		t.Errorf("command args = %q, want --crf 27.0", args)
	}
	if !strings.Contains(args, "--demuxer y4m") {
		t.Errorf("command args = %q, want y4m demuxer", args)
	}
}

func TestAOM_Command_UsesConstrainedQuality(t *testing.T) {
	enc := NewAOM()
	cmd := enc.Command(testParams())
	args := strings.Join(cmd.Args, " ")
	if !strings.Contains(args, "--end-usage=q") {
		t.Errorf("command args = %q, want constrained-quality mode", args)
	}
	if !strings.Contains(args, "--cq-level=27") {
		t.Errorf("command args = %q, want --cq-level=27", args)
	}
}
