package worker

import (
	"bytes"
	"os/exec"
	"testing"

	"github.com/av1an-go/av1an/internal/encoder"
)

type fakeRawAdapter struct{}

func (fakeRawAdapter) Name() string                         { return "fake-raw" }
func (fakeRawAdapter) StdinFormat() encoder.Format           { return encoder.FormatRaw10 }
func (fakeRawAdapter) Header(encoder.Params) []byte          { return nil }
func (fakeRawAdapter) Command(encoder.Params) *exec.Cmd      { return exec.Command("true") }
func (fakeRawAdapter) IsAvailable() bool                     { return true }

type fakeY4MAdapter struct{}

func (fakeY4MAdapter) Name() string                    { return "fake-y4m" }
func (fakeY4MAdapter) StdinFormat() encoder.Format      { return encoder.FormatY4M }
func (fakeY4MAdapter) Header(p encoder.Params) []byte {
	return encoder.YUV4MPEG2Header(p.Width, p.Height, 30, 1)
}
func (fakeY4MAdapter) Command(encoder.Params) *exec.Cmd { return exec.Command("true") }
func (fakeY4MAdapter) IsAvailable() bool                { return true }

func TestWriteFrameStream_Raw_NoFraming(t *testing.T) {
	yuv := []byte{1, 2, 3, 4, 5, 6}
	var buf bytes.Buffer
	if err := writeFrameStream(&buf, fakeRawAdapter{}, encoder.Params{Frames: 2}, yuv); err != nil {
		t.Fatalf("writeFrameStream() error = %v", err)
	}
	if !bytes.Equal(buf.Bytes(), yuv) {
		t.Errorf("raw stream should pass bytes through unmodified, got %v", buf.Bytes())
	}
}

func TestWriteFrameStream_Y4M_AddsHeaderAndFrameMarkers(t *testing.T) {
	frame := []byte{9, 9, 9}
	yuv := append(append([]byte{}, frame...), frame...)
	params := encoder.Params{Frames: 2, Width: 4, Height: 2}

	var buf bytes.Buffer
	if err := writeFrameStream(&buf, fakeY4MAdapter{}, params, yuv); err != nil {
		t.Fatalf("writeFrameStream() error = %v", err)
	}

	out := buf.Bytes()
	header := encoder.YUV4MPEG2Header(4, 2, 30, 1)
	if !bytes.HasPrefix(out, header) {
		t.Fatalf("output missing y4m header, got %q", out[:min(len(out), 40)])
	}
	rest := out[len(header):]
	want := encoder.FrameMarker + string(frame) + encoder.FrameMarker + string(frame)
	if string(rest) != want {
		t.Errorf("frame-marked body = %q, want %q", rest, want)
	}
}

func TestProbeIVFPath_EncodesCRFInFilename(t *testing.T) {
	got := probeIVFPath("/tmp/chunk-00003", 27.5)
	want := "/tmp/chunk-00003/probe-27.50.ivf"
	if got != want {
		t.Errorf("probeIVFPath() = %q, want %q", got, want)
	}
}
