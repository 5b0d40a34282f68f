package metric

import (
	"os"
	"path/filepath"
	"testing"
)

func TestByName_KnownBackends(t *testing.T) {
	for _, name := range []string{"ssimulacra2", "", "vmaf", "butteraugli", "xpsnr"} {
		r, err := ByName(name)
		if err != nil {
			t.Errorf("ByName(%q) error = %v", name, err)
			continue
		}
		if r == nil {
			t.Errorf("ByName(%q) returned nil", name)
		}
	}
}

func TestByName_UnknownBackend(t *testing.T) {
	if _, err := ByName("bogus"); err == nil {
		t.Error("ByName(bogus) should error")
	}
}

func TestParseVMAFLog(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vmaf.json")
	content := `{
		"frames": [
			{"metrics": {"vmaf": 90.5}},
			{"metrics": {"vmaf": 92.1}}
		],
		"pooled_metrics": {"vmaf": {"mean": 91.3}}
	}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("os.WriteFile() error = %v", err)
	}

	mean, scores, err := parseVMAFLog(path)
	if err != nil {
		t.Fatalf("parseVMAFLog() error = %v", err)
	}
	if mean != 91.3 {
		t.Errorf("mean = %v, want 91.3", mean)
	}
	if len(scores) != 2 || scores[0] != 90.5 || scores[1] != 92.1 {
		t.Errorf("scores = %v, want [90.5 92.1]", scores)
	}
}

func TestParseVMAFLog_NoFrames(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vmaf.json")
	if err := os.WriteFile(path, []byte(`{"frames":[],"pooled_metrics":{"vmaf":{"mean":0}}}`), 0o644); err != nil {
		t.Fatalf("os.WriteFile() error = %v", err)
	}

	if _, _, err := parseVMAFLog(path); err == nil {
		t.Error("parseVMAFLog() should error when the log has no frames")
	}
}

func TestParseXPSNRLog(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "xpsnr.log")
	content := "n:1 y:42.31 u:45.00 v:45.20\nn:2 y:40.10 u:44.50 v:44.80\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("os.WriteFile() error = %v", err)
	}

	mean, scores, err := parseXPSNRLog(path)
	if err != nil {
		t.Fatalf("parseXPSNRLog() error = %v", err)
	}
	if len(scores) != 2 {
		t.Fatalf("len(scores) = %d, want 2", len(scores))
	}
	want := (42.31 + 40.10) / 2
	if mean < want-0.001 || mean > want+0.001 {
		t.Errorf("mean = %v, want ~%v", mean, want)
	}
}

func TestParseButteraugliOutput(t *testing.T) {
	score, err := parseButteraugliOutput("1.234\n")
	if err != nil {
		t.Fatalf("parseButteraugliOutput() error = %v", err)
	}
	if score != 1.234 {
		t.Errorf("score = %v, want 1.234", score)
	}
}

func TestParseButteraugliOutput_Empty(t *testing.T) {
	if _, err := parseButteraugliOutput("   \n"); err == nil {
		t.Error("parseButteraugliOutput() should error on empty output")
	}
}

func TestSense_ButteraugliIsLowerIsBetter(t *testing.T) {
	b := NewButteraugli()
	if b.Sense() != LowerIsBetter {
		t.Error("Butteraugli.Sense() should be LowerIsBetter")
	}
	v := NewVMAF()
	if v.Sense() != HigherIsBetter {
		t.Error("VMAF.Sense() should be HigherIsBetter")
	}
}
