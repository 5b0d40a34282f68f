package av1an

import "testing"

func TestParseCRF(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantSD  uint8
		wantHD  uint8
		wantUHD uint8
		wantErr bool
	}{
		{name: "single value", input: "27", wantSD: 27, wantHD: 27, wantUHD: 27},
		{name: "triple value", input: "25,27,29", wantSD: 25, wantHD: 27, wantUHD: 29},
		{name: "whitespace tolerant", input: " 25 , 27 , 29 ", wantSD: 25, wantHD: 27, wantUHD: 29},
		{name: "zero", input: "0", wantSD: 0, wantHD: 0, wantUHD: 0},
		{name: "max value", input: "63", wantSD: 63, wantHD: 63, wantUHD: 63},
		{name: "empty", input: "", wantErr: true},
		{name: "whitespace only", input: "   ", wantErr: true},
		{name: "out of range", input: "64", wantErr: true},
		{name: "negative", input: "-1", wantErr: true},
		{name: "non-numeric", input: "abc", wantErr: true},
		{name: "two values", input: "25,27", wantErr: true},
		{name: "four values", input: "25,27,29,31", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sd, hd, uhd, err := ParseCRF(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseCRF(%q) expected error, got nil", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCRF(%q) unexpected error: %v", tt.input, err)
			}
			if sd != tt.wantSD || hd != tt.wantHD || uhd != tt.wantUHD {
				t.Errorf("ParseCRF(%q) = (%d, %d, %d), want (%d, %d, %d)",
					tt.input, sd, hd, uhd, tt.wantSD, tt.wantHD, tt.wantUHD)
			}
		})
	}
}

func TestNewDefaults(t *testing.T) {
	enc, err := New()
	if err != nil {
		t.Fatalf("New() unexpected error: %v", err)
	}
	if enc.config.Encoder == "" {
		t.Error("expected a default encoder to be set")
	}
}

func TestWithPreset(t *testing.T) {
	enc, err := New(WithPreset(PresetGrain))
	if err != nil {
		t.Fatalf("New() unexpected error: %v", err)
	}
	if enc.config.AppliedPreset == nil || *enc.config.AppliedPreset != PresetGrain {
		t.Error("expected AppliedPreset to be set to PresetGrain")
	}
}

func TestWithCRF(t *testing.T) {
	enc, err := New(WithCRF(20, 22, 24))
	if err != nil {
		t.Fatalf("New() unexpected error: %v", err)
	}
	if enc.config.CRFSD != 20 || enc.config.CRFHD != 22 || enc.config.CRFUHD != 24 {
		t.Errorf("unexpected CRF values: %d/%d/%d", enc.config.CRFSD, enc.config.CRFHD, enc.config.CRFUHD)
	}
}
