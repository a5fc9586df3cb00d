package util

import "testing"

func TestParseSize(t *testing.T) {
	tests := []struct {
		input   string
		want    int64
		wantErr bool
	}{
		{"512MB", 512 << 20, false},
		{"64k", 64 << 10, false},
		{"2G", 2 << 30, false},
		{" 10 mb ", 10 << 20, false},
		{"1048576", 1 << 20, false},
		{"100B", 100, false},
		{"", 0, true},
		{"lots", 0, true},
		{"-5MB", 0, true},
	}
	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			got, err := ParseSize(tc.input)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ParseSize(%q) error = %v, wantErr %v", tc.input, err, tc.wantErr)
			}
			if got != tc.want {
				t.Errorf("ParseSize(%q) = %d, want %d", tc.input, got, tc.want)
			}
		})
	}
}

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		input   string
		visible int
		want    string
	}{
		{"hf_abcdefghijklmnop", 3, "hf_***"},
		{"hf_", 3, "***"},
		{"", 3, "***"},
	}
	for _, tc := range tests {
		if got := MaskSecret(tc.input, tc.visible); got != tc.want {
			t.Errorf("MaskSecret(%q, %d) = %q, want %q", tc.input, tc.visible, got, tc.want)
		}
	}
}
