package bitrate_test

import (
	"testing"

	"github.com/m-lab/udpt-server/udpt/bitrate"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"1000", 1000},
		{"500K", 500e3},
		{"500k", 500e3},
		{"10M", 10e6},
		{"1.5G", 1.5e9},
		{"0.5M", 500e3},
		{"10 M", 10e6},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := bitrate.Parse(tt.in)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	for _, in := range []string{"", "M", "10X", "1..5M", "ten"} {
		t.Run(in, func(t *testing.T) {
			if _, err := bitrate.Parse(in); err == nil {
				t.Errorf("Parse(%q) should fail", in)
			}
		})
	}
}
