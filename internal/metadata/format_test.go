package metadata

import "testing"

func TestFormatSize(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{0, "N/A"},
		{-5, "N/A"},
		{512, "512B"},
		{2048, "2.0KiB"},
		{5 * 1024 * 1024, "5.0MiB"},
		{3 * 1024 * 1024 * 1024, "3.0GiB"},
	}
	for _, tt := range tests {
		if got := formatSize(tt.bytes); got != tt.want {
			t.Errorf("formatSize(%d) = %q, want %q", tt.bytes, got, tt.want)
		}
	}
}

func TestFormatViewCount(t *testing.T) {
	tests := []struct {
		views int64
		want  string
	}{
		{0, "N/A"},
		{999, "999"},
		{1_500, "1.5K"},
		{1_234_567, "1.2M"},
		{2_000_000_000, "2.0B"},
	}
	for _, tt := range tests {
		if got := formatViewCount(tt.views); got != tt.want {
			t.Errorf("formatViewCount(%d) = %q, want %q", tt.views, got, tt.want)
		}
	}
}

func TestNearestABR(t *testing.T) {
	tests := []struct {
		abr  float64
		want int
	}{
		{0, 64},
		{100, 128},
		{129.5, 128},
		{200, 192},
		{400, 320},
	}
	for _, tt := range tests {
		if got := nearestABR(tt.abr); got != tt.want {
			t.Errorf("nearestABR(%v) = %d, want %d", tt.abr, got, tt.want)
		}
	}
}
