package utils

import "testing"

func TestRatio(t *testing.T) {
	tests := []struct {
		a, b     string
		min, max float64
	}{
		{"", "", 1, 1},
		{"abc", "abc", 1, 1},
		{"abc", "xyz", 0, 0},
		{"headphones", "headphnes", 0.9, 1},  // 常见拼写错误
		{"keyboard", "refrigerator", 0, 0.6}, // 不相关的词
		{"speaker", "speakers", 0.9, 1},
	}

	for _, tt := range tests {
		got := Ratio(tt.a, tt.b)
		if got < tt.min || got > tt.max {
			t.Errorf("Ratio(%q, %q) = %v, want in [%v, %v]", tt.a, tt.b, got, tt.min, tt.max)
		}
		// 对称性
		if rev := Ratio(tt.b, tt.a); rev != got {
			t.Errorf("Ratio(%q, %q) = %v, reversed = %v", tt.a, tt.b, got, rev)
		}
	}
}
