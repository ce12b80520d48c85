package conv

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "未知大小"},
		{-5, "未知大小"},
		{512, "512B"},
		{1024, "1.0KB"},
		{1536, "1.5KB"},
		{20 * 1024, "20KB"},
		{5 * 1024 * 1024, "5.0MB"},
		{3 * 1024 * 1024 * 1024, "3.0GB"},
		{2048 * 1024 * 1024 * 1024 * 1024, "2048TB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatBytes(tt.in), "FormatBytes(%d)", tt.in)
	}
}
