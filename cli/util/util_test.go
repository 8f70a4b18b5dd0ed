package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "-", FormatBytes(-1))
	assert.Equal(t, "0 B", FormatBytes(0))
	assert.Equal(t, "1.5 KiB", FormatBytes(1536))
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{250 * time.Microsecond, "250µs"},
		{42 * time.Millisecond, "42ms"},
		{1234 * time.Millisecond, "1.23s"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDuration(tt.in))
	}
}

func TestPlural(t *testing.T) {
	assert.Equal(t, "1 module", Plural(1, "module"))
	assert.Equal(t, "0 modules", Plural(0, "module"))
	assert.Equal(t, "1,200 modules", Plural(1200, "module"))
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", TruncateString("short", 10))
	assert.Equal(t, "abcdefg...", TruncateString("abcdefghijklmnop", 10))
	assert.Equal(t, "ab", TruncateString("abcdef", 2))
}
