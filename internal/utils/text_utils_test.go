package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestExcerpt(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	testCases := []struct {
		name     string
		text     string
		max      int
		expected string
	}{
		{"shorter than limit", "hello", 10, "hello"},
		{"exactly the limit", "hello", 5, "hello"},
		{"truncated", "hello world", 5, "hello"},
		{"multi-byte", "héllo wörld", 7, "héllo w"},
		{"no limit", "hello", 0, "hello"},
		{"empty", "", 3, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tp.Excerpt(tc.text, tc.max))
		})
	}
}

func TestLowerAndLength(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	assert.Equal(t, "verify your account", tp.Lower("VERIFY Your Account"))
	assert.Equal(t, "ünïcode", tp.Lower("ÜNÏCODE"))
	assert.Equal(t, 7, tp.Length("ünïcode"))
	assert.Equal(t, 0, tp.Length(""))
}

func TestSanitizeUTF8(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	assert.Equal(t, "valid ✓", tp.SanitizeUTF8("valid ✓"))
	assert.Equal(t, "ab", tp.SanitizeUTF8("a\xffb"))

	// A literal replacement character is valid and kept
	assert.Equal(t, "a�b", tp.SanitizeUTF8("a�b\xfe"))
}

func TestProcessText(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	long := strings.Repeat("x\xff", 10)
	assert.Equal(t, "xxxx", tp.ProcessText(long, 4))
}
