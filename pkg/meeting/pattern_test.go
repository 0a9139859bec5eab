package meeting

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMustCompile_WidensWhitespace(t *testing.T) {
	tests := []struct {
		pattern string
		input   string
		want    bool
	}{
		{`a\s+b`, "a b", true},
		{`a\s+b`, "a b", true},
		{`a\s+b`, "a b", true},
		{`a\s+b`, "a\vb", true},
		{`a[:\s]b`, "a\uFEFFb", true},
		{`a[:\s]b`, "a:b", true},
		{`a\s+b`, "ab", false},
		{`^[•\-*]\s`, "- item", true},
		{`^\d+[.)]\s`, "12) item", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, mustCompile(tt.pattern).MatchString(tt.input), "%q on %q", tt.pattern, tt.input)
	}
}
