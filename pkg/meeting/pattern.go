package meeting

import (
	"regexp"
	"strings"
)

// spaceClass is the body of a character class matching every character
// ECMAScript treats as whitespace. Go's \s only covers ASCII.
const spaceClass = `\s\v\p{Zs}\x{2028}\x{2029}\x{feff}`

// mustCompile compiles pattern with each \s widened to spaceClass, both
// inside and outside bracket expressions.
func mustCompile(pattern string) *regexp.Regexp {
	var b strings.Builder
	inClass := false
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		switch {
		case c == '\\' && i+1 < len(pattern):
			next := pattern[i+1]
			i++
			if next == 's' {
				if inClass {
					b.WriteString(spaceClass)
				} else {
					b.WriteString("[" + spaceClass + "]")
				}
				continue
			}
			b.WriteByte(c)
			b.WriteByte(next)
		case c == '[' && !inClass:
			inClass = true
			b.WriteByte(c)
		case c == ']' && inClass:
			inClass = false
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	return regexp.MustCompile(b.String())
}
