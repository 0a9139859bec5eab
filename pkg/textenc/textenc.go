// Package textenc decodes transcript files saved in legacy encodings.
package textenc

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// UTF8 is the default encoding. UTF-8 input passes through unchanged.
const UTF8 = "utf-8"

// Names lists the canonical encoding names accepted by Decode.
var Names = []string{UTF8, "utf-16", "windows-1252", "iso-8859-1", "iso-8859-15"}

func lookup(name string) (encoding.Encoding, string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return nil, UTF8, nil
	case "utf-16", "utf16":
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM), "utf-16", nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252, "windows-1252", nil
	case "iso-8859-1", "latin1", "iso_8859-1":
		return charmap.ISO8859_1, "iso-8859-1", nil
	case "iso-8859-15", "latin9":
		return charmap.ISO8859_15, "iso-8859-15", nil
	default:
		return nil, "", fmt.Errorf("unknown encoding %q (supported: %s)", name, strings.Join(Names, ", "))
	}
}

// Canonical returns the canonical form of an encoding name, or an error
// when the name is not supported.
func Canonical(name string) (string, error) {
	_, canonical, err := lookup(name)
	return canonical, err
}

// Decode converts data from the named encoding to a UTF-8 string.
func Decode(data []byte, name string) (string, error) {
	enc, _, err := lookup(name)
	if err != nil {
		return "", err
	}
	if enc == nil {
		return string(data), nil
	}

	reader := transform.NewReader(bytes.NewReader(data), enc.NewDecoder())
	out, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("decoding %s: %w", name, err)
	}
	return string(out), nil
}
