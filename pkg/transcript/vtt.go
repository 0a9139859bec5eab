// Package transcript flattens caption exports (WebVTT) into the plain
// "Speaker: text" transcript the extractor reads.
package transcript

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Cue is one timed caption.
type Cue struct {
	Speaker string
	Text    string
	StartMs int
	EndMs   int
}

var (
	// Zoom-style cue header: 1 "Speaker Name" (123)
	zoomCueHeader = regexp.MustCompile(`^\d+\s+"([^"]*)"(?:\s+\(\d+\))?$`)

	// 00:00:05.579 --> 00:00:06.858, hours optional.
	cueTiming = regexp.MustCompile(`^((?:\d+:)?\d{2}:\d{2}\.\d{3})\s+-->\s+((?:\d+:)?\d{2}:\d{2}\.\d{3})`)

	voiceTag = regexp.MustCompile(`^<v(?:\.[^ >]+)?\s+([^>]+)>`)
	markup   = regexp.MustCompile(`</?[a-zA-Z][^>]*>`)
)

// IsCaptionFile reports whether name has a caption extension.
func IsCaptionFile(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".vtt")
}

// ParseVTT reads WebVTT cues. Speakers come from <v> voice tags or from a
// Zoom-style "N \"Name\" (id)" cue header. NOTE, STYLE and REGION blocks and
// cue identifiers are skipped.
func ParseVTT(r io.Reader) ([]Cue, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	cues := make([]Cue, 0)
	var (
		cur       *Cue
		speaker   string
		skipBlock bool
		first     = true
	)

	flush := func() {
		if cur != nil && cur.Text != "" {
			cues = append(cues, *cur)
		}
		cur = nil
		speaker = ""
		skipBlock = false
	}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if first {
			first = false
			line = strings.TrimPrefix(line, "\ufeff")
			if strings.HasPrefix(line, "WEBVTT") {
				skipBlock = true
				continue
			}
		}

		if line == "" {
			flush()
			continue
		}
		if skipBlock {
			continue
		}

		if cur == nil {
			if m := cueTiming.FindStringSubmatch(line); m != nil {
				start, err := parseTimestamp(m[1])
				if err != nil {
					return nil, err
				}
				end, err := parseTimestamp(m[2])
				if err != nil {
					return nil, err
				}
				cur = &Cue{Speaker: speaker, StartMs: start, EndMs: end}
				continue
			}
			if m := zoomCueHeader.FindStringSubmatch(line); m != nil {
				speaker = strings.TrimSpace(m[1])
				continue
			}
			if strings.HasPrefix(line, "NOTE") || line == "STYLE" || line == "REGION" {
				skipBlock = true
			}
			// Anything else before the timing line is a cue identifier.
			continue
		}

		if m := voiceTag.FindStringSubmatch(line); m != nil && cur.Speaker == "" {
			cur.Speaker = strings.TrimSpace(m[1])
		}
		text := strings.TrimSpace(markup.ReplaceAllString(line, ""))
		if text == "" {
			continue
		}
		if cur.Text != "" {
			cur.Text += " "
		}
		cur.Text += text
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading captions: %w", err)
	}
	return cues, nil
}

// Render joins cues into one line per speaker turn. Consecutive cues from
// the same speaker are merged; cues without a speaker stand alone.
func Render(cues []Cue) string {
	var b strings.Builder
	prev := ""
	for i, c := range cues {
		switch {
		case i > 0 && c.Speaker != "" && c.Speaker == prev:
			b.WriteString(" ")
		case i > 0:
			b.WriteString("\n")
			fallthrough
		default:
			if c.Speaker != "" {
				b.WriteString(c.Speaker)
				b.WriteString(": ")
			}
		}
		b.WriteString(c.Text)
		prev = c.Speaker
	}
	return b.String()
}

// FromVTT parses WebVTT text and renders it as a plain transcript.
func FromVTT(vtt string) (string, error) {
	cues, err := ParseVTT(strings.NewReader(vtt))
	if err != nil {
		return "", err
	}
	return Render(cues), nil
}

// parseTimestamp converts [HH:]MM:SS.mmm to milliseconds.
func parseTimestamp(ts string) (int, error) {
	parts := strings.Split(ts, ":")
	secs := parts[len(parts)-1]
	whole, frac, _ := strings.Cut(secs, ".")

	total := 0
	for _, p := range parts[:len(parts)-1] {
		n, err := strconv.Atoi(p)
		if err != nil {
			return 0, fmt.Errorf("bad timestamp %q", ts)
		}
		total = total*60 + n
	}
	s, err := strconv.Atoi(whole)
	if err != nil {
		return 0, fmt.Errorf("bad timestamp %q", ts)
	}
	ms, err := strconv.Atoi(frac)
	if err != nil {
		return 0, fmt.Errorf("bad timestamp %q", ts)
	}
	return (total*60+s)*1000 + ms, nil
}
