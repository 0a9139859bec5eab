package meeting

import (
	"strings"
	"time"
)

// DefaultRoster is the attendee roster checked when none is configured.
var DefaultRoster = []string{"Glen", "Ed", "Shelly", "Ken"}

// MeetingID derives the meeting identifier for a date. The sequence suffix
// is always -01; two meetings on one date share an identifier.
func MeetingID(meetingDate string) string {
	return meetingDate + "-01"
}

// Attendees returns the roster names that appear verbatim (case-sensitive)
// in the transcript, in roster order. When nobody matches it returns
// ["Not detected"].
func Attendees(transcript string, roster []string) []string {
	seen := make(map[string]bool, len(roster))
	var found []string
	for _, name := range roster {
		if name == "" || seen[name] {
			continue
		}
		if strings.Contains(transcript, name) {
			seen[name] = true
			found = append(found, name)
		}
	}
	if len(found) == 0 {
		return []string{NotDetected}
	}
	return found
}

// WordCount counts whitespace-separated tokens. Empty or whitespace-only
// transcripts count zero.
func WordCount(transcript string) int {
	return len(strings.Fields(transcript))
}

// BuildMetadata assembles the meeting metadata. processedAt is formatted as
// a UTC calendar date.
func BuildMetadata(transcript, meetingDate, fathomLink, meetingType string, roster []string, processedAt time.Time) Metadata {
	if meetingType == "" {
		meetingType = DefaultMeetingType
	}
	return Metadata{
		MeetingDate:    meetingDate,
		MeetingID:      MeetingID(meetingDate),
		MeetingType:    meetingType,
		Attendees:      Attendees(transcript, roster),
		FathomLink:     fathomLink,
		WordCount:      WordCount(transcript),
		ProcessingDate: processedAt.UTC().Format(time.DateOnly),
	}
}
