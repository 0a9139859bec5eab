package meeting

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMeetingID(t *testing.T) {
	assert.Equal(t, "2026-05-01-01", MeetingID("2026-05-01"))
}

func TestAttendees(t *testing.T) {
	tests := []struct {
		name       string
		transcript string
		roster     []string
		want       []string
	}{
		{"roster order not mention order", "Ken opened. Glen agreed.", DefaultRoster, []string{"Glen", "Ken"}},
		{"substring match", "Edward joined late", DefaultRoster, []string{"Ed"}},
		{"case sensitive", "glen and ken", DefaultRoster, []string{"Not detected"}},
		{"nobody", "", DefaultRoster, []string{"Not detected"}},
		{"custom roster", "Priya and Sam", []string{"Sam", "Priya", "Sam"}, []string{"Sam", "Priya"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Attendees(tc.transcript, tc.roster))
		})
	}
}

func TestWordCount(t *testing.T) {
	assert.Equal(t, 0, WordCount(""))
	assert.Equal(t, 0, WordCount(" \n\t "))
	assert.Equal(t, 3, WordCount("  a  b\n c "))
	assert.Equal(t, 11, WordCount("We decided to adopt GraphQL. We need to update the docs."))
}

func TestBuildMetadata(t *testing.T) {
	processedAt := time.Date(2026, 5, 2, 23, 30, 0, 0, time.FixedZone("CDT", -5*60*60))

	md := BuildMetadata("Glen and Shelly", "2026-05-01", "", "", DefaultRoster, processedAt)

	assert.Equal(t, Metadata{
		MeetingDate:    "2026-05-01",
		MeetingID:      "2026-05-01-01",
		MeetingType:    "Weekly Sprint Review",
		Attendees:      []string{"Glen", "Shelly"},
		WordCount:      3,
		ProcessingDate: "2026-05-03",
	}, md)
}

func TestBuildMetadata_KeepsRequestedType(t *testing.T) {
	md := BuildMetadata("x", "2026-05-01", "https://fathom.video/share/abc", "Retro", DefaultRoster, time.Now())

	assert.Equal(t, "Retro", md.MeetingType)
	assert.Equal(t, "https://fathom.video/share/abc", md.FathomLink)
}
