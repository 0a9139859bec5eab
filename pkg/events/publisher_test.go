package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otherjamesbrown/sprintctl/pkg/logging"
	"github.com/otherjamesbrown/sprintctl/pkg/meeting"
)

type published struct {
	channel string
	payload []byte
}

type fakeClient struct {
	err    error
	sent   []published
	closed bool
}

func (f *fakeClient) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	f.sent = append(f.sent, published{channel: channel, payload: message.([]byte)})
	return redis.NewIntResult(1, nil)
}

func (f *fakeClient) Close() error {
	f.closed = true
	return nil
}

func sampleResult() *meeting.ExtractionResult {
	return &meeting.ExtractionResult{
		Metadata: meeting.Metadata{
			MeetingDate: "2026-05-02",
			MeetingID:   "2026-05-02-01",
			MeetingType: meeting.DefaultMeetingType,
		},
		Sections:  make([]meeting.Section, 6),
		Decisions: []meeting.Decision{{ID: "D-2026-05-02-01"}},
		Tasks:     []meeting.Task{{ID: "1.1"}, {ID: "1.2"}},
		DuplicateChecks: []meeting.DuplicateCheck{
			{TaskID: "1.1", SimilarTo: "14", Similarity: 0.9, IsDuplicate: true},
			{TaskID: "1.2"},
		},
		Risks: []meeting.RiskBlocker{{Risk: "vendor delay"}},
	}
}

func TestNewBaseEvent(t *testing.T) {
	now := time.Date(2026, 5, 2, 9, 0, 0, 0, time.FixedZone("CDT", -5*3600))
	event := NewBaseEvent("meeting.extracted", now)

	assert.Equal(t, "meeting.extracted", event.EventType)
	assert.Equal(t, "sprintctl", event.Source)
	assert.Equal(t, "1.0", event.Version)
	assert.Equal(t, time.UTC, event.Timestamp.Location())
	assert.Len(t, event.EventID, 36)
	assert.NotEqual(t, event.EventID, NewBaseEvent("x", now).EventID)
}

func TestPublishMeetingExtracted(t *testing.T) {
	client := &fakeClient{}
	p := NewPublisher(client, "", logging.NewNopLogger())
	p.now = func() time.Time { return time.Date(2026, 5, 2, 9, 0, 0, 0, time.UTC) }

	err := p.PublishMeetingExtracted(context.Background(), "run-1", "out/PENDING_REVIEW_2026-05-02-01.txt", sampleResult())
	require.NoError(t, err)
	require.Len(t, client.sent, 1)
	assert.Equal(t, ChannelMeetingExtracted, client.sent[0].channel)

	var got map[string]any
	require.NoError(t, json.Unmarshal(client.sent[0].payload, &got))
	assert.Equal(t, "meeting.extracted", got["event_type"])
	assert.Equal(t, "run-1", got["run_id"])
	assert.Equal(t, "2026-05-02-01", got["meeting_id"])
	assert.Equal(t, "2026-05-02T09:00:00Z", got["timestamp"])
	assert.Equal(t, float64(6), got["section_count"])
	assert.Equal(t, float64(2), got["task_count"])
	assert.Equal(t, float64(0), got["parking_lot_count"])
	assert.Equal(t, []any{"1.1"}, got["duplicate_task_ids"])
}

func TestPublishMeetingExtracted_NoDuplicatesEncodesEmptyList(t *testing.T) {
	client := &fakeClient{}
	p := NewPublisher(client, "custom.channel", nil)

	result := sampleResult()
	result.DuplicateChecks = nil
	require.NoError(t, p.PublishMeetingExtracted(context.Background(), "run-2", "", result))

	require.Len(t, client.sent, 1)
	assert.Equal(t, "custom.channel", client.sent[0].channel)
	assert.Contains(t, string(client.sent[0].payload), `"duplicate_task_ids":[]`)
	assert.NotContains(t, string(client.sent[0].payload), "review_path")
}

func TestPublishMeetingExtracted_Error(t *testing.T) {
	client := &fakeClient{err: errors.New("connection reset")}
	p := NewPublisher(client, "", nil)

	err := p.PublishMeetingExtracted(context.Background(), "run-3", "", sampleResult())
	require.Error(t, err)
	assert.Equal(t, "failed to publish to events.meeting.extracted: connection reset", err.Error())

	err = p.PublishMeetingExtracted(context.Background(), "run-3", "", nil)
	assert.Error(t, err)
}

func TestPublisher_Close(t *testing.T) {
	client := &fakeClient{}
	p := NewPublisher(client, "", nil)
	assert.Equal(t, ChannelMeetingExtracted, p.Channel())
	require.NoError(t, p.Close())
	assert.True(t, client.closed)
}
