// Package events publishes extraction events to Redis.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/otherjamesbrown/sprintctl/pkg/logging"
	"github.com/otherjamesbrown/sprintctl/pkg/meeting"
)

// ChannelMeetingExtracted is the default channel for extraction events.
const ChannelMeetingExtracted = "events.meeting.extracted"

// BaseEvent contains common fields for all events.
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
	Version   string    `json:"version"`
}

// NewBaseEvent creates a BaseEvent stamped with now.
func NewBaseEvent(eventType string, now time.Time) BaseEvent {
	return BaseEvent{
		EventID:   uuid.NewString(),
		EventType: eventType,
		Timestamp: now.UTC(),
		Source:    "sprintctl",
		Version:   "1.0",
	}
}

// MeetingExtractedEvent is published after a successful pipeline run.
type MeetingExtractedEvent struct {
	BaseEvent

	RunID       string `json:"run_id"`
	MeetingID   string `json:"meeting_id"`
	MeetingDate string `json:"meeting_date"`
	MeetingType string `json:"meeting_type"`
	ReviewPath  string `json:"review_path,omitempty"`

	SectionCount    int      `json:"section_count"`
	DecisionCount   int      `json:"decision_count"`
	TaskCount       int      `json:"task_count"`
	ParkingLotCount int      `json:"parking_lot_count"`
	RiskCount       int      `json:"risk_count"`
	DuplicateTasks  []string `json:"duplicate_task_ids"`
}

// NewMeetingExtractedEvent summarizes result.
func NewMeetingExtractedEvent(runID, reviewPath string, result *meeting.ExtractionResult, now time.Time) MeetingExtractedEvent {
	dups := make([]string, 0)
	for _, c := range result.Duplicates() {
		dups = append(dups, c.TaskID)
	}
	return MeetingExtractedEvent{
		BaseEvent:       NewBaseEvent("meeting.extracted", now),
		RunID:           runID,
		MeetingID:       result.Metadata.MeetingID,
		MeetingDate:     result.Metadata.MeetingDate,
		MeetingType:     result.Metadata.MeetingType,
		ReviewPath:      reviewPath,
		SectionCount:    len(result.Sections),
		DecisionCount:   len(result.Decisions),
		TaskCount:       len(result.Tasks),
		ParkingLotCount: len(result.ParkingLot),
		RiskCount:       len(result.Risks),
		DuplicateTasks:  dups,
	}
}

// Client is the subset of redis.Client used by Publisher.
type Client interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	Close() error
}

// Publisher publishes extraction events to Redis.
type Publisher struct {
	client  Client
	channel string
	logger  logging.Logger
	now     func() time.Time
}

// PublisherConfig holds Redis connection configuration.
type PublisherConfig struct {
	Addr     string
	Password string
	DB       int
	Channel  string
}

// NewPublisher creates a new event publisher. An empty channel selects
// ChannelMeetingExtracted.
func NewPublisher(client Client, channel string, logger logging.Logger) *Publisher {
	if channel == "" {
		channel = ChannelMeetingExtracted
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Publisher{
		client:  client,
		channel: channel,
		logger:  logger.With(logging.F("component", "event_publisher")),
		now:     time.Now,
	}
}

// NewPublisherFromConfig creates a publisher with a new Redis connection.
func NewPublisherFromConfig(ctx context.Context, cfg PublisherConfig, logger logging.Logger) (*Publisher, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Addr, err)
	}

	return NewPublisher(client, cfg.Channel, logger), nil
}

// Channel returns the channel events are published to.
func (p *Publisher) Channel() string { return p.channel }

// PublishMeetingExtracted publishes a summary of result.
func (p *Publisher) PublishMeetingExtracted(ctx context.Context, runID, reviewPath string, result *meeting.ExtractionResult) error {
	if result == nil {
		return fmt.Errorf("publish %s: nil result", p.channel)
	}
	return p.publish(ctx, NewMeetingExtractedEvent(runID, reviewPath, result, p.now()))
}

func (p *Publisher) publish(ctx context.Context, event interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.client.Publish(ctx, p.channel, data).Err(); err != nil {
		p.logger.Error("Failed to publish event",
			logging.Err(err),
			logging.F("channel", p.channel))
		return fmt.Errorf("failed to publish to %s: %w", p.channel, err)
	}

	p.logger.Debug("Event published",
		logging.F("channel", p.channel),
		logging.F("payload_size", len(data)))

	return nil
}

// Close closes the Redis connection.
func (p *Publisher) Close() error {
	return p.client.Close()
}
