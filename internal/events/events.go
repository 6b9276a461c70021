package events

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

// Stream names
const (
	StreamEvents = "SDKGEN_EVENTS"
)

// Subject patterns
const (
	// SubjectAll matches every event subject
	SubjectAll = "sdkgen.>"

	subjectGenerated = "sdkgen.generated"
	subjectLinked    = "sdkgen.linked"
)

// Kind names an event type
type Kind string

const (
	KindGenerated Kind = "generated"
	KindLinked    Kind = "linked"
)

// Event describes one finished generation or link step
type Event struct {
	Kind     Kind      `json:"kind"`
	RunID    string    `json:"run_id"`
	Package  string    `json:"package"`
	Language string    `json:"language"`
	Version  string    `json:"version,omitempty"`
	Output   string    `json:"output"`
	Classes  []string  `json:"classes,omitempty"`
	Files    int       `json:"files"`
	Commit   string    `json:"commit,omitempty"`
	Time     time.Time `json:"time"`
}

// Subject returns the subject the event is published on, e.g.
// sdkgen.generated.typescript.
func (e *Event) Subject() string {
	base := subjectGenerated
	if e.Kind == KindLinked {
		base = subjectLinked
	}
	if e.Language == "" {
		return base
	}
	return base + "." + e.Language
}

// Publisher publishes events
type Publisher interface {
	Publish(ctx context.Context, e *Event) error
}

// DefaultStreamConfig returns the default stream configuration for events
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		Name:        StreamEvents,
		Subjects:    []string{SubjectAll},
		MaxMsgs:     10000,
		MaxAge:      30 * 24 * time.Hour,
		Replicas:    1,
		Description: "sdkgen generation events",
	}
}

// Setup ensures the event stream exists
func (c *Client) Setup(ctx context.Context) error {
	_, err := c.CreateStream(ctx, DefaultStreamConfig())
	return err
}

// Publish encodes and publishes an event
func (c *Client) Publish(ctx context.Context, e *Event) error {
	if e.Time.IsZero() {
		e.Time = time.Now().UTC()
	}

	data, err := Encode(e)
	if err != nil {
		return err
	}

	ack, err := c.PublishRaw(ctx, e.Subject(), data)
	if err != nil {
		return err
	}

	log.Debug().
		Str("subject", e.Subject()).
		Uint64("seq", ack.Sequence).
		Msg("published event")
	return nil
}

// Encode returns the wire form of an event
func Encode(e *Event) ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to encode event: %w", err)
	}
	return data, nil
}

// Decode parses the wire form of an event
func Decode(data []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("failed to decode event: %w", err)
	}
	return &e, nil
}

// Nop publishes nothing
type Nop struct{}

func (Nop) Publish(context.Context, *Event) error { return nil }
