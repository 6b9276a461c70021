// Package events publishes generation events to NATS JetStream so downstream
// pipelines can build and release fresh SDKs.
package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"
)

// StreamConfig defines configuration for a JetStream stream
type StreamConfig struct {
	Name        string
	Subjects    []string
	MaxMsgs     int64
	MaxAge      time.Duration
	Replicas    int
	Description string
}

// Client wraps NATS connection and JetStream context
type Client struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	url    string
	mu     sync.RWMutex
	closed bool
}

// NewClient connects to the NATS server at url
func NewClient(url string) (*Client, error) {
	c := &Client{url: url}
	if err := c.connect(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) connect() error {
	opts := []nats.Option{
		nats.Name("sdkgen"),
		nats.Timeout(5 * time.Second),
		nats.ReconnectWait(2 * time.Second),
		nats.MaxReconnects(5),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("disconnected from NATS")
			}
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(c.url, opts...)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return fmt.Errorf("failed to create JetStream context: %w", err)
	}

	c.nc = nc
	c.js = js

	log.Debug().Str("url", c.url).Msg("connected to NATS JetStream")
	return nil
}

// CreateStream creates or updates a JetStream stream
func (c *Client) CreateStream(ctx context.Context, cfg StreamConfig) (jetstream.Stream, error) {
	c.mu.RLock()
	js := c.js
	c.mu.RUnlock()

	if js == nil {
		return nil, fmt.Errorf("not connected to NATS")
	}

	streamCfg := jetstream.StreamConfig{
		Name:        cfg.Name,
		Subjects:    cfg.Subjects,
		MaxMsgs:     cfg.MaxMsgs,
		MaxAge:      cfg.MaxAge,
		Replicas:    cfg.Replicas,
		Description: cfg.Description,
		Storage:     jetstream.FileStorage,
		Retention:   jetstream.LimitsPolicy,
		Discard:     jetstream.DiscardOld,
	}

	if streamCfg.MaxMsgs == 0 {
		streamCfg.MaxMsgs = 10000
	}
	if streamCfg.MaxAge == 0 {
		streamCfg.MaxAge = 30 * 24 * time.Hour
	}
	if streamCfg.Replicas == 0 {
		streamCfg.Replicas = 1
	}

	stream, err := js.CreateOrUpdateStream(ctx, streamCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create stream %s: %w", cfg.Name, err)
	}

	log.Debug().Str("stream", cfg.Name).Strs("subjects", cfg.Subjects).Msg("stream ready")
	return stream, nil
}

// PublishRaw publishes data to a subject
func (c *Client) PublishRaw(ctx context.Context, subject string, data []byte) (*jetstream.PubAck, error) {
	c.mu.RLock()
	js := c.js
	c.mu.RUnlock()

	if js == nil {
		return nil, fmt.Errorf("not connected to NATS")
	}

	ack, err := js.Publish(ctx, subject, data)
	if err != nil {
		return nil, fmt.Errorf("failed to publish to %s: %w", subject, err)
	}

	return ack, nil
}

// JetStream returns the JetStream context
func (c *Client) JetStream() jetstream.JetStream {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.js
}

// IsConnected returns true if connected to NATS
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.nc == nil {
		return false
	}
	return c.nc.IsConnected()
}

// Close closes the NATS connection
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.closed = true
	if c.nc != nil {
		c.nc.Close()
	}
}
