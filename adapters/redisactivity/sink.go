package redisactivity

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/bytebard/go-auth"
	goerrors "github.com/goliatone/go-errors"
	"github.com/redis/go-redis/v9"
)

// DefaultChannel is the pub/sub channel events are published on
const DefaultChannel = "auth.activity"

// Publisher is the subset of redis.UniversalClient used by the sink.
type Publisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// Sink publishes activity events as JSON records on a Redis channel.
type Sink struct {
	client  Publisher
	channel string
	now     func() time.Time
	logger  auth.Logger
}

var _ auth.ActivitySink = (*Sink)(nil)

type Option func(*Sink)

func WithChannel(channel string) Option {
	return func(s *Sink) {
		if channel = strings.TrimSpace(channel); channel != "" {
			s.channel = channel
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Sink) {
		if now != nil {
			s.now = now
		}
	}
}

func WithLogger(logger auth.Logger) Option {
	return func(s *Sink) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSink creates a sink publishing through client
func NewSink(client Publisher, opts ...Option) *Sink {
	s := &Sink{
		client:  client,
		channel: DefaultChannel,
		now:     time.Now,
		logger:  nopLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// NewClient parses a redis:// URL into a client.
func NewClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid redis url").
			WithCode(goerrors.CodeBadRequest)
	}
	return redis.NewClient(opts), nil
}

// Record implements auth.ActivitySink.
func (s *Sink) Record(ctx context.Context, event auth.ActivityEvent) error {
	payload, err := json.Marshal(NewRecord(event, s.now))
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to encode activity record")
	}

	receivers, err := s.client.Publish(ctx, s.channel, payload).Result()
	if err != nil {
		s.logger.Warn("activity publish to %s failed: %v", s.channel, err)
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to publish activity record").
			WithMetadata(map[string]any{
				"channel": s.channel,
				"event":   string(event.EventType),
			})
	}

	s.logger.Debug("activity %s published to %s (%d receivers)", event.EventType, s.channel, receivers)
	return nil
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
