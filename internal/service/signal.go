package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/totegamma/biomap"
)

// SignalService fans events out over redis pub/sub. Without a redis client it
// falls back to an in-process hub, which only reaches subscribers of this node.
type SignalService struct {
	rdb *redis.Client

	mu    sync.RWMutex
	local map[string]map[chan []byte]struct{}
}

func NewSignalService(redisClient *redis.Client) *SignalService {
	return &SignalService{
		rdb:   redisClient,
		local: make(map[string]map[chan []byte]struct{}),
	}
}

func (s *SignalService) Publish(ctx context.Context, channel string, event biomap.Event) error {
	ctx, span := tracer.Start(ctx, "Signal.Service.Publish")
	defer span.End()

	jsonstr, err := json.Marshal(event)
	if err != nil {
		span.RecordError(err)
		return err
	}

	if s.rdb == nil {
		s.publishLocal(channel, jsonstr)
		return nil
	}

	err = s.rdb.Publish(ctx, channel, jsonstr).Err()
	if err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "redis publish failed")
	}

	return nil
}

// Realtime delivers events published on channels to output until ctx is done.
// output is never closed by Realtime.
func (s *SignalService) Realtime(ctx context.Context, channels []string, output chan<- biomap.Event) error {
	if len(channels) == 0 {
		<-ctx.Done()
		return nil
	}

	if s.rdb == nil {
		return s.realtimeLocal(ctx, channels, output)
	}

	pubsub := s.rdb.Subscribe(ctx, channels...)
	defer pubsub.Close()

	_, err := pubsub.Receive(ctx)
	if err != nil {
		return errors.Wrap(err, "redis subscribe failed")
	}

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			if !deliver(ctx, []byte(msg.Payload), output) {
				return nil
			}
		}
	}
}

func (s *SignalService) realtimeLocal(ctx context.Context, channels []string, output chan<- biomap.Event) error {
	sub := make(chan []byte, 16)

	s.mu.Lock()
	for _, channel := range channels {
		if s.local[channel] == nil {
			s.local[channel] = make(map[chan []byte]struct{})
		}
		s.local[channel][sub] = struct{}{}
	}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		for _, channel := range channels {
			delete(s.local[channel], sub)
			if len(s.local[channel]) == 0 {
				delete(s.local, channel)
			}
		}
		s.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case payload := <-sub:
			if !deliver(ctx, payload, output) {
				return nil
			}
		}
	}
}

func (s *SignalService) publishLocal(channel string, payload []byte) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for sub := range s.local[channel] {
		select {
		case sub <- payload:
		default:
			slog.Warn(
				"dropping event for slow subscriber",
				slog.String("channel", channel),
				slog.String("module", "signal"),
			)
		}
	}
}

// LocalSubscribers counts in-process subscribers of channel.
func (s *SignalService) LocalSubscribers(channel string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.local[channel])
}

func deliver(ctx context.Context, payload []byte, output chan<- biomap.Event) bool {
	var event biomap.Event
	err := json.Unmarshal(payload, &event)
	if err != nil {
		slog.ErrorContext(
			ctx, "failed to decode event",
			slog.String("error", err.Error()),
			slog.String("module", "signal"),
		)
		return true
	}

	select {
	case output <- event:
		return true
	case <-ctx.Done():
		return false
	}
}
