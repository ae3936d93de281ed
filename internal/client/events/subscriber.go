package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/iudanet/hoteldesk/internal/client/notify"
	pkgapi "github.com/iudanet/hoteldesk/pkg/api"
)

// StreamOpener открывает авторизованный SSE поток
type StreamOpener interface {
	OpenStream(ctx context.Context) (io.ReadCloser, error)
}

// Subscriber доставляет события комнат из потока dashboard
type Subscriber struct {
	opener    StreamOpener
	publisher notify.Publisher
	logger    *slog.Logger
	buffer    int
}

// NewSubscriber создает подписчика. publisher может быть nil.
func NewSubscriber(opener StreamOpener, publisher notify.Publisher, logger *slog.Logger) *Subscriber {
	if logger == nil {
		logger = slog.Default()
	}
	return &Subscriber{
		opener:    opener,
		publisher: publisher,
		logger:    logger,
		buffer:    16,
	}
}

// Subscription активная подписка на поток
type Subscription struct {
	err    error
	events chan pkgapi.RoomEvent
	done   chan struct{}
	ID     string
	mu     sync.Mutex
}

// Events возвращает канал событий. Канал закрывается при отмене контекста
// или окончании потока.
func (s *Subscription) Events() <-chan pkgapi.RoomEvent {
	return s.events
}

// Done закрывается вместе с каналом событий
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Err возвращает причину завершения: nil при штатном конце потока
// или отмене контекста
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Subscribe открывает поток. Ошибки открытия (сеть, истекшая сессия)
// возвращаются сразу.
func (s *Subscriber) Subscribe(ctx context.Context) (*Subscription, error) {
	body, err := s.opener.OpenStream(ctx)
	if err != nil {
		return nil, err
	}

	sub := &Subscription{
		ID:     uuid.NewString(),
		events: make(chan pkgapi.RoomEvent, s.buffer),
		done:   make(chan struct{}),
	}

	// Закрытие тела прерывает блокирующее чтение
	stop := context.AfterFunc(ctx, func() {
		_ = body.Close()
	})

	go func() {
		defer close(sub.done)
		defer close(sub.events)
		defer stop()
		defer func() {
			_ = body.Close()
		}()

		err := s.pump(ctx, sub, NewReader(body))
		if err != nil && ctx.Err() == nil {
			sub.mu.Lock()
			sub.err = err
			sub.mu.Unlock()
			s.logger.WarnContext(ctx, "Dashboard stream failed", "subscription", sub.ID, "error", err)
			return
		}
		s.logger.DebugContext(ctx, "Dashboard stream closed", "subscription", sub.ID)
	}()

	s.logger.InfoContext(ctx, "Subscribed to dashboard stream", "subscription", sub.ID)
	return sub, nil
}

func (s *Subscriber) pump(ctx context.Context, sub *Subscription, reader *Reader) error {
	for {
		frame, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read dashboard stream: %w", err)
		}

		var ev pkgapi.RoomEvent
		if err := json.Unmarshal([]byte(frame.Data), &ev); err != nil {
			s.logger.WarnContext(ctx, "Skipping malformed dashboard event", "event", frame.Event, "error", err)
			continue
		}
		if ev.Type == "" {
			ev.Type = frame.Event
		}

		select {
		case sub.events <- ev:
		case <-ctx.Done():
			return nil
		}

		if s.publisher != nil {
			s.publisher.Publish(ctx, notify.Event{
				Kind:    notify.KindRoomEvent,
				Message: fmt.Sprintf("room %s: %s", ev.RoomNumber, ev.State),
				Data: map[string]string{
					"room":  ev.RoomNumber,
					"state": ev.State,
					"type":  ev.Type,
				},
			})
		}
	}
}
