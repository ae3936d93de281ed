// Package notify доставляет пользовательские уведомления (истекшая сессия,
// успешный check-in, события дашборда) подписчикам терминального клиента.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Event kinds
const (
	KindSessionExpired = "session.expired"
	KindCheckIn        = "checkin.ok"
	KindCheckOut       = "checkout.ok"
	KindRoomEvent      = "stream.room"
)

// Level задает важность уведомления
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// RedirectLogin is the route the user is sent to after the session expires
const RedirectLogin = "/login"

// Event одно уведомление
type Event struct {
	At       time.Time
	Data     map[string]string
	Kind     string
	Level    Level
	Message  string
	Redirect string // куда перейти после показа, пусто если никуда
}

// Publisher публикует уведомления
//
//go:generate moq -out notify_mock.go . Publisher
type Publisher interface {
	Publish(ctx context.Context, ev Event)
}

// Bus fan-out шина в памяти. Медленный подписчик теряет события,
// публикация никогда не блокируется.
type Bus struct {
	logger *slog.Logger
	subs   map[int]chan Event
	mu     sync.RWMutex
	nextID int
	closed bool
}

var _ Publisher = (*Bus)(nil)

// NewBus создает пустую шину
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		logger: logger,
		subs:   make(map[int]chan Event),
	}
}

// Subscribe регистрирует подписчика с буфером size.
// Возвращает канал событий и функцию отписки, которая закрывает канал.
func (b *Bus) Subscribe(size int) (<-chan Event, func()) {
	if size <= 0 {
		size = 1
	}
	ch := make(chan Event, size)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		close(ch)
		return ch, func() {}
	}

	id := b.nextID
	b.nextID++
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if sub, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(sub)
			}
		})
	}
}

// Publish рассылает событие всем подписчикам
func (b *Bus) Publish(ctx context.Context, ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	if ev.Level == "" {
		ev.Level = LevelInfo
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	for id, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			b.logger.WarnContext(ctx, "Notification dropped, subscriber is slow",
				"kind", ev.Kind,
				"subscriber", id)
		}
	}
}

// Close закрывает все каналы подписчиков. Повторный вызов безопасен.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		close(ch)
		delete(b.subs, id)
	}
}
