// Package reservations связывает API броней, локальные флаги check-in
// и кэш последнего списка для офлайн режима.
package reservations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/iudanet/hoteldesk/internal/client/api"
	"github.com/iudanet/hoteldesk/internal/client/notify"
	"github.com/iudanet/hoteldesk/internal/client/storage"
	"github.com/iudanet/hoteldesk/internal/models"
	"github.com/iudanet/hoteldesk/internal/stays"
)

// DefaultCleaningWindow время после выезда, пока комната считается на уборке
const DefaultCleaningWindow = 2 * time.Hour

var (
	// ErrNotFound indicates that the server has no reservation with the given id
	ErrNotFound = errors.New("reservation not found")

	// ErrInvalidID indicates a non-positive reservation id
	ErrInvalidID = errors.New("invalid reservation id")
)

//go:generate moq -out service_mock.go . Service

// Service определяет операции над бронями
type Service interface {
	// List получает все брони. При недоступности сервера возвращает
	// последний сохраненный список с Stale == true.
	List(ctx context.Context) (*ListResult, error)

	// Get получает одну бронь
	Get(ctx context.Context, id int64) (*stays.StayView, error)

	// CheckIn регистрирует заезд и ставит локальный флаг до прихода свежих данных
	CheckIn(ctx context.Context, id int64) (*ActionResult, error)

	// CheckOut регистрирует выезд
	CheckOut(ctx context.Context, id int64) (*ActionResult, error)

	// Summary считает агрегаты по всем броням
	Summary(ctx context.Context) (*SummaryResult, error)

	// Rooms строит доску состояния комнат
	Rooms(ctx context.Context) (*RoomsResult, error)
}

// ListResult содержит результат List
type ListResult struct {
	FetchedAt time.Time
	Records   []models.Reservation
	Views     []stays.StayView
	Stale     bool // данные из локального кэша, сервер недоступен
}

// ActionResult содержит результат check-in/check-out
type ActionResult struct {
	Message string
	ID      int64
}

// SummaryResult содержит агрегаты и признак устаревших данных
type SummaryResult struct {
	FetchedAt time.Time
	stays.Summary
	Stale bool
}

// RoomsResult содержит доску комнат
type RoomsResult struct {
	FetchedAt time.Time
	Rooms     []stays.RoomStatus
	Stale     bool
}

type service struct {
	apiClient      api.ClientAPI
	snapshots      storage.SnapshotStore
	flags          storage.CheckInFlagStore
	publisher      notify.Publisher
	logger         *slog.Logger
	tracker        *stays.Tracker
	now            func() time.Time
	loadOnce       sync.Once
	cleaningWindow time.Duration
}

// NewService создает сервис броней.
// snapshots, flags и publisher могут быть nil: тогда кэш, сохранение флагов
// между запусками и уведомления отключены.
func NewService(apiClient api.ClientAPI, snapshots storage.SnapshotStore, flags storage.CheckInFlagStore, publisher notify.Publisher, logger *slog.Logger, cleaningWindow time.Duration) Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cleaningWindow <= 0 {
		cleaningWindow = DefaultCleaningWindow
	}
	return &service{
		apiClient:      apiClient,
		snapshots:      snapshots,
		flags:          flags,
		publisher:      publisher,
		logger:         logger,
		tracker:        stays.NewTracker(),
		now:            time.Now,
		cleaningWindow: cleaningWindow,
	}
}

// List получает брони с сервера, сверяет локальные флаги и обновляет кэш
func (s *service) List(ctx context.Context) (*ListResult, error) {
	s.loadFlags(ctx)

	records, err := s.apiClient.ListReservations(ctx)
	if err != nil {
		if errors.Is(err, api.ErrNetwork) {
			if cached, cacheErr := s.fromSnapshot(ctx); cacheErr == nil {
				s.logger.WarnContext(ctx, "Server unreachable, showing cached reservations",
					"fetched_at", cached.FetchedAt,
					"count", len(cached.Records))
				return cached, nil
			}
		}
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}

	if cleared := s.tracker.Reconcile(records); len(cleared) > 0 {
		s.logger.DebugContext(ctx, "Check-in flags confirmed by server", "ids", cleared)
		s.saveFlags(ctx)
	}

	fetchedAt := s.now()
	s.saveSnapshot(ctx, fetchedAt, records)

	return &ListResult{
		FetchedAt: fetchedAt,
		Records:   records,
		Views:     s.tracker.Apply(records),
	}, nil
}

// Get получает одну бронь и выводит ее состояние
func (s *service) Get(ctx context.Context, id int64) (*stays.StayView, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidID, id)
	}
	s.loadFlags(ctx)

	rec, err := s.apiClient.GetReservation(ctx, id)
	if err != nil {
		return nil, wrapNotFound(err, id)
	}

	if cleared := s.tracker.Reconcile([]models.Reservation{*rec}); len(cleared) > 0 {
		s.saveFlags(ctx)
	}

	view := stays.Derive(*rec, s.tracker.IsCheckedIn(rec.ID))
	return &view, nil
}

// CheckIn регистрирует заезд. Флаг ставится только после успешного ответа сервера.
func (s *service) CheckIn(ctx context.Context, id int64) (*ActionResult, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidID, id)
	}
	s.loadFlags(ctx)

	resp, err := s.apiClient.CheckIn(ctx, id)
	if err != nil {
		return nil, wrapNotFound(err, id)
	}

	s.tracker.MarkCheckedIn(id)
	s.saveFlags(ctx)

	msg := resp.Message
	if msg == "" {
		msg = fmt.Sprintf("Check-in registered for reservation %d", id)
	}
	s.logger.InfoContext(ctx, "Check-in registered", "reservation_id", id)
	s.publish(ctx, notify.KindCheckIn, id, msg)

	return &ActionResult{ID: id, Message: msg}, nil
}

// CheckOut регистрирует выезд
func (s *service) CheckOut(ctx context.Context, id int64) (*ActionResult, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidID, id)
	}

	resp, err := s.apiClient.CheckOut(ctx, id)
	if err != nil {
		return nil, wrapNotFound(err, id)
	}

	msg := resp.Message
	if msg == "" {
		msg = fmt.Sprintf("Check-out registered for reservation %d", id)
	}
	s.logger.InfoContext(ctx, "Check-out registered", "reservation_id", id)
	s.publish(ctx, notify.KindCheckOut, id, msg)

	return &ActionResult{ID: id, Message: msg}, nil
}

// Summary считает агрегаты по текущему списку
func (s *service) Summary(ctx context.Context) (*SummaryResult, error) {
	list, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return &SummaryResult{
		Summary:   stays.Summarize(list.Views),
		FetchedAt: list.FetchedAt,
		Stale:     list.Stale,
	}, nil
}

// Rooms строит доску комнат по текущему списку
func (s *service) Rooms(ctx context.Context) (*RoomsResult, error) {
	list, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return &RoomsResult{
		Rooms:     stays.RoomBoard(list.Records, s.tracker.IsCheckedIn, s.now(), s.cleaningWindow),
		FetchedAt: list.FetchedAt,
		Stale:     list.Stale,
	}, nil
}

// loadFlags восстанавливает флаги, сохраненные прошлым запуском
func (s *service) loadFlags(ctx context.Context) {
	s.loadOnce.Do(func() {
		if s.flags == nil {
			return
		}
		ids, err := s.flags.LoadCheckInFlags(ctx)
		if err != nil {
			s.logger.WarnContext(ctx, "Failed to load check-in flags", "error", err)
			return
		}
		for _, id := range ids {
			s.tracker.MarkCheckedIn(id)
		}
	})
}

func (s *service) saveFlags(ctx context.Context) {
	if s.flags == nil {
		return
	}
	if err := s.flags.SaveCheckInFlags(ctx, s.tracker.IDs()); err != nil {
		s.logger.WarnContext(ctx, "Failed to save check-in flags", "error", err)
	}
}

func (s *service) saveSnapshot(ctx context.Context, fetchedAt time.Time, records []models.Reservation) {
	if s.snapshots == nil {
		return
	}

	raw := make([][]byte, 0, len(records))
	for _, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			s.logger.WarnContext(ctx, "Failed to encode reservation for cache", "reservation_id", rec.ID, "error", err)
			return
		}
		raw = append(raw, data)
	}

	snap := &storage.ReservationSnapshot{FetchedAt: fetchedAt, Records: raw}
	if err := s.snapshots.SaveSnapshot(ctx, snap); err != nil {
		s.logger.WarnContext(ctx, "Failed to cache reservations", "error", err)
	}
}

func (s *service) fromSnapshot(ctx context.Context) (*ListResult, error) {
	if s.snapshots == nil {
		return nil, storage.ErrSnapshotNotFound
	}

	snap, err := s.snapshots.LoadSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]models.Reservation, 0, len(snap.Records))
	for _, raw := range snap.Records {
		var rec models.Reservation
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("failed to decode cached reservation: %w", err)
		}
		records = append(records, rec)
	}

	return &ListResult{
		FetchedAt: snap.FetchedAt,
		Records:   records,
		Views:     s.tracker.Apply(records),
		Stale:     true,
	}, nil
}

func (s *service) publish(ctx context.Context, kind string, id int64, msg string) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(ctx, notify.Event{
		Kind:    kind,
		Level:   notify.LevelSuccess,
		Message: msg,
		Data:    map[string]string{"reservation_id": strconv.FormatInt(id, 10)},
	})
}

func wrapNotFound(err error, id int64) error {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return err
}
