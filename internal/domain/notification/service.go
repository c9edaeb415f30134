package notification

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"lessonhub/internal/domain/booking"
	"lessonhub/internal/domain/chat"
	"lessonhub/internal/domain/refund"
)

type BookingLister interface {
	List(ctx context.Context) ([]booking.LessonBookingRequest, error)
}

type RefundLister interface {
	List(ctx context.Context) ([]refund.Ticket, error)
}

type ThreadLister interface {
	List(ctx context.Context) ([]chat.Thread, error)
}

// Service reads the three source stores fresh on every call and derives
// the feed from them.
type Service struct {
	bookings BookingLister
	refunds  RefundLister
	threads  ThreadLister
	seen     *SeenStore
	logger   *zap.Logger
}

func NewService(bookings BookingLister, refunds RefundLister, threads ThreadLister, seen *SeenStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{bookings: bookings, refunds: refunds, threads: threads, seen: seen, logger: logger}
}

func (s *Service) ReadForRole(ctx context.Context, aud Audience) (*Feed, error) {
	items, err := s.derive(ctx, aud)
	if err != nil {
		return nil, err
	}
	return &Feed{Items: items, UnreadCount: unreadCount(items)}, nil
}

// MarkRead acknowledges one id. Unknown ids are stored as well, since an
// item may be marked before the viewer's next read derives it.
func (s *Service) MarkRead(ctx context.Context, aud Audience, id string) error {
	if !aud.Role.Valid() {
		return ErrInvalidAudience
	}
	return s.seen.Add(ctx, aud, id)
}

// MarkAllRead acknowledges ids, or the whole current feed when ids is empty.
func (s *Service) MarkAllRead(ctx context.Context, aud Audience, ids []string) (int, error) {
	if !aud.Role.Valid() {
		return 0, ErrInvalidAudience
	}
	if len(ids) == 0 {
		items, err := s.derive(ctx, aud)
		if err != nil {
			return 0, err
		}
		for _, it := range items {
			ids = append(ids, it.ID)
		}
	}
	if err := s.seen.Add(ctx, aud, ids...); err != nil {
		return 0, err
	}
	s.logger.Debug("notifications marked read",
		zap.String("role", string(aud.Role)),
		zap.String("actor_id", aud.ActorID),
		zap.Int("count", len(ids)),
	)
	return len(ids), nil
}

func (s *Service) derive(ctx context.Context, aud Audience) ([]Item, error) {
	if !aud.Role.Valid() {
		return nil, ErrInvalidAudience
	}
	bookings, err := s.bookings.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	refunds, err := s.refunds.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list refunds: %w", err)
	}
	threads, err := s.threads.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list threads: %w", err)
	}
	seen, err := s.seen.Load(ctx, aud)
	if err != nil {
		return nil, err
	}
	return Derive(aud, Snapshot{Bookings: bookings, Refunds: refunds, Threads: threads}, seen), nil
}
