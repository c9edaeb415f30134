package booking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"lessonhub/internal/domain/chat"
	"lessonhub/internal/domain/refund"
	"lessonhub/internal/pkg/validator"

	"go.uber.org/zap"
)

// Outcome is the result of one booking command.
type Outcome struct {
	Booking  LessonBookingRequest   `json:"booking"`
	Bookings []LessonBookingRequest `json:"bookings"`
	Event    *Event                 `json:"event,omitempty"`
	Refund   *refund.CreateResult   `json:"refund,omitempty"`
	// Warnings lists side effects that failed after the transition was
	// stored. The transition itself stands.
	Warnings []string `json:"warnings,omitempty"`
}

// Service applies booking commands: it stores the transition, records its
// event and then runs the side effects that belong to the action.
type Service struct {
	store   *Store
	events  *EventLog
	chat    ChatSender
	refunds RefundCreator
	policy  ReschedulePolicy
	logger  *zap.Logger
	now     func() time.Time
}

func NewService(
	store *Store,
	events *EventLog,
	chat ChatSender,
	refunds RefundCreator,
	policy ReschedulePolicy,
	logger *zap.Logger,
) *Service {
	if policy == nil {
		policy = OffsetPolicy{Offset: day}
	}
	return &Service{
		store:   store,
		events:  events,
		chat:    chat,
		refunds: refunds,
		policy:  policy,
		logger:  logger,
		now:     time.Now,
	}
}

func (s *Service) List(ctx context.Context) ([]LessonBookingRequest, error) {
	return s.store.List(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (*LessonBookingRequest, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) Events(ctx context.Context, bookingID string) ([]Event, error) {
	if _, err := s.store.Get(ctx, bookingID); err != nil {
		return nil, err
	}
	return s.events.ForBooking(ctx, bookingID)
}

// RequestLesson submits a student's request.
func (s *Service) RequestLesson(ctx context.Context, req Request) (*Outcome, error) {
	return s.Apply(ctx, ActorStudent, "", req)
}

// Apply runs cmd on booking id as actor. Request commands address the
// booking by their slot tuple and ignore id.
func (s *Service) Apply(ctx context.Context, actor Actor, id string, cmd Command) (*Outcome, error) {
	if req, ok := cmd.(Request); ok {
		key := identityKey{TeacherID: req.TeacherID, CourseID: req.CourseID, Slot: strings.TrimSpace(req.Slot)}
		if fields := validator.Validate(key); fields != nil {
			return nil, validationError(fields)
		}
		req.Slot = key.Slot
		cmd = req
		id = BookingID(key.TeacherID, key.CourseID, key.Slot)
	}

	current, err := s.store.Get(ctx, id)
	if err != nil && !IsNotFound(err) {
		return nil, err
	}
	if IsNotFound(err) {
		current = nil
	}
	if req, ok := cmd.(Request); ok && (current == nil || current.Status.Terminal()) {
		if err := s.ensureSlotFree(ctx, id, req); err != nil {
			return nil, err
		}
	}

	if p, ok := cmd.(ProposeReschedule); ok && current != nil && strings.TrimSpace(p.Slot) == "" {
		slot, start := s.policy.Propose(*current)
		p.Slot, p.StartAt = slot, &start
		cmd = p
	}

	now := s.now().UTC()
	d, err := Decide(current, actor, cmd, now)
	if err != nil {
		return nil, err
	}

	out := &Outcome{}
	if d.Noop {
		out.Booking = *current
		if out.Bookings, err = s.store.List(ctx); err != nil {
			return nil, err
		}
		if d.RefundDue {
			s.ensureRefund(ctx, out, *current, cmd)
		}
		return out, nil
	}

	d.Patch.ID = id
	bookings, err := s.store.Upsert(ctx, d.Patch)
	if err != nil {
		return nil, err
	}
	b := find(bookings, id)
	if b == nil {
		return nil, fmt.Errorf("booking %s missing after upsert", id)
	}
	out.Booking, out.Bookings = *b, bookings

	event, err := s.events.Append(ctx, Event{
		BookingID:   id,
		Actor:       actor,
		Action:      d.Action,
		Title:       d.Title,
		Description: d.Description,
		CreatedAt:   now,
	})
	if err != nil {
		s.logger.Error("booking event not recorded",
			zap.String("booking_id", id),
			zap.String("action", d.Action),
			zap.Error(err),
		)
		return nil, fmt.Errorf("record booking event: %w", err)
	}
	out.Event = &event

	s.logger.Info("booking transition",
		zap.String("booking_id", id),
		zap.String("actor", string(actor)),
		zap.String("from", string(d.From)),
		zap.String("to", string(d.To)),
		zap.String("action", d.Action),
	)

	s.notifyCounterpart(ctx, out, actor, cmd, d)
	if d.RefundDue {
		s.ensureRefund(ctx, out, out.Booking, cmd)
	}
	return out, nil
}

// ensureSlotFree rejects a request for a time that another active booking of
// the same teacher and course already holds.
func (s *Service) ensureSlotFree(ctx context.Context, id string, req Request) error {
	bookings, err := s.store.List(ctx)
	if err != nil {
		return err
	}
	for _, b := range bookings {
		if b.ID == id {
			continue
		}
		if b.TeacherID == req.TeacherID && b.CourseID == req.CourseID &&
			!b.Status.Terminal() && b.CurrentSlot() == req.Slot {
			return fmt.Errorf("%w: %s is held by booking %s", ErrSlotTaken, req.Slot, b.ID)
		}
	}
	return nil
}

// notifyCounterpart messages the other party about teacher decisions and
// cancellations. Failures become warnings.
func (s *Service) notifyCounterpart(ctx context.Context, out *Outcome, actor Actor, cmd Command, d Decision) {
	text := messageFor(out.Booking, cmd)
	if text == "" || s.chat == nil {
		return
	}

	b := out.Booking
	if b.StudentID == "" {
		s.warn(out, "chat message skipped: booking has no student", zap.String("booking_id", b.ID))
		return
	}

	sender := chat.SenderTeacher
	if actor == ActorStudent {
		sender = chat.SenderStudent
	}
	_, err := s.chat.Send(ctx, chat.SendInput{
		Pair:   chat.Pair{TeacherID: b.TeacherID, StudentID: b.StudentID},
		Sender: sender,
		Text:   text,
		Metadata: chat.Metadata{
			TeacherName: b.TeacherName,
			StudentName: b.StudentName,
			Subject:     b.Subject,
		},
	})
	if err != nil {
		s.warn(out, "chat message not delivered",
			zap.String("booking_id", b.ID),
			zap.String("action", d.Action),
			zap.Error(err),
		)
	}
}

func (s *Service) ensureRefund(ctx context.Context, out *Outcome, b LessonBookingRequest, cmd Command) {
	if s.refunds == nil {
		return
	}
	reason := "Paid lesson cancelled"
	if c, ok := cmd.(Cancel); ok && strings.TrimSpace(c.Reason) != "" {
		reason = strings.TrimSpace(c.Reason)
	}

	var amount int64
	if b.AmountRubles != nil {
		amount = *b.AmountRubles
	}
	res, err := s.refunds.Create(ctx, refund.CreatePayload{
		BookingID:    b.ID,
		Invoice:      InvoiceNumber(b.ID),
		StudentName:  b.StudentName,
		AmountRubles: amount,
		Reason:       reason,
	})
	if err != nil {
		s.warn(out, "refund ticket not created", zap.String("booking_id", b.ID), zap.Error(err))
		return
	}
	out.Refund = res
}

func (s *Service) warn(out *Outcome, msg string, fields ...zap.Field) {
	s.logger.Warn(msg, fields...)
	out.Warnings = append(out.Warnings, msg)
}

// InvoiceNumber is the payment reference shown for a booking.
func InvoiceNumber(bookingID string) string {
	id := strings.ReplaceAll(bookingID, "-", "")
	if len(id) > 8 {
		id = id[:8]
	}
	return "INV-" + strings.ToUpper(id)
}

func messageFor(b LessonBookingRequest, cmd Command) string {
	switch c := cmd.(type) {
	case Approve:
		text := fmt.Sprintf("Your lesson on %s is confirmed. Please complete the payment to keep the slot.", b.CurrentSlot())
		return appendNote(text, c.Message)
	case ProposeReschedule:
		text := fmt.Sprintf("I can't make %s. How about %s?", b.CurrentSlot(), b.ProposedSlot)
		return appendNote(text, c.Message)
	case Decline:
		return withReason(fmt.Sprintf("Sorry, I can't take the lesson on %s.", b.CurrentSlot()), c.Reason)
	case Cancel:
		return withReason(fmt.Sprintf("The lesson on %s is cancelled.", b.CurrentSlot()), c.Reason)
	case RejectProposal:
		return withReason(fmt.Sprintf("The new time doesn't work for me, so I'm cancelling the lesson on %s.", b.CurrentSlot()), c.Reason)
	}
	return ""
}

func appendNote(text, note string) string {
	note = strings.TrimSpace(note)
	if note == "" {
		return text
	}
	return text + "\n" + note
}
