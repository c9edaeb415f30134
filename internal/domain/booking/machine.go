package booking

import (
	"fmt"
	"strings"
	"time"

	"lessonhub/internal/pkg/validator"
)

// Command is one action on a booking. Each concrete command is validated
// against the current status and the acting party before it is applied.
type Command interface {
	Name() string
	allowed(actor Actor) bool
}

// Request creates a booking, or re-submits one for the same slot tuple.
type Request struct {
	TeacherID       string
	TeacherName     string
	StudentID       string
	StudentName     string
	CourseID        string
	Subject         string
	Slot            string
	StartAt         *time.Time
	DurationMinutes int
	AmountRubles    *int64
	Message         string
	Source          string
}

type Approve struct {
	Message string
}

// ProposeReschedule offers a new slot. An empty Slot is filled in by the
// service's reschedule policy.
type ProposeReschedule struct {
	Slot    string
	StartAt *time.Time
	Message string
}

type Decline struct {
	Reason string
}

type AcceptProposal struct{}

type RejectProposal struct {
	Reason string
}

type ConfirmPayment struct {
	PaidAt time.Time
}

type Cancel struct {
	Reason string
}

func (Request) Name() string           { return "request" }
func (Approve) Name() string           { return "approve" }
func (ProposeReschedule) Name() string { return "propose_reschedule" }
func (Decline) Name() string           { return "decline" }
func (AcceptProposal) Name() string    { return "accept_proposal" }
func (RejectProposal) Name() string    { return "reject_proposal" }
func (ConfirmPayment) Name() string    { return "confirm_payment" }
func (Cancel) Name() string            { return "cancel" }

func (Request) allowed(a Actor) bool           { return a == ActorStudent }
func (Approve) allowed(a Actor) bool           { return a == ActorTeacher }
func (ProposeReschedule) allowed(a Actor) bool { return a == ActorTeacher }
func (Decline) allowed(a Actor) bool           { return a == ActorTeacher }
func (AcceptProposal) allowed(a Actor) bool    { return a == ActorStudent }
func (RejectProposal) allowed(a Actor) bool    { return a == ActorStudent }
func (ConfirmPayment) allowed(a Actor) bool    { return a == ActorSystem }
func (Cancel) allowed(a Actor) bool            { return a == ActorStudent || a == ActorTeacher }

// Decision is the outcome of validating a command. A Noop decision writes
// nothing and records no event.
type Decision struct {
	From        Status
	To          Status
	Patch       Patch
	Action      string
	Title       string
	Description string
	Noop        bool
	// RefundDue is set when the booking was paid and is now cancelled.
	RefundDue bool
}

// Decide validates cmd by actor against current, which is nil when the
// booking does not exist yet.
func Decide(current *LessonBookingRequest, actor Actor, cmd Command, now time.Time) (Decision, error) {
	if !cmd.allowed(actor) {
		return Decision{}, fmt.Errorf("%w: %s cannot %s", ErrForbiddenActor, actor, cmd.Name())
	}

	if req, ok := cmd.(Request); ok {
		return decideRequest(current, req)
	}
	if current == nil {
		return Decision{}, ErrNotFound
	}

	d := Decision{From: current.Status, To: current.Status, Patch: Patch{ID: current.ID}}
	switch c := cmd.(type) {
	case Approve:
		switch current.Status {
		case StatusAwaitingPayment:
			d.Noop = true
			return d, nil
		case StatusPending:
		default:
			return Decision{}, transitionError(current.Status, cmd)
		}
		d.To = StatusAwaitingPayment
		d.Patch.TeacherMessage = optional(c.Message)
		d.Action = "teacher_approved"
		d.Title = "Teacher confirmed the slot"
		d.Description = fmt.Sprintf("%s confirmed %s. Waiting for payment.", current.TeacherName, current.CurrentSlot())

	case ProposeReschedule:
		if current.Status != StatusPending {
			return Decision{}, transitionError(current.Status, cmd)
		}
		slot := strings.TrimSpace(c.Slot)
		if slot == "" {
			return Decision{}, fmt.Errorf("%w: proposed slot is required", ErrValidation)
		}
		start := c.StartAt
		if start == nil {
			t, err := ParseSlot(slot, current.StartAt.Location())
			if err != nil {
				return Decision{}, validationError(validator.FieldErrors{"Slot": "slot"})
			}
			start = &t
		}
		d.To = StatusRescheduleProposed
		d.Patch.ProposedSlot = &slot
		d.Patch.ProposedStartAt = start
		d.Patch.TeacherMessage = optional(c.Message)
		d.Action = "teacher_proposed_reschedule"
		d.Title = "Teacher proposed a new time"
		d.Description = fmt.Sprintf("%s suggested %s instead of %s.", current.TeacherName, slot, current.CurrentSlot())

	case Decline:
		switch current.Status {
		case StatusDeclined:
			d.Noop = true
			return d, nil
		case StatusPending:
		default:
			return Decision{}, transitionError(current.Status, cmd)
		}
		d.To = StatusDeclined
		d.Patch.TeacherMessage = optional(c.Reason)
		d.Action = "teacher_declined"
		d.Title = "Request declined"
		d.Description = withReason(fmt.Sprintf("%s declined %s.", current.TeacherName, current.CurrentSlot()), c.Reason)

	case AcceptProposal:
		if current.Status != StatusRescheduleProposed || current.ProposedSlot == "" {
			return Decision{}, transitionError(current.Status, cmd)
		}
		slot := current.ProposedSlot
		start := current.ProposedStartAt
		if start == nil {
			t, err := ParseSlot(slot, current.StartAt.Location())
			if err != nil {
				return Decision{}, fmt.Errorf("%w: %w", ErrValidation, err)
			}
			start = &t
		}
		d.To = StatusAwaitingPayment
		d.Patch.ScheduledSlot = &slot
		d.Patch.StartAt = start
		d.Action = "student_accepted_reschedule"
		d.Title = "New time accepted"
		d.Description = fmt.Sprintf("%s accepted %s. Waiting for payment.", studentLabel(current), slot)

	case RejectProposal:
		if current.Status != StatusRescheduleProposed {
			return Decision{}, transitionError(current.Status, cmd)
		}
		d.To = StatusCancelled
		d.Patch.StudentMessage = optional(c.Reason)
		d.Action = "student_rejected_reschedule"
		d.Title = "New time rejected"
		d.Description = withReason(fmt.Sprintf("%s rejected %s.", studentLabel(current), current.ProposedSlot), c.Reason)

	case ConfirmPayment:
		switch current.Status {
		case StatusPaid:
			d.Noop = true
			return d, nil
		case StatusAwaitingPayment:
		default:
			return Decision{}, transitionError(current.Status, cmd)
		}
		paidAt := c.PaidAt
		if paidAt.IsZero() {
			paidAt = now
		}
		paidAt = paidAt.UTC()
		d.To = StatusPaid
		d.Patch.PaidAt = &paidAt
		d.Action = "payment_confirmed"
		d.Title = "Payment received"
		d.Description = strings.TrimSpace(fmt.Sprintf("Lesson %s is paid. %s", current.CurrentSlot(), formatAmount(current.AmountRubles)))

	case Cancel:
		switch {
		case current.Status == StatusCancelled:
			d.Noop = true
			d.RefundDue = current.PaidAt != nil
			return d, nil
		case current.Status.Terminal():
			return Decision{}, transitionError(current.Status, cmd)
		}
		d.To = StatusCancelled
		d.RefundDue = current.Status == StatusPaid
		if actor == ActorTeacher {
			d.Patch.TeacherMessage = optional(c.Reason)
		} else {
			d.Patch.StudentMessage = optional(c.Reason)
		}
		d.Action = string(actor) + "_cancelled"
		d.Title = "Lesson cancelled"
		by := current.TeacherName
		if actor == ActorStudent {
			by = studentLabel(current)
		}
		d.Description = withReason(fmt.Sprintf("%s cancelled %s.", by, current.CurrentSlot()), c.Reason)

	default:
		return Decision{}, fmt.Errorf("%w: unknown command %s", ErrValidation, cmd.Name())
	}

	d.Patch.Status = &d.To
	return d, nil
}

// decideRequest handles a student request for a slot tuple. On an active
// booking it only refreshes the student's note; the record keeps its owner,
// slot and terms.
func decideRequest(current *LessonBookingRequest, req Request) (Decision, error) {
	if current != nil && !current.Status.Terminal() {
		if current.StudentID != "" && req.StudentID != "" && current.StudentID != req.StudentID {
			return Decision{}, fmt.Errorf("%w: slot %s is already requested by another student", ErrForbiddenActor, current.Slot)
		}
		return Decision{
			From:        current.Status,
			To:          current.Status,
			Patch:       Patch{ID: current.ID, StudentMessage: optional(req.Message)},
			Action:      "student_request_updated",
			Title:       "Request updated",
			Description: fmt.Sprintf("%s updated the request for %s.", studentLabel(current), current.CurrentSlot()),
		}, nil
	}

	p := Patch{
		TeacherID:      req.TeacherID,
		CourseID:       req.CourseID,
		Slot:           req.Slot,
		TeacherName:    optional(req.TeacherName),
		StudentID:      optional(req.StudentID),
		StudentName:    optional(req.StudentName),
		Subject:        optional(req.Subject),
		StudentMessage: optional(req.Message),
		StartAt:        req.StartAt,
		AmountRubles:   req.AmountRubles,
		Source:         optional(req.Source),
	}
	if req.DurationMinutes > 0 {
		duration := req.DurationMinutes
		p.DurationMinutes = &duration
	}

	to := StatusPending
	p.Status = &to
	d := Decision{
		To:          to,
		Patch:       p,
		Action:      "student_requested",
		Title:       "Lesson requested",
		Description: fmt.Sprintf("Requested %s with %s.", req.Slot, req.TeacherName),
	}
	if current != nil {
		// A fresh request starts over on the identity slot.
		if d.Patch.StartAt == nil {
			t, err := ParseSlot(current.Slot, current.StartAt.Location())
			if err != nil {
				return Decision{}, validationError(validator.FieldErrors{"Slot": "slot"})
			}
			d.Patch.StartAt = &t
		}
		empty := ""
		d.From = current.Status
		d.Patch.ID = current.ID
		d.Patch.TeacherMessage = &empty
		d.Patch.ScheduledSlot = &empty
		d.Patch.ClearPaidAt = true
		d.Action = "student_resubmitted"
		d.Title = "Lesson requested again"
	}
	return d, nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func withReason(text, reason string) string {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return text
	}
	return text + " Reason: " + reason
}

func studentLabel(b *LessonBookingRequest) string {
	if b.StudentName != "" {
		return b.StudentName
	}
	return "Student"
}
