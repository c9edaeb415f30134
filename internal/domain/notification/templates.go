package notification

import (
	"fmt"
	"strings"

	"lessonhub/internal/domain/booking"
	"lessonhub/internal/domain/chat"
	"lessonhub/internal/domain/refund"
)

type template struct {
	kind        Kind
	title       string
	description func(b booking.LessonBookingRequest) string
	href        func(b booking.LessonBookingRequest) string
}

func bookingDetail(b booking.LessonBookingRequest) string { return "/bookings/" + b.ID }
func paymentScreen(b booking.LessonBookingRequest) string { return "/payments/" + b.ID }
func requestsScreen(booking.LessonBookingRequest) string  { return "/classroom/requests" }
func scheduleScreen(booking.LessonBookingRequest) string  { return "/classroom/schedule" }

var studentTemplates = map[booking.Status]template{
	booking.StatusPending: {
		kind:  KindBooking,
		title: "Request sent",
		description: func(b booking.LessonBookingRequest) string {
			return fmt.Sprintf("You asked %s for %s.", teacherName(b), b.CurrentSlot())
		},
		href: bookingDetail,
	},
	booking.StatusRescheduleProposed: {
		kind:  KindBooking,
		title: "Teacher proposed a new time",
		description: func(b booking.LessonBookingRequest) string {
			return fmt.Sprintf("%s suggests %s instead of %s.", teacherName(b), b.ProposedSlot, b.CurrentSlot())
		},
		href: bookingDetail,
	},
	booking.StatusAwaitingPayment: {
		kind:  KindPayment,
		title: "Slot confirmed, payment needed",
		description: func(b booking.LessonBookingRequest) string {
			return strings.TrimSpace(fmt.Sprintf("%s confirmed %s. %s", teacherName(b), b.CurrentSlot(), amountDue(b)))
		},
		href: paymentScreen,
	},
	booking.StatusPaid: {
		kind:  KindPayment,
		title: "Payment successful",
		description: func(b booking.LessonBookingRequest) string {
			return fmt.Sprintf("Your lesson on %s is paid.", b.CurrentSlot())
		},
		href: bookingDetail,
	},
	booking.StatusDeclined: {
		kind:  KindBooking,
		title: "Request declined",
		description: func(b booking.LessonBookingRequest) string {
			return withNote(fmt.Sprintf("%s can't take %s.", teacherName(b), b.CurrentSlot()), b.TeacherMessage)
		},
		href: bookingDetail,
	},
	booking.StatusCancelled: {
		kind:  KindBooking,
		title: "Lesson cancelled",
		description: func(b booking.LessonBookingRequest) string {
			return fmt.Sprintf("The lesson on %s with %s was cancelled.", b.CurrentSlot(), teacherName(b))
		},
		href: bookingDetail,
	},
}

// Teachers are not notified about their own declines.
var teacherTemplates = map[booking.Status]template{
	booking.StatusPending: {
		kind:  KindBooking,
		title: "New lesson request",
		description: func(b booking.LessonBookingRequest) string {
			return withNote(fmt.Sprintf("%s wants %s.", studentName(b), b.CurrentSlot()), b.StudentMessage)
		},
		href: requestsScreen,
	},
	booking.StatusRescheduleProposed: {
		kind:  KindBooking,
		title: "Waiting for the student",
		description: func(b booking.LessonBookingRequest) string {
			return fmt.Sprintf("You proposed %s to %s.", b.ProposedSlot, studentName(b))
		},
		href: requestsScreen,
	},
	booking.StatusAwaitingPayment: {
		kind:  KindPayment,
		title: "Waiting for payment",
		description: func(b booking.LessonBookingRequest) string {
			return fmt.Sprintf("%s has to pay for %s.", studentName(b), b.CurrentSlot())
		},
		href: requestsScreen,
	},
	booking.StatusPaid: {
		kind:  KindPayment,
		title: "Lesson paid",
		description: func(b booking.LessonBookingRequest) string {
			return fmt.Sprintf("%s paid for %s.", studentName(b), b.CurrentSlot())
		},
		href: scheduleScreen,
	},
	booking.StatusCancelled: {
		kind:  KindBooking,
		title: "Lesson cancelled",
		description: func(b booking.LessonBookingRequest) string {
			return fmt.Sprintf("The lesson on %s with %s was cancelled.", b.CurrentSlot(), studentName(b))
		},
		href: scheduleScreen,
	},
}

func bookingTemplate(role Role, status booking.Status) (template, bool) {
	if role == RoleTeacher {
		t, ok := teacherTemplates[status]
		return t, ok
	}
	t, ok := studentTemplates[status]
	return t, ok
}

var refundTitles = map[refund.Status]string{
	refund.StatusPending:  "Refund in progress",
	refund.StatusApproved: "Refund approved",
	refund.StatusDeclined: "Refund declined",
}

func refundDescription(t refund.Ticket) string {
	return fmt.Sprintf("%s: %d ₽ for invoice %s.", refundTitles[t.Status], t.AmountRubles, t.Invoice)
}

const paymentsScreen = "/payments"

func messageTitle(t chat.Thread, viewer chat.Sender) string {
	name := t.CounterpartName(viewer)
	if name == "" {
		if viewer == chat.SenderTeacher {
			name = "your student"
		} else {
			name = "your teacher"
		}
	}
	return "New message from " + name
}

func messagesScreen(t chat.Thread) string {
	return "/messages?thread=" + t.ID
}

func teacherName(b booking.LessonBookingRequest) string {
	if b.TeacherName != "" {
		return b.TeacherName
	}
	return "The teacher"
}

func studentName(b booking.LessonBookingRequest) string {
	if b.StudentName != "" {
		return b.StudentName
	}
	return "A student"
}

func amountDue(b booking.LessonBookingRequest) string {
	if b.AmountRubles == nil {
		return "Pay to keep the slot."
	}
	return fmt.Sprintf("Pay %d ₽ to keep the slot.", *b.AmountRubles)
}

func withNote(text, note string) string {
	note = strings.TrimSpace(note)
	if note == "" {
		return text
	}
	return text + " \"" + note + "\""
}
