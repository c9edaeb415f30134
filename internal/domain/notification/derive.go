package notification

import (
	"sort"

	"lessonhub/internal/domain/booking"
	"lessonhub/internal/domain/chat"
	"lessonhub/internal/domain/refund"
	"lessonhub/internal/pkg/identity"
)

// Derive builds the feed of aud from snap. It is deterministic: the same
// inputs always produce the same ordered ids.
func Derive(aud Audience, snap Snapshot, seen map[string]bool) []Item {
	bookings := scopeBookings(aud, snap.Bookings)

	var items []Item
	for _, b := range bookings {
		if item, ok := bookingItem(aud.Role, b); ok {
			items = append(items, item)
		}
	}

	owned := make(map[string]struct{}, len(bookings))
	for _, b := range bookings {
		owned[b.ID] = struct{}{}
	}
	for _, t := range snap.Refunds {
		if _, ok := owned[t.BookingID]; !ok {
			continue
		}
		if item, ok := refundItem(t); ok {
			items = append(items, item)
		}
	}

	viewer := viewerOf(aud.Role)
	for _, t := range scopeThreads(aud, snap.Threads) {
		if t.Unread(viewer) == 0 {
			continue
		}
		items = append(items, messageItem(t, viewer))
	}

	items = dedupe(items)
	for i := range items {
		items[i].Read = seen[items[i].ID]
	}
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].ID < items[j].ID
	})
	return items
}

// scopeBookings keeps the bookings of the viewer, or every booking when
// none match, so seeded demo data still shows up.
func scopeBookings(aud Audience, all []booking.LessonBookingRequest) []booking.LessonBookingRequest {
	var own []booking.LessonBookingRequest
	for _, b := range all {
		id := b.StudentID
		if aud.Role == RoleTeacher {
			id = b.TeacherID
		}
		if id != "" && id == aud.ActorID {
			own = append(own, b)
		}
	}
	if len(own) == 0 {
		return all
	}
	return own
}

func scopeThreads(aud Audience, all []chat.Thread) []chat.Thread {
	var own []chat.Thread
	for _, t := range all {
		id := t.StudentID
		if aud.Role == RoleTeacher {
			id = t.TeacherID
		}
		if id == aud.ActorID {
			own = append(own, t)
		}
	}
	if len(own) == 0 {
		return all
	}
	return own
}

func bookingItem(role Role, b booking.LessonBookingRequest) (Item, bool) {
	tpl, ok := bookingTemplate(role, b.Status)
	if !ok {
		return Item{}, false
	}
	created := b.UpdatedAt
	if b.Status == booking.StatusPaid && b.PaidAt != nil {
		created = *b.PaidAt
	}
	return Item{
		ID:          identity.Derive("notification", "booking", b.ID, string(b.Status), b.CurrentSlot(), b.ProposedSlot),
		Kind:        tpl.kind,
		Title:       tpl.title,
		Description: tpl.description(b),
		CreatedAt:   created,
		Href:        tpl.href(b),
	}, true
}

func refundItem(t refund.Ticket) (Item, bool) {
	title, ok := refundTitles[t.Status]
	if !ok {
		return Item{}, false
	}
	created := t.UpdatedAt
	if created.IsZero() {
		created = t.CreatedAt
	}
	return Item{
		ID:          identity.Derive("notification", "refund", t.ID, string(t.Status)),
		Kind:        KindRefund,
		Title:       title,
		Description: refundDescription(t),
		CreatedAt:   created,
		Href:        paymentsScreen,
	}, true
}

func messageItem(t chat.Thread, viewer chat.Sender) Item {
	last := ""
	created := t.UpdatedAt
	if n := len(t.Messages); n > 0 {
		last = t.Messages[n-1].ID
		if t.Messages[n-1].SentAt.After(created) {
			created = t.Messages[n-1].SentAt
		}
	}
	return Item{
		ID:          identity.Derive("notification", "message", t.ID, string(viewer), last),
		Kind:        KindMessage,
		Title:       messageTitle(t, viewer),
		Description: t.LastMessage,
		CreatedAt:   created,
		Href:        messagesScreen(t),
	}
}

func viewerOf(role Role) chat.Sender {
	if role == RoleTeacher {
		return chat.SenderTeacher
	}
	return chat.SenderStudent
}

func dedupe(items []Item) []Item {
	seen := make(map[string]struct{}, len(items))
	out := items[:0]
	for _, it := range items {
		if _, ok := seen[it.ID]; ok {
			continue
		}
		seen[it.ID] = struct{}{}
		out = append(out, it)
	}
	return out
}

func unreadCount(items []Item) int {
	n := 0
	for _, it := range items {
		if !it.Read {
			n++
		}
	}
	return n
}
