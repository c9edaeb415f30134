package chat

import (
	"sort"
	"time"

	"lessonhub/internal/pkg/identity"
)

// MetadataRule decides which copy supplies display fields when two copies
// of a thread are merged. Messages and counters never depend on it.
type MetadataRule int

const (
	// ByAuthor takes teacher fields from the first copy and student fields
	// from the second. Used when importing per-role legacy lists, where the
	// first list was written by teachers and the second by students.
	ByAuthor MetadataRule = iota
	// ByRecency takes every field from the copy updated last, when set
	// there. Ties go to the first copy.
	ByRecency
)

// MergeThread combines two copies of the same thread. Messages are unioned
// by id and ordered by SentAt, so no message is lost or duplicated.
func MergeThread(a, b Thread, rule MetadataRule) Thread {
	a, b = Normalize(a), Normalize(b)

	out := Thread{ID: a.ID, TeacherID: a.TeacherID, StudentID: a.StudentID}
	if out.ID == "" {
		out.ID = b.ID
	}
	if out.TeacherID == "" {
		out.TeacherID = b.TeacherID
	}
	if out.StudentID == "" {
		out.StudentID = b.StudentID
	}

	newer, older := a, b
	if b.UpdatedAt.After(a.UpdatedAt) {
		newer, older = b, a
	}

	teacherSrc, teacherAlt := a, b
	studentSrc, studentAlt := b, a
	if rule == ByRecency {
		teacherSrc, teacherAlt = newer, older
		studentSrc, studentAlt = newer, older
	}
	out.TeacherName = pick(teacherSrc.TeacherName, teacherAlt.TeacherName)
	out.TeacherAvatarURL = pick(teacherSrc.TeacherAvatarURL, teacherAlt.TeacherAvatarURL)
	out.StudentName = pick(studentSrc.StudentName, studentAlt.StudentName)
	out.StudentAvatarURL = pick(studentSrc.StudentAvatarURL, studentAlt.StudentAvatarURL)
	out.Subject = pick(newer.Subject, older.Subject)
	out.CourseTitle = pick(newer.CourseTitle, older.CourseTitle)

	out.Messages = unionMessages(a.Messages, b.Messages)
	out.UpdatedAt = newer.UpdatedAt
	out.LastMessage = pick(newer.LastMessage, older.LastMessage)
	if n := len(out.Messages); n > 0 {
		last := out.Messages[n-1]
		out.LastMessage = last.Text
		if last.SentAt.After(out.UpdatedAt) {
			out.UpdatedAt = last.SentAt
		}
	}

	for _, viewer := range []Sender{SenderStudent, SenderTeacher} {
		out.setUnread(viewer, mergedUnread(a, b, viewer))
	}
	return out
}

// mergedUnread counts the union of the messages each copy considers unread
// by viewer. Disjoint copies add up; copies holding the same unread
// messages count them once. Counters larger than the messages a copy holds
// (imported data) contribute their excess.
func mergedUnread(a, b Thread, viewer Sender) int {
	idsA, overA := unreadTail(a, viewer)
	idsB, overB := unreadTail(b, viewer)

	seen := make(map[string]struct{}, len(idsA)+len(idsB))
	for _, id := range idsA {
		seen[id] = struct{}{}
	}
	for _, id := range idsB {
		seen[id] = struct{}{}
	}
	return len(seen) + max(overA, overB)
}

// unreadTail returns the ids of the last Unread(viewer) messages written by
// the counterpart, and how many the counter exceeds them by.
func unreadTail(t Thread, viewer Sender) ([]string, int) {
	want := t.Unread(viewer)
	from := viewer.Counterpart()
	ids := make([]string, 0, want)
	for i := len(t.Messages) - 1; i >= 0 && len(ids) < want; i-- {
		if t.Messages[i].Sender == from {
			ids = append(ids, t.Messages[i].ID)
		}
	}
	return ids, want - len(ids)
}

// MergeLists merges two thread lists by thread id. The result is ordered by
// UpdatedAt descending, then id.
func MergeLists(a, b []Thread, rule MetadataRule) []Thread {
	left, right := collapse(a), collapse(b)

	rightByID := make(map[string]int, len(right))
	for i, t := range right {
		rightByID[t.ID] = i
	}

	out := make([]Thread, 0, len(left)+len(right))
	used := make(map[int]bool, len(right))
	for _, t := range left {
		if i, ok := rightByID[t.ID]; ok {
			out = append(out, MergeThread(t, right[i], rule))
			used[i] = true
			continue
		}
		out = append(out, t)
	}
	for i, t := range right {
		if !used[i] {
			out = append(out, t)
		}
	}
	sortThreads(out)
	return out
}

// collapse normalizes a list and folds repeated thread ids into one entry.
func collapse(list []Thread) []Thread {
	out := make([]Thread, 0, len(list))
	index := make(map[string]int, len(list))
	for _, t := range list {
		t = Normalize(t)
		if i, ok := index[t.ID]; ok {
			out[i] = MergeThread(out[i], t, ByRecency)
			continue
		}
		index[t.ID] = len(out)
		out = append(out, t)
	}
	return out
}

// Normalize fills the derived thread id, gives id-less messages a stable id
// and orders messages by SentAt.
func Normalize(t Thread) Thread {
	if t.ID == "" && t.TeacherID != "" && t.StudentID != "" {
		t.ID = ThreadID(t.TeacherID, t.StudentID)
	}

	msgs := make([]Message, len(t.Messages))
	copy(msgs, t.Messages)
	for i := range msgs {
		if msgs[i].ID == "" {
			msgs[i].ID = MessageID(t.ID, msgs[i])
		}
	}
	t.Messages = unionMessages(msgs, nil)

	if t.UnreadForStudent < 0 {
		t.UnreadForStudent = 0
	}
	if t.UnreadForTeacher < 0 {
		t.UnreadForTeacher = 0
	}
	return t
}

// MessageID derives an id for a message that was stored without one. Both
// per-role copies of the same legacy message get the same id.
func MessageID(threadID string, m Message) string {
	return identity.Derive("message", threadID, string(m.Sender), m.SentAt.UTC().Format(time.RFC3339Nano), m.Text)
}

func unionMessages(a, b []Message) []Message {
	out := make([]Message, 0, len(a)+len(b))
	seen := make(map[string]struct{}, len(a)+len(b))
	for _, list := range [][]Message{a, b} {
		for _, m := range list {
			if _, ok := seen[m.ID]; ok {
				continue
			}
			seen[m.ID] = struct{}{}
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SentAt.Equal(out[j].SentAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].SentAt.Before(out[j].SentAt)
	})
	return out
}

func sortThreads(threads []Thread) {
	sort.SliceStable(threads, func(i, j int) bool {
		if threads[i].UpdatedAt.Equal(threads[j].UpdatedAt) {
			return threads[i].ID < threads[j].ID
		}
		return threads[i].UpdatedAt.After(threads[j].UpdatedAt)
	})
}

func pick(preferred, fallback string) string {
	if preferred != "" {
		return preferred
	}
	return fallback
}
