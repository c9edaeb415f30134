package chat

import (
	"context"
	"fmt"
	"time"

	"lessonhub/internal/docstore"
)

// Documents holding the per-role thread lists written before threads were
// shared between teacher and student.
const (
	LegacyStudentDocument = "legacy_student_threads"
	LegacyTeacherDocument = "legacy_teacher_threads"
)

// LegacySource supplies threads to seed an empty store, split by the role
// that authored each list.
type LegacySource interface {
	Import(ctx context.Context) (teacherAuthored, studentAuthored []Thread, err error)
}

// LegacyThread is one conversation as its owner saw it.
type LegacyThread struct {
	OwnerID              string          `json:"owner_id"`
	OwnerName            string          `json:"owner_name"`
	OwnerAvatarURL       string          `json:"owner_avatar_url,omitempty"`
	CounterpartID        string          `json:"counterpart_id"`
	CounterpartName      string          `json:"counterpart_name"`
	CounterpartAvatarURL string          `json:"counterpart_avatar_url,omitempty"`
	Subject              string          `json:"subject,omitempty"`
	CourseTitle          string          `json:"course_title,omitempty"`
	LastMessage          string          `json:"last_message,omitempty"`
	UpdatedAt            time.Time       `json:"updated_at"`
	Unread               int             `json:"unread"`
	Messages             []LegacyMessage `json:"messages"`
}

type LegacyMessage struct {
	ID     string    `json:"id,omitempty"`
	FromMe bool      `json:"from_me"`
	Text   string    `json:"text"`
	SentAt time.Time `json:"sent_at"`
}

// DocumentLegacySource reads the legacy lists from a document store.
type DocumentLegacySource struct {
	docs docstore.Store
}

func NewDocumentLegacySource(docs docstore.Store) *DocumentLegacySource {
	return &DocumentLegacySource{docs: docs}
}

func (s *DocumentLegacySource) Import(ctx context.Context) ([]Thread, []Thread, error) {
	var teacherLists, studentLists []LegacyThread
	if _, err := s.docs.Load(ctx, LegacyTeacherDocument, &teacherLists); err != nil {
		return nil, nil, fmt.Errorf("load %s: %w", LegacyTeacherDocument, err)
	}
	if _, err := s.docs.Load(ctx, LegacyStudentDocument, &studentLists); err != nil {
		return nil, nil, fmt.Errorf("load %s: %w", LegacyStudentDocument, err)
	}

	teacherAuthored := make([]Thread, 0, len(teacherLists))
	for _, lt := range teacherLists {
		if t, ok := lt.toThread(SenderTeacher); ok {
			teacherAuthored = append(teacherAuthored, t)
		}
	}
	studentAuthored := make([]Thread, 0, len(studentLists))
	for _, lt := range studentLists {
		if t, ok := lt.toThread(SenderStudent); ok {
			studentAuthored = append(studentAuthored, t)
		}
	}
	return teacherAuthored, studentAuthored, nil
}

// toThread converts a record owned by owner into a shared thread. Records
// without both ids cannot be keyed and are skipped.
func (lt LegacyThread) toThread(owner Sender) (Thread, bool) {
	if lt.OwnerID == "" || lt.CounterpartID == "" {
		return Thread{}, false
	}

	t := Thread{
		Subject:     lt.Subject,
		CourseTitle: lt.CourseTitle,
		LastMessage: lt.LastMessage,
		UpdatedAt:   lt.UpdatedAt.UTC(),
		Messages:    make([]Message, 0, len(lt.Messages)),
	}
	if owner == SenderTeacher {
		t.TeacherID, t.TeacherName, t.TeacherAvatarURL = lt.OwnerID, lt.OwnerName, lt.OwnerAvatarURL
		t.StudentID, t.StudentName, t.StudentAvatarURL = lt.CounterpartID, lt.CounterpartName, lt.CounterpartAvatarURL
	} else {
		t.StudentID, t.StudentName, t.StudentAvatarURL = lt.OwnerID, lt.OwnerName, lt.OwnerAvatarURL
		t.TeacherID, t.TeacherName, t.TeacherAvatarURL = lt.CounterpartID, lt.CounterpartName, lt.CounterpartAvatarURL
	}
	t.ID = ThreadID(t.TeacherID, t.StudentID)
	t.setUnread(owner, lt.Unread)

	for _, m := range lt.Messages {
		sender := owner.Counterpart()
		if m.FromMe {
			sender = owner
		}
		t.Messages = append(t.Messages, Message{ID: m.ID, Sender: sender, Text: m.Text, SentAt: m.SentAt.UTC()})
	}
	return Normalize(t), true
}
