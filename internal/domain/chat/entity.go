package chat

import (
	"time"

	"lessonhub/internal/pkg/identity"
)

// Sender is the side of a thread that wrote a message or is reading it.
type Sender string

const (
	SenderStudent Sender = "student"
	SenderTeacher Sender = "teacher"
)

func (s Sender) Valid() bool {
	return s == SenderStudent || s == SenderTeacher
}

// Counterpart is the other side of the thread.
func (s Sender) Counterpart() Sender {
	if s == SenderTeacher {
		return SenderStudent
	}
	return SenderTeacher
}

// Pair identifies exactly one thread.
type Pair struct {
	TeacherID string `json:"teacher_id" validate:"required"`
	StudentID string `json:"student_id" validate:"required"`
}

func (p Pair) ThreadID() string {
	return ThreadID(p.TeacherID, p.StudentID)
}

func ThreadID(teacherID, studentID string) string {
	return identity.Derive("thread", teacherID, studentID)
}

// Metadata is display information attached to a thread.
type Metadata struct {
	TeacherName      string `json:"teacher_name,omitempty"`
	TeacherAvatarURL string `json:"teacher_avatar_url,omitempty"`
	StudentName      string `json:"student_name,omitempty"`
	StudentAvatarURL string `json:"student_avatar_url,omitempty"`
	Subject          string `json:"subject,omitempty"`
	CourseTitle      string `json:"course_title,omitempty"`
}

type Message struct {
	ID     string    `json:"id"`
	Sender Sender    `json:"sender"`
	Text   string    `json:"text"`
	SentAt time.Time `json:"sent_at"`
}

// Thread is the conversation of one teacher/student pair. Messages are
// ordered by SentAt and never removed.
type Thread struct {
	ID               string    `json:"id"`
	TeacherID        string    `json:"teacher_id"`
	TeacherName      string    `json:"teacher_name"`
	TeacherAvatarURL string    `json:"teacher_avatar_url,omitempty"`
	StudentID        string    `json:"student_id"`
	StudentName      string    `json:"student_name"`
	StudentAvatarURL string    `json:"student_avatar_url,omitempty"`
	Subject          string    `json:"subject,omitempty"`
	CourseTitle      string    `json:"course_title,omitempty"`
	LastMessage      string    `json:"last_message"`
	UpdatedAt        time.Time `json:"updated_at"`
	UnreadForStudent int       `json:"unread_for_student"`
	UnreadForTeacher int       `json:"unread_for_teacher"`
	Messages         []Message `json:"messages"`
}

func (t Thread) Pair() Pair {
	return Pair{TeacherID: t.TeacherID, StudentID: t.StudentID}
}

// Unread returns the counter of viewer.
func (t Thread) Unread(viewer Sender) int {
	if viewer == SenderTeacher {
		return t.UnreadForTeacher
	}
	return t.UnreadForStudent
}

func (t *Thread) setUnread(viewer Sender, n int) {
	if n < 0 {
		n = 0
	}
	if viewer == SenderTeacher {
		t.UnreadForTeacher = n
		return
	}
	t.UnreadForStudent = n
}

// CounterpartName is the display name of the side viewer is talking to.
func (t Thread) CounterpartName(viewer Sender) string {
	if viewer == SenderTeacher {
		return t.StudentName
	}
	return t.TeacherName
}

func (t Thread) hasMessage(id string) bool {
	for _, m := range t.Messages {
		if m.ID == id {
			return true
		}
	}
	return false
}

// SendInput appends one message. MessageID and SentAt are generated when
// empty; passing them makes the send idempotent across copies.
type SendInput struct {
	Pair      Pair      `json:"pair"`
	Sender    Sender    `json:"sender"`
	Text      string    `json:"text"`
	Metadata  Metadata  `json:"metadata"`
	MessageID string    `json:"message_id,omitempty"`
	SentAt    time.Time `json:"sent_at,omitempty"`
}

// Result is the touched thread plus the full thread list after the write.
type Result struct {
	Thread  Thread   `json:"thread"`
	Threads []Thread `json:"threads"`
}
