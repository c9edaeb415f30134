package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

func at(minutes int) time.Time {
	return base.Add(time.Duration(minutes) * time.Minute)
}

func msg(id string, from Sender, text string, minute int) Message {
	return Message{ID: id, Sender: from, Text: text, SentAt: at(minute)}
}

func pairThread(msgs ...Message) Thread {
	return Thread{TeacherID: "t1", StudentID: "s1", Messages: msgs}
}

func ids(msgs []Message) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.ID)
	}
	return out
}

func TestMergeThread_DisjointMessagesAreUnioned(t *testing.T) {
	a := pairThread(msg("m1", SenderStudent, "hello", 1), msg("m3", SenderStudent, "are you there?", 3))
	b := pairThread(msg("m2", SenderTeacher, "hi", 2))

	merged := MergeThread(a, b, ByAuthor)

	assert.Equal(t, []string{"m1", "m2", "m3"}, ids(merged.Messages))
	assert.Equal(t, "are you there?", merged.LastMessage)
	assert.Equal(t, ThreadID("t1", "s1"), merged.ID)
}

func TestMergeThread_SharedMessagesAppearOnce(t *testing.T) {
	shared := []Message{msg("m1", SenderStudent, "hello", 1), msg("m2", SenderTeacher, "hi", 2)}
	a := pairThread(shared...)
	b := pairThread(append(append([]Message{}, shared...), msg("m3", SenderStudent, "thanks", 3))...)

	merged := MergeThread(a, b, ByRecency)

	assert.Equal(t, []string{"m1", "m2", "m3"}, ids(merged.Messages))
}

func TestMergeThread_UnreadCounters(t *testing.T) {
	t.Run("disjoint unread messages add up", func(t *testing.T) {
		a := pairThread(msg("m1", SenderTeacher, "one", 1))
		a.UnreadForStudent = 1
		b := pairThread(msg("m2", SenderTeacher, "two", 2))
		b.UnreadForStudent = 1

		merged := MergeThread(a, b, ByAuthor)
		assert.Equal(t, 2, merged.UnreadForStudent)
		assert.Equal(t, 0, merged.UnreadForTeacher)
	})

	t.Run("same unread messages count once", func(t *testing.T) {
		a := pairThread(msg("m1", SenderTeacher, "one", 1))
		a.UnreadForStudent = 1
		b := pairThread(msg("m1", SenderTeacher, "one", 1))
		b.UnreadForStudent = 1

		merged := MergeThread(a, b, ByRecency)
		assert.Equal(t, 1, merged.UnreadForStudent)
	})

	t.Run("read on one copy, unread on the other", func(t *testing.T) {
		a := pairThread(msg("m1", SenderTeacher, "one", 1), msg("m2", SenderTeacher, "two", 2))
		a.UnreadForStudent = 1
		b := pairThread(msg("m1", SenderTeacher, "one", 1))

		merged := MergeThread(a, b, ByRecency)
		assert.Equal(t, 1, merged.UnreadForStudent)
	})

	t.Run("counters without messages keep their excess", func(t *testing.T) {
		a := pairThread()
		a.UnreadForTeacher = 3
		b := pairThread(msg("m1", SenderStudent, "one", 1))
		b.UnreadForTeacher = 1

		merged := MergeThread(a, b, ByAuthor)
		assert.Equal(t, 4, merged.UnreadForTeacher)
	})
}

func TestMergeThread_Metadata(t *testing.T) {
	teacherSide := pairThread()
	teacherSide.TeacherName = "Anna Petrova"
	teacherSide.StudentName = "ivan"
	teacherSide.Subject = "Math"
	teacherSide.UpdatedAt = at(5)

	studentSide := pairThread()
	studentSide.TeacherName = "Anna"
	studentSide.StudentName = "Ivan Sidorov"
	studentSide.StudentAvatarURL = "https://cdn.example.com/ivan.png"
	studentSide.Subject = "Algebra"
	studentSide.UpdatedAt = at(9)

	byAuthor := MergeThread(teacherSide, studentSide, ByAuthor)
	assert.Equal(t, "Anna Petrova", byAuthor.TeacherName)
	assert.Equal(t, "Ivan Sidorov", byAuthor.StudentName)
	assert.Equal(t, "https://cdn.example.com/ivan.png", byAuthor.StudentAvatarURL)
	assert.Equal(t, "Algebra", byAuthor.Subject)
	assert.Equal(t, at(9), byAuthor.UpdatedAt)

	byRecency := MergeThread(teacherSide, studentSide, ByRecency)
	assert.Equal(t, "Anna", byRecency.TeacherName)
	assert.Equal(t, "Ivan Sidorov", byRecency.StudentName)
}

func TestMergeThread_UpdatedAtFollowsLastMessage(t *testing.T) {
	a := pairThread(msg("m1", SenderStudent, "hello", 30))
	a.UpdatedAt = at(10)
	b := pairThread()
	b.UpdatedAt = at(20)

	merged := MergeThread(a, b, ByRecency)
	assert.Equal(t, at(30), merged.UpdatedAt)
}

func TestMergeLists(t *testing.T) {
	older := Thread{TeacherID: "t1", StudentID: "s1", UpdatedAt: at(1), Messages: []Message{msg("a1", SenderStudent, "x", 1)}}
	other := Thread{TeacherID: "t2", StudentID: "s1", UpdatedAt: at(5)}
	newer := Thread{TeacherID: "t1", StudentID: "s1", UpdatedAt: at(3), Messages: []Message{msg("a2", SenderTeacher, "y", 3)}}
	lonely := Thread{TeacherID: "t3", StudentID: "s2", UpdatedAt: at(2)}

	merged := MergeLists([]Thread{older, other}, []Thread{newer, lonely}, ByRecency)

	require.Len(t, merged, 3)
	assert.Equal(t, ThreadID("t2", "s1"), merged[0].ID)
	assert.Equal(t, ThreadID("t1", "s1"), merged[1].ID)
	assert.Equal(t, ThreadID("t3", "s2"), merged[2].ID)
	assert.Equal(t, []string{"a1", "a2"}, ids(merged[1].Messages))
}

func TestMergeLists_EmptyInputs(t *testing.T) {
	assert.Empty(t, MergeLists(nil, nil, ByAuthor))
}

func TestNormalize_DerivesStableMessageIDs(t *testing.T) {
	th := pairThread(Message{Sender: SenderStudent, Text: "hello", SentAt: at(1)})

	first := Normalize(th)
	second := Normalize(th)

	require.Len(t, first.Messages, 1)
	assert.NotEmpty(t, first.Messages[0].ID)
	assert.Equal(t, first.Messages[0].ID, second.Messages[0].ID)
	assert.Empty(t, th.Messages[0].ID, "input must not be modified")
}
