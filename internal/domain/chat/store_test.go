package chat

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"lessonhub/internal/docstore"
	"lessonhub/internal/docstore/docstoretest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

var testPair = Pair{TeacherID: "t1", StudentID: "s1"}

func setupGormDocs(t *testing.T) docstore.Store {
	t.Helper()
	dsn := fmt.Sprintf("file:chat_test_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.New(sqlite.Config{DriverName: "sqlite", DSN: dsn}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open sqlite db: %v", err)
	}
	if err := db.AutoMigrate(&docstore.Document{}); err != nil {
		t.Fatalf("failed to migrate db: %v", err)
	}
	return docstore.NewGorm(db)
}

func TestSend_UnreadMonotonicity(t *testing.T) {
	s := NewStore(setupGormDocs(t), nil)
	ctx := context.Background()

	const n = 4
	for i := 0; i < n; i++ {
		_, err := s.Send(ctx, SendInput{Pair: testPair, Sender: SenderTeacher, Text: fmt.Sprintf("message %d", i)})
		require.NoError(t, err)
	}

	threads, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, threads, 1)
	assert.Equal(t, n, threads[0].UnreadForStudent)
	assert.Equal(t, 0, threads[0].UnreadForTeacher)
	assert.Len(t, threads[0].Messages, n)
}

func TestSend_ReplyFlipsCounters(t *testing.T) {
	s := NewStore(docstore.NewMemory(), nil)
	ctx := context.Background()

	_, err := s.Send(ctx, SendInput{Pair: testPair, Sender: SenderTeacher, Text: "hi"})
	require.NoError(t, err)
	res, err := s.Send(ctx, SendInput{Pair: testPair, Sender: SenderStudent, Text: "hello"})
	require.NoError(t, err)

	assert.Equal(t, 0, res.Thread.UnreadForStudent)
	assert.Equal(t, 1, res.Thread.UnreadForTeacher)
	assert.Equal(t, "hello", res.Thread.LastMessage)
}

func TestSend_BlankTextOnlyEnsuresThread(t *testing.T) {
	s := NewStore(docstore.NewMemory(), nil)

	res, err := s.Send(context.Background(), SendInput{Pair: testPair, Sender: SenderStudent, Text: "  \n\t "})
	require.NoError(t, err)
	assert.Empty(t, res.Thread.Messages)
	assert.Equal(t, 0, res.Thread.UnreadForTeacher)
	assert.Len(t, res.Threads, 1)
}

func TestSend_SameMessageIDIsAppendedOnce(t *testing.T) {
	s := NewStore(docstore.NewMemory(), nil)
	in := SendInput{Pair: testPair, Sender: SenderTeacher, Text: "confirmed", MessageID: "msg-1", SentAt: at(1)}

	_, err := s.Send(context.Background(), in)
	require.NoError(t, err)
	res, err := s.Send(context.Background(), in)
	require.NoError(t, err)

	assert.Len(t, res.Thread.Messages, 1)
	assert.Equal(t, 1, res.Thread.UnreadForStudent)
}

func TestSend_Validation(t *testing.T) {
	s := NewStore(docstore.NewMemory(), nil)

	_, err := s.Send(context.Background(), SendInput{Pair: Pair{TeacherID: "t1"}, Sender: SenderTeacher, Text: "x"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = s.Send(context.Background(), SendInput{Pair: testPair, Sender: "admin", Text: "x"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestEnsure_OneThreadPerPair(t *testing.T) {
	s := NewStore(docstore.NewMemory(), nil)
	ctx := context.Background()

	first, err := s.Ensure(ctx, testPair, Metadata{TeacherName: "Anna"})
	require.NoError(t, err)
	second, err := s.Ensure(ctx, testPair, Metadata{TeacherName: "Someone else", StudentName: "Ivan"})
	require.NoError(t, err)

	assert.Equal(t, first.Thread.ID, second.Thread.ID)
	assert.Len(t, second.Threads, 1)
	assert.Equal(t, "Anna", second.Thread.TeacherName)
	assert.Equal(t, "Ivan", second.Thread.StudentName)
}

func TestMarkRead_ZeroesOnlyViewer(t *testing.T) {
	s := NewStore(docstore.NewMemory(), nil)
	ctx := context.Background()

	_, err := s.Send(ctx, SendInput{Pair: testPair, Sender: SenderTeacher, Text: "one"})
	require.NoError(t, err)
	res, err := s.Send(ctx, SendInput{Pair: testPair, Sender: SenderStudent, Text: "two"})
	require.NoError(t, err)
	_, err = s.Send(ctx, SendInput{Pair: testPair, Sender: SenderTeacher, Text: "three"})
	require.NoError(t, err)

	threads, err := s.MarkRead(ctx, res.Thread.ID, SenderStudent)
	require.NoError(t, err)
	require.Len(t, threads, 1)
	assert.Equal(t, 0, threads[0].UnreadForStudent)
	assert.Equal(t, 0, threads[0].UnreadForTeacher)

	threads, err = s.MarkRead(ctx, "unknown-thread", SenderTeacher)
	require.NoError(t, err)
	assert.Len(t, threads, 1)
}

func TestRead_SeedsFromLegacyLists(t *testing.T) {
	docs := docstore.NewMemory()
	ctx := context.Background()

	require.NoError(t, docs.Save(ctx, LegacyTeacherDocument, []LegacyThread{{
		OwnerID:         "t1",
		OwnerName:       "Anna Petrova",
		CounterpartID:   "s1",
		CounterpartName: "ivan",
		UpdatedAt:       at(2),
		Unread:          1,
		Messages: []LegacyMessage{
			{FromMe: false, Text: "hello", SentAt: at(0)},
			{FromMe: true, Text: "hi Ivan", SentAt: at(1)},
			{FromMe: false, Text: "can we move?", SentAt: at(2)},
		},
	}}))
	require.NoError(t, docs.Save(ctx, LegacyStudentDocument, []LegacyThread{{
		OwnerID:         "s1",
		OwnerName:       "Ivan Sidorov",
		CounterpartID:   "t1",
		CounterpartName: "anna",
		UpdatedAt:       at(1),
		Unread:          1,
		Messages: []LegacyMessage{
			{FromMe: true, Text: "hello", SentAt: at(0)},
			{FromMe: false, Text: "hi Ivan", SentAt: at(1)},
		},
	}, {
		OwnerID:       "s1",
		CounterpartID: "t9",
		Messages:      []LegacyMessage{{FromMe: true, Text: "anyone?", SentAt: at(0)}},
	}}))

	s := NewStore(docs, NewDocumentLegacySource(docs))
	threads, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, threads, 2)

	th, err := s.Get(ctx, ThreadID("t1", "s1"))
	require.NoError(t, err)
	assert.Len(t, th.Messages, 3)
	assert.Equal(t, "Anna Petrova", th.TeacherName)
	assert.Equal(t, "Ivan Sidorov", th.StudentName)
	assert.Equal(t, 1, th.UnreadForTeacher)
	assert.Equal(t, 1, th.UnreadForStudent)
	assert.Equal(t, "can we move?", th.LastMessage)

	// Seeded once: later writes are not overwritten by a second import.
	_, err = s.MarkRead(ctx, th.ID, SenderTeacher)
	require.NoError(t, err)
	again, err := s.Get(ctx, th.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, again.UnreadForTeacher)
}

func TestStore_StorageFailure(t *testing.T) {
	docs := docstoretest.NewFlaky()
	s := NewStore(docs, nil)
	docs.Fail(threadsDocument)

	_, err := s.Send(context.Background(), SendInput{Pair: testPair, Sender: SenderTeacher, Text: "x"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, docstore.ErrStorage))
}

func TestMerge_TiedMetadataTakesIncoming(t *testing.T) {
	s := NewStore(setupGormDocs(t), nil)
	ctx := context.Background()
	at := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

	_, err := s.Merge(ctx, []Thread{{TeacherID: "t1", StudentID: "s1", Subject: "Local", UpdatedAt: at}})
	require.NoError(t, err)

	merged, err := s.Merge(ctx, []Thread{{TeacherID: "t1", StudentID: "s1", Subject: "Server", UpdatedAt: at}})
	require.NoError(t, err)
	require.Len(t, merged, 1)
	assert.Equal(t, "Server", merged[0].Subject)

	merged, err = s.Merge(ctx, []Thread{{TeacherID: "t1", StudentID: "s1", Subject: "Stale", UpdatedAt: at.Add(-time.Minute)}})
	require.NoError(t, err)
	assert.Equal(t, "Server", merged[0].Subject, "an older incoming copy does not win")
}
