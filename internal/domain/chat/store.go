package chat

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"lessonhub/internal/docstore"
	"lessonhub/internal/pkg/identity"
	"lessonhub/internal/pkg/validator"
)

const threadsDocument = "chat_threads"

type document struct {
	Threads []Thread `json:"threads"`
}

// Store is one copy of the chat threads, read and written wholesale as a
// single document.
type Store struct {
	docs   docstore.Store
	legacy LegacySource
	now    func() time.Time
	newID  func() string
	mu     sync.Mutex
}

// NewStore returns a thread store over docs. When legacy is not nil and no
// threads were ever saved, the first read imports them from legacy.
func NewStore(docs docstore.Store, legacy LegacySource) *Store {
	return &Store{docs: docs, legacy: legacy, now: time.Now, newID: identity.New}
}

func (s *Store) List(ctx context.Context) ([]Thread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(ctx)
}

func (s *Store) Get(ctx context.Context, threadID string) (*Thread, error) {
	threads, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	if i := indexOf(threads, threadID); i >= 0 {
		t := threads[i]
		return &t, nil
	}
	return nil, ErrThreadNotFound
}

// Ensure returns the thread of pair, creating it when missing. Blank display
// fields of an existing thread are filled from meta.
func (s *Store) Ensure(ctx context.Context, pair Pair, meta Metadata) (*Result, error) {
	if err := validatePair(pair); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	threads, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	threads, i, changed := s.ensure(threads, pair, meta)
	if changed {
		if err := s.write(ctx, threads); err != nil {
			return nil, err
		}
		i = indexOf(threads, pair.ThreadID())
	}
	return &Result{Thread: threads[i], Threads: threads}, nil
}

// Send appends a message to the thread of in.Pair, creating the thread when
// needed. Blank text appends nothing. A message id already present in the
// thread is not appended twice.
func (s *Store) Send(ctx context.Context, in SendInput) (*Result, error) {
	if err := validatePair(in.Pair); err != nil {
		return nil, err
	}
	if !in.Sender.Valid() {
		return nil, fmt.Errorf("%w: sender must be student or teacher", ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	threads, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	threads, i, changed := s.ensure(threads, in.Pair, in.Metadata)

	text := strings.TrimSpace(in.Text)
	if text != "" && (in.MessageID == "" || !threads[i].hasMessage(in.MessageID)) {
		msg := Message{ID: in.MessageID, Sender: in.Sender, Text: text, SentAt: in.SentAt}
		if msg.ID == "" {
			msg.ID = s.newID()
		}
		if msg.SentAt.IsZero() {
			msg.SentAt = s.now()
		}
		msg.SentAt = msg.SentAt.UTC()

		t := &threads[i]
		t.Messages = unionMessages(t.Messages, []Message{msg})
		t.LastMessage = t.Messages[len(t.Messages)-1].Text
		if msg.SentAt.After(t.UpdatedAt) {
			t.UpdatedAt = msg.SentAt
		}
		t.setUnread(in.Sender.Counterpart(), t.Unread(in.Sender.Counterpart())+1)
		t.setUnread(in.Sender, 0)
		changed = true
	}

	if changed {
		if err := s.write(ctx, threads); err != nil {
			return nil, err
		}
		i = indexOf(threads, in.Pair.ThreadID())
	}
	return &Result{Thread: threads[i], Threads: threads}, nil
}

// MarkRead zeroes the unread counter of viewer on one thread. Unknown
// threads are left alone.
func (s *Store) MarkRead(ctx context.Context, threadID string, viewer Sender) ([]Thread, error) {
	if !viewer.Valid() {
		return nil, fmt.Errorf("%w: viewer must be student or teacher", ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	threads, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	i := indexOf(threads, threadID)
	if i < 0 || threads[i].Unread(viewer) == 0 {
		return threads, nil
	}
	threads[i].setUnread(viewer, 0)
	if err := s.write(ctx, threads); err != nil {
		return nil, err
	}
	return threads, nil
}

// Merge reconciles incoming threads into this copy and returns the result.
func (s *Store) Merge(ctx context.Context, incoming []Thread) ([]Thread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	merged := MergeLists(incoming, current, ByRecency)
	if err := s.write(ctx, merged); err != nil {
		return nil, err
	}
	return merged, nil
}

func (s *Store) ensure(threads []Thread, pair Pair, meta Metadata) ([]Thread, int, bool) {
	id := pair.ThreadID()
	if i := indexOf(threads, id); i >= 0 {
		return threads, i, fillMetadata(&threads[i], meta)
	}

	t := Thread{
		ID:        id,
		TeacherID: pair.TeacherID,
		StudentID: pair.StudentID,
		UpdatedAt: s.now().UTC(),
		Messages:  []Message{},
	}
	fillMetadata(&t, meta)
	threads = append(threads, t)
	return threads, len(threads) - 1, true
}

// read must be called with s.mu held.
func (s *Store) read(ctx context.Context) ([]Thread, error) {
	var doc document
	found, err := s.docs.Load(ctx, threadsDocument, &doc)
	if err != nil {
		return nil, fmt.Errorf("load chat threads: %w", err)
	}
	if (found && len(doc.Threads) > 0) || s.legacy == nil {
		return doc.Threads, nil
	}

	teacherAuthored, studentAuthored, err := s.legacy.Import(ctx)
	if err != nil {
		return nil, fmt.Errorf("import legacy chat threads: %w", err)
	}
	seeded := MergeLists(teacherAuthored, studentAuthored, ByAuthor)
	if len(seeded) == 0 {
		return doc.Threads, nil
	}
	if err := s.write(ctx, seeded); err != nil {
		return nil, err
	}
	return seeded, nil
}

func (s *Store) write(ctx context.Context, threads []Thread) error {
	sortThreads(threads)
	if err := s.docs.Save(ctx, threadsDocument, document{Threads: threads}); err != nil {
		return fmt.Errorf("save chat threads: %w", err)
	}
	return nil
}

func fillMetadata(t *Thread, meta Metadata) bool {
	changed := false
	fill := func(dst *string, v string) {
		if *dst == "" && v != "" {
			*dst = v
			changed = true
		}
	}
	fill(&t.TeacherName, meta.TeacherName)
	fill(&t.TeacherAvatarURL, meta.TeacherAvatarURL)
	fill(&t.StudentName, meta.StudentName)
	fill(&t.StudentAvatarURL, meta.StudentAvatarURL)
	fill(&t.Subject, meta.Subject)
	fill(&t.CourseTitle, meta.CourseTitle)
	return changed
}

func validatePair(p Pair) error {
	if fields := validator.Validate(p); fields != nil {
		return fmt.Errorf("%w: %w", ErrValidation, fields)
	}
	return nil
}

func indexOf(threads []Thread, id string) int {
	for i := range threads {
		if threads[i].ID == id {
			return i
		}
	}
	return -1
}
