package chat

import (
	"context"
	"fmt"
	"sync"
	"time"

	"lessonhub/internal/pkg/identity"

	"go.uber.org/zap"
)

// Replica keeps a fast local copy of the threads in front of the durable
// server copy. Writes land locally first and are mirrored to the server;
// Sync reconciles whatever the mirror missed.
type Replica struct {
	local  *Store
	server *Store
	logger *zap.Logger
	now    func() time.Time
	newID  func() string

	mu           sync.Mutex
	pendingReads map[readKey]struct{}
}

type readKey struct {
	threadID string
	viewer   Sender
}

func NewReplica(local, server *Store, logger *zap.Logger) *Replica {
	return &Replica{
		local:        local,
		server:       server,
		logger:       logger,
		now:          time.Now,
		newID:        identity.New,
		pendingReads: make(map[readKey]struct{}),
	}
}

func (r *Replica) List(ctx context.Context) ([]Thread, error) {
	return r.local.List(ctx)
}

func (r *Replica) Get(ctx context.Context, threadID string) (*Thread, error) {
	return r.local.Get(ctx, threadID)
}

func (r *Replica) Ensure(ctx context.Context, pair Pair, meta Metadata) (*Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, err := r.local.Ensure(ctx, pair, meta)
	if err != nil {
		return nil, err
	}
	if _, err := r.server.Ensure(ctx, pair, meta); err != nil {
		r.logger.Warn("chat server ensure failed", zap.String("thread_id", res.Thread.ID), zap.Error(err))
	}
	return res, nil
}

// Send writes the message to both copies with one id and timestamp, so the
// copies hold the same message rather than two look-alikes.
func (r *Replica) Send(ctx context.Context, in SendInput) (*Result, error) {
	if in.MessageID == "" {
		in.MessageID = r.newID()
	}
	if in.SentAt.IsZero() {
		in.SentAt = r.now().UTC()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	res, err := r.local.Send(ctx, in)
	if err != nil {
		return nil, err
	}
	if _, err := r.server.Send(ctx, in); err != nil {
		r.logger.Warn("chat server send failed, will reconcile on sync",
			zap.String("thread_id", res.Thread.ID),
			zap.String("message_id", in.MessageID),
			zap.Error(err),
		)
	}
	return res, nil
}

// MarkRead zeroes the counter on both copies. A read the server did not
// take is replayed by Sync so the merge cannot bring the counter back.
func (r *Replica) MarkRead(ctx context.Context, threadID string, viewer Sender) ([]Thread, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	threads, err := r.local.MarkRead(ctx, threadID, viewer)
	if err != nil {
		return nil, err
	}
	if _, err := r.server.MarkRead(ctx, threadID, viewer); err != nil {
		r.pendingReads[readKey{threadID: threadID, viewer: viewer}] = struct{}{}
		r.logger.Warn("chat server mark read failed, kept pending",
			zap.String("thread_id", threadID),
			zap.String("viewer", string(viewer)),
			zap.Error(err),
		)
	}
	return threads, nil
}

// Sync pulls the server threads into the local copy, replays pending reads
// and pushes the merged result back. It returns the number of threads the
// copies now share.
func (r *Replica) Sync(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	remote, err := r.server.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("pull server threads: %w", err)
	}
	if _, err := r.local.Merge(ctx, remote); err != nil {
		return 0, fmt.Errorf("merge into local threads: %w", err)
	}

	for key := range r.pendingReads {
		if _, err := r.local.MarkRead(ctx, key.threadID, key.viewer); err != nil {
			return 0, fmt.Errorf("replay local read: %w", err)
		}
		if _, err := r.server.MarkRead(ctx, key.threadID, key.viewer); err != nil {
			r.logger.Warn("chat server mark read still failing", zap.String("thread_id", key.threadID), zap.Error(err))
			continue
		}
		delete(r.pendingReads, key)
	}

	local, err := r.local.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("read local threads: %w", err)
	}
	merged, err := r.server.Merge(ctx, local)
	if err != nil {
		return 0, fmt.Errorf("push local threads: %w", err)
	}
	return len(merged), nil
}

// PendingReads reports reads waiting to reach the server.
func (r *Replica) PendingReads() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pendingReads)
}
