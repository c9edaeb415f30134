package chat

import (
	"context"
	"testing"

	"lessonhub/internal/docstore"
	"lessonhub/internal/docstore/docstoretest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupReplica(t *testing.T) (*Replica, *Store, *Store, *docstoretest.Flaky) {
	t.Helper()
	serverDocs := docstoretest.NewFlaky()
	local := NewStore(docstore.NewMemory(), nil)
	server := NewStore(serverDocs, nil)
	return NewReplica(local, server, zap.NewNop()), local, server, serverDocs
}

func TestReplica_SendReachesBothCopiesWithOneID(t *testing.T) {
	r, local, server, _ := setupReplica(t)
	ctx := context.Background()

	_, err := r.Send(ctx, SendInput{Pair: testPair, Sender: SenderTeacher, Text: "confirmed"})
	require.NoError(t, err)

	l, err := local.Get(ctx, testPair.ThreadID())
	require.NoError(t, err)
	s, err := server.Get(ctx, testPair.ThreadID())
	require.NoError(t, err)
	require.Len(t, l.Messages, 1)
	require.Len(t, s.Messages, 1)
	assert.Equal(t, l.Messages[0].ID, s.Messages[0].ID)
	assert.Equal(t, l.Messages[0].SentAt, s.Messages[0].SentAt)
}

func TestReplica_ServerOutageIsReconciledOnSync(t *testing.T) {
	r, local, server, serverDocs := setupReplica(t)
	ctx := context.Background()

	serverDocs.Fail()
	res, err := r.Send(ctx, SendInput{Pair: testPair, Sender: SenderTeacher, Text: "while offline"})
	require.NoError(t, err)
	assert.Len(t, res.Thread.Messages, 1)

	_, err = r.Sync(ctx)
	assert.Error(t, err)

	serverDocs.Recover()
	n, err := r.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	s, err := server.Get(ctx, testPair.ThreadID())
	require.NoError(t, err)
	assert.Len(t, s.Messages, 1)
	assert.Equal(t, 1, s.UnreadForStudent)

	l, err := local.Get(ctx, testPair.ThreadID())
	require.NoError(t, err)
	assert.Len(t, l.Messages, 1)
}

func TestReplica_SyncConvergesBothCopies(t *testing.T) {
	r, local, server, _ := setupReplica(t)
	ctx := context.Background()

	_, err := server.Send(ctx, SendInput{Pair: testPair, Sender: SenderStudent, Text: "from another device", SentAt: at(1)})
	require.NoError(t, err)
	_, err = local.Send(ctx, SendInput{Pair: testPair, Sender: SenderTeacher, Text: "cached only", SentAt: at(2)})
	require.NoError(t, err)

	_, err = r.Sync(ctx)
	require.NoError(t, err)

	l, err := local.Get(ctx, testPair.ThreadID())
	require.NoError(t, err)
	s, err := server.Get(ctx, testPair.ThreadID())
	require.NoError(t, err)
	assert.Equal(t, ids(l.Messages), ids(s.Messages))
	assert.Len(t, l.Messages, 2)
	assert.Equal(t, "cached only", s.LastMessage)

	// A second sync changes nothing.
	_, err = r.Sync(ctx)
	require.NoError(t, err)
	again, err := server.Get(ctx, testPair.ThreadID())
	require.NoError(t, err)
	assert.Equal(t, ids(s.Messages), ids(again.Messages))
}

func TestReplica_FailedServerReadIsReplayed(t *testing.T) {
	r, local, server, serverDocs := setupReplica(t)
	ctx := context.Background()

	_, err := r.Send(ctx, SendInput{Pair: testPair, Sender: SenderTeacher, Text: "lesson confirmed"})
	require.NoError(t, err)

	serverDocs.Fail()
	_, err = r.MarkRead(ctx, testPair.ThreadID(), SenderStudent)
	require.NoError(t, err)
	assert.Equal(t, 1, r.PendingReads())

	serverDocs.Recover()
	_, err = r.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, r.PendingReads())

	l, err := local.Get(ctx, testPair.ThreadID())
	require.NoError(t, err)
	s, err := server.Get(ctx, testPair.ThreadID())
	require.NoError(t, err)
	assert.Equal(t, 0, l.UnreadForStudent)
	assert.Equal(t, 0, s.UnreadForStudent)
}
