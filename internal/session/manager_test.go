package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/avvvet/orderbot/internal/dialog"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewStoreWithClient(client, 30*time.Minute)

	manager, err := NewManager(store, zaptest.NewLogger(t))
	require.NoError(t, err)
	return manager
}

func TestNewManager_RequiresCollaborators(t *testing.T) {
	_, err := NewManager(nil, zaptest.NewLogger(t))
	assert.Error(t, err)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	_, err = NewManager(NewStoreWithClient(client, time.Minute), nil)
	assert.Error(t, err)
}

func TestManager_RecordTurnPersistsStateAndTranscript(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	sess, err := m.Load(ctx, "sess-1")
	require.NoError(t, err)
	require.Nil(t, sess.State)

	sess.State = &dialog.State{Frames: []dialog.Frame{{Step: dialog.StepMainAwait}}}
	require.NoError(t, m.RecordTurn(ctx, sess, "user-7", "deliver rice", []string{"What would you like to order?"}))

	reloaded, err := m.Load(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "user-7", reloaded.UserID)
	require.NotNil(t, reloaded.State)
	require.Len(t, reloaded.Messages, 2)
	assert.Equal(t, "user", reloaded.Messages[0].Role)
	assert.Equal(t, "assistant", reloaded.Messages[1].Role)
}

func TestManager_RecordTurnWithoutUserMessage(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	sess, err := m.Load(ctx, "sess-1")
	require.NoError(t, err)

	// Greeting-only turn: no user line, one bot line.
	require.NoError(t, m.RecordTurn(ctx, sess, "", "", []string{"What can I help you with today?"}))

	reloaded, err := m.Load(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, reloaded.Messages, 1)
	assert.Equal(t, "assistant", reloaded.Messages[0].Role)
}

func TestManager_FormattedHistory(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	transcript, err := m.FormattedHistory(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "No previous conversation.", transcript)

	sess, err := m.Load(ctx, "sess-1")
	require.NoError(t, err)
	require.NoError(t, m.RecordTurn(ctx, sess, "user-7", "deliver rice", []string{"When should it be delivered?"}))

	transcript, err = m.FormattedHistory(ctx, "sess-1")
	require.NoError(t, err)
	assert.Contains(t, transcript, "User: deliver rice")
	assert.Contains(t, transcript, "Assistant: When should it be delivered?")
}

func TestManager_ClearDropsSession(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	sess, err := m.Load(ctx, "sess-1")
	require.NoError(t, err)
	require.NoError(t, m.RecordTurn(ctx, sess, "user-7", "hello", []string{"hi"}))
	assert.Equal(t, 1, m.ActiveSessions())

	require.NoError(t, m.Clear(ctx, "sess-1"))
	assert.Equal(t, 0, m.ActiveSessions())

	reloaded, err := m.Load(ctx, "sess-1")
	require.NoError(t, err)
	assert.Empty(t, reloaded.Messages)
}
