package transport

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/avvvet/orderbot/internal/config"
	"github.com/avvvet/orderbot/internal/dialog"
	"github.com/avvvet/orderbot/internal/models"
	"github.com/avvvet/orderbot/internal/nlu"
	"github.com/avvvet/orderbot/internal/session"
)

// newTestTransport wires a transport against miniredis and a manual-mode
// engine, without a NATS connection; the processing paths are exercised
// directly.
func newTestTransport(t *testing.T) *NATSTransport {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := session.NewStoreWithClient(client, 30*time.Minute)

	logger := zaptest.NewLogger(t)

	sessions, err := session.NewManager(store, logger)
	require.NoError(t, err)

	catalog, err := nlu.NewCatalog([]string{"rice", "sugar"})
	require.NoError(t, err)

	engine, err := dialog.NewEngine(nil, catalog, 0, logger)
	require.NoError(t, err)

	return &NATSTransport{
		config:   config.Load(),
		engine:   engine,
		sessions: sessions,
		logger:   logger,
	}
}

func turnRequest(t *testing.T, sessionID, message string) []byte {
	t.Helper()
	data, err := json.Marshal(models.TurnRequest{SessionID: sessionID, Message: message})
	require.NoError(t, err)
	return data
}

func TestProcessTurn_FreshSessionGreets(t *testing.T) {
	nt := newTestTransport(t)

	resp := nt.processTurn(context.Background(), turnRequest(t, "sess-1", ""))

	assert.Equal(t, models.StatusOK, resp.Status)
	assert.Equal(t, "sess-1", resp.SessionID)
	require.Len(t, resp.Messages, 1)
	assert.Contains(t, resp.Messages[0], "What can I help you with")
}

func TestProcessTurn_GeneratesSessionID(t *testing.T) {
	nt := newTestTransport(t)

	resp := nt.processTurn(context.Background(), turnRequest(t, "", ""))

	assert.Equal(t, models.StatusOK, resp.Status)
	assert.NotEmpty(t, resp.SessionID)
}

func TestProcessTurn_InvalidPayload(t *testing.T) {
	nt := newTestTransport(t)

	resp := nt.processTurn(context.Background(), []byte("not json"))

	assert.Equal(t, models.StatusError, resp.Status)
	require.NotNil(t, resp.ErrorCode)
	assert.Equal(t, models.ErrorParseError, *resp.ErrorCode)
}

// Drives a whole order across separate requests, the way a channel host would.
func TestProcessTurn_FullConversation(t *testing.T) {
	nt := newTestTransport(t)
	ctx := context.Background()

	resp := nt.processTurn(ctx, turnRequest(t, "sess-1", ""))
	require.Equal(t, models.StatusOK, resp.Status)

	resp = nt.processTurn(ctx, turnRequest(t, "sess-1", "I need a delivery"))
	assert.Contains(t, strings.Join(resp.Messages, " "), "What would you like to order?")

	resp = nt.processTurn(ctx, turnRequest(t, "sess-1", "rice"))
	assert.Contains(t, strings.Join(resp.Messages, " "), "When should it be delivered?")

	resp = nt.processTurn(ctx, turnRequest(t, "sess-1", "March 22, 2020"))
	assert.Contains(t, strings.Join(resp.Messages, " "), "March 22, 2020")
	assert.Nil(t, resp.Order, "not completed until confirmed")

	resp = nt.processTurn(ctx, turnRequest(t, "sess-1", "yes"))
	require.NotNil(t, resp.Order)
	assert.Equal(t, "rice", resp.Order.Item)
	assert.Equal(t, "2020-03-22", resp.Order.DeliveryDate)
}

func TestProcessHistory(t *testing.T) {
	nt := newTestTransport(t)
	ctx := context.Background()

	nt.processTurn(ctx, turnRequest(t, "sess-1", ""))
	nt.processTurn(ctx, turnRequest(t, "sess-1", "hello there"))

	data, err := json.Marshal(models.HistoryRequest{SessionID: "sess-1"})
	require.NoError(t, err)

	resp := nt.processHistory(ctx, data)

	assert.Equal(t, models.StatusOK, resp.Status)
	assert.Contains(t, resp.Transcript, "User: hello there")
}

func TestProcessHistory_RequiresSessionID(t *testing.T) {
	nt := newTestTransport(t)

	resp := nt.processHistory(context.Background(), []byte(`{}`))

	assert.Equal(t, models.StatusError, resp.Status)
}
