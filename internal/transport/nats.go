package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/avvvet/orderbot/internal/config"
	"github.com/avvvet/orderbot/internal/dialog"
	"github.com/avvvet/orderbot/internal/models"
	"github.com/avvvet/orderbot/internal/session"
)

const safeErrorReply = "I'm sorry, I ran into a problem with that. Please try again."

// NATSTransport hosts conversations over NATS request/reply: one request is
// one user turn, the reply carries the bot messages for that turn. Turns for
// different sessions may be in flight concurrently; each session's state is
// loaded and saved independently.
type NATSTransport struct {
	conn     *nats.Conn
	config   *config.Config
	engine   *dialog.Engine
	sessions *session.Manager
	logger   *zap.Logger
}

func NewNATSTransport(cfg *config.Config, engine *dialog.Engine, sessions *session.Manager, logger *zap.Logger) (*NATSTransport, error) {
	if engine == nil {
		return nil, fmt.Errorf("dialog engine is required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session manager is required")
	}

	conn, err := nats.Connect(cfg.NatsURL,
		nats.Name(cfg.ServiceName),
		nats.Timeout(cfg.NatsTimeout),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1), // Infinite reconnects
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	logger.Info("connected to NATS server", zap.String("url", cfg.NatsURL))

	return &NATSTransport{
		conn:     conn,
		config:   cfg,
		engine:   engine,
		sessions: sessions,
		logger:   logger,
	}, nil
}

func (nt *NATSTransport) Start() error {
	if _, err := nt.conn.Subscribe(nt.config.NatsTurnSubject, nt.handleTurnMsg); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", nt.config.NatsTurnSubject, err)
	}
	if _, err := nt.conn.Subscribe(nt.config.NatsHistorySubject, nt.handleHistoryMsg); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", nt.config.NatsHistorySubject, err)
	}

	nt.logger.Info("subscribed",
		zap.String("turnSubject", nt.config.NatsTurnSubject),
		zap.String("historySubject", nt.config.NatsHistorySubject),
	)
	return nil
}

func (nt *NATSTransport) handleTurnMsg(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), nt.config.NatsTimeout)
	defer cancel()

	response := nt.processTurn(ctx, msg.Data)

	data, err := json.Marshal(response)
	if err != nil {
		nt.logger.Error("failed to marshal turn response", zap.Error(err))
		return
	}
	if err := msg.Respond(data); err != nil {
		nt.logger.Error("failed to send turn response", zap.Error(err))
	}
}

// processTurn runs one user turn: load the session, resume or start the
// dialog, persist the new state and transcript, and build the reply.
func (nt *NATSTransport) processTurn(ctx context.Context, data []byte) *models.TurnResponse {
	var request models.TurnRequest
	if err := json.Unmarshal(data, &request); err != nil {
		nt.logger.Warn("invalid turn request", zap.Error(err))
		return errorTurnResponse("", models.ErrorParseError, "invalid request format")
	}

	// A missing session id starts a brand-new conversation.
	if request.SessionID == "" {
		request.SessionID = uuid.NewString()
	}

	sess, err := nt.sessions.Load(ctx, request.SessionID)
	if err != nil {
		nt.logger.Error("failed to load session", zap.String("sessionID", request.SessionID), zap.Error(err))
		return errorTurnResponse(request.SessionID, models.ErrorSessionStore, "session could not be loaded")
	}

	var replies []string
	var completed *models.OrderRecord

	if sess.State == nil {
		state, greeting := nt.engine.Start()
		sess.State = state
		replies = greeting
	}
	if request.Message != "" {
		turn, err := nt.engine.HandleTurn(ctx, sess.State, request.Message)
		if err != nil {
			nt.logger.Error("turn failed", zap.String("sessionID", request.SessionID), zap.Error(err))
			return errorTurnResponse(request.SessionID, models.ErrorTurnFailed, err.Error())
		}
		replies = append(replies, turn.Replies...)
		completed = turn.Completed
	}

	if err := nt.sessions.RecordTurn(ctx, sess, request.UserID, request.Message, replies); err != nil {
		nt.logger.Error("failed to persist session", zap.String("sessionID", request.SessionID), zap.Error(err))
		return errorTurnResponse(request.SessionID, models.ErrorSessionStore, "session could not be saved")
	}

	nt.logger.Info("turn processed",
		zap.String("sessionID", request.SessionID),
		zap.Int("replies", len(replies)),
		zap.Bool("completed", completed != nil),
	)

	return &models.TurnResponse{
		SessionID: request.SessionID,
		Messages:  replies,
		Order:     completed,
		Status:    models.StatusOK,
	}
}

func (nt *NATSTransport) handleHistoryMsg(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), nt.config.NatsTimeout)
	defer cancel()

	response := nt.processHistory(ctx, msg.Data)

	data, err := json.Marshal(response)
	if err != nil {
		nt.logger.Error("failed to marshal history response", zap.Error(err))
		return
	}
	if err := msg.Respond(data); err != nil {
		nt.logger.Error("failed to send history response", zap.Error(err))
	}
}

func (nt *NATSTransport) processHistory(ctx context.Context, data []byte) *models.HistoryResponse {
	var request models.HistoryRequest
	if err := json.Unmarshal(data, &request); err != nil || request.SessionID == "" {
		return errorHistoryResponse("", models.ErrorParseError, "invalid request format")
	}

	transcript, err := nt.sessions.FormattedHistory(ctx, request.SessionID)
	if err != nil {
		nt.logger.Error("failed to load transcript", zap.String("sessionID", request.SessionID), zap.Error(err))
		return errorHistoryResponse(request.SessionID, models.ErrorSessionStore, "transcript could not be loaded")
	}

	return &models.HistoryResponse{
		SessionID:  request.SessionID,
		Transcript: transcript,
		Status:     models.StatusOK,
	}
}

func errorTurnResponse(sessionID, errorCode, errorMessage string) *models.TurnResponse {
	return &models.TurnResponse{
		SessionID:    sessionID,
		Messages:     []string{safeErrorReply},
		Status:       models.StatusError,
		ErrorCode:    &errorCode,
		ErrorMessage: &errorMessage,
	}
}

func errorHistoryResponse(sessionID, errorCode, errorMessage string) *models.HistoryResponse {
	return &models.HistoryResponse{
		SessionID:    sessionID,
		Status:       models.StatusError,
		ErrorCode:    &errorCode,
		ErrorMessage: &errorMessage,
	}
}

func (nt *NATSTransport) Close() error {
	if nt.conn != nil {
		nt.conn.Close()
		nt.logger.Info("NATS connection closed")
	}
	return nil
}
