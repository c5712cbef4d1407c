package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/memory"
	"go.uber.org/zap"
)

// Manager sits between the transport and the store: it persists dialog state
// and transcript lines to the store and keeps a LangChainGo conversation
// buffer per session as an in-memory transcript cache. Sessions are
// independent; the map is the only shared state.
type Manager struct {
	store  Store
	logger *zap.Logger

	mu      sync.Mutex
	buffers map[string]*memory.ConversationBuffer
}

// NewManager creates a new session manager.
func NewManager(store Store, logger *zap.Logger) (*Manager, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Manager{
		store:   store,
		logger:  logger,
		buffers: make(map[string]*memory.ConversationBuffer),
	}, nil
}

// Load fetches the session and warms its transcript buffer.
func (m *Manager) Load(ctx context.Context, sessionID string) (*SessionData, error) {
	session, err := m.store.Load(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	if _, err := m.buffer(ctx, sessionID, session.Messages); err != nil {
		return nil, err
	}

	return session, nil
}

// RecordTurn appends one exchange (the user message, if any, and the bot
// replies) to the transcript and saves the session with its updated dialog
// state. userID is kept from the first turn that supplies it.
func (m *Manager) RecordTurn(ctx context.Context, session *SessionData, userID, userMessage string, replies []string) error {
	buf, err := m.buffer(ctx, session.SessionID, session.Messages)
	if err != nil {
		return err
	}

	if session.UserID == "" {
		session.UserID = userID
	}

	now := time.Now()
	if userMessage != "" {
		session.Messages = append(session.Messages, Message{Role: "user", Content: userMessage, Timestamp: now})
		if err := buf.ChatHistory.AddUserMessage(ctx, userMessage); err != nil {
			return fmt.Errorf("failed to add user message to buffer: %w", err)
		}
	}
	for _, reply := range replies {
		session.Messages = append(session.Messages, Message{Role: "assistant", Content: reply, Timestamp: now})
		if err := buf.ChatHistory.AddAIMessage(ctx, reply); err != nil {
			return fmt.Errorf("failed to add assistant message to buffer: %w", err)
		}
	}

	if err := m.store.Save(ctx, session); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	m.logger.Debug("turn recorded",
		zap.String("sessionID", session.SessionID),
		zap.Int("messages", len(session.Messages)),
	)

	return nil
}

// FormattedHistory returns the conversation transcript as a formatted string.
func (m *Manager) FormattedHistory(ctx context.Context, sessionID string) (string, error) {
	session, err := m.store.Load(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("failed to load session: %w", err)
	}

	buf, err := m.buffer(ctx, sessionID, session.Messages)
	if err != nil {
		return "", err
	}

	messages, err := buf.ChatHistory.Messages(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get messages: %w", err)
	}

	if len(messages) == 0 {
		return "No previous conversation.", nil
	}

	var formatted strings.Builder
	for _, msg := range messages {
		switch m := msg.(type) {
		case llms.HumanChatMessage:
			formatted.WriteString(fmt.Sprintf("User: %s\n", m.Content))
		case llms.AIChatMessage:
			formatted.WriteString(fmt.Sprintf("Assistant: %s\n", m.Content))
		case llms.SystemChatMessage:
			formatted.WriteString(fmt.Sprintf("System: %s\n", m.Content))
		}
	}

	return formatted.String(), nil
}

// Clear drops a session from both the cache and the store.
func (m *Manager) Clear(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	delete(m.buffers, sessionID)
	m.mu.Unlock()

	if err := m.store.Clear(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}

	return nil
}

// ActiveSessions returns the number of cached transcript buffers.
func (m *Manager) ActiveSessions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.buffers)
}

// Close closes the underlying store.
func (m *Manager) Close() error {
	if closer, ok := m.store.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}

// buffer returns the cached conversation buffer for a session, building it
// from the stored transcript on first use.
func (m *Manager) buffer(ctx context.Context, sessionID string, messages []Message) (*memory.ConversationBuffer, error) {
	m.mu.Lock()
	if buf, exists := m.buffers[sessionID]; exists {
		m.mu.Unlock()
		return buf, nil
	}
	buf := memory.NewConversationBuffer()
	m.buffers[sessionID] = buf
	m.mu.Unlock()

	for _, msg := range messages {
		var chatMsg llms.ChatMessage

		switch msg.Role {
		case "user":
			chatMsg = llms.HumanChatMessage{Content: msg.Content}
		case "assistant":
			chatMsg = llms.AIChatMessage{Content: msg.Content}
		case "system":
			chatMsg = llms.SystemChatMessage{Content: msg.Content}
		default:
			m.logger.Warn("unknown message role, skipping", zap.String("role", msg.Role))
			continue
		}

		if err := buf.ChatHistory.AddMessage(ctx, chatMsg); err != nil {
			return nil, fmt.Errorf("failed to add message to buffer: %w", err)
		}
	}

	return buf, nil
}
