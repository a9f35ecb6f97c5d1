package state

import (
	"context"
	"log/slog"
	"sync"

	"github.com/m3rciful/dealerbot/core/logger"
)

// MemoryStore keeps sessions in process memory. Sessions live until Clear
// or process exit.
type MemoryStore[S any] struct {
	mu       sync.RWMutex
	sessions map[int64]S
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore[S any]() *MemoryStore[S] {
	return &MemoryStore[S]{sessions: make(map[int64]S)}
}

// GetOrCreate returns the stored session, registering a zero one for unseen chats.
func (m *MemoryStore[S]) GetOrCreate(ctx context.Context, chatID int64) (S, error) {
	m.mu.RLock()
	s, ok := m.sessions[chatID]
	m.mu.RUnlock()
	if ok {
		return s, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok = m.sessions[chatID]; ok {
		return s, nil
	}
	var zero S
	m.sessions[chatID] = zero
	logger.LogEvent(ctx, logger.SVCSessions, slog.LevelDebug, "session.create",
		slog.Int64("chat_id", chatID),
		slog.String("backend", BackendMemory),
	)
	return zero, nil
}

// Save replaces the session for chatID.
func (m *MemoryStore[S]) Save(_ context.Context, chatID int64, s S) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[chatID] = s
	return nil
}

// Clear removes the session for chatID.
func (m *MemoryStore[S]) Clear(_ context.Context, chatID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, chatID)
	return nil
}
