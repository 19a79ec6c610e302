package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/finecision/finecision/internal/logging"
	"github.com/finecision/finecision/pkg/domain"
)

// allWorkflows is the subscription key receiving decisions of every workflow.
const allWorkflows = ""

// StreamManager fans decision events out to Server-Sent Events subscribers.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // WorkflowID -> Set of Channels
	logger      *slog.Logger
}

// NewStreamManager creates a stream manager. A nil logger discards diagnostics.
func NewStreamManager(logger *slog.Logger) *StreamManager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a listener for workflowID ("" for every workflow).
// The returned function unsubscribes and closes the channel.
func (sm *StreamManager) Subscribe(workflowID string) (<-chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[workflowID]; !ok {
		sm.subscribers[workflowID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[workflowID][ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			if subs, ok := sm.subscribers[workflowID]; ok {
				delete(subs, ch)
				close(ch)
				if len(subs) == 0 {
					delete(sm.subscribers, workflowID)
				}
			}
		})
	}
}

// Broadcast sends msg to the subscribers of workflowID and of every workflow.
func (sm *StreamManager) Broadcast(workflowID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	keys := []string{allWorkflows}
	if workflowID != allWorkflows {
		keys = append(keys, workflowID)
	}
	for _, key := range keys {
		for ch := range sm.subscribers[key] {
			select {
			case ch <- msg:
			default:
				// Slow client.
				sm.logger.Warn("SSE: client buffer full, dropping message", "workflow_id", workflowID)
			}
		}
	}
}

// Hooks publishes every decision to the stream.
func (sm *StreamManager) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnDecision: func(_ context.Context, e *domain.DecisionEvent) {
			data, err := json.Marshal(e)
			if err != nil {
				sm.logger.Error("SSE: failed to encode decision", "error", err)
				return
			}
			sm.Broadcast(e.WorkflowID, string(data))
		},
	}
}

// SubscribeEvents handles GET /events[?workflowId=...].
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: streaming not supported")
		return
	}

	workflowID := r.URL.Query().Get("workflowId")
	ch, cancel := s.Streams.Subscribe(workflowID)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("SSE client disconnected", "workflow_id", workflowID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: decision\ndata: %s\n\n", msg)
			flusher.Flush()
		}
	}
}
