package ingress

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	bberrors "github.com/harunnryd/bookbot/internal/errors"
	"github.com/harunnryd/bookbot/internal/session"
)

// SourceWeb tags messages that arrive through the chat API.
const SourceWeb = "web"

// Conversation answers one user message at a time.
type Conversation interface {
	Handle(ctx context.Context, userID, text string) string
	Reset(ctx context.Context, userID string) error
	Stats() session.Stats
}

// ChatAPI serves the synchronous web chat endpoints.
type ChatAPI struct {
	ingress *Ingress
	conv    Conversation
}

func NewChatAPI(ingress *Ingress, conv Conversation) *ChatAPI {
	return &ChatAPI{ingress: ingress, conv: conv}
}

// Register mounts the chat routes on mux.
func (a *ChatAPI) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/chat", a.handleChat)
	mux.HandleFunc("GET /api/v1/sessions", a.handleSessions)
	mux.HandleFunc("POST /api/v1/sessions/{id}/reset", a.handleReset)
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	UserID    string        `json:"user_id"`
	MessageID string        `json:"message_id"`
	Message   string        `json:"message"`
	Messages  []chatMessage `json:"messages"`
}

// text returns Message, or the last non-empty entry of Messages.
func (r chatRequest) text() string {
	if strings.TrimSpace(r.Message) != "" {
		return r.Message
	}
	for i := len(r.Messages) - 1; i >= 0; i-- {
		if strings.TrimSpace(r.Messages[i].Content) != "" {
			return r.Messages[i].Content
		}
	}
	return ""
}

type chatResponse struct {
	Response  string `json:"response"`
	Status    string `json:"status"`
	SessionID string `json:"session_id,omitempty"`
}

func (a *ChatAPI) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, chatResponse{Status: "error", Response: "invalid request body"})
		return
	}

	text := req.text()
	if text == "" {
		writeJSON(w, http.StatusBadRequest, chatResponse{Status: "error", Response: "message is required"})
		return
	}

	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		userID = "anonymous"
	}

	metadata := map[string]string{MetaUserID: userID}
	if req.MessageID != "" {
		metadata[MetaMessageID] = req.MessageID
	}
	evt := NewEvent(SourceWeb, TypeUserMessage, userID, text, metadata)

	ok, err := a.ingress.Accept(r.Context(), &evt)
	if err != nil {
		if errors.Is(err, bberrors.ErrDuplicateEvent) {
			writeJSON(w, http.StatusOK, chatResponse{Status: "duplicate"})
			return
		}
		slog.Error("Failed to accept chat message", "error", err)
		writeJSON(w, http.StatusInternalServerError, chatResponse{Status: "error", Response: "internal error"})
		return
	}
	if !ok {
		writeJSON(w, http.StatusAccepted, chatResponse{Status: "accepted"})
		return
	}

	reply := a.conv.Handle(r.Context(), evt.SessionID, evt.Content)
	writeJSON(w, http.StatusOK, chatResponse{Response: reply, Status: "success", SessionID: evt.SessionID})
}

type sessionsResponse struct {
	Active  int            `json:"active_sessions"`
	ByState map[string]int `json:"by_state"`
}

func (a *ChatAPI) handleSessions(w http.ResponseWriter, r *http.Request) {
	stats := a.conv.Stats()
	resp := sessionsResponse{Active: stats.Total, ByState: make(map[string]int, len(stats.ByState))}
	for state, n := range stats.ByState {
		resp.ByState[string(state)] = n
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *ChatAPI) handleReset(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		http.Error(w, "missing session id", http.StatusBadRequest)
		return
	}
	if err := a.conv.Reset(r.Context(), id); err != nil {
		slog.Error("Failed to reset session", "session", id, "error", err)
		http.Error(w, "reset failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset", "session_id": id})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("Failed to write response", "error", err)
	}
}
