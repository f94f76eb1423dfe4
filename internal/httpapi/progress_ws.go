package httpapi

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ProgressUpdate is one processing stage transition pushed to subscribers.
type ProgressUpdate struct {
	InterviewID string    `json:"interview_id"`
	Stage       string    `json:"stage"`
	At          time.Time `json:"at"`
}

// ProgressHub fans processing stage updates out to WebSocket subscribers.
// The processing worker publishes into it; handlers subscribe per interview.
type ProgressHub struct {
	mu   sync.Mutex
	subs map[string]map[chan ProgressUpdate]struct{}
}

func NewProgressHub() *ProgressHub {
	return &ProgressHub{
		subs: make(map[string]map[chan ProgressUpdate]struct{}),
	}
}

// Publish delivers a stage update to all subscribers of the interview.
// It never blocks: slow subscribers drop updates instead of stalling the worker.
func (h *ProgressHub) Publish(interviewID, stage string) {
	update := ProgressUpdate{
		InterviewID: interviewID,
		Stage:       stage,
		At:          time.Now(),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[interviewID] {
		select {
		case ch <- update:
		default:
		}
	}
}

func (h *ProgressHub) subscribe(interviewID string) chan ProgressUpdate {
	ch := make(chan ProgressUpdate, 16)
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[interviewID] == nil {
		h.subs[interviewID] = make(map[chan ProgressUpdate]struct{})
	}
	h.subs[interviewID][ch] = struct{}{}
	return ch
}

func (h *ProgressHub) unsubscribe(interviewID string, ch chan ProgressUpdate) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs[interviewID], ch)
	if len(h.subs[interviewID]) == 0 {
		delete(h.subs, interviewID)
	}
}

// handleProgressWS streams processing stage updates for one interview.
// WebSocket clients cannot set headers, so the JWT arrives as a query param.
func (r *Router) handleProgressWS(w http.ResponseWriter, req *http.Request) {
	tokenString := req.URL.Query().Get("token")
	if tokenString == "" {
		http.Error(w, `{"error": "missing token"}`, http.StatusUnauthorized)
		return
	}

	claims, err := r.parseJWT(tokenString)
	if err != nil {
		http.Error(w, `{"error": "invalid token"}`, http.StatusUnauthorized)
		return
	}
	valid, err := r.store.IsSessionValid(req.Context(), hashToken(tokenString))
	if err != nil || !valid {
		http.Error(w, `{"error": "session expired or revoked"}`, http.StatusUnauthorized)
		return
	}

	id := req.PathValue("id")
	iv, err := r.store.GetInterview(req.Context(), id)
	if err != nil || iv.UserID != claims.UserID {
		http.Error(w, `{"error": "interview not found"}`, http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.logger.Printf("progress: websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ch := r.progress.subscribe(iv.ID)
	defer r.progress.unsubscribe(iv.ID, ch)

	// Send the current status immediately so late subscribers aren't blind.
	initial := ProgressUpdate{InterviewID: iv.ID, Stage: iv.Status, At: time.Now()}
	if err := conn.WriteJSON(initial); err != nil {
		return
	}

	// Reader goroutine detects client disconnects.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case update := <-ch:
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteJSON(update); err != nil {
				return
			}
			if update.Stage == "completed" || update.Stage == "failed" {
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, update.Stage))
				return
			}
		case <-done:
			return
		}
	}
}
