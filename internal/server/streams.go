package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"yard-service/internal/stream"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// sseSubscriber writes snapshots as Server-Sent Events frames. Writes happen
// on the publisher's tick goroutine while the handler goroutine blocks on the
// request context, so they are serialized with a mutex.
type sseSubscriber struct {
	mu sync.Mutex
	w  http.ResponseWriter
	fl http.Flusher
}

func (s *sseSubscriber) Send(snap stream.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", payload); err != nil {
		return err
	}
	s.fl.Flush()
	return nil
}

// StreamSSE subscribes the client to the given report stream and emits JSON
// snapshots until the client disconnects.
func (h *Handler) StreamSSE(kind stream.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fl, ok := w.(http.Flusher)
		if !ok {
			WriteError(r.Context(), w, http.StatusInternalServerError, "Streaming not supported")
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		fl.Flush()

		sub, err := h.pub.Subscribe(kind, &sseSubscriber{w: w, fl: fl})
		if err != nil {
			return
		}

		<-r.Context().Done()
		h.pub.Unsubscribe(sub)
		log.Printf("SSE client disconnected from %s stream", kind)
	}
}

type wsSubscriber struct {
	conn *websocket.Conn
}

func (s wsSubscriber) Send(snap stream.Snapshot) error {
	return s.conn.WriteJSON(snap)
}

// StreamWebSocket upgrades the connection and pushes live vehicle positions
// until the peer closes.
func (h *Handler) StreamWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Failed to upgrade to WebSocket: %v", err)
		return
	}

	sub, err := h.pub.Subscribe(stream.KindPositions, wsSubscriber{conn: conn})
	if err != nil {
		conn.Close()
		return
	}

	// The read loop only detects disconnects; clients do not send data.
	go func() {
		defer func() {
			h.pub.Unsubscribe(sub)
			conn.Close()
			log.Printf("WebSocket client disconnected from positions stream")
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Printf("WebSocket error: %v", err)
				}
				return
			}
		}
	}()
}
