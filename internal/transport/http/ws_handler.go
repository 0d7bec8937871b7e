package http

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"iq-quiz-service/internal/app"
	"iq-quiz-service/internal/domain"
)

const wsWriteTimeout = 10 * time.Second

// WSHandler streams leaderboard snapshots to connected clients: the
// current board on connect, then a push after every accepted submission.
type WSHandler struct {
	quiz     *app.QuizService
	feed     *app.RankingFeed
	upgrader websocket.Upgrader
}

func NewWSHandler(quiz *app.QuizService, feed *app.RankingFeed) *WSHandler {
	return &WSHandler{
		quiz: quiz,
		feed: feed,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type wsMessage struct {
	Type    string             `json:"type"`
	Payload domain.Leaderboard `json:"payload"`
}

// ServeRanking upgrades the connection and pumps leaderboard updates
// until the client goes away.
func (h *WSHandler) ServeRanking(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade: %v", err)
		return
	}
	defer conn.Close()

	updates, cancel := h.feed.Subscribe()
	defer cancel()

	initial, err := h.quiz.Leaderboard(r.Context())
	if err != nil {
		log.Printf("ws initial leaderboard: %v", err)
		return
	}
	if err := h.writeSnapshot(conn, initial); err != nil {
		return
	}

	// Drain inbound frames so close/ping handling works; clients don't
	// send data on this stream.
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
		case lb, ok := <-updates:
			if !ok {
				return
			}
			if err := h.writeSnapshot(conn, lb); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func (h *WSHandler) writeSnapshot(conn *websocket.Conn, lb domain.Leaderboard) error {
	if err := conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
		log.Printf("ws set deadline: %v", err)
		return err
	}
	if err := conn.WriteJSON(wsMessage{Type: "leaderboard", Payload: lb}); err != nil {
		log.Printf("ws write: %v", err)
		return err
	}
	return nil
}
