package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Rohit-byte444/Redspot-quiz-bot-2/internal/app"
	"github.com/Rohit-byte444/Redspot-quiz-bot-2/internal/domain"
	"github.com/Rohit-byte444/Redspot-quiz-bot-2/internal/infra/memory"
	"github.com/Rohit-byte444/Redspot-quiz-bot-2/internal/transport/dispatch"
	"github.com/gorilla/websocket"
)

func TestWebSocketQuizFlow(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	creator := dial(t, server, "100", "Creator")
	defer creator.Close()

	send(t, creator, "callback", "quiz_new:math")
	created := readUntil(t, creator, "response")
	if created.Payload.SessionID != "s1" {
		t.Fatalf("expected session s1, got %+v", created.Payload)
	}

	player := dial(t, server, "200", "Ann")
	defer player.Close()

	send(t, player, "callback", "quiz_join:s1")
	joined := readUntil(t, player, "response")
	if !strings.Contains(joined.Payload.Text, "Ann") {
		t.Fatalf("expected Ann in participant list, got %q", joined.Payload.Text)
	}

	// the creator follows the session it created
	pushed := readUntil(t, creator, "snapshot")
	if !strings.Contains(pushed.Payload.Text, "Ann") {
		t.Fatalf("expected pushed snapshot with Ann, got %q", pushed.Payload.Text)
	}

	send(t, player, "callback", "quiz_start:s1")
	rejected := readUntil(t, player, "error")
	if rejected.Error.Message != "Only the quiz creator can do that." {
		t.Fatalf("unexpected rejection %q", rejected.Error.Message)
	}
}

func TestWebSocketRequiresUser(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	resp, err := http.Get(server.URL + "/ws")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store := memory.NewDocumentStore()
	store.AddTopic(domain.Topic{ID: "math", Name: "Math", Active: true})
	for _, id := range []string{"q1", "q2", "q3", "q4", "q5"} {
		store.AddQuestion(domain.Question{
			ID:       id,
			TopicID:  "math",
			Prompt:   "What is 2 + 2?",
			Options:  []string{"3", "4", "5"},
			Approved: true,
		})
	}
	store.AddUser(int64(100), domain.User{FullName: "Creator"})

	service := app.NewQuizService(
		memory.NewSessionStore(),
		memory.NewQuestionRepository(store, time.Minute),
		store,
		app.NewStatWriter(store, memory.NewCommitLedger(), 2, logger),
		app.DefaultOptions(),
		app.WithIDGenerator(func() string { return "s1" }),
		app.WithLogger(logger),
	)
	router := dispatch.NewRouter(memory.NewRateLimiter(), logger)
	dispatch.Register(router, service, app.NewStatsService(store, logger), dispatch.Cooldowns{})

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", NewWSHandler(router, service, logger).ServeWS)
	return httptest.NewServer(mux)
}

func dial(t *testing.T, server *httptest.Server, userID, name string) *websocket.Conn {
	t.Helper()
	u := "ws" + server.URL[len("http"):] + "/ws?userId=" + userID + "&name=" + name
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func send(t *testing.T, conn *websocket.Conn, typ, payload string) {
	t.Helper()
	if err := conn.WriteJSON(map[string]any{"type": typ, "payload": payload}); err != nil {
		t.Fatalf("write: %v", err)
	}
}

type frame struct {
	Type    string
	Payload domain.Response
	Error   struct {
		Message string `json:"message"`
	}
}

// readUntil skips frames until one of the expected type arrives.
func readUntil(t *testing.T, conn *websocket.Conn, expect string) frame {
	t.Helper()
	for i := 0; i < 10; i++ {
		var msg struct {
			Type    string          `json:"type"`
			Payload json.RawMessage `json:"payload"`
		}
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read json: %v", err)
		}
		if msg.Type != expect {
			continue
		}
		out := frame{Type: msg.Type}
		if expect == "error" {
			_ = json.Unmarshal(msg.Payload, &out.Error)
		} else {
			_ = json.Unmarshal(msg.Payload, &out.Payload)
		}
		return out
	}
	t.Fatalf("no %s frame received", expect)
	return frame{}
}

func TestDeliverStopsWhenWriterIsGone(t *testing.T) {
	full := make(chan outboundMessage[any], 1)
	full <- outboundMessage[any]{Type: "response"}
	writerDone := make(chan struct{})
	close(writerDone)

	done := make(chan bool)
	go func() {
		done <- deliver(full, writerDone, nil, outboundMessage[any]{Type: "snapshot"})
	}()
	select {
	case ok := <-done:
		if ok {
			t.Fatalf("expected delivery to be refused")
		}
	case <-time.After(time.Second):
		t.Fatalf("deliver blocked on a stopped writer")
	}

	open := make(chan outboundMessage[any], 1)
	if !deliver(open, make(chan struct{}), nil, outboundMessage[any]{Type: "response"}) {
		t.Fatalf("expected delivery with a running writer")
	}
}
