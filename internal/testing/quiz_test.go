package testing

import (
	"net"
	"testing"
	"time"

	"quizline/internal/config"
	"quizline/internal/server"
)

const readTimeout = 3 * time.Second

// startServer runs a quiz server on an ephemeral port and returns its
// dial address.
func startServer(t *testing.T) string {
	t.Helper()

	cfg := config.Load()
	cfg.Port = 0
	cfg.TickInterval = 20 * time.Millisecond

	srv := server.NewServer(cfg)
	if err := srv.Start(); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	t.Cleanup(srv.Stop)

	_, port, err := net.SplitHostPort(srv.Addr().String())
	if err != nil {
		t.Fatalf("Failed to parse listen address: %v", err)
	}
	return "127.0.0.1:" + port
}

func connect(t *testing.T, addr string) *TestClient {
	t.Helper()
	tc, err := NewTestClient(addr)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	t.Cleanup(tc.Close)
	return tc
}

func send(t *testing.T, tc *TestClient, v interface{}) {
	t.Helper()
	if err := tc.SendJSON(v); err != nil {
		t.Fatalf("Failed to send %#v: %v", v, err)
	}
}

func read(t *testing.T, tc *TestClient) map[string]interface{} {
	t.Helper()
	msg, err := tc.ReadMessage(readTimeout)
	if err != nil {
		t.Fatalf("Failed to read message: %v", err)
	}
	return msg
}

func readType(t *testing.T, tc *TestClient, msgType string) map[string]interface{} {
	t.Helper()
	msg, err := tc.ReadUntilType(msgType, readTimeout)
	if err != nil {
		t.Fatalf("Failed to read %s message: %v", msgType, err)
	}
	return msg
}

func asInt(t *testing.T, v interface{}) int {
	t.Helper()
	f, ok := v.(float64)
	if !ok {
		t.Fatalf("Expected a number, got %T (%v)", v, v)
	}
	return int(f)
}

// createQuiz drives a host connection through create_game, one question
// and start_game, returning the room code.
func createQuiz(t *testing.T, host *TestClient, timeLimitMs int) string {
	t.Helper()

	send(t, host, map[string]interface{}{"type": "create_game", "name": "Host"})
	created := readType(t, host, "create_ok")
	room, _ := created["room"].(string)
	if len(room) != 4 {
		t.Fatalf("Expected a 4-digit room code, got %q", room)
	}

	send(t, host, map[string]interface{}{
		"type":          "add_question",
		"text":          "Capital of France?",
		"answers":       []string{"Paris", "Rome", "Berlin"},
		"correct":       0,
		"time_limit_ms": timeLimitMs,
	})
	readType(t, host, "add_question_ok")

	send(t, host, map[string]interface{}{"type": "start_game"})
	readType(t, host, "lobby_open")
	return room
}

func joinQuiz(t *testing.T, tc *TestClient, room, name string) int {
	t.Helper()
	send(t, tc, map[string]interface{}{"type": "join", "room": room, "name": name})
	ok := readType(t, tc, "join_ok")
	return asInt(t, ok["id"])
}

func TestGameSetupAndJoin(t *testing.T) {
	addr := startServer(t)
	host := connect(t, addr)

	send(t, host, map[string]interface{}{"type": "create_game", "name": "Host"})
	created := read(t, host)
	if created["type"] != "create_ok" {
		t.Fatalf("Expected create_ok, got %v", created)
	}
	if asInt(t, created["id"]) != 1 || created["host"] != true {
		t.Errorf("Unexpected create_ok payload: %v", created)
	}
	room := created["room"].(string)

	send(t, host, map[string]interface{}{
		"type":    "add_question",
		"text":    "2+2?",
		"answers": []string{"3", "4"},
		"correct": 1,
	})
	added := read(t, host)
	if added["type"] != "add_question_ok" || asInt(t, added["question_id"]) != 1 {
		t.Fatalf("Expected add_question_ok with id 1, got %v", added)
	}

	send(t, host, map[string]interface{}{"type": "start_game"})
	update := read(t, host)
	if update["type"] != "lobby_update" {
		t.Fatalf("Expected lobby_update, got %v", update)
	}
	open := read(t, host)
	if open["type"] != "lobby_open" || open["room"] != room {
		t.Fatalf("Expected lobby_open for room %s, got %v", room, open)
	}

	player := connect(t, addr)
	send(t, player, map[string]interface{}{"type": "join", "room": room, "name": "Bob"})
	joined := read(t, player)
	if joined["type"] != "join_ok" || asInt(t, joined["id"]) != 2 {
		t.Fatalf("Expected join_ok with id 2, got %v", joined)
	}
	if _, present := joined["host"]; present {
		t.Errorf("Expected host flag omitted for a regular player, got %v", joined)
	}

	update = readType(t, player, "lobby_update")
	players, _ := update["players"].([]interface{})
	if len(players) != 1 || players[0] != "Bob" {
		t.Errorf("Expected roster [Bob], got %v", players)
	}
}

func TestAnswerScoringOverTheWire(t *testing.T) {
	addr := startServer(t)
	host := connect(t, addr)
	room := createQuiz(t, host, 1000)

	player := connect(t, addr)
	joinQuiz(t, player, room, "Bob")

	send(t, host, map[string]interface{}{"type": "begin_quiz"})
	question := readType(t, player, "question")
	if asInt(t, question["question_id"]) != 1 || asInt(t, question["time_limit_ms"]) != 1000 {
		t.Fatalf("Unexpected question payload: %v", question)
	}

	time.Sleep(200 * time.Millisecond)
	send(t, player, map[string]interface{}{"type": "answer", "question_id": 1, "answer": 0})

	results := readType(t, player, "question_results")
	if asInt(t, results["correct"]) != 0 {
		t.Errorf("Expected correct index 0, got %v", results["correct"])
	}
	entries, _ := results["results"].([]interface{})
	if len(entries) != 1 {
		t.Fatalf("Expected one result entry, got %v", entries)
	}
	entry := entries[0].(map[string]interface{})
	if entry["name"] != "Bob" {
		t.Errorf("Expected Bob in results, got %v", entry)
	}
	points := asInt(t, entry["points"])
	// Network and scheduling jitter makes the exact latency unpredictable,
	// but a correct answer around 200ms scores close to 980.
	if points < 1 || points > 980 {
		t.Errorf("Expected points in (0, 980], got %d", points)
	}
	if total := asInt(t, entry["total"]); total != points {
		t.Errorf("Expected total %d to equal points after one question, got %d", points, total)
	}
}

func TestDuplicateAnswerCountsOnce(t *testing.T) {
	addr := startServer(t)
	host := connect(t, addr)
	room := createQuiz(t, host, 500)

	player := connect(t, addr)
	joinQuiz(t, player, room, "Bob")

	send(t, host, map[string]interface{}{"type": "begin_quiz"})
	readType(t, player, "question")

	send(t, player, map[string]interface{}{"type": "answer", "question_id": 1, "answer": 0})
	send(t, player, map[string]interface{}{"type": "answer", "question_id": 1, "answer": 2})

	results := readType(t, player, "question_results")
	entries, _ := results["results"].([]interface{})
	if len(entries) != 1 {
		t.Fatalf("Expected a single result entry after duplicate answers, got %v", entries)
	}
	if points := asInt(t, entries[0].(map[string]interface{})["points"]); points < 1 {
		t.Errorf("Expected the first (correct) answer to score, got %d", points)
	}
}

func TestFullGameLifecycle(t *testing.T) {
	addr := startServer(t)
	host := connect(t, addr)
	room := createQuiz(t, host, 200)

	player := connect(t, addr)
	joinQuiz(t, player, room, "Bob")

	send(t, host, map[string]interface{}{"type": "begin_quiz"})
	readType(t, player, "question")

	// Nobody answers; the timeout closes the question with empty results.
	results := readType(t, player, "question_results")
	if entries, _ := results["results"].([]interface{}); len(entries) != 0 {
		t.Errorf("Expected no result entries, got %v", entries)
	}

	send(t, host, map[string]interface{}{"type": "next_question"})
	final := readType(t, player, "final_results")
	ranking, _ := final["ranking"].([]interface{})
	if len(ranking) != 1 {
		t.Fatalf("Expected one ranked player, got %v", ranking)
	}
	top := ranking[0].(map[string]interface{})
	if top["name"] != "Bob" || asInt(t, top["total"]) != 0 {
		t.Errorf("Unexpected ranking entry: %v", top)
	}

	// The host can tear the session down and start over.
	send(t, host, map[string]interface{}{"type": "reset_game"})
	send(t, host, map[string]interface{}{"type": "create_game", "name": "Host"})
	created := readType(t, host, "create_ok")
	if asInt(t, created["id"]) != 1 {
		t.Errorf("Expected a fresh session with host id 1, got %v", created)
	}
}

func TestProtocolErrors(t *testing.T) {
	addr := startServer(t)
	tc := connect(t, addr)

	if err := tc.SendRaw("{not json"); err != nil {
		t.Fatalf("Failed to send raw line: %v", err)
	}
	msg := read(t, tc)
	if msg["error"] != "bad json" {
		t.Errorf("Expected bad json error, got %v", msg)
	}

	send(t, tc, map[string]interface{}{"type": "warp_drive"})
	msg = read(t, tc)
	if msg["error"] != "unknown type" {
		t.Errorf("Expected unknown type error, got %v", msg)
	}

	// Joining with no open lobby is a validation error, not a silent drop.
	send(t, tc, map[string]interface{}{"type": "join", "room": "1234", "name": "Bob"})
	msg = read(t, tc)
	if msg["error"] != "not accepting players" {
		t.Errorf("Expected not accepting players error, got %v", msg)
	}
}
