package models

import (
	"fmt"
	"math/rand"
	"sort"
	"time"
)

type GameState string

const (
	NoGame          GameState = "no_game"
	Setup           GameState = "setup"
	Lobby           GameState = "lobby"
	QuestionActive  GameState = "question_active"
	QuestionResults GameState = "question_results"
	Finished        GameState = "finished"
)

// Client is the connection handle a player is bound to. Send must never
// block the caller; a stalled connection drops messages instead.
type Client interface {
	ID() string
	Send(v interface{})
}

type Player struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Total    int    `json:"total"`
	IsHost   bool   `json:"is_host"`
	Answered bool   `json:"-"`
	Client   Client `json:"-"`
}

type Question struct {
	ID          int      `json:"id"`
	Text        string   `json:"text"`
	Answers     []string `json:"answers"`
	Correct     int      `json:"correct"`
	TimeLimitMs int      `json:"time_limit_ms"`
}

// Answer records one player's submission for the current question.
// Answers live only for the lifetime of a single question.
type Answer struct {
	PlayerID   int
	Index      int
	ReceivedAt time.Time
}

// Game is the single authoritative session record. It is owned by the
// server loop goroutine and is never touched concurrently.
type Game struct {
	RoomCode        string
	State           GameState
	Players         map[int]*Player
	Questions       []Question
	NextPlayerID    int
	CurrentQuestion int // index into Questions, -1 before the first question
	QuestionStart   time.Time
	Answers         []Answer

	byClient map[string]int // connection id -> player id
}

func NewGame() *Game {
	g := &Game{}
	g.Reset()
	return g
}

// Reset returns every field to the NO_GAME baseline.
func (g *Game) Reset() {
	g.RoomCode = ""
	g.State = NoGame
	g.Players = make(map[int]*Player)
	g.Questions = nil
	g.NextPlayerID = 1
	g.CurrentQuestion = -1
	g.QuestionStart = time.Time{}
	g.Answers = nil
	g.byClient = make(map[string]int)
}

func (g *Game) AddPlayer(name string, isHost bool, c Client) *Player {
	p := &Player{
		ID:     g.NextPlayerID,
		Name:   name,
		IsHost: isHost,
		Client: c,
	}
	g.NextPlayerID++
	g.Players[p.ID] = p
	if c != nil {
		g.byClient[c.ID()] = p.ID
	}
	return p
}

// PlayerByClient resolves a connection to its player, or nil if the
// connection never joined.
func (g *Game) PlayerByClient(clientID string) *Player {
	id, ok := g.byClient[clientID]
	if !ok {
		return nil
	}
	return g.Players[id]
}

// RemovePlayerByClient drops the player bound to the given connection and
// returns the removed record, or nil if there was none.
func (g *Game) RemovePlayerByClient(clientID string) *Player {
	id, ok := g.byClient[clientID]
	if !ok {
		return nil
	}
	p := g.Players[id]
	delete(g.Players, id)
	delete(g.byClient, clientID)
	return p
}

// SortedPlayerIDs returns player ids in ascending order, which is join
// order. Rosters and rankings are rendered in this order.
func (g *Game) SortedPlayerIDs() []int {
	ids := make([]int, 0, len(g.Players))
	for id := range g.Players {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// CurrentQ returns the active question, or nil when CurrentQuestion does
// not point into Questions.
func (g *Game) CurrentQ() *Question {
	if g.CurrentQuestion < 0 || g.CurrentQuestion >= len(g.Questions) {
		return nil
	}
	return &g.Questions[g.CurrentQuestion]
}

func (g *Game) HasNextQuestion() bool {
	return g.CurrentQuestion+1 < len(g.Questions)
}

// ResetAnswered clears every player's per-question answered flag.
func (g *Game) ResetAnswered() {
	for _, p := range g.Players {
		p.Answered = false
	}
}

// GenerateRoomCode produces a 4-digit code. There is no collision check:
// at most one session exists at a time.
func GenerateRoomCode() string {
	return fmt.Sprintf("%d", 1000+rand.Intn(9000))
}
