package services

import (
	"log"
	"sort"
	"time"

	"quizline/internal/config"
	"quizline/internal/models"
)

// GameService owns the single authoritative game session and implements
// every inbound message handler plus the question timeout check.
//
// Every method must be called from the one server loop goroutine. Handlers
// run to completion before the next event is processed, so the session
// needs no lock; if this ever moves to concurrent handlers, the session
// must be put behind a single owning goroutine again, not fine-grained
// locks.
type GameService struct {
	game *models.Game
	cfg  *config.Config
}

func NewGameService(cfg *config.Config) *GameService {
	return &GameService{
		game: models.NewGame(),
		cfg:  cfg,
	}
}

func (gs *GameService) Game() *models.Game {
	return gs.game
}

// CreateGame handles create_game: full reset, fresh room code, requester
// becomes the host with player id 1.
func (gs *GameService) CreateGame(c models.Client, req models.Request) {
	g := gs.game
	if g.State != models.NoGame && g.State != models.Finished {
		c.Send(models.ErrorMessage{Error: ErrGameExists.Error()})
		return
	}

	g.Reset()
	g.RoomCode = models.GenerateRoomCode()
	g.State = models.Setup

	name := req.Name
	if name == "" {
		name = "host"
	}
	host := g.AddPlayer(name, true, c)

	log.Printf("Game created: room %s, host %q (player %d)", g.RoomCode, host.Name, host.ID)
	c.Send(models.CreateOK{Type: "create_ok", Room: g.RoomCode, ID: host.ID, Host: true})
}

// AddQuestion handles add_question during SETUP. Only the host may author
// questions; invalid questions are rejected without being appended.
func (gs *GameService) AddQuestion(c models.Client, req models.Request) {
	g := gs.game
	if g.State != models.Setup {
		return
	}
	p := g.PlayerByClient(c.ID())
	if p == nil || !p.IsHost {
		return
	}

	q := models.Question{
		ID:          len(g.Questions) + 1,
		Text:        req.Text,
		Answers:     req.Answers,
		Correct:     intValue(req.Correct, -1),
		TimeLimitMs: intValue(req.TimeLimitMs, gs.cfg.QuestionTimeMs),
	}
	if q.Text == "" || len(q.Answers) == 0 || q.Correct < 0 || q.Correct >= len(q.Answers) {
		c.Send(models.ErrorMessage{Error: ErrInvalidQuestion.Error()})
		return
	}

	g.Questions = append(g.Questions, q)
	c.Send(models.AddQuestionOK{Type: "add_question_ok", QuestionID: q.ID})
}

// OpenLobby handles start_game: the host opens the room for joins once at
// least one question exists.
func (gs *GameService) OpenLobby(c models.Client) {
	g := gs.game
	p := g.PlayerByClient(c.ID())
	if p == nil || !p.IsHost {
		return
	}
	if g.State != models.Setup {
		return
	}
	if len(g.Questions) == 0 {
		c.Send(models.ErrorMessage{Error: ErrNoQuestions.Error()})
		return
	}

	g.State = models.Lobby
	log.Printf("Lobby open: room %s, %d question(s)", g.RoomCode, len(g.Questions))
	gs.broadcast(gs.lobbyUpdate())
	c.Send(models.LobbyOpen{Type: "lobby_open", Room: g.RoomCode})
}

// Join handles join during LOBBY. The joiner becomes host only if the
// player map is empty, which happens when the host disconnected after
// opening the lobby.
func (gs *GameService) Join(c models.Client, req models.Request) {
	g := gs.game
	if g.State != models.Lobby {
		c.Send(models.ErrorMessage{Error: ErrNotAccepting.Error()})
		return
	}
	if req.Room != g.RoomCode || req.Name == "" {
		c.Send(models.ErrorMessage{Error: ErrInvalidJoin.Error()})
		return
	}

	isHost := len(g.Players) == 0
	p := g.AddPlayer(req.Name, isHost, c)

	log.Printf("Player %q joined room %s as player %d", p.Name, g.RoomCode, p.ID)
	c.Send(models.JoinOK{Type: "join_ok", ID: p.ID, Host: isHost})
	gs.broadcast(gs.lobbyUpdate())
}

// BeginQuiz handles begin_quiz: the host starts the question sequence from
// LOBBY, or moves on from QUESTION_RESULTS.
func (gs *GameService) BeginQuiz(c models.Client) {
	g := gs.game
	p := g.PlayerByClient(c.ID())
	if p == nil || !p.IsHost {
		return
	}
	if g.State != models.Lobby && g.State != models.QuestionResults {
		return
	}

	if g.State == models.Lobby {
		g.CurrentQuestion = -1
	}
	gs.startQuestion()
}

// SubmitAnswer handles answer. Every failed precondition is a silent
// no-op: stale or duplicate submissions are expected races, not protocol
// violations. Scoring is deferred to question close.
func (gs *GameService) SubmitAnswer(c models.Client, req models.Request) {
	g := gs.game
	if g.State != models.QuestionActive {
		return
	}
	questionID := intValue(req.QuestionID, -1)
	answerIndex := intValue(req.Answer, -1)
	if questionID < 0 || answerIndex < 0 {
		return
	}
	q := g.CurrentQ()
	if q == nil || q.ID != questionID {
		return
	}
	now := time.Now()
	if now.Sub(g.QuestionStart) > time.Duration(q.TimeLimitMs)*time.Millisecond {
		return
	}
	p := g.PlayerByClient(c.ID())
	if p == nil || p.IsHost || p.Answered {
		return
	}

	p.Answered = true
	g.Answers = append(g.Answers, models.Answer{PlayerID: p.ID, Index: answerIndex, ReceivedAt: now})
}

// NextQuestion handles next_question: the host either advances to the
// next question or, with none left, ends the game.
func (gs *GameService) NextQuestion(c models.Client) {
	g := gs.game
	p := g.PlayerByClient(c.ID())
	if p == nil || !p.IsHost {
		return
	}
	if g.State != models.QuestionResults {
		return
	}

	if !g.HasNextQuestion() {
		gs.finishGame()
	} else {
		gs.startQuestion()
	}
}

// ResetGame handles reset_game: host only, FINISHED only, back to NO_GAME.
func (gs *GameService) ResetGame(c models.Client) {
	g := gs.game
	p := g.PlayerByClient(c.ID())
	if p == nil || !p.IsHost {
		return
	}
	if g.State != models.Finished {
		return
	}

	log.Printf("Game reset: room %s cleared", g.RoomCode)
	g.Reset()
}

// CheckQuestionTimeout runs once per loop tick. When the active question's
// time limit has elapsed it scores the collected answers, moves to
// QUESTION_RESULTS and broadcasts the breakdown. Idempotent: once the
// state has moved on, re-invocation does nothing.
func (gs *GameService) CheckQuestionTimeout() {
	g := gs.game
	if g.State != models.QuestionActive {
		return
	}
	q := g.CurrentQ()
	if q == nil {
		return
	}
	if time.Since(g.QuestionStart) < time.Duration(q.TimeLimitMs)*time.Millisecond {
		return
	}

	results := gs.scoreAnswers(q)
	g.State = models.QuestionResults
	log.Printf("Question %d closed: %d answer(s) scored", q.ID, len(results))
	gs.broadcast(models.QuestionResultsMessage{Type: "question_results", Correct: q.Correct, Results: results})
}

// DropClient tears down whatever player the disconnected connection was
// bound to. A re-broadcast keeps lobby rosters current.
func (gs *GameService) DropClient(clientID string) {
	g := gs.game
	p := g.RemovePlayerByClient(clientID)
	if p == nil {
		return
	}
	log.Printf("Player %d (%q) removed after disconnect", p.ID, p.Name)
	if g.State == models.Lobby {
		gs.broadcast(gs.lobbyUpdate())
	}
}

// startQuestion advances to the next question and broadcasts it. No-op
// when no further question exists.
func (gs *GameService) startQuestion() {
	g := gs.game
	if !g.HasNextQuestion() {
		return
	}

	g.CurrentQuestion++
	q := g.CurrentQ()
	g.Answers = nil
	g.ResetAnswered()
	g.QuestionStart = time.Now()
	g.State = models.QuestionActive

	log.Printf("Question %d active: limit %dms", q.ID, q.TimeLimitMs)
	gs.broadcast(models.QuestionMessage{
		Type:        "question",
		QuestionID:  q.ID,
		Text:        q.Text,
		Answers:     q.Answers,
		TimeLimitMs: q.TimeLimitMs,
	})
}

func (gs *GameService) finishGame() {
	g := gs.game
	g.State = models.Finished
	log.Printf("Game finished: room %s", g.RoomCode)
	gs.broadcast(gs.finalResults())
}

// scoreAnswers awards points for every collected answer, in arrival order,
// and returns the per-player breakdown for the results broadcast. The
// breakdown reuses the same computation that mutates the totals, so the
// two views cannot diverge.
func (gs *GameService) scoreAnswers(q *models.Question) []models.PlayerResult {
	g := gs.game
	results := make([]models.PlayerResult, 0, len(g.Answers))
	for _, a := range g.Answers {
		p := g.Players[a.PlayerID]
		if p == nil {
			// Player disconnected between answering and question close.
			continue
		}
		points := Score(a.Index, q.Correct, a.ReceivedAt.Sub(g.QuestionStart))
		p.Total += points
		results = append(results, models.PlayerResult{Name: p.Name, Points: points, Total: p.Total})
	}
	return results
}

// finalResults ranks non-host players by total, descending. Ties keep
// join order (stable sort over ascending ids).
func (gs *GameService) finalResults() models.FinalResultsMessage {
	g := gs.game
	ranked := make([]*models.Player, 0, len(g.Players))
	for _, id := range g.SortedPlayerIDs() {
		if p := g.Players[id]; !p.IsHost {
			ranked = append(ranked, p)
		}
	}
	sortPlayersByTotal(ranked)

	ranking := make([]models.RankingEntry, 0, len(ranked))
	for _, p := range ranked {
		ranking = append(ranking, models.RankingEntry{Name: p.Name, Total: p.Total})
	}
	return models.FinalResultsMessage{Type: "final_results", Ranking: ranking}
}

// lobbyUpdate builds the roster broadcast: non-host display names in join
// order.
func (gs *GameService) lobbyUpdate() models.LobbyUpdate {
	g := gs.game
	names := make([]string, 0, len(g.Players))
	for _, id := range g.SortedPlayerIDs() {
		if p := g.Players[id]; !p.IsHost {
			names = append(names, p.Name)
		}
	}
	return models.LobbyUpdate{Type: "lobby_update", Players: names, Room: g.RoomCode}
}

// broadcast sends to every current player, host included. Connections
// that never joined the game receive nothing.
func (gs *GameService) broadcast(v interface{}) {
	g := gs.game
	for _, id := range g.SortedPlayerIDs() {
		if p := g.Players[id]; p.Client != nil {
			p.Client.Send(v)
		}
	}
}

func sortPlayersByTotal(ps []*models.Player) {
	sort.SliceStable(ps, func(i, j int) bool {
		return ps[i].Total > ps[j].Total
	})
}

func intValue(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}
