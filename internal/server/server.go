package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"sync"
	"time"

	"quizline/internal/config"
	"quizline/internal/models"
	"quizline/internal/services"

	"github.com/google/uuid"
)

type eventKind int

const (
	eventConnect eventKind = iota
	eventLine
	eventDisconnect
)

// event is one unit of work for the server loop: a new connection, one
// framed line, or a disconnect. Funneling everything through a single
// channel keeps all session mutation on one goroutine and preserves
// per-connection message order.
type event struct {
	kind   eventKind
	client *client
	line   string
}

// Server accepts TCP connections speaking the newline-delimited JSON
// protocol and runs the single game loop. One goroutine owns the game
// session; reader and writer goroutines per connection only move bytes.
type Server struct {
	cfg  *config.Config
	game *services.GameService

	ln      net.Listener
	events  chan event
	clients map[string]*client // owned by the loop goroutine

	quit     chan struct{} // closed by Stop
	done     chan struct{} // closed when the loop has exited
	stopOnce sync.Once
}

func NewServer(cfg *config.Config) *Server {
	return &Server{
		cfg:     cfg,
		game:    services.NewGameService(cfg),
		events:  make(chan event, 256),
		clients: make(map[string]*client),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Start binds the listen port and launches the accept and loop goroutines.
// It returns immediately; use Wait to block until shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.Port))
	if err != nil {
		return fmt.Errorf("listen on port %d: %w", s.cfg.Port, err)
	}
	s.ln = ln

	log.Printf("Quiz server listening on %s, waiting for create_game", ln.Addr())
	go s.acceptLoop()
	go s.run()
	return nil
}

// Addr returns the bound listen address.
func (s *Server) Addr() net.Addr {
	return s.ln.Addr()
}

// Wait blocks until the server loop has shut down.
func (s *Server) Wait() {
	<-s.done
}

// Stop closes the listener and shuts down the loop and all connections.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.quit)
		if s.ln != nil {
			s.ln.Close()
		}
	})
	<-s.done
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				log.Printf("Accept error: %v", err)
			}
			return
		}

		c := &client{
			id:   uuid.New().String(),
			conn: conn,
			send: make(chan []byte, 256),
		}
		select {
		case s.events <- event{kind: eventConnect, client: c}:
		case <-s.done:
			conn.Close()
			return
		}
		go c.readLoop(s.events, s.done)
		go c.writeLoop()
	}
}

// run is the server loop: one event at a time, plus a fixed tick that
// drives the question timeout check even with zero traffic.
func (s *Server) run() {
	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.quit:
			s.shutdown()
			return
		case ev := <-s.events:
			switch ev.kind {
			case eventConnect:
				s.clients[ev.client.id] = ev.client
				log.Printf("Client %s connected from %s", ev.client.id, ev.client.conn.RemoteAddr())
			case eventLine:
				s.dispatch(ev.client, ev.line)
			case eventDisconnect:
				s.teardown(ev.client)
			}
		case <-ticker.C:
			s.game.CheckQuestionTimeout()
		}
	}
}

// dispatch decodes one framed line and routes it by its type field.
// Decode failures and unknown types are answered on the originating
// connection only and never touch game state.
func (s *Server) dispatch(c *client, line string) {
	var req models.Request
	if err := json.Unmarshal([]byte(line), &req); err != nil {
		c.Send(models.ErrorMessage{Error: services.ErrBadJSON.Error()})
		return
	}

	switch req.Type {
	case "create_game":
		s.game.CreateGame(c, req)
	case "add_question":
		s.game.AddQuestion(c, req)
	case "start_game":
		s.game.OpenLobby(c)
	case "join":
		s.game.Join(c, req)
	case "begin_quiz":
		s.game.BeginQuiz(c)
	case "answer":
		s.game.SubmitAnswer(c, req)
	case "next_question":
		s.game.NextQuestion(c)
	case "reset_game":
		s.game.ResetGame(c)
	default:
		c.Send(models.ErrorMessage{Error: services.ErrUnknownType.Error()})
	}
}

// teardown runs on the loop goroutine when a connection drops, after any
// in-flight events for it have been processed.
func (s *Server) teardown(c *client) {
	if _, ok := s.clients[c.id]; !ok {
		return
	}
	delete(s.clients, c.id)
	s.game.DropClient(c.id)
	c.conn.Close()
	close(c.send)
	log.Printf("Client %s disconnected", c.id)
}

func (s *Server) shutdown() {
	for id, c := range s.clients {
		c.conn.Close()
		close(c.send)
		delete(s.clients, id)
	}
	close(s.done)
}
