// Package admin serves one engine over HTTP. Commands are POST routes, the table is
// GET /snapshot and every engine notification is pushed to websocket subscribers of
// GET /events.
package admin

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/nrawrx3/uno"
	"github.com/nrawrx3/uno/console"
	"github.com/nrawrx3/uno/internal/messages"
	"github.com/nrawrx3/uno/internal/utils"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

type Config struct {
	ListenAddr string
	Engine     *uno.Engine
	Slot       uno.SaveSlot

	// Lock guards the engine when another frontend drives it too. Optional.
	Lock    sync.Locker
	Palette *console.Palette
	Logger  *log.Logger
}

type Admin struct {
	engine     *uno.Engine
	slot       uno.SaveSlot
	stateMutex sync.Locker
	palette    *console.Palette

	// Executes POST /command lines. It shares stateMutex and never renders.
	console *console.Console

	hub        *eventHub
	upgrader   websocket.Upgrader
	router     *mux.Router
	httpServer *http.Server
	logger     *log.Logger
}

const shutdownTimeout = 5 * time.Second

func NewAdmin(config Config) *Admin {
	admin := &Admin{
		engine:     config.Engine,
		slot:       config.Slot,
		stateMutex: config.Lock,
		palette:    config.Palette,
		logger:     config.Logger,
	}
	if admin.stateMutex == nil {
		admin.stateMutex = &sync.Mutex{}
	}
	if admin.palette == nil {
		admin.palette = console.NewPalette(false)
	}
	if admin.logger == nil {
		admin.logger = log.New(io.Discard, "", 0)
	}

	admin.console = console.New(console.Config{
		Engine:   admin.engine,
		Slot:     admin.slot,
		Lock:     admin.stateMutex,
		Palette:  admin.palette,
		Out:      io.Discard,
		Logger:   admin.logger,
		NoRender: true,
	})

	admin.hub = newEventHub(admin.logger)
	admin.engine.AddListener(admin.hub)

	r := mux.NewRouter()
	r.Path("/snapshot").Methods("GET").HandlerFunc(admin.handleSnapshot)
	r.Path("/events").Methods("GET").HandlerFunc(admin.handleEvents)
	r.Path("/play").Methods("POST").HandlerFunc(admin.handlePlay)
	r.Path("/draw").Methods("POST").HandlerFunc(admin.handleDraw)
	r.Path("/wild_color").Methods("POST").HandlerFunc(admin.handleWildColor)
	r.Path("/advance").Methods("POST").HandlerFunc(admin.handleAdvance)
	r.Path("/ai_turn").Methods("POST").HandlerFunc(admin.handleAITurn)
	r.Path("/undo").Methods("POST").HandlerFunc(admin.handleUndo)
	r.Path("/redo").Methods("POST").HandlerFunc(admin.handleRedo)
	r.Path("/save").Methods("POST").HandlerFunc(admin.handleSave)
	r.Path("/load").Methods("POST").HandlerFunc(admin.handleLoad)
	r.Path("/new_game").Methods("POST").HandlerFunc(admin.handleNewGame)
	r.Path("/next_round").Methods("POST").HandlerFunc(admin.handleNextRound)
	r.Path("/command").Methods("POST").HandlerFunc(admin.handleCommand)
	utils.RoutesSummary(r, admin.logger)
	admin.router = r

	admin.httpServer = &http.Server{
		Handler:           r,
		Addr:              config.ListenAddr,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      5 * time.Second,
		IdleTimeout:       1 * time.Minute,
		ReadHeaderTimeout: 2 * time.Second,
	}

	return admin
}

func (admin *Admin) Handler() http.Handler {
	return admin.router
}

// RunServer serves until ctx is done, then shuts the server down and disconnects every
// event subscriber.
func (admin *Admin) RunServer(ctx context.Context) error {
	admin.logger.Printf("Running table server at addr: %s", admin.httpServer.Addr)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := admin.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "table server failed")
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		admin.hub.closeAll()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return admin.httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// runCommand executes fn under the state lock and answers with the resulting snapshot.
func (admin *Admin) runCommand(w http.ResponseWriter, name string, fn func() error) {
	admin.stateMutex.Lock()
	err := fn()
	snap := admin.engine.Snapshot()
	admin.stateMutex.Unlock()

	if err != nil {
		admin.logger.Printf("%s failed: %s", name, err)
		messages.WriteErrorPayload(w, StatusOfError(err), err)
		return
	}
	messages.WriteJSON(w, &snap)
}

// Req:		GET /snapshot
// Resp:	uno.Snapshot
func (admin *Admin) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	admin.stateMutex.Lock()
	snap := admin.engine.Snapshot()
	admin.stateMutex.Unlock()
	messages.WriteJSON(w, &snap)
}

// Req:		GET /events (websocket upgrade)
// Push:	messages.EventMessage, starting with the current snapshot
func (admin *Admin) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := admin.upgrader.Upgrade(w, r, nil)
	if err != nil {
		admin.logger.Printf("websocket upgrade failed: %s", err)
		return
	}

	// Holding the state lock orders the greeting before any later broadcast.
	admin.stateMutex.Lock()
	sub, err := admin.hub.subscribe(conn, admin.engine.Snapshot())
	admin.stateMutex.Unlock()
	if err != nil {
		admin.logger.Print(err)
		conn.Close()
		return
	}
	go admin.hub.readPump(sub)
}

// Req:		POST /play messages.PlayCardRequest
// Resp:	uno.Snapshot
func (admin *Admin) handlePlay(w http.ResponseWriter, r *http.Request) {
	var req messages.PlayCardRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	admin.runCommand(w, "play", func() error {
		return admin.engine.PlayCard(req.Player, req.Card)
	})
}

// Req:		POST /draw messages.DrawCardRequest
// Resp:	uno.Snapshot
func (admin *Admin) handleDraw(w http.ResponseWriter, r *http.Request) {
	var req messages.DrawCardRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	admin.runCommand(w, "draw", func() error {
		return admin.engine.DrawCard(req.Player)
	})
}

// Req:		POST /wild_color messages.WildColorRequest
// Resp:	uno.Snapshot
func (admin *Admin) handleWildColor(w http.ResponseWriter, r *http.Request) {
	var req messages.WildColorRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	color, err := admin.palette.ParseColor(req.Color)
	if err != nil {
		messages.WriteErrorPayload(w, http.StatusBadRequest, err)
		return
	}
	admin.runCommand(w, "wild_color", func() error {
		return admin.engine.ResolveWildColor(color)
	})
}

func (admin *Admin) handleAdvance(w http.ResponseWriter, r *http.Request) {
	admin.runCommand(w, "advance", admin.engine.AdvanceTurn)
}

func (admin *Admin) handleAITurn(w http.ResponseWriter, r *http.Request) {
	admin.runCommand(w, "ai_turn", admin.engine.RunAITurn)
}

func (admin *Admin) handleUndo(w http.ResponseWriter, r *http.Request) {
	admin.runCommand(w, "undo", admin.engine.Undo)
}

func (admin *Admin) handleRedo(w http.ResponseWriter, r *http.Request) {
	admin.runCommand(w, "redo", admin.engine.Redo)
}

func (admin *Admin) handleSave(w http.ResponseWriter, r *http.Request) {
	admin.runCommand(w, "save", func() error {
		if admin.slot == nil {
			return console.ErrNoSaveSlot
		}
		return admin.engine.SaveToSlot(admin.slot)
	})
}

func (admin *Admin) handleLoad(w http.ResponseWriter, r *http.Request) {
	admin.runCommand(w, "load", func() error {
		if admin.slot == nil {
			return console.ErrNoSaveSlot
		}
		return admin.engine.LoadFromSlot(admin.slot)
	})
}

func (admin *Admin) handleNewGame(w http.ResponseWriter, r *http.Request) {
	admin.runCommand(w, "new_game", func() error {
		admin.engine.NewGame()
		return nil
	})
}

func (admin *Admin) handleNextRound(w http.ResponseWriter, r *http.Request) {
	admin.runCommand(w, "next_round", admin.engine.StartNextRound)
}

// Req:		POST /command messages.CommandRequest
// Resp:	uno.Snapshot
//
// Runs one console command for the current player. Only commands that act on the game
// are accepted.
func (admin *Admin) handleCommand(w http.ResponseWriter, r *http.Request) {
	var req messages.CommandRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	command, err := console.ParseCommandFromInput(req.Line)
	if err != nil {
		messages.WriteErrorPayload(w, http.StatusBadRequest, err)
		return
	}
	if !command.Kind.IsEngineCommand() {
		messages.WriteErrorPayload(w, http.StatusBadRequest, fmt.Errorf("command %s is not available over http", command.Kind))
		return
	}
	if command.Kind == console.CmdColor {
		if _, err := admin.palette.ParseColor(command.ColorName); err != nil {
			messages.WriteErrorPayload(w, http.StatusBadRequest, err)
			return
		}
	}

	admin.logger.Printf("command: %s", req.Line)
	if _, err := admin.console.ExecuteCommand(command); err != nil {
		admin.logger.Printf("command '%s' failed: %s", req.Line, err)
		messages.WriteErrorPayload(w, StatusOfError(err), err)
		return
	}

	admin.stateMutex.Lock()
	snap := admin.engine.Snapshot()
	admin.stateMutex.Unlock()
	messages.WriteJSON(w, &snap)
}

func decodeRequest(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	err := messages.DecodeJSON(r.Body, v)
	if err != nil {
		messages.WriteErrorPayload(w, http.StatusBadRequest, errors.Wrap(err, "malformed request body"))
		return false
	}
	return true
}
