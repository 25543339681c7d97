// Package tui is the full screen termui frontend. Commands are typed into a prompt and
// run through the console command set.
package tui

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"
	"github.com/nrawrx3/uno"
	"github.com/nrawrx3/uno/console"
	"github.com/pkg/errors"
)

type uiAction int

const (
	uiDrawn uiAction = iota
	uiRedraw
	uiClearRedraw
	uiStop
)

const maxEventLogLines = 200

type Config struct {
	Engine  *uno.Engine
	Slot    uno.SaveSlot
	Lock    sync.Locker
	Palette *console.Palette
	Logger  *log.Logger
}

type UI struct {
	// Signalling the draw loop that widget data was updated is done by actionCond.
	// actionMutex protects every widget object.
	actionMutex       sync.Mutex
	actionCond        *sync.Cond
	action            uiAction
	grid              *ui.Grid
	tableCell         *widgets.Paragraph
	eventLogCell      *widgets.Paragraph
	commandPromptCell *widgets.Paragraph
	drawDeckGauge     *widgets.Gauge
	handCountChart    *widgets.BarChart

	commandPromptMutex      sync.Mutex
	commandStringBeingTyped string
	history                 *console.CommandHistory

	eventLog []string

	engine  *uno.Engine
	lock    sync.Locker
	console *console.Console
	palette *console.Palette
	logger  *log.Logger
}

// eventLogWriter sends console output into the event log cell.
type eventLogWriter struct {
	u *UI
}

func (w eventLogWriter) Write(bytes []byte) (int, error) {
	for _, line := range strings.Split(strings.TrimRight(string(bytes), "\n"), "\n") {
		w.u.appendEventLog(line)
	}
	return len(bytes), nil
}

func New(config Config) *UI {
	u := &UI{
		engine:  config.Engine,
		lock:    config.Lock,
		palette: config.Palette,
		logger:  config.Logger,
		history: console.NewCommandHistory(64),
		action:  uiRedraw,
	}
	u.actionCond = sync.NewCond(&u.actionMutex)
	if u.lock == nil {
		u.lock = &sync.Mutex{}
	}
	if u.palette == nil {
		u.palette = console.NewPalette(false)
	}
	if u.logger == nil {
		u.logger = log.New(io.Discard, "", 0)
	}

	u.initWidgetObjects()

	u.console = console.New(console.Config{
		Engine:   config.Engine,
		Slot:     config.Slot,
		Lock:     u.lock,
		Palette:  u.palette,
		Out:      eventLogWriter{u: u},
		Logger:   u.logger,
		NoRender: true,
	})
	u.engine.AddListener(u)
	return u
}

func (u *UI) notifyRedrawUI(action uiAction, exec func()) {
	u.actionCond.L.Lock()
	defer u.actionCond.L.Unlock()
	exec()
	u.action = action
	u.actionCond.Signal()
}

// Creates the widget structs. All updates to the UI happen by modifying data in these
// structs, so they can be filled before the terminal is initialized.
func (u *UI) initWidgetObjects() {
	u.tableCell = widgets.NewParagraph()
	u.tableCell.Title = "Table"

	u.handCountChart = widgets.NewBarChart()
	u.handCountChart.Labels = make([]string, 0, uno.MaxPlayers)
	u.handCountChart.Data = make([]float64, 0, uno.MaxPlayers)
	u.handCountChart.Title = "Hand count"

	u.drawDeckGauge = widgets.NewGauge()
	u.drawDeckGauge.Percent = 100
	u.drawDeckGauge.BarColor = ui.ColorWhite
	u.drawDeckGauge.Title = "Draw pile"

	u.eventLogCell = widgets.NewParagraph()
	u.eventLogCell.Title = "Event Log"

	u.commandPromptCell = widgets.NewParagraph()
	u.commandPromptCell.Title = "Command Input (help for commands)"
	u.resetCommandPrompt("")
}

func (u *UI) layout() {
	u.grid = ui.NewGrid()
	termWidth, termHeight := ui.TerminalDimensions()
	u.grid.SetRect(0, 0, termWidth, termHeight)

	u.grid.Set(
		ui.NewRow(0.08, u.drawDeckGauge),
		ui.NewRow(0.8,
			ui.NewCol(0.4, u.tableCell),
			ui.NewCol(0.25, u.handCountChart),
			ui.NewCol(0.35, u.eventLogCell)),
		ui.NewRow(0.12,
			ui.NewCol(1.0, u.commandPromptCell)),
	)
}

// termui only knows a handful of named colors, so the dark theme maps onto the closest.
var termColorOf = map[bool]map[uno.Color]string{
	false: {uno.ColorRed: "red", uno.ColorGreen: "green", uno.ColorBlue: "blue", uno.ColorYellow: "yellow"},
	true:  {uno.ColorRed: "cyan", uno.ColorGreen: "magenta", uno.ColorBlue: "blue", uno.ColorYellow: "yellow"},
}

func (u *UI) styledCard(card uno.Card, bound uno.Color) string {
	text := u.palette.CardText(card)
	color := card.Color
	if card.IsWild() && bound.IsRuleColor() {
		text = fmt.Sprintf("%s (%s)", text, u.palette.ColorName(bound))
		color = bound
	}
	termColor, ok := termColorOf[u.palette.Dark()][color]
	if !ok {
		return text
	}
	return fmt.Sprintf("[%s](fg:%s)", text, termColor)
}

func (u *UI) tableText(snap uno.Snapshot) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Round %d   %s's turn\n", snap.Round, snap.CurrentPlayerName))
	sb.WriteString(fmt.Sprintf("Top: %s\n\n", u.styledCard(snap.TopCard, snap.ActiveColor)))

	switch {
	case snap.GameOver:
		sb.WriteString("Game over. Type new to play again.\n")
	case snap.RoundOver:
		sb.WriteString("Round over. Type round to deal the next one.\n")
	case snap.ActivePlayerIsAI:
		sb.WriteString("AI player. Type ai to let it move.\n")
	default:
		sb.WriteString("Hand:\n")
		for _, cv := range snap.Hand {
			mark := " "
			if cv.Playable {
				mark = "*"
			}
			card := uno.Card{Number: cv.Number, Color: cv.Color}
			sb.WriteString(fmt.Sprintf("%s[%d] %s\n", mark, cv.Index, u.styledCard(card, uno.ColorWild)))
		}
	}

	switch {
	case snap.AwaitingWildColor:
		sb.WriteString(fmt.Sprintf("\nChoose a color: %s\n", strings.Join(u.palette.ColorNames(), "|")))
	case snap.MustDrawCount > 0:
		sb.WriteString(fmt.Sprintf("\nDraw %d card(s).\n", snap.MustDrawCount))
	case snap.MustAdvance && !snap.RoundOver:
		sb.WriteString("\nTurn finished. Type next.\n")
	}
	return sb.String()
}

// DOES NOT LOCK actionMutex
func (u *UI) refillHandCountChart(snap uno.Snapshot) {
	u.handCountChart.Labels = u.handCountChart.Labels[:0]
	u.handCountChart.Data = u.handCountChart.Data[:0]
	for i, name := range snap.PlayerNames {
		u.handCountChart.Labels = append(u.handCountChart.Labels, name)
		u.handCountChart.Data = append(u.handCountChart.Data, float64(snap.HandCounts[i]))
	}
}

func (u *UI) HandleUpdate(snap uno.Snapshot) {
	u.notifyRedrawUI(uiRedraw, func() {
		u.tableCell.Text = u.tableText(snap)
		u.refillHandCountChart(snap)
		u.drawDeckGauge.Percent = snap.DrawPileCount * 100 / uno.DeckSize
		u.drawDeckGauge.Label = fmt.Sprintf("%d cards", snap.DrawPileCount)
	})
	if snap.Info != "" {
		u.appendEventLog(snap.Info)
	}
}

func (u *UI) HandleRoundEnd(event uno.RoundOverEvent) {
	for _, line := range strings.Split(event.Summary, "\n") {
		u.appendEventLog(line)
	}
}

func (u *UI) HandleGameEnd(event uno.GameOverEvent) {
	for _, line := range strings.Split(event.Summary, "\n") {
		u.appendEventLog(line)
	}
}

func (u *UI) PromptForWildColor(req uno.WildColorRequest) {
	u.appendEventLog(fmt.Sprintf("%s, type: color %s", req.PlayerName, strings.Join(u.palette.ColorNames(), "|")))
}

func (u *UI) appendEventLog(line string) {
	u.notifyRedrawUI(uiRedraw, func() {
		u.eventLog = append(u.eventLog, line)
		if len(u.eventLog) > maxEventLogLines {
			u.eventLog = u.eventLog[len(u.eventLog)-maxEventLogLines:]
		}
		u.eventLogCell.Text = strings.Join(u.eventLog, "\n")
	})
}

func (u *UI) appendCommandPrompt(s string) {
	u.commandPromptMutex.Lock()
	defer u.commandPromptMutex.Unlock()
	u.resetCommandPrompt(u.commandStringBeingTyped + s)
}

func (u *UI) backspaceCommandPrompt() {
	u.commandPromptMutex.Lock()
	defer u.commandPromptMutex.Unlock()
	text := u.commandStringBeingTyped
	if n := len(text); n >= 1 {
		text = text[0 : n-1]
	}
	u.history.ResetCursor()
	u.resetCommandPrompt(text)
}

// DOES NOT LOCK commandPromptMutex
func (u *UI) resetCommandPrompt(text string) {
	u.commandStringBeingTyped = text
	u.notifyRedrawUI(uiRedraw, func() {
		u.commandPromptCell.Text = fmt.Sprintf(" %s_", text)
	})
}

// handleCommandInput runs the typed line. It returns true when the user asked to quit.
func (u *UI) handleCommandInput() bool {
	u.commandPromptMutex.Lock()
	line := strings.TrimSpace(u.commandStringBeingTyped)
	u.history.Push(line)
	u.resetCommandPrompt("")
	u.commandPromptMutex.Unlock()

	command, err := console.ParseCommandFromInput(line)
	if errors.Is(err, console.ErrEmptyCommand) {
		return false
	}
	if err != nil {
		u.appendEventLog(err.Error())
		return false
	}

	quit, err := u.console.ExecuteCommand(command)
	if err != nil {
		u.logger.Printf("tui: %s: %s", command.Kind, err)
		u.appendEventLog(fmt.Sprintf("error: %s", err))
	}

	switch command.Kind {
	case console.CmdDark, console.CmdLight, console.CmdHand:
		u.lock.Lock()
		snap := u.engine.Snapshot()
		u.lock.Unlock()
		u.notifyRedrawUI(uiClearRedraw, func() {
			u.tableCell.Text = u.tableText(snap)
		})
	}
	return quit
}

func (u *UI) browseHistory(older bool) {
	u.commandPromptMutex.Lock()
	defer u.commandPromptMutex.Unlock()
	var line string
	var ok bool
	if older {
		line, ok = u.history.Older()
	} else {
		line, ok = u.history.Newer()
	}
	if ok || !older {
		u.resetCommandPrompt(line)
	}
}

func (u *UI) runPollInputEvents(ctx context.Context) {
	uiEvents := ui.PollEvents()

	for {
		select {
		case <-ctx.Done():
			return

		case e := <-uiEvents:
			switch e.ID {
			case "<C-c>":
				return
			case "<Resize>":
				payload := e.Payload.(ui.Resize)
				u.notifyRedrawUI(uiClearRedraw, func() {
					u.grid.SetRect(0, 0, payload.Width, payload.Height)
				})
			case "<Enter>":
				if u.handleCommandInput() {
					return
				}
			case "<Space>":
				u.appendCommandPrompt(" ")
			case "<Backspace>", "<C-<Backspace>>":
				u.backspaceCommandPrompt()
			case "<Up>":
				u.browseHistory(true)
			case "<Down>":
				u.browseHistory(false)
			default:
				if e.Type == ui.KeyboardEvent && len(e.ID) == 1 {
					u.appendCommandPrompt(e.ID)
				}
			}
		}
	}
}

// Runs in own goroutine.
func (u *UI) runDrawLoop() {
	for {
		u.actionCond.L.Lock()
		for u.action == uiDrawn {
			u.actionCond.Wait()
		}

		switch u.action {
		case uiStop:
			u.actionCond.L.Unlock()
			return
		case uiClearRedraw:
			ui.Clear()
			ui.Render(u.grid)
		case uiRedraw:
			ui.Render(u.grid)
		}
		u.action = uiDrawn
		u.actionCond.L.Unlock()
	}
}

// Run takes over the terminal until the user quits or ctx is done.
func (u *UI) Run(ctx context.Context) error {
	if err := ui.Init(); err != nil {
		return errors.Wrap(err, "failed to initialize termui")
	}
	defer ui.Close()

	u.actionCond.L.Lock()
	u.layout()
	u.actionCond.L.Unlock()

	u.lock.Lock()
	snap := u.engine.Snapshot()
	u.lock.Unlock()
	u.HandleUpdate(snap)

	drawLoopDone := make(chan struct{})
	go func() {
		u.runDrawLoop()
		close(drawLoopDone)
	}()

	u.runPollInputEvents(ctx)

	u.notifyRedrawUI(uiStop, func() {})
	<-drawLoopDone
	u.logger.Print("tui: event loop exits")
	return nil
}
