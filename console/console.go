// Package console is the line oriented frontend: a command parser shared by every
// frontend, a themed table renderer and a readline REPL.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/chzyer/readline"
	"github.com/nrawrx3/uno"
)

type Config struct {
	Engine *uno.Engine
	Slot   uno.SaveSlot

	// Lock guards the engine when another frontend drives it too. Optional.
	Lock    sync.Locker
	Palette *Palette
	Out     io.Writer
	Logger  *log.Logger

	// NoRender keeps the console from printing the table on engine updates, for when
	// another frontend draws it.
	NoRender bool
}

// Console drives one engine in hot-seat mode: every command acts for the current player.
// It prints the table whenever the engine reports a change.
type Console struct {
	engine  *uno.Engine
	slot    uno.SaveSlot
	lock    sync.Locker
	palette *Palette
	out     io.Writer
	logger  *log.Logger

	noRender bool
}

var ErrNoSaveSlot = errors.New("no save slot configured")

func New(config Config) *Console {
	c := &Console{
		engine:  config.Engine,
		slot:    config.Slot,
		lock:    config.Lock,
		palette: config.Palette,
		out:     config.Out,
		logger:  config.Logger,

		noRender: config.NoRender,
	}
	if c.lock == nil {
		c.lock = &sync.Mutex{}
	}
	if c.palette == nil {
		c.palette = NewPalette(false)
	}
	if c.out == nil {
		c.out = os.Stdout
	}
	if c.logger == nil {
		c.logger = log.New(io.Discard, "", 0)
	}
	if !c.noRender {
		c.engine.AddListener(c)
	}
	return c
}

func (c *Console) Palette() *Palette {
	return c.palette
}

// Execute parses and runs one line. It returns true when the user asked to quit.
func (c *Console) Execute(line string) (bool, error) {
	command, err := ParseCommandFromInput(line)
	if err != nil {
		return false, err
	}
	return c.ExecuteCommand(command)
}

func (c *Console) ExecuteCommand(command *Command) (bool, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.logger.Printf("console: executing %s", command.Kind)

	switch command.Kind {
	case CmdPlay:
		return false, c.engine.PlayCard(c.engine.Snapshot().CurrentPlayer, command.CardIndex)

	case CmdDraw:
		return false, c.engine.DrawCard(c.engine.Snapshot().CurrentPlayer)

	case CmdNext:
		return false, c.engine.AdvanceTurn()

	case CmdAI:
		return false, c.engine.RunAITurn()

	case CmdColor:
		color, err := c.palette.ParseColor(command.ColorName)
		if err != nil {
			return false, err
		}
		return false, c.engine.ResolveWildColor(color)

	case CmdUndo:
		return false, c.engine.Undo()

	case CmdRedo:
		return false, c.engine.Redo()

	case CmdSave:
		if c.slot == nil {
			return false, ErrNoSaveSlot
		}
		if err := c.engine.SaveToSlot(c.slot); err != nil {
			return false, err
		}
		fmt.Fprintln(c.out, "Game saved.")
		return false, nil

	case CmdLoad:
		if c.slot == nil {
			return false, ErrNoSaveSlot
		}
		return false, c.engine.LoadFromSlot(c.slot)

	case CmdNew:
		c.engine.NewGame()
		return false, nil

	case CmdRound:
		return false, c.engine.StartNextRound()

	case CmdDark, CmdLight:
		c.palette.SetDark(command.Kind == CmdDark)
		if !c.noRender {
			c.Render(c.out, c.engine.Snapshot())
		}
		return false, nil

	case CmdHand:
		if !c.noRender {
			c.Render(c.out, c.engine.Snapshot())
		}
		return false, nil

	case CmdHelp:
		fmt.Fprintln(c.out, HelpText)
		return false, nil

	case CmdQuit:
		return true, nil

	default:
		return false, fmt.Errorf("command %s is not supported here", command.Kind)
	}
}

func (c *Console) HandleUpdate(snap uno.Snapshot) {
	c.Render(c.out, snap)
}

func (c *Console) HandleRoundEnd(event uno.RoundOverEvent) {
	fmt.Fprintf(c.out, "\n*** Round over ***\n%s\n", event.Summary)
}

func (c *Console) HandleGameEnd(event uno.GameOverEvent) {
	fmt.Fprintf(c.out, "\n*** Game over ***\n%s\n", event.Summary)
}

func (c *Console) PromptForWildColor(req uno.WildColorRequest) {
	fmt.Fprintf(c.out, "%s, choose a color: color %s\n", req.PlayerName, strings.Join(c.palette.ColorNames(), "|"))
}

// Render writes the table as seen by the current player.
func (c *Console) Render(w io.Writer, snap uno.Snapshot) {
	p := c.palette

	fmt.Fprintf(w, "\n== Round %d ==  %s's turn\n", snap.Round, snap.CurrentPlayerName)
	fmt.Fprintf(w, "Top: %s   Draw pile: %d   Discard pile: %d\n",
		p.PaintCard(snap.TopCard, snap.ActiveColor), snap.DrawPileCount, snap.DiscardPileCount)

	for i, name := range snap.PlayerNames {
		marker := "  "
		if i == snap.CurrentPlayer {
			marker = "> "
		}
		fmt.Fprintf(w, "%s%-12s %2d card(s) %4d pts\n", marker, name, snap.HandCounts[i], snap.Scores[i])
	}

	switch {
	case snap.GameOver:
		fmt.Fprintln(w, "The game is over. Type 'new' to play again.")
	case snap.RoundOver:
		fmt.Fprintln(w, "The round is over. Type 'round' to deal the next one.")
	case snap.ActivePlayerIsAI:
		fmt.Fprintf(w, "%s is played by the AI. Type 'ai' to let it move", snap.CurrentPlayerName)
		if snap.MustAdvance {
			fmt.Fprint(w, ", then 'next'")
		}
		fmt.Fprintln(w, ".")
	default:
		fmt.Fprintln(w, "Hand:")
		for _, cv := range snap.Hand {
			mark := " "
			if cv.Playable {
				mark = "*"
			}
			card := uno.Card{Number: cv.Number, Color: cv.Color}
			fmt.Fprintf(w, " %s[%d] %s\n", mark, cv.Index, p.PaintCard(card, uno.ColorWild))
		}
		switch {
		case snap.AwaitingWildColor:
			fmt.Fprintf(w, "Choose a color: color %s\n", strings.Join(p.ColorNames(), "|"))
		case snap.MustDrawCount > 0:
			fmt.Fprintf(w, "You must draw %d card(s).\n", snap.MustDrawCount)
		case snap.MustAdvance:
			fmt.Fprintln(w, "Turn finished. Type 'next'.")
		}
	}

	if snap.Info != "" {
		fmt.Fprintf(w, "Info: %s\n", c.themedInfo(snap.Info))
	}
}

// themedInfo swaps rule color names in engine messages for the theme's names.
func (c *Console) themedInfo(info string) string {
	if !c.palette.Dark() {
		return info
	}
	pairs := make([]string, 0, 2*len(uno.RuleColors))
	for _, color := range uno.RuleColors {
		pairs = append(pairs, color.Text(), capitalize(c.palette.ColorName(color)))
	}
	return strings.NewReplacer(pairs...).Replace(info)
}

var completer = readline.NewPrefixCompleter(
	readline.PcItem("play"),
	readline.PcItem("draw"),
	readline.PcItem("next"),
	readline.PcItem("ai"),
	readline.PcItem("color",
		readline.PcItem("red"),
		readline.PcItem("green"),
		readline.PcItem("blue"),
		readline.PcItem("yellow"),
	),
	readline.PcItem("undo"),
	readline.PcItem("redo"),
	readline.PcItem("save"),
	readline.PcItem("load"),
	readline.PcItem("new"),
	readline.PcItem("round"),
	readline.PcItem("dark"),
	readline.PcItem("light"),
	readline.PcItem("hand"),
	readline.PcItem("help"),
	readline.PcItem("quit"),
)

// closeWhenDone closes c once ctx is done or stop is called. exited is closed when the
// watching goroutine returns.
func closeWhenDone(ctx context.Context, c io.Closer) (stop func(), exited <-chan struct{}) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		c.Close()
	}()
	return cancel, done
}

// RunREPL reads commands until quit, end of input or ctx is done.
func (c *Console) RunREPL(ctx context.Context) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "> ",
		AutoComplete:    completer,
		HistoryLimit:    200,
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	stopWatching, _ := closeWhenDone(ctx, rl)
	defer stopWatching()

	c.lock.Lock()
	c.Render(c.out, c.engine.Snapshot())
	c.lock.Unlock()

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if len(line) == 0 {
				return nil
			}
			continue
		}
		if err != nil {
			return nil
		}

		quit, err := c.Execute(line)
		if errors.Is(err, ErrEmptyCommand) {
			continue
		}
		if err != nil {
			c.logger.Printf("console: %s", err)
			fmt.Fprintf(c.out, "error: %s\n", err)
		}
		if quit {
			return nil
		}
	}
}
