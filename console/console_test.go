package console

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/nrawrx3/uno"
	"github.com/stretchr/testify/require"
)

func init() {
	color.NoColor = true
}

func TestCommandParser(t *testing.T) {
	tests := []struct {
		input string
		want  Command
	}{
		{"draw", Command{Kind: CmdDraw}},
		{"  DRAW  ", Command{Kind: CmdDraw}},
		{"play 3", Command{Kind: CmdPlay, CardIndex: 3}},
		{"p 0", Command{Kind: CmdPlay}},
		{"color Green", Command{Kind: CmdColor, ColorName: "green"}},
		{"c teal", Command{Kind: CmdColor, ColorName: "teal"}},
		{"next", Command{Kind: CmdNext}},
		{"pass", Command{Kind: CmdNext}},
		{"ai", Command{Kind: CmdAI}},
		{"undo", Command{Kind: CmdUndo}},
		{"redo", Command{Kind: CmdRedo}},
		{"save", Command{Kind: CmdSave}},
		{"load", Command{Kind: CmdLoad}},
		{"new", Command{Kind: CmdNew}},
		{"round", Command{Kind: CmdRound}},
		{"dark", Command{Kind: CmdDark}},
		{"quit", Command{Kind: CmdQuit}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			command, err := ParseCommandFromInput(tt.input)
			require.NoError(t, err)
			require.Equal(t, tt.want, *command)
		})
	}
}

func TestCommandParserErrors(t *testing.T) {
	_, err := ParseCommandFromInput("   ")
	require.True(t, errors.Is(err, ErrEmptyCommand))

	for _, input := range []string{"play", "play red", "play 1 2", "color", "color 3", "dance", "42", "draw now"} {
		_, err := ParseCommandFromInput(input)
		require.Error(t, err, input)
	}
}

func TestPalette(t *testing.T) {
	light := NewPalette(false)
	require.Equal(t, []string{"red", "green", "blue", "yellow"}, light.ColorNames())
	require.Equal(t, "gray", light.ColorName(uno.ColorWild))
	_, err := light.ParseColor("teal")
	require.Error(t, err)

	dark := NewPalette(true)
	require.Equal(t, []string{"teal", "pink", "purple", "orange"}, dark.ColorNames())
	c, err := dark.ParseColor("Purple")
	require.NoError(t, err)
	require.Equal(t, uno.ColorBlue, c)
	c, err = dark.ParseColor("yellow")
	require.NoError(t, err)
	require.Equal(t, uno.ColorYellow, c)

	seven := uno.Card{Number: 7, Color: uno.ColorRed}
	require.Equal(t, "Red 7", light.CardText(seven))
	require.Equal(t, "Teal 7", dark.CardText(seven))
	wild := uno.Card{Number: uno.NumberWild, Color: uno.ColorWild}
	require.Equal(t, "Wild (pink)", dark.PaintCard(wild, uno.ColorGreen))
	require.Equal(t, "Wild", light.PaintCard(wild, uno.ColorWild))
}

func TestCommandHistory(t *testing.T) {
	h := NewCommandHistory(3)
	_, ok := h.Older()
	require.False(t, ok)

	for _, line := range []string{"draw", "next", "next", "ai", "undo"} {
		h.Push(line)
	}
	require.Equal(t, 3, h.Len())

	line, ok := h.Older()
	require.True(t, ok)
	require.Equal(t, "undo", line)
	line, _ = h.Older()
	require.Equal(t, "ai", line)
	line, _ = h.Older()
	require.Equal(t, "next", line)
	_, ok = h.Older()
	require.False(t, ok, "oldest line was overwritten")

	line, ok = h.Newer()
	require.True(t, ok)
	require.Equal(t, "ai", line)
	h.Newer()
	_, ok = h.Newer()
	require.False(t, ok)
}

type memorySlot struct {
	data []byte
}

func (m *memorySlot) Write(data []byte) error {
	m.data = append([]byte(nil), data...)
	return nil
}

func (m *memorySlot) Read() ([]byte, error) {
	return m.data, nil
}

func newTestConsole(t *testing.T, dark bool) (*Console, *uno.Engine, *bytes.Buffer) {
	t.Helper()
	opts := uno.DefaultOptions()
	opts.Seed = 17
	opts.Players = []uno.PlayerConfig{{Name: "alice"}, {Name: "bot", IsAI: true}}
	engine, err := uno.NewEngine(opts)
	require.NoError(t, err)

	out := &bytes.Buffer{}
	c := New(Config{
		Engine:  engine,
		Slot:    &memorySlot{},
		Palette: NewPalette(dark),
		Out:     out,
	})
	return c, engine, out
}

func TestConsoleTurn(t *testing.T) {
	c, engine, out := newTestConsole(t, false)

	quit, err := c.Execute("hand")
	require.NoError(t, err)
	require.False(t, quit)
	require.Contains(t, out.String(), "alice's turn")
	require.Contains(t, out.String(), "[0]")

	// Passing is allowed after a draw whether or not the drawn card fits.
	require.NoError(t, ignoreQuit(c.Execute("draw")))
	require.NoError(t, ignoreQuit(c.Execute("next")))
	require.Equal(t, 1, engine.Snapshot().CurrentPlayer)
	require.Contains(t, out.String(), "played by the AI")

	require.NoError(t, ignoreQuit(c.Execute("ai")))
	require.True(t, engine.Snapshot().MustAdvance)
	require.NoError(t, ignoreQuit(c.Execute("next")))

	require.NoError(t, ignoreQuit(c.Execute("undo")))
	require.NoError(t, ignoreQuit(c.Execute("redo")))

	quit, err = c.Execute("quit")
	require.NoError(t, err)
	require.True(t, quit)
}

func TestConsoleReportsEngineErrors(t *testing.T) {
	c, engine, _ := newTestConsole(t, false)
	before := engine.State()

	_, err := c.Execute("play 99")
	require.True(t, errors.Is(err, uno.ErrIllegalMove))
	_, err = c.Execute("redo")
	require.True(t, errors.Is(err, uno.ErrNothingToRedo))
	_, err = c.Execute("color red")
	require.True(t, errors.Is(err, uno.ErrInvalidState))
	require.True(t, before.Equal(engine.State()))
}

func TestConsoleSaveLoad(t *testing.T) {
	c, engine, out := newTestConsole(t, false)
	saved := engine.State()

	require.NoError(t, ignoreQuit(c.Execute("save")))
	require.Contains(t, out.String(), "Game saved.")
	require.NoError(t, ignoreQuit(c.Execute("draw")))
	require.NoError(t, ignoreQuit(c.Execute("load")))
	require.True(t, saved.Equal(engine.State()))

	noSlot := New(Config{Engine: engine, Out: &bytes.Buffer{}})
	_, err := noSlot.Execute("save")
	require.True(t, errors.Is(err, ErrNoSaveSlot))
}

func TestConsoleDarkMode(t *testing.T) {
	c, _, out := newTestConsole(t, false)

	require.NoError(t, ignoreQuit(c.Execute("dark")))
	require.True(t, c.Palette().Dark())
	require.NotContains(t, out.String()[bytes.LastIndex(out.Bytes(), []byte("== Round")):], "Red ")

	require.NoError(t, ignoreQuit(c.Execute("light")))
	require.False(t, c.Palette().Dark())
}

func ignoreQuit(_ bool, err error) error {
	return err
}

type countingCloser struct {
	closed atomic.Int32
}

func (c *countingCloser) Close() error {
	c.closed.Add(1)
	return nil
}

func TestCloseWhenDone(t *testing.T) {
	t.Run("stop releases the watcher without a cancelled context", func(t *testing.T) {
		var closer countingCloser
		stop, exited := closeWhenDone(context.Background(), &closer)
		stop()
		select {
		case <-exited:
		case <-time.After(2 * time.Second):
			t.Fatal("watcher goroutine still running after stop")
		}
		require.Equal(t, int32(1), closer.closed.Load())
	})

	t.Run("cancelled context closes", func(t *testing.T) {
		var closer countingCloser
		ctx, cancel := context.WithCancel(context.Background())
		stop, exited := closeWhenDone(ctx, &closer)
		defer stop()
		cancel()
		select {
		case <-exited:
		case <-time.After(2 * time.Second):
			t.Fatal("watcher goroutine still running after cancel")
		}
		require.Equal(t, int32(1), closer.closed.Load())
	})
}
