package tui

import (
	"strings"
	"testing"

	"github.com/nrawrx3/uno"
	"github.com/stretchr/testify/require"
)

func newTestUI(t *testing.T) (*UI, *uno.Engine) {
	t.Helper()
	opts := uno.DefaultOptions()
	opts.Seed = 31
	opts.Players = []uno.PlayerConfig{{Name: "alice"}, {Name: "bot", IsAI: true}}
	engine, err := uno.NewEngine(opts)
	require.NoError(t, err)
	return New(Config{Engine: engine}), engine
}

func typeLine(u *UI, line string) bool {
	for _, r := range line {
		u.appendCommandPrompt(string(r))
	}
	return u.handleCommandInput()
}

func TestTypedCommandsDriveEngine(t *testing.T) {
	u, engine := newTestUI(t)

	require.False(t, typeLine(u, "draw"))
	require.Contains(t, u.eventLogCell.Text, "alice drew")
	require.Equal(t, " _", u.commandPromptCell.Text)

	require.False(t, typeLine(u, "next"))
	require.Equal(t, 1, engine.Snapshot().CurrentPlayer)
	require.Contains(t, u.tableCell.Text, "AI player")
	require.Equal(t, []string{"alice", "bot"}, u.handCountChart.Labels)
	require.Equal(t, float64(8), u.handCountChart.Data[0])

	require.False(t, typeLine(u, "ai"))
	require.Contains(t, u.tableCell.Text, "Turn finished")

	require.False(t, typeLine(u, "play 99"))
	require.Contains(t, u.eventLogCell.Text, "error:")

	require.False(t, typeLine(u, "bogus"))
	require.Contains(t, u.eventLogCell.Text, "unknown command")

	require.True(t, typeLine(u, "quit"))
}

func TestTableShowsHand(t *testing.T) {
	u, engine := newTestUI(t)
	u.HandleUpdate(engine.Snapshot())

	text := u.tableCell.Text
	require.Contains(t, text, "alice's turn")
	require.Contains(t, text, "[0]")
	require.Equal(t, 7, strings.Count(text, "\n [")+strings.Count(text, "\n*["))
	require.Equal(t, engine.Snapshot().DrawPileCount*100/uno.DeckSize, u.drawDeckGauge.Percent)
}

func TestDarkModeRestylesCards(t *testing.T) {
	u, _ := newTestUI(t)
	red := uno.Card{Number: 5, Color: uno.ColorRed}

	require.Equal(t, "[Red 5](fg:red)", u.styledCard(red, uno.ColorWild))
	require.False(t, typeLine(u, "dark"))
	require.True(t, u.palette.Dark())
	require.Equal(t, "[Teal 5](fg:cyan)", u.styledCard(red, uno.ColorWild))

	wild := uno.Card{Number: uno.NumberWild, Color: uno.ColorWild}
	require.Equal(t, "[Wild (pink)](fg:magenta)", u.styledCard(wild, uno.ColorGreen))
	require.Equal(t, "Wild", u.styledCard(wild, uno.ColorWild))
}

func TestPromptHistory(t *testing.T) {
	u, _ := newTestUI(t)
	typeLine(u, "hand")
	typeLine(u, "help")

	u.browseHistory(true)
	require.Equal(t, "help", u.commandStringBeingTyped)
	u.browseHistory(true)
	require.Equal(t, "hand", u.commandStringBeingTyped)
	u.browseHistory(false)
	require.Equal(t, "help", u.commandStringBeingTyped)
	u.browseHistory(false)
	require.Equal(t, "", u.commandStringBeingTyped)
}

var _ uno.Listener = (*UI)(nil)
