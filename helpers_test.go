package uno

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func card(number Number, color Color) Card {
	return Card{Number: number, Color: color}
}

var (
	wild      = card(NumberWild, ColorWild)
	wildDraw4 = card(NumberWildDrawFour, ColorWild)
)

func removeCards(t *testing.T, deck Deck, cards ...Card) Deck {
	t.Helper()
	for _, c := range cards {
		i, err := deck.FindCard(c)
		require.NoError(t, err)
		deck = deck.RemoveCard(i)
	}
	return deck
}

// presetState seats one human player per hand. The draw pile holds the rest of the
// deck in NewFullDeck order, so its top is a WildDrawFour unless all of them are dealt.
func presetState(t *testing.T, top Card, activeColor Color, hands ...Deck) *GameState {
	t.Helper()
	players := make([]PlayerConfig, len(hands))
	for i := range hands {
		players[i] = PlayerConfig{Name: fmt.Sprintf("Player %d", i+1)}
	}

	s := NewGameState(players)
	rest := NewFullDeck()
	for i, hand := range hands {
		s.Players[i].Hand = hand.Clone()
		rest = removeCards(t, rest, hand...)
	}
	rest = removeCards(t, rest, top)

	s.DiscardPile = Deck{top}
	s.DrawPile = rest
	s.ActiveColor = activeColor
	require.NoError(t, s.Validate())
	return s
}

func presetEngine(t *testing.T, s *GameState) *Engine {
	t.Helper()
	opts := DefaultOptions()
	opts.Seed = 42
	e, err := NewEngineWithState(opts, s)
	require.NoError(t, err)
	return e
}

type recordingListener struct {
	updates    []Snapshot
	roundEnds  []RoundOverEvent
	gameEnds   []GameOverEvent
	wildColors []WildColorRequest
}

func (l *recordingListener) HandleUpdate(s Snapshot)         { l.updates = append(l.updates, s) }
func (l *recordingListener) HandleRoundEnd(e RoundOverEvent) { l.roundEnds = append(l.roundEnds, e) }
func (l *recordingListener) HandleGameEnd(e GameOverEvent)   { l.gameEnds = append(l.gameEnds, e) }
func (l *recordingListener) PromptForWildColor(r WildColorRequest) {
	l.wildColors = append(l.wildColors, r)
}
