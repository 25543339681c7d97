package uno

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func presetEngineWith(t *testing.T, s *GameState, configure func(opts *Options)) (*Engine, *recordingListener) {
	t.Helper()
	opts := DefaultOptions()
	opts.Seed = 42
	if configure != nil {
		configure(&opts)
	}
	e, err := NewEngineWithState(opts, s)
	require.NoError(t, err)
	l := &recordingListener{}
	e.AddListener(l)
	return e, l
}

// autoStep issues whichever command moves an all-AI game forward.
func autoStep(e *Engine) error {
	s := e.state
	switch {
	case s.RoundOver:
		return e.StartNextRound()
	case s.TurnFinished || s.DrewCard:
		return e.AdvanceTurn()
	default:
		return e.RunAITurn()
	}
}

func allAIEngine(t *testing.T, seed int64, names ...string) *Engine {
	t.Helper()
	opts := DefaultOptions()
	opts.Seed = seed
	opts.Players = nil
	for _, name := range names {
		opts.Players = append(opts.Players, PlayerConfig{Name: name, IsAI: true})
	}
	e, err := NewEngine(opts)
	require.NoError(t, err)
	return e
}

func TestNewEngineRejectsBadOptions(t *testing.T) {
	tests := []struct {
		name      string
		configure func(o *Options)
	}{
		{"one player", func(o *Options) { o.Players = o.Players[:1] }},
		{"duplicate names", func(o *Options) { o.Players[1].Name = o.Players[0].Name }},
		{"empty name", func(o *Options) { o.Players[0].Name = " " }},
		{"zero hand size", func(o *Options) { o.HandSize = 0 }},
		{"hand too large", func(o *Options) { o.HandSize = 13 }},
		{"negative target", func(o *Options) { o.TargetScore = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.configure(&opts)
			_, err := NewEngine(opts)
			require.Error(t, err)
		})
	}
}

func TestNewEngineDealsFirstRound(t *testing.T) {
	opts := DefaultOptions()
	opts.Seed = 5
	e, err := NewEngine(opts)
	require.NoError(t, err)

	s := e.State()
	require.NoError(t, s.Validate())
	require.Equal(t, 1, s.Round)
	require.Equal(t, 0, s.Current)
	require.Equal(t, 7, s.Players[0].Hand.Len())
	require.False(t, e.CanUndo())

	same, err := NewEngine(opts)
	require.NoError(t, err)
	require.True(t, s.DrawPile.Equal(same.State().DrawPile), "same seed deals the same cards")
}

func TestTwoPlayerSkipReturnsToPlayer1(t *testing.T) {
	s := presetState(t, card(3, ColorRed), ColorRed,
		Deck{card(NumberSkip, ColorRed), card(1, ColorRed)},
		Deck{card(5, ColorGreen), card(6, ColorGreen)},
	)
	e, _ := presetEngineWith(t, s, nil)

	require.NoError(t, e.PlayCard(0, 0))
	require.True(t, e.Snapshot().MustAdvance)
	require.NoError(t, e.AdvanceTurn())
	require.Equal(t, 0, e.State().Current)
}

func TestTwoPlayerReverseActsAsSkip(t *testing.T) {
	s := presetState(t, card(3, ColorRed), ColorRed,
		Deck{card(NumberReverse, ColorRed), card(1, ColorRed)},
		Deck{card(5, ColorGreen), card(6, ColorGreen)},
	)
	e, _ := presetEngineWith(t, s, nil)

	require.NoError(t, e.PlayCard(0, 0))
	require.NoError(t, e.AdvanceTurn())
	require.Equal(t, 0, e.State().Current)
	require.Equal(t, -1, e.State().Direction)
}

func TestWildDrawFourResolvedToGreen(t *testing.T) {
	s := presetState(t, card(3, ColorRed), ColorRed,
		Deck{wildDraw4, card(1, ColorRed)},
		Deck{card(5, ColorGreen), card(6, ColorGreen)},
	)
	e, l := presetEngineWith(t, s, nil)

	require.NoError(t, e.PlayCard(0, 0))
	require.Len(t, l.wildColors, 1)
	require.True(t, l.wildColors[0].IsDraw4)
	require.True(t, e.Snapshot().AwaitingWildColor)

	err := e.AdvanceTurn()
	require.True(t, errors.Is(err, ErrInvalidState), err)
	err = e.PlayCard(0, 0)
	require.True(t, errors.Is(err, ErrInvalidState), err)
	err = e.ResolveWildColor(ColorWild)
	require.True(t, errors.Is(err, ErrIllegalMove), err)

	require.NoError(t, e.ResolveWildColor(ColorGreen))
	state := e.State()
	require.False(t, state.AwaitingWildColor)
	require.Equal(t, ColorGreen, state.ActiveColor)
	require.Equal(t, wildDraw4, state.TopCard())
	require.Equal(t, 4, state.OwedDraws(1))
	require.Equal(t, "Wild Draw Four (Green)", e.Snapshot().TopCardText)

	err = e.ResolveWildColor(ColorBlue)
	require.True(t, errors.Is(err, ErrInvalidState), err)

	// The next player has to take the four cards before doing anything else.
	require.NoError(t, e.AdvanceTurn())
	require.Equal(t, 4, e.Snapshot().MustDrawCount)
	err = e.PlayCard(1, 0)
	require.True(t, errors.Is(err, ErrIllegalMove), err)
	err = e.AdvanceTurn()
	require.True(t, errors.Is(err, ErrIllegalMove), err)

	for i := 0; i < 4; i++ {
		require.NoError(t, e.DrawCard(1))
	}
	state = e.State()
	require.Equal(t, 6, state.Players[1].Hand.Len())
	require.Equal(t, -1, state.MustDrawPlayer)

	require.NoError(t, e.PlayCard(1, 0))
	require.Equal(t, card(5, ColorGreen), e.State().TopCard())
}

func TestIllegalCommandsLeaveStateUnchanged(t *testing.T) {
	s := presetState(t, card(3, ColorRed), ColorRed,
		Deck{card(7, ColorGreen), card(1, ColorRed)},
		Deck{card(5, ColorGreen), card(6, ColorGreen)},
	)
	e, l := presetEngineWith(t, s, nil)
	before := e.State()

	for name, cmd := range map[string]func() error{
		"unmatched card":     func() error { return e.PlayCard(0, 0) },
		"not your turn":      func() error { return e.PlayCard(1, 0) },
		"no such card":       func() error { return e.PlayCard(0, 5) },
		"no such player":     func() error { return e.DrawCard(7) },
		"advance before act": e.AdvanceTurn,
	} {
		err := cmd()
		require.True(t, errors.Is(err, ErrIllegalMove), "%s: %v", name, err)
		require.True(t, before.Equal(e.State()), name)
	}

	require.False(t, e.CanUndo())
	require.Empty(t, l.updates)
	require.True(t, errors.Is(e.Undo(), ErrNothingToUndo))
	require.True(t, errors.Is(e.Redo(), ErrNothingToRedo))
}

func TestTurnFinishedAfterPlay(t *testing.T) {
	s := presetState(t, card(3, ColorRed), ColorRed,
		Deck{card(1, ColorRed), card(2, ColorRed), card(4, ColorRed)},
		Deck{card(5, ColorGreen), card(6, ColorGreen)},
	)
	e, _ := presetEngineWith(t, s, nil)

	require.NoError(t, e.PlayCard(0, 0))
	require.True(t, errors.Is(e.PlayCard(0, 0), ErrIllegalMove))
	require.True(t, errors.Is(e.DrawCard(0), ErrIllegalMove))
	require.NoError(t, e.AdvanceTurn())
	require.Equal(t, 1, e.State().Current)
}

func TestOnlyDrawnCardMayBePlayed(t *testing.T) {
	s := presetState(t, card(3, ColorRed), ColorRed,
		Deck{card(7, ColorGreen), card(8, ColorGreen)},
		Deck{card(1, ColorBlue), card(2, ColorBlue)},
	)
	e, _ := presetEngineWith(t, s, nil)

	require.NoError(t, e.DrawCard(0))
	snap := e.Snapshot()
	require.False(t, snap.MustAdvance)
	require.Len(t, snap.Hand, 3)
	require.False(t, snap.Hand[0].Playable)
	require.True(t, snap.Hand[2].Playable)

	require.True(t, errors.Is(e.PlayCard(0, 0), ErrIllegalMove))
	require.True(t, errors.Is(e.DrawCard(0), ErrIllegalMove))
	require.NoError(t, e.PlayCard(0, 2))
	require.True(t, e.State().AwaitingWildColor)
}

func TestUnplayableDrawFinishesTurn(t *testing.T) {
	blue9 := card(9, ColorBlue)
	s := presetState(t, card(3, ColorRed), ColorRed,
		Deck{card(7, ColorGreen)},
		Deck{card(1, ColorBlue)},
	)
	s.DrawPile = removeCards(t, s.DrawPile, blue9).Push(blue9)
	e, _ := presetEngineWith(t, s, nil)

	require.NoError(t, e.DrawCard(0))
	require.True(t, e.Snapshot().MustAdvance)
	require.NoError(t, e.AdvanceTurn())
	require.Equal(t, 1, e.State().Current)
}

func TestPassAfterPlayableDraw(t *testing.T) {
	s := presetState(t, card(3, ColorRed), ColorRed,
		Deck{card(7, ColorGreen)},
		Deck{card(1, ColorBlue)},
	)
	e, _ := presetEngineWith(t, s, nil)

	require.NoError(t, e.DrawCard(0))
	require.False(t, e.Snapshot().MustAdvance)
	require.NoError(t, e.AdvanceTurn())
	require.Equal(t, 1, e.State().Current)
}

func TestDrawReshufflesDiscardPile(t *testing.T) {
	top := card(3, ColorRed)
	s := presetState(t, top, ColorRed,
		Deck{card(7, ColorGreen)},
		Deck{card(1, ColorBlue)},
	)
	s.DiscardPile = s.DrawPile.Clone().Push(top)
	s.DrawPile = Deck{}
	e, _ := presetEngineWith(t, s, nil)

	require.NoError(t, e.DrawCard(0))
	state := e.State()
	require.Equal(t, 1, state.DiscardPile.Len())
	require.Equal(t, top, state.TopCard())
	require.Equal(t, DeckSize-4, state.DrawPile.Len())
	require.NoError(t, state.Validate())
	require.Contains(t, e.Snapshot().Info, "reshuffled")
}

func TestDrawFailsWhenDeckExhausted(t *testing.T) {
	top := card(3, ColorRed)
	green7 := card(7, ColorGreen)
	everythingElse := removeCards(t, NewFullDeck(), green7, top)
	s := presetState(t, top, ColorRed, Deck{green7}, everythingElse)
	e, _ := presetEngineWith(t, s, nil)
	before := e.State()

	err := e.DrawCard(0)
	require.True(t, errors.Is(err, ErrDeckExhausted), err)
	require.True(t, before.Equal(e.State()))

	// With nothing to draw the player may pass.
	require.NoError(t, e.AdvanceTurn())
	require.Equal(t, 1, e.State().Current)
}

func TestForcedDrawsForgivenWhenDeckExhausted(t *testing.T) {
	top := card(3, ColorRed)
	drawTwo := card(NumberDrawTwo, ColorRed)
	green7 := card(7, ColorGreen)
	everythingElse := removeCards(t, NewFullDeck(), drawTwo, green7, top)
	s := presetState(t, top, ColorRed, Deck{drawTwo, green7}, everythingElse)
	e, _ := presetEngineWith(t, s, nil)

	require.NoError(t, e.PlayCard(0, 0))
	require.NoError(t, e.AdvanceTurn())
	require.NoError(t, e.DrawCard(1))
	require.True(t, errors.Is(e.DrawCard(1), ErrDeckExhausted))

	require.NoError(t, e.AdvanceTurn())
	state := e.State()
	require.Equal(t, 0, state.Current)
	require.Zero(t, state.MustDrawCount)
	require.Contains(t, e.Snapshot().Info, "spared")
}

func TestRoundAndGameEnd(t *testing.T) {
	s := presetState(t, card(3, ColorRed), ColorRed,
		Deck{card(1, ColorRed)},
		Deck{card(5, ColorGreen)},
	)
	e, l := presetEngineWith(t, s, func(o *Options) { o.TargetScore = 5 })

	require.NoError(t, e.PlayCard(0, 0))
	require.NoError(t, e.AdvanceTurn())

	require.Len(t, l.roundEnds, 1)
	require.Equal(t, 5, l.roundEnds[0].Points)
	require.Equal(t, "Player 1", l.roundEnds[0].WinnerName)
	require.Len(t, l.gameEnds, 1)
	require.Equal(t, 0, l.gameEnds[0].Winner)
	require.True(t, e.Snapshot().GameOver)

	for _, err := range []error{e.PlayCard(1, 0), e.DrawCard(1), e.RunAITurn(), e.Undo(), e.Redo(), e.StartNextRound()} {
		require.True(t, errors.Is(err, ErrGameOver), err)
		require.True(t, errors.Is(err, ErrInvalidState), err)
	}

	gameID := e.State().GameID
	e.NewGame()
	state := e.State()
	require.False(t, state.GameOver)
	require.NotEqual(t, gameID, state.GameID)
	require.Zero(t, state.Players[0].Score)
	require.False(t, e.CanUndo())
}

func TestStartNextRound(t *testing.T) {
	s := presetState(t, card(3, ColorRed), ColorRed,
		Deck{card(1, ColorRed)},
		Deck{card(5, ColorGreen), card(NumberSkip, ColorBlue)},
	)
	e, l := presetEngineWith(t, s, nil)

	require.True(t, errors.Is(e.StartNextRound(), ErrInvalidState))
	require.NoError(t, e.PlayCard(0, 0))
	require.NoError(t, e.AdvanceTurn())
	require.Len(t, l.roundEnds, 1)
	require.Equal(t, 25, l.roundEnds[0].Points)
	require.Empty(t, l.gameEnds)

	require.True(t, errors.Is(e.PlayCard(1, 0), ErrInvalidState))
	require.NoError(t, e.StartNextRound())

	state := e.State()
	require.Equal(t, 2, state.Round)
	require.Equal(t, 1, state.Current)
	require.Equal(t, 25, state.Players[0].Score)
	require.Equal(t, 7, state.Players[1].Hand.Len())
	require.NoError(t, state.Validate())
}

func TestAITurn(t *testing.T) {
	s := presetState(t, card(9, ColorRed), ColorRed,
		Deck{card(1, ColorRed), card(2, ColorRed)},
		Deck{wildDraw4, card(3, ColorGreen), card(4, ColorGreen)},
	)
	s.Players[1].IsAI = true
	s.Current = 1
	e, l := presetEngineWith(t, s, nil)
	before := e.State()

	require.True(t, e.Snapshot().ActivePlayerIsAI)
	require.True(t, errors.Is(e.PlayCard(1, 1), ErrIllegalMove))

	require.NoError(t, e.RunAITurn())
	state := e.State()
	require.Equal(t, wildDraw4, state.TopCard())
	require.Equal(t, ColorGreen, state.ActiveColor)
	require.False(t, state.AwaitingWildColor)
	require.Equal(t, 4, state.OwedDraws(0))
	require.True(t, state.TurnFinished)
	require.Empty(t, l.wildColors)

	require.True(t, errors.Is(e.RunAITurn(), ErrIllegalMove))

	require.NoError(t, e.Undo())
	require.True(t, before.Equal(e.State()), "an AI turn is a single history entry")
}

func TestAITurnTakesForcedDrawsFirst(t *testing.T) {
	s := presetState(t, card(9, ColorRed), ColorRed,
		Deck{card(1, ColorRed), card(2, ColorRed), card(4, ColorRed)},
		Deck{card(3, ColorGreen)},
	)
	s.Players[1].IsAI = true
	s.Current = 1
	s.MustDrawCount = 2
	s.MustDrawPlayer = 1
	e, _ := presetEngineWith(t, s, nil)

	require.NoError(t, e.RunAITurn())
	state := e.State()
	require.Equal(t, 2, state.Players[1].Hand.Len())
	require.Equal(t, wildDraw4, state.TopCard())
	require.Equal(t, 4, state.OwedDraws(0))
}

func TestRunAITurnRejectsHuman(t *testing.T) {
	s := presetState(t, card(9, ColorRed), ColorRed,
		Deck{card(1, ColorRed)},
		Deck{card(3, ColorGreen)},
	)
	e, _ := presetEngineWith(t, s, nil)
	require.True(t, errors.Is(e.RunAITurn(), ErrIllegalMove))
}

func TestUndoRedoRoundTrip(t *testing.T) {
	const commands = 40
	e := allAIEngine(t, 7, "a", "b", "c")

	states := []*GameState{e.State()}
	for i := 0; i < commands; i++ {
		require.NoError(t, autoStep(e))
		states = append(states, e.State())
	}

	for i := commands - 1; i >= 0; i-- {
		require.NoError(t, e.Undo())
		require.True(t, states[i].Equal(e.State()), "undo to state %d", i)
	}
	require.True(t, errors.Is(e.Undo(), ErrNothingToUndo))

	for i := 1; i <= commands; i++ {
		require.NoError(t, e.Redo())
		require.True(t, states[i].Equal(e.State()), "redo to state %d", i)
	}
	require.True(t, errors.Is(e.Redo(), ErrNothingToRedo))
}

func TestNewCommandDropsRedo(t *testing.T) {
	e := allAIEngine(t, 11, "a", "b")

	require.NoError(t, autoStep(e))
	require.NoError(t, e.Undo())
	require.True(t, e.CanRedo())
	require.NoError(t, autoStep(e))
	require.False(t, e.CanRedo())
	require.True(t, errors.Is(e.Redo(), ErrNothingToRedo))
}

func TestHistoryLimitBoundsUndo(t *testing.T) {
	opts := DefaultOptions()
	opts.Seed = 3
	opts.HistoryLimit = 2
	opts.Players = []PlayerConfig{{Name: "a", IsAI: true}, {Name: "b", IsAI: true}}
	e, err := NewEngine(opts)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, autoStep(e))
	}
	require.NoError(t, e.Undo())
	require.NoError(t, e.Undo())
	require.True(t, errors.Is(e.Undo(), ErrNothingToUndo))
}

func TestAllAIGameConservesCards(t *testing.T) {
	opts := DefaultOptions()
	opts.Seed = 99
	opts.MaxRounds = 2
	opts.Players = []PlayerConfig{
		{Name: "a", IsAI: true},
		{Name: "b", IsAI: true},
		{Name: "c", IsAI: true},
		{Name: "d", IsAI: true},
	}
	e, err := NewEngine(opts)
	require.NoError(t, err)
	l := &recordingListener{}
	e.AddListener(l)

	for i := 0; i < 20000 && !e.state.GameOver; i++ {
		require.NoError(t, autoStep(e))
		require.NoError(t, e.state.Validate())
		require.Equal(t, DeckSize, e.state.CardCount())
	}

	require.True(t, e.state.GameOver)
	require.Len(t, l.roundEnds, 2)
	require.Len(t, l.gameEnds, 1)
	require.Equal(t, e.state.Leader(), l.gameEnds[0].Winner)
}

func TestAITurnPlaysDrawnCard(t *testing.T) {
	s := presetState(t, card(9, ColorRed), ColorRed,
		Deck{card(1, ColorRed), card(2, ColorRed)},
		Deck{card(3, ColorGreen)},
	)
	s.Players[1].IsAI = true
	s.Current = 1
	e, _ := presetEngineWith(t, s, nil)

	require.NoError(t, e.RunAITurn())
	state := e.State()
	require.Equal(t, wildDraw4, state.TopCard())
	require.Equal(t, ColorGreen, state.ActiveColor)
	require.Equal(t, Deck{card(3, ColorGreen)}, state.Players[1].Hand)
	require.True(t, state.TurnFinished)
	require.False(t, state.AwaitingWildColor)
	require.Equal(t, 4, state.OwedDraws(0))
}

func TestAITurnEndsAfterUnplayableDraw(t *testing.T) {
	// Every wild sits in the human hand, so the draw pile top is the last yellow DrawTwo.
	s := presetState(t, card(9, ColorRed), ColorRed,
		Deck{wild, wild, wild, wild, wildDraw4, wildDraw4, wildDraw4, wildDraw4},
		Deck{card(3, ColorGreen)},
	)
	s.Players[1].IsAI = true
	s.Current = 1
	e, _ := presetEngineWith(t, s, nil)

	require.NoError(t, e.RunAITurn())
	state := e.State()
	require.Equal(t, card(9, ColorRed), state.TopCard())
	require.Equal(t, Deck{card(3, ColorGreen), card(NumberDrawTwo, ColorYellow)}, state.Players[1].Hand)
	require.True(t, state.DrewCard)
	require.True(t, state.TurnFinished)

	require.NoError(t, e.AdvanceTurn())
	require.Equal(t, 0, e.Snapshot().CurrentPlayer)
}

type wildOnlyColorStrategy struct {
	*DefensiveStrategy
}

func (wildOnlyColorStrategy) ChooseColor(hand Deck) Color {
	return ColorWild
}

type firstCardStrategy struct {
	*DefensiveStrategy
}

func (firstCardStrategy) ChooseCard(view AIView) (int, bool) {
	return 0, true
}

func TestAITurnRejectsBadStrategyChoices(t *testing.T) {
	tests := []struct {
		name     string
		strategy Strategy
		aiHand   Deck
	}{
		{"color that is not a rule color", wildOnlyColorStrategy{NewDefensiveStrategy()}, Deck{wild, card(3, ColorGreen)}},
		{"unplayable card", firstCardStrategy{NewDefensiveStrategy()}, Deck{card(3, ColorGreen), card(4, ColorRed)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := presetState(t, card(9, ColorRed), ColorRed,
				Deck{card(1, ColorRed), card(2, ColorRed)},
				tt.aiHand,
			)
			s.Players[1].IsAI = true
			s.Current = 1
			e, l := presetEngineWith(t, s, func(opts *Options) { opts.Strategy = tt.strategy })
			before := e.State()

			err := e.RunAITurn()
			require.True(t, errors.Is(err, ErrIllegalMove), err)
			require.True(t, before.Equal(e.State()))
			require.False(t, e.CanUndo())
			require.Empty(t, l.updates)
		})
	}
}

func TestLoadAdoptsSavedSeats(t *testing.T) {
	s := presetState(t, card(9, ColorRed), ColorRed,
		Deck{card(1, ColorRed), card(2, ColorRed)},
		Deck{card(3, ColorGreen)},
	)
	s.Players[0].Name = "alice"
	s.Players[1].Name = "bob"
	s.Players[1].IsAI = true
	saved, err := MarshalGameState(s)
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.Seed = 3
	opts.Players = []PlayerConfig{{Name: "x"}, {Name: "y"}, {Name: "z"}}
	e, err := NewEngine(opts)
	require.NoError(t, err)

	require.NoError(t, e.Load(saved))
	e.NewGame()
	state := e.State()
	require.Len(t, state.Players, 2)
	require.Equal(t, "alice", state.Players[0].Name)
	require.Equal(t, "bob", state.Players[1].Name)
	require.True(t, state.Players[1].IsAI)
}
