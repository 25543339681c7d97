package uno

import (
	"fmt"
	"io"
	"log"
	"math/rand"
	"strings"
	"time"

	"github.com/pkg/errors"
)

type Options struct {
	Players      []PlayerConfig
	HandSize     int
	TargetScore  int
	MaxRounds    int   // 0 means unlimited
	Seed         int64 // 0 picks a time based seed
	HistoryLimit int   // 0 means unbounded
	Strategy     Strategy
	Logger       *log.Logger
}

func DefaultOptions() Options {
	return Options{
		Players: []PlayerConfig{
			{Name: "Player 1"},
			{Name: "Player 2"},
		},
		HandSize:    7,
		TargetScore: 500,
	}
}

func (o *Options) validate() error {
	if len(o.Players) < MinPlayers || len(o.Players) > MaxPlayers {
		return fmt.Errorf("need between %d and %d players, have %d", MinPlayers, MaxPlayers, len(o.Players))
	}
	seen := make(map[string]bool, len(o.Players))
	for _, p := range o.Players {
		if strings.TrimSpace(p.Name) == "" {
			return errors.New("player names must not be empty")
		}
		if seen[p.Name] {
			return fmt.Errorf("duplicate player name '%s'", p.Name)
		}
		seen[p.Name] = true
	}
	if o.HandSize < 1 || o.HandSize > 12 {
		return fmt.Errorf("hand size %d outside [1, 12]", o.HandSize)
	}
	// The undealt cards must include at least one numeral for the starting discard.
	if o.HandSize*len(o.Players) >= DeckSize-actionCardCount {
		return fmt.Errorf("%d players with %d cards each leaves too small a draw pile", len(o.Players), o.HandSize)
	}
	if o.TargetScore < 0 || o.MaxRounds < 0 || o.HistoryLimit < 0 {
		return errors.New("target score, max rounds and history limit must not be negative")
	}
	return nil
}

// Engine owns the authoritative GameState. It is single threaded: every command runs
// to completion on the caller's goroutine and either applies fully or not at all.
type Engine struct {
	rules     Rules
	players   []PlayerConfig
	state     *GameState
	history   *History
	rng       *rand.Rand
	strategy  Strategy
	logger    *log.Logger
	listeners []Listener
	info      string
}

func NewEngine(opts Options) (*Engine, error) {
	e, err := newEngine(opts)
	if err != nil {
		return nil, err
	}
	e.state = e.freshState()
	e.info = fmt.Sprintf("Round 1 begins, %s starts", e.state.CurrentPlayer().Name)
	return e, nil
}

// NewEngineWithState starts an engine from a prepared state, e.g. a debug preset.
func NewEngineWithState(opts Options, state *GameState) (*Engine, error) {
	if err := state.Validate(); err != nil {
		return nil, err
	}
	opts.Players = seatsOf(state)
	e, err := newEngine(opts)
	if err != nil {
		return nil, err
	}
	e.state = state.Clone()
	e.info = fmt.Sprintf("%s to play", e.state.CurrentPlayer().Name)
	return e, nil
}

// seatsOf lists the seats of s, which NewGame deals to.
func seatsOf(s *GameState) []PlayerConfig {
	seats := make([]PlayerConfig, len(s.Players))
	for i, p := range s.Players {
		seats[i] = PlayerConfig{Name: p.Name, IsAI: p.IsAI}
	}
	return seats
}

func newEngine(opts Options) (*Engine, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	e := &Engine{
		rules: Rules{
			HandSize:    opts.HandSize,
			TargetScore: opts.TargetScore,
			MaxRounds:   opts.MaxRounds,
		},
		players:  opts.Players,
		history:  NewHistory(opts.HistoryLimit),
		rng:      rand.New(rand.NewSource(seed)),
		strategy: opts.Strategy,
		logger:   opts.Logger,
	}
	if e.strategy == nil {
		e.strategy = NewDefensiveStrategy()
	}
	if e.logger == nil {
		e.logger = log.New(io.Discard, "", 0)
	}
	return e, nil
}

func (e *Engine) freshState() *GameState {
	s := NewGameState(e.players)
	dealRound(s, e.rng, e.rules.HandSize)
	return s
}

func (e *Engine) AddListener(l Listener) {
	e.listeners = append(e.listeners, l)
}

// State returns a copy of the current state.
func (e *Engine) State() *GameState {
	return e.state.Clone()
}

func (e *Engine) Snapshot() Snapshot {
	return buildSnapshot(e.state, e.info, e.history)
}

func (e *Engine) Rules() Rules {
	return e.rules
}

func (e *Engine) CanUndo() bool {
	return e.history.CanUndo()
}

func (e *Engine) CanRedo() bool {
	return e.history.CanRedo()
}

// apply runs fn against a copy of the current state and commits it only on success.
func (e *Engine) apply(op string, fn func(s *GameState) (string, error)) error {
	if e.state.GameOver {
		return ErrGameOver
	}

	next := e.state.Clone()
	info, err := fn(next)
	if err != nil {
		e.logger.Printf("%s rejected: %s", op, err)
		return err
	}

	e.history.RecordBeforeCommand(e.state)
	prev := e.state
	e.state = next
	e.info = info
	e.logger.Printf("%s: %s", op, info)
	e.notify(prev)
	return nil
}

func (e *Engine) notify(prev *GameState) {
	snap := e.Snapshot()
	for _, l := range e.listeners {
		l.HandleUpdate(snap)
	}

	s := e.state
	if prev == nil {
		return
	}

	if s.AwaitingWildColor && !prev.AwaitingWildColor && !s.CurrentPlayer().IsAI {
		req := WildColorRequest{
			Player:     s.Current,
			PlayerName: s.CurrentPlayer().Name,
			IsDraw4:    s.TopCard().Number == NumberWildDrawFour,
		}
		for _, l := range e.listeners {
			l.PromptForWildColor(req)
		}
	}

	if s.RoundOver && !prev.RoundOver {
		points := s.Players[s.Winner].Score - prev.Players[s.Winner].Score
		event := newRoundOverEvent(s, points)
		e.logger.Print(event.Summary)
		for _, l := range e.listeners {
			l.HandleRoundEnd(event)
		}
	}

	if s.GameOver && !prev.GameOver {
		event := newGameOverEvent(s)
		e.logger.Print(event.Summary)
		for _, l := range e.listeners {
			l.HandleGameEnd(event)
		}
	}
}

func checkHuman(s *GameState, playerIndex int) error {
	if playerIndex >= 0 && playerIndex < s.PlayerCount() && s.Players[playerIndex].IsAI {
		return illegalMove("%s is an AI player, use RunAITurn", s.Players[playerIndex].Name)
	}
	return nil
}

func (e *Engine) PlayCard(playerIndex, cardIndex int) error {
	return e.apply("play", func(s *GameState) (string, error) {
		if err := s.checkActing(playerIndex); err != nil {
			return "", err
		}
		if err := checkHuman(s, playerIndex); err != nil {
			return "", err
		}
		card, effect, err := s.playCard(playerIndex, cardIndex)
		if err != nil {
			return "", err
		}
		return describePlay(s, playerIndex, card, effect), nil
	})
}

func (e *Engine) DrawCard(playerIndex int) error {
	return e.apply("draw", func(s *GameState) (string, error) {
		if err := s.checkActing(playerIndex); err != nil {
			return "", err
		}
		if err := checkHuman(s, playerIndex); err != nil {
			return "", err
		}
		res, err := s.drawCard(playerIndex, e.rng)
		if err != nil {
			return "", err
		}
		return describeDraw(s, playerIndex, res), nil
	})
}

func (e *Engine) ResolveWildColor(color Color) error {
	return e.apply("wild_color", func(s *GameState) (string, error) {
		if err := s.bindWildColor(color); err != nil {
			return "", err
		}
		return fmt.Sprintf("%s chose %s", s.CurrentPlayer().Name, color.Text()), nil
	})
}

func (e *Engine) AdvanceTurn() error {
	return e.apply("advance", func(s *GameState) (string, error) {
		prevName := s.CurrentPlayer().Name
		res, err := s.advanceTurn(e.rules)
		if err != nil {
			return "", err
		}

		var sb strings.Builder
		if res.forgiven > 0 {
			sb.WriteString(fmt.Sprintf("No cards left, %s is spared %d draw(s). ", prevName, res.forgiven))
		}
		switch {
		case res.gameEnded:
			sb.WriteString(fmt.Sprintf("Game over, %s wins", s.Players[s.Leader()].Name))
		case res.roundEnded:
			sb.WriteString(fmt.Sprintf("%s won round %d (+%d)", s.Players[s.Winner].Name, s.Round, res.points))
		default:
			sb.WriteString(fmt.Sprintf("%s's turn", s.CurrentPlayer().Name))
			if owed := s.OwedDraws(s.Current); owed > 0 {
				sb.WriteString(fmt.Sprintf(", must draw %d", owed))
			}
		}
		return sb.String(), nil
	})
}

// RunAITurn plays the current AI player's whole turn: forced draws, one play or a draw
// (playing the drawn card when legal) and wild color choice. It stops with the
// must-advance gate set; AdvanceTurn still has to be called.
func (e *Engine) RunAITurn() error {
	return e.apply("ai_turn", e.runAITurn)
}

func (e *Engine) runAITurn(s *GameState) (string, error) {
	if s.RoundOver {
		return "", invalidState("round %d is over", s.Round)
	}

	player := s.CurrentPlayer()
	if !player.IsAI {
		return "", illegalMove("%s is not an AI player", player.Name)
	}

	var steps []string

	if s.AwaitingWildColor {
		color := e.strategy.ChooseColor(player.Hand)
		if err := s.bindWildColor(color); err != nil {
			return "", err
		}
		return fmt.Sprintf("%s chose %s", player.Name, color.Text()), nil
	}

	if s.TurnFinished {
		return "", illegalMove("%s already finished the turn", player.Name)
	}

	forced := 0
	for s.OwedDraws(s.Current) > 0 {
		if _, err := s.drawCard(s.Current, e.rng); err != nil {
			if !errors.Is(err, ErrDeckExhausted) {
				return "", err
			}
			s.MustDrawCount = 0
			s.MustDrawPlayer = -1
			break
		}
		forced++
	}
	if forced > 0 {
		steps = append(steps, fmt.Sprintf("%s drew %d forced card(s)", player.Name, forced))
	}

	if !s.DrewCard {
		if index, ok := e.strategy.ChooseCard(s.aiView(false)); ok {
			msg, err := e.aiPlay(s, index)
			if err != nil {
				return "", err
			}
			steps = append(steps, msg)
			return strings.Join(steps, "; "), nil
		}

		res, err := s.drawCard(s.Current, e.rng)
		if errors.Is(err, ErrDeckExhausted) {
			s.TurnFinished = true
			steps = append(steps, fmt.Sprintf("%s cannot play and there is nothing to draw", player.Name))
			return strings.Join(steps, "; "), nil
		}
		if err != nil {
			return "", err
		}
		steps = append(steps, fmt.Sprintf("%s drew a card", player.Name))
		if !res.playable {
			return strings.Join(steps, "; "), nil
		}
	}

	index, ok := e.strategy.ChooseCard(s.aiView(true))
	if !ok {
		s.TurnFinished = true
		return strings.Join(steps, "; "), nil
	}
	msg, err := e.aiPlay(s, index)
	if err != nil {
		return "", err
	}
	steps = append(steps, msg)
	return strings.Join(steps, "; "), nil
}

func (e *Engine) aiPlay(s *GameState, index int) (string, error) {
	playerIndex := s.Current
	card, effect, err := s.playCard(playerIndex, index)
	if err != nil {
		return "", errors.Wrapf(err, "strategy chose card %d", index)
	}
	msg := describePlay(s, playerIndex, card, effect)
	if effect.NeedsColor {
		color := e.strategy.ChooseColor(s.Players[playerIndex].Hand)
		if err := s.bindWildColor(color); err != nil {
			return "", errors.Wrap(err, "strategy chose a wild color")
		}
		msg = fmt.Sprintf("%s and chose %s", msg, color.Text())
	}
	return msg, nil
}

func (e *Engine) StartNextRound() error {
	return e.apply("next_round", func(s *GameState) (string, error) {
		if err := s.startNextRound(e.rng, e.rules); err != nil {
			return "", err
		}
		return fmt.Sprintf("Round %d begins, %s starts", s.Round, s.CurrentPlayer().Name), nil
	})
}

// NewGame discards the current game, including its history, and deals a fresh one.
// It is the only command accepted after the game is over.
func (e *Engine) NewGame() {
	e.state = e.freshState()
	e.history.Clear()
	e.info = fmt.Sprintf("New game, %s starts", e.state.CurrentPlayer().Name)
	e.logger.Printf("new game %s", e.state.GameID)
	e.notify(nil)
}

func (e *Engine) Undo() error {
	if e.state.GameOver {
		return ErrGameOver
	}
	prev, err := e.history.Undo(e.state)
	if err != nil {
		return err
	}
	old := e.state
	e.state = prev
	e.info = "Undone"
	e.logger.Printf("undo: %d left", e.history.UndoLen())
	e.notify(old)
	return nil
}

func (e *Engine) Redo() error {
	if e.state.GameOver {
		return ErrGameOver
	}
	next, err := e.history.Redo(e.state)
	if err != nil {
		return err
	}
	old := e.state
	e.state = next
	e.info = "Redone"
	e.logger.Printf("redo: %d left", e.history.RedoLen())
	e.notify(old)
	return nil
}

// SaveSlot is a single persistence slot; each Write overwrites the previous save.
type SaveSlot interface {
	Write(data []byte) error
	Read() ([]byte, error)
}

func (e *Engine) Save() ([]byte, error) {
	if e.state.GameOver {
		return nil, ErrGameOver
	}
	return MarshalGameState(e.state)
}

// Load replaces the current state and clears undo and redo history. On a corrupt save
// the current state is untouched.
func (e *Engine) Load(data []byte) error {
	if e.state.GameOver {
		return ErrGameOver
	}
	s, err := UnmarshalGameState(data)
	if err != nil {
		e.logger.Printf("load rejected: %s", err)
		return err
	}
	e.state = s
	e.players = seatsOf(s)
	e.history.Clear()
	e.info = fmt.Sprintf("Game loaded, %s to play", s.CurrentPlayer().Name)
	e.logger.Printf("loaded game %s", s.GameID)
	e.notify(nil)
	return nil
}

func (e *Engine) SaveToSlot(slot SaveSlot) error {
	data, err := e.Save()
	if err != nil {
		return err
	}
	if err := slot.Write(data); err != nil {
		return errors.Wrap(err, "writing save slot")
	}
	e.info = "Game saved"
	e.logger.Printf("saved game %s", e.state.GameID)
	return nil
}

func (e *Engine) LoadFromSlot(slot SaveSlot) error {
	if e.state.GameOver {
		return ErrGameOver
	}
	data, err := slot.Read()
	if err != nil {
		return errors.Wrap(err, "reading save slot")
	}
	return e.Load(data)
}

func describePlay(s *GameState, playerIndex int, card Card, effect Effect) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s played %s", s.Players[playerIndex].Name, card.Text()))

	next := s.GetNextPlayerIndex(playerIndex, 1)
	if effect.Skipped > 0 {
		sb.WriteString(fmt.Sprintf(", skipping %s", s.Players[next].Name))
	} else if effect.Reversed {
		sb.WriteString(", direction reversed")
	}
	if effect.ForcedDraw > 0 {
		sb.WriteString(fmt.Sprintf(", %s must draw %d", s.Players[effect.ForcedPlayer].Name, effect.ForcedDraw))
	}
	if effect.NeedsColor && !s.Players[playerIndex].IsAI {
		sb.WriteString(", choose a color")
	}
	if s.Players[playerIndex].Hand.IsEmpty() {
		sb.WriteString(fmt.Sprintf(", %s has no cards left", s.Players[playerIndex].Name))
	}
	return sb.String()
}

func describeDraw(s *GameState, playerIndex int, res drawResult) string {
	name := s.Players[playerIndex].Name
	var msg string
	switch {
	case res.forced && res.owed > 0:
		msg = fmt.Sprintf("%s drew a forced card, %d to go", name, res.owed)
	case res.forced:
		msg = fmt.Sprintf("%s finished the forced draws", name)
	case res.playable:
		msg = fmt.Sprintf("%s drew %s and may play it", name, res.card.Text())
	default:
		msg = fmt.Sprintf("%s drew a card", name)
	}
	if res.reshuffled {
		msg = "Discard pile reshuffled. " + msg
	}
	return msg
}
