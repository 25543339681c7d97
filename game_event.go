package uno

import (
	"fmt"
	"strings"
)

// GameEvent is anything the engine pushes to presentation layers.
type GameEvent interface {
	GameEventName() string
}

// CardView is a display-ready descriptor of one card in the acting player's hand.
type CardView struct {
	Index    int    `json:"index"`
	Text     string `json:"text"`
	Symbol   string `json:"symbol"`
	Color    Color  `json:"color"`
	Number   Number `json:"number"`
	Playable bool   `json:"playable"`
}

// Snapshot is a read-only projection of the current state, produced fresh on every change.
type Snapshot struct {
	GameID            string     `json:"game_id"`
	TopCardText       string     `json:"top_card_text"`
	TopCard           Card       `json:"top_card"`
	ActiveColor       Color      `json:"active_color"`
	CurrentPlayer     int        `json:"current_player"`
	CurrentPlayerName string     `json:"current_player_name"`
	Info              string     `json:"info"`
	Hand              []CardView `json:"hand"`
	MustAdvance       bool       `json:"must_advance"`
	ActivePlayerIsAI  bool       `json:"active_player_is_ai"`
	AwaitingWildColor bool       `json:"awaiting_wild_color"`
	MustDrawCount     int        `json:"must_draw_count"`
	PlayerNames       []string   `json:"player_names"`
	HandCounts        []int      `json:"hand_counts"`
	Scores            []int      `json:"scores"`
	DrawPileCount     int        `json:"draw_pile_count"`
	DiscardPileCount  int        `json:"discard_pile_count"`
	Direction         int        `json:"direction"`
	Round             int        `json:"round"`
	RoundOver         bool       `json:"round_over"`
	GameOver          bool       `json:"game_over"`
	CanUndo           bool       `json:"can_undo"`
	CanRedo           bool       `json:"can_redo"`
}

func (Snapshot) GameEventName() string {
	return "Snapshot"
}

func buildSnapshot(s *GameState, info string, history *History) Snapshot {
	current := s.CurrentPlayer()
	top := s.TopCard()

	topText := top.Text()
	if top.IsWild() && s.ActiveColor.IsRuleColor() {
		topText = fmt.Sprintf("%s (%s)", topText, s.ActiveColor.Text())
	}

	snap := Snapshot{
		GameID:            s.GameID.String(),
		TopCardText:       topText,
		TopCard:           top,
		ActiveColor:       s.ActiveColor,
		CurrentPlayer:     s.Current,
		CurrentPlayerName: current.Name,
		Info:              info,
		Hand:              make([]CardView, len(current.Hand)),
		MustAdvance:       s.TurnFinished,
		ActivePlayerIsAI:  current.IsAI,
		AwaitingWildColor: s.AwaitingWildColor,
		MustDrawCount:     s.OwedDraws(s.Current),
		PlayerNames:       make([]string, len(s.Players)),
		HandCounts:        make([]int, len(s.Players)),
		Scores:            make([]int, len(s.Players)),
		DrawPileCount:     len(s.DrawPile),
		DiscardPileCount:  len(s.DiscardPile),
		Direction:         s.Direction,
		Round:             s.Round,
		RoundOver:         s.RoundOver,
		GameOver:          s.GameOver,
		CanUndo:           history.CanUndo(),
		CanRedo:           history.CanRedo(),
	}

	for i, card := range current.Hand {
		snap.Hand[i] = CardView{
			Index:    i,
			Text:     card.Text(),
			Symbol:   card.SymbolString(),
			Color:    card.Color,
			Number:   card.Number,
			Playable: s.CheckPlayable(s.Current, i) == nil,
		}
	}
	for i := range s.Players {
		snap.PlayerNames[i] = s.Players[i].Name
		snap.HandCounts[i] = len(s.Players[i].Hand)
		snap.Scores[i] = s.Players[i].Score
	}
	return snap
}

type RoundOverEvent struct {
	Round      int      `json:"round"`
	Winner     int      `json:"winner"`
	WinnerName string   `json:"winner_name"`
	Points     int      `json:"points"`
	Names      []string `json:"names"`
	Scores     []int    `json:"scores"`
	Summary    string   `json:"summary"`
}

func (RoundOverEvent) GameEventName() string {
	return "RoundOverEvent"
}

type GameOverEvent struct {
	Winner     int      `json:"winner"`
	WinnerName string   `json:"winner_name"`
	Rounds     int      `json:"rounds"`
	Names      []string `json:"names"`
	Scores     []int    `json:"scores"`
	Summary    string   `json:"summary"`
}

func (GameOverEvent) GameEventName() string {
	return "GameOverEvent"
}

// WildColorRequest asks the caller for one of red, green, blue, yellow. It is sent only
// when a human plays a wild; the engine accepts nothing but ResolveWildColor until then.
type WildColorRequest struct {
	Player     int    `json:"player"`
	PlayerName string `json:"player_name"`
	IsDraw4    bool   `json:"is_draw4"`
}

func (WildColorRequest) GameEventName() string {
	return "WildColorRequest"
}

func scoreLines(s *GameState) ([]string, []int, string) {
	names := make([]string, len(s.Players))
	scores := make([]int, len(s.Players))
	var sb strings.Builder
	for i := range s.Players {
		names[i] = s.Players[i].Name
		scores[i] = s.Players[i].Score
		sb.WriteString(fmt.Sprintf("\n%s: %d", names[i], scores[i]))
	}
	return names, scores, sb.String()
}

func newRoundOverEvent(s *GameState, points int) RoundOverEvent {
	names, scores, lines := scoreLines(s)
	winnerName := s.Players[s.Winner].Name
	return RoundOverEvent{
		Round:      s.Round,
		Winner:     s.Winner,
		WinnerName: winnerName,
		Points:     points,
		Names:      names,
		Scores:     scores,
		Summary:    fmt.Sprintf("%s won round %d and scored %d point(s).%s", winnerName, s.Round, points, lines),
	}
}

func newGameOverEvent(s *GameState) GameOverEvent {
	names, scores, lines := scoreLines(s)
	leader := s.Leader()
	return GameOverEvent{
		Winner:     leader,
		WinnerName: names[leader],
		Rounds:     s.Round,
		Names:      names,
		Scores:     scores,
		Summary:    fmt.Sprintf("%s wins the game after %d round(s).%s", names[leader], s.Round, lines),
	}
}

// Listener receives the notification surface. All calls happen synchronously on the
// goroutine that issued the command.
type Listener interface {
	HandleUpdate(Snapshot)
	HandleRoundEnd(RoundOverEvent)
	HandleGameEnd(GameOverEvent)
	PromptForWildColor(WildColorRequest)
}

// ListenerFuncs adapts optional functions to a Listener. Nil fields are skipped.
type ListenerFuncs struct {
	OnUpdate    func(Snapshot)
	OnRoundEnd  func(RoundOverEvent)
	OnGameEnd   func(GameOverEvent)
	OnWildColor func(WildColorRequest)
}

func (l ListenerFuncs) HandleUpdate(s Snapshot) {
	if l.OnUpdate != nil {
		l.OnUpdate(s)
	}
}

func (l ListenerFuncs) HandleRoundEnd(e RoundOverEvent) {
	if l.OnRoundEnd != nil {
		l.OnRoundEnd(e)
	}
}

func (l ListenerFuncs) HandleGameEnd(e GameOverEvent) {
	if l.OnGameEnd != nil {
		l.OnGameEnd(e)
	}
}

func (l ListenerFuncs) PromptForWildColor(r WildColorRequest) {
	if l.OnWildColor != nil {
		l.OnWildColor(r)
	}
}
