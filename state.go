package uno

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// GameState is the unit that history and persistence operate on. The engine never
// mutates a GameState that has been handed out or recorded; commands work on a clone.
type GameState struct {
	GameID      uuid.UUID `json:"game_id"`
	Players     []Player  `json:"players"`
	Current     int       `json:"current"`
	Direction   int       `json:"direction"`
	DrawPile    Deck      `json:"draw_pile"`
	DiscardPile Deck      `json:"discard_pile"`

	// Effective rule color of the discard top. ColorWild only while a wild awaits its color.
	ActiveColor       Color `json:"active_color"`
	AwaitingWildColor bool  `json:"awaiting_wild_color"`

	// Forced draws owed by MustDrawPlayer. MustDrawPlayer is -1 when nothing is owed.
	MustDrawCount  int `json:"must_draw_count"`
	MustDrawPlayer int `json:"must_draw_player"`

	// Players skipped by the next AdvanceTurn.
	SkipCount int `json:"skip_count"`

	// TurnFinished is the "must advance turn" gate. DrewCard marks a voluntary draw this turn.
	TurnFinished bool `json:"turn_finished"`
	DrewCard     bool `json:"drew_card"`

	Round     int  `json:"round"`
	RoundOver bool `json:"round_over"`
	GameOver  bool `json:"game_over"`
	Winner    int  `json:"winner"`
}

func (s *GameState) Clone() *GameState {
	cloned := *s
	cloned.Players = make([]Player, len(s.Players))
	for i := range s.Players {
		cloned.Players[i] = s.Players[i].clone()
	}
	cloned.DrawPile = s.DrawPile.Clone()
	cloned.DiscardPile = s.DiscardPile.Clone()
	return &cloned
}

// Equal compares every field by value.
func (s *GameState) Equal(other *GameState) bool {
	if s.GameID != other.GameID ||
		s.Current != other.Current ||
		s.Direction != other.Direction ||
		s.ActiveColor != other.ActiveColor ||
		s.AwaitingWildColor != other.AwaitingWildColor ||
		s.MustDrawCount != other.MustDrawCount ||
		s.MustDrawPlayer != other.MustDrawPlayer ||
		s.SkipCount != other.SkipCount ||
		s.TurnFinished != other.TurnFinished ||
		s.DrewCard != other.DrewCard ||
		s.Round != other.Round ||
		s.RoundOver != other.RoundOver ||
		s.GameOver != other.GameOver ||
		s.Winner != other.Winner {
		return false
	}

	if !s.DrawPile.Equal(other.DrawPile) || !s.DiscardPile.Equal(other.DiscardPile) {
		return false
	}

	if len(s.Players) != len(other.Players) {
		return false
	}
	for i := range s.Players {
		a, b := &s.Players[i], &other.Players[i]
		if a.Name != b.Name || a.IsAI != b.IsAI || a.Score != b.Score || !a.Hand.Equal(b.Hand) {
			return false
		}
	}
	return true
}

func (s *GameState) PlayerCount() int {
	return len(s.Players)
}

func (s *GameState) CurrentPlayer() *Player {
	return &s.Players[s.Current]
}

func (s *GameState) GetNextPlayerIndex(curPlayerIndex int, step int) int {
	i := (curPlayerIndex + s.Direction*step) % s.PlayerCount()
	if i < 0 {
		return s.PlayerCount() + i
	}
	return i
}

func (s *GameState) TopCard() Card {
	return s.DiscardPile.MustTop()
}

// OwedDraws is the number of forced draws the player still has to take.
func (s *GameState) OwedDraws(playerIndex int) int {
	if s.MustDrawCount > 0 && s.MustDrawPlayer == playerIndex {
		return s.MustDrawCount
	}
	return 0
}

// CanDraw reports whether a draw could succeed, reshuffling the discard pile if needed.
func (s *GameState) CanDraw() bool {
	return len(s.DrawPile) > 0 || len(s.DiscardPile) > 1
}

func (s *GameState) CardCount() int {
	total := len(s.DrawPile) + len(s.DiscardPile)
	for i := range s.Players {
		total += len(s.Players[i].Hand)
	}
	return total
}

func (s *GameState) PlayerIndexFromName(playerName string) (int, bool) {
	for i := range s.Players {
		if s.Players[i].Name == playerName {
			return i, true
		}
	}
	return -1, false
}

func (s *GameState) Summary() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Round: %d\n", s.Round))
	sb.WriteString(fmt.Sprintf("DrawPile count: %d\n", s.DrawPile.Len()))
	sb.WriteString(fmt.Sprintf("DiscardPile count: %d\n", s.DiscardPile.Len()))
	sb.WriteString("Hand counts, Scores:\n----------\n")
	for _, p := range s.Players {
		sb.WriteString(fmt.Sprintf("%s: %d, %d\n", p.Name, p.Hand.Len(), p.Score))
	}
	sb.WriteString(fmt.Sprintf("Current: %s\n", s.CurrentPlayer().Name))
	sb.WriteString(fmt.Sprintf("Direction: %d\n", s.Direction))
	sb.WriteString(fmt.Sprintf("ActiveColor: %s\n", s.ActiveColor.String()))

	return sb.String()
}

const (
	MinPlayers = 2
	MaxPlayers = 10
)

// Validate checks the structural contract of a state: counts, indices, tokens and
// card conservation. It never repairs anything.
func (s *GameState) Validate() error {
	n := len(s.Players)
	if n < MinPlayers || n > MaxPlayers {
		return fmt.Errorf("player count %d outside [%d, %d]", n, MinPlayers, MaxPlayers)
	}

	names := make(map[string]bool, n)
	for i := range s.Players {
		p := &s.Players[i]
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("player %d has an empty name", i)
		}
		if names[p.Name] {
			return fmt.Errorf("duplicate player name '%s'", p.Name)
		}
		names[p.Name] = true
		if p.Score < 0 {
			return fmt.Errorf("player '%s' has negative score %d", p.Name, p.Score)
		}
	}

	if s.Current < 0 || s.Current >= n {
		return fmt.Errorf("current player index %d out of range", s.Current)
	}
	if s.Direction != 1 && s.Direction != -1 {
		return fmt.Errorf("direction must be 1 or -1, have %d", s.Direction)
	}
	if s.Round < 1 {
		return fmt.Errorf("round must be at least 1, have %d", s.Round)
	}
	if s.SkipCount < 0 || s.SkipCount >= n {
		return fmt.Errorf("skip count %d out of range", s.SkipCount)
	}

	if s.MustDrawCount < 0 {
		return fmt.Errorf("negative must-draw count %d", s.MustDrawCount)
	}
	if s.MustDrawCount == 0 && s.MustDrawPlayer != -1 {
		return fmt.Errorf("must-draw player %d set without a count", s.MustDrawPlayer)
	}
	if s.MustDrawCount > 0 && (s.MustDrawPlayer < 0 || s.MustDrawPlayer >= n) {
		return fmt.Errorf("must-draw player index %d out of range", s.MustDrawPlayer)
	}

	if s.Winner < -1 || s.Winner >= n {
		return fmt.Errorf("winner index %d out of range", s.Winner)
	}
	if s.RoundOver && s.Winner == -1 {
		return fmt.Errorf("round is over without a winner")
	}
	if s.GameOver && !s.RoundOver {
		return fmt.Errorf("game is over but round is not")
	}
	if s.RoundOver && !s.Players[s.Winner].Hand.IsEmpty() {
		return fmt.Errorf("round winner '%s' still holds %d card(s)", s.Players[s.Winner].Name, s.Players[s.Winner].Hand.Len())
	}
	if s.AwaitingWildColor && s.TurnFinished {
		return fmt.Errorf("turn is finished while a wild color is pending")
	}

	decks := make([]Deck, 0, n+2)
	decks = append(decks, s.DrawPile, s.DiscardPile)
	for i := range s.Players {
		decks = append(decks, s.Players[i].Hand)
	}
	for _, d := range decks {
		for _, card := range d {
			if !card.Valid() {
				return fmt.Errorf("invalid card %s", card.String())
			}
		}
	}

	if s.DiscardPile.IsEmpty() {
		return fmt.Errorf("discard pile is empty")
	}
	top := s.TopCard()
	switch {
	case s.AwaitingWildColor:
		if !top.IsWild() || s.ActiveColor != ColorWild {
			return fmt.Errorf("awaiting wild color but top card is %s with active color %s", top.String(), s.ActiveColor.String())
		}
	case !s.ActiveColor.IsRuleColor():
		return fmt.Errorf("active color %s is not a rule color", s.ActiveColor.String())
	case !top.IsWild() && top.Color != s.ActiveColor:
		return fmt.Errorf("active color %s does not match top card %s", s.ActiveColor.String(), top.String())
	}

	return CheckConservation(decks...)
}
