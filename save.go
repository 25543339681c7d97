package uno

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const SaveVersion = 1

// Token is the stable save-file name of a card, e.g. "red-7", "blue-skip", "wild-draw4".
func (c Card) Token() string {
	switch c.Number {
	case NumberWild:
		return "wild"
	case NumberWildDrawFour:
		return "wild-draw4"
	case NumberSkip:
		return c.Color.String() + "-skip"
	case NumberReverse:
		return c.Color.String() + "-reverse"
	case NumberDrawTwo:
		return c.Color.String() + "-draw2"
	default:
		return fmt.Sprintf("%s-%d", c.Color.String(), c.Number)
	}
}

func ParseCardToken(token string) (Card, error) {
	switch token {
	case "wild":
		return Card{Number: NumberWild, Color: ColorWild}, nil
	case "wild-draw4":
		return Card{Number: NumberWildDrawFour, Color: ColorWild}, nil
	}

	colorPart, numberPart, ok := strings.Cut(token, "-")
	if !ok {
		return Card{}, fmt.Errorf("malformed card token '%s'", token)
	}
	color, err := ParseColor(colorPart)
	if err != nil || colorPart != color.String() {
		return Card{}, fmt.Errorf("unknown color in card token '%s'", token)
	}

	var number Number
	switch numberPart {
	case "skip":
		number = NumberSkip
	case "reverse":
		number = NumberReverse
	case "draw2":
		number = NumberDrawTwo
	default:
		n, err := strconv.Atoi(numberPart)
		if err != nil || n < 0 || n > 9 || strconv.Itoa(n) != numberPart {
			return Card{}, fmt.Errorf("unknown rank in card token '%s'", token)
		}
		number = Number(n)
	}
	return Card{Number: number, Color: color}, nil
}

type savedPlayer struct {
	Name  string   `json:"name"`
	AI    bool     `json:"ai"`
	Score int      `json:"score"`
	Hand  []string `json:"hand"`
}

type savedGame struct {
	Version           int           `json:"version"`
	GameID            string        `json:"game_id"`
	Players           []savedPlayer `json:"players"`
	Current           int           `json:"current"`
	Direction         int           `json:"direction"`
	DrawPile          []string      `json:"draw_pile"`
	DiscardPile       []string      `json:"discard_pile"`
	ActiveColor       string        `json:"active_color"`
	AwaitingWildColor bool          `json:"awaiting_wild_color"`
	MustDrawCount     int           `json:"must_draw_count"`
	MustDrawPlayer    int           `json:"must_draw_player"`
	TurnFinished      bool          `json:"turn_finished"`
	DrewCard          bool          `json:"drew_card"`
	SkipCount         int           `json:"skip_count"`
	Round             int           `json:"round"`
	RoundOver         bool          `json:"round_over"`
	GameOver          bool          `json:"game_over"`
	Winner            int           `json:"winner"`
}

func deckTokens(d Deck) []string {
	tokens := make([]string, len(d))
	for i, card := range d {
		tokens[i] = card.Token()
	}
	return tokens
}

func parseDeck(tokens []string) (Deck, error) {
	d := make(Deck, 0, len(tokens))
	for _, token := range tokens {
		card, err := ParseCardToken(token)
		if err != nil {
			return nil, err
		}
		d = append(d, card)
	}
	return d, nil
}

// MarshalGameState writes the full state as an indented JSON document.
func MarshalGameState(s *GameState) ([]byte, error) {
	saved := savedGame{
		Version:           SaveVersion,
		GameID:            s.GameID.String(),
		Players:           make([]savedPlayer, len(s.Players)),
		Current:           s.Current,
		Direction:         s.Direction,
		DrawPile:          deckTokens(s.DrawPile),
		DiscardPile:       deckTokens(s.DiscardPile),
		ActiveColor:       s.ActiveColor.String(),
		AwaitingWildColor: s.AwaitingWildColor,
		MustDrawCount:     s.MustDrawCount,
		MustDrawPlayer:    s.MustDrawPlayer,
		TurnFinished:      s.TurnFinished,
		DrewCard:          s.DrewCard,
		SkipCount:         s.SkipCount,
		Round:             s.Round,
		RoundOver:         s.RoundOver,
		GameOver:          s.GameOver,
		Winner:            s.Winner,
	}
	for i, p := range s.Players {
		saved.Players[i] = savedPlayer{
			Name:  p.Name,
			AI:    p.IsAI,
			Score: p.Score,
			Hand:  deckTokens(p.Hand),
		}
	}
	return json.MarshalIndent(&saved, "", "  ")
}

// UnmarshalGameState parses and validates a save. Any structural problem is reported
// as ErrCorruptSave; nothing is repaired.
func UnmarshalGameState(data []byte) (*GameState, error) {
	var saved savedGame
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&saved); err != nil {
		return nil, corruptSave("decoding save: %s", err)
	}
	if _, err := decoder.Token(); err != io.EOF {
		return nil, corruptSave("trailing data after save document")
	}

	if saved.Version != SaveVersion {
		return nil, corruptSave("unsupported save version %d", saved.Version)
	}

	gameID, err := uuid.Parse(saved.GameID)
	if err != nil {
		return nil, corruptSave("bad game id '%s'", saved.GameID)
	}

	var activeColor Color
	if saved.ActiveColor == ColorWild.String() {
		activeColor = ColorWild
	} else if activeColor, err = ParseColor(saved.ActiveColor); err != nil || saved.ActiveColor != activeColor.String() {
		return nil, corruptSave("unknown active color '%s'", saved.ActiveColor)
	}

	s := &GameState{
		GameID:            gameID,
		Players:           make([]Player, len(saved.Players)),
		Current:           saved.Current,
		Direction:         saved.Direction,
		ActiveColor:       activeColor,
		AwaitingWildColor: saved.AwaitingWildColor,
		MustDrawCount:     saved.MustDrawCount,
		MustDrawPlayer:    saved.MustDrawPlayer,
		SkipCount:         saved.SkipCount,
		TurnFinished:      saved.TurnFinished,
		DrewCard:          saved.DrewCard,
		Round:             saved.Round,
		RoundOver:         saved.RoundOver,
		GameOver:          saved.GameOver,
		Winner:            saved.Winner,
	}

	if s.DrawPile, err = parseDeck(saved.DrawPile); err != nil {
		return nil, corruptSave("draw pile: %s", err)
	}
	if s.DiscardPile, err = parseDeck(saved.DiscardPile); err != nil {
		return nil, corruptSave("discard pile: %s", err)
	}
	for i, p := range saved.Players {
		hand, err := parseDeck(p.Hand)
		if err != nil {
			return nil, corruptSave("hand of player %d: %s", i, err)
		}
		s.Players[i] = Player{Name: p.Name, IsAI: p.AI, Score: p.Score, Hand: hand}
	}

	if err := s.Validate(); err != nil {
		return nil, corruptSave("%s", err)
	}
	return s, nil
}
