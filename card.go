package uno

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/exp/slices"
)

type Card struct {
	Number Number `json:"number"`
	Color  Color  `json:"color"`
}

func (c Card) String() string {
	if c.IsWild() {
		return c.Number.String()
	}
	return fmt.Sprintf("%s of %s", c.Number.String(), c.Color.String())
}

// Text is the human readable form shown by presentation layers, e.g. "Red 7".
func (c Card) Text() string {
	if c.IsWild() {
		return c.Number.Text()
	}
	return fmt.Sprintf("%s %s", c.Color.Text(), c.Number.Text())
}

// SymbolString is the short form used in compact listings, e.g. "R7", "BS", "W4".
func (c Card) SymbolString() string {
	switch c.Number {
	case NumberWild:
		return "W"
	case NumberWildDrawFour:
		return "W4"
	}

	var sb strings.Builder
	sb.WriteString(strings.ToUpper(c.Color.String()[0:1]))
	switch c.Number {
	case NumberSkip:
		sb.WriteString("S")
	case NumberReverse:
		sb.WriteString("R")
	case NumberDrawTwo:
		sb.WriteString("+2")
	default:
		sb.WriteString(c.Number.String())
	}
	return sb.String()
}

func (c Card) IsWild() bool {
	return c.Number == NumberWild || c.Number == NumberWildDrawFour
}

func (c Card) IsAction() bool {
	return c.Number.IsAction()
}

// Points is the value the card is worth to the round winner when left in an opponent's hand.
func (c Card) Points() int {
	switch c.Number {
	case NumberWild, NumberWildDrawFour:
		return 50
	case NumberSkip, NumberReverse, NumberDrawTwo:
		return 20
	default:
		return int(c.Number)
	}
}

// Valid reports whether the card exists in a standard deck. Wild numbers only come
// in ColorWild and every other number needs one of the four rule colors.
func (c Card) Valid() bool {
	if c.Number < 0 || c.Number > NumberWildDrawFour {
		return false
	}
	if c.IsWild() {
		return c.Color == ColorWild
	}
	return c.Color.IsRuleColor()
}

type Number int

// Special cards
const (
	NumberSkip Number = iota + 10
	NumberReverse
	NumberDrawTwo
	NumberWild
	NumberWildDrawFour
)

func (num Number) IsAction() bool {
	return NumberSkip <= num && num <= NumberWildDrawFour
}

func (num Number) String() string {
	if 0 <= num && num <= 9 {
		return fmt.Sprintf("%d", num)
	}

	switch num {
	case NumberSkip:
		return "Skip"
	case NumberReverse:
		return "Reverse"
	case NumberDrawTwo:
		return "DrawTwo"
	case NumberWild:
		return "Wild"
	case NumberWildDrawFour:
		return "WildDrawFour"
	default:
		return fmt.Sprintf("invalid_number(= %d)", num)
	}
}

func (num Number) Text() string {
	switch num {
	case NumberDrawTwo:
		return "Draw Two"
	case NumberWildDrawFour:
		return "Wild Draw Four"
	default:
		return num.String()
	}
}

func IntToNumber(n int) (Number, error) {
	if 0 <= n && n <= int(NumberWildDrawFour) {
		return Number(n), nil
	}
	return 0, fmt.Errorf("InvalidCardNumber(%d)", n)
}

// Color is a rule color. Display colors are a presentation concern and never stored here.
type Color int

const (
	ColorWild Color = iota
	ColorRed
	ColorGreen
	ColorBlue
	ColorYellow
)

// RuleColors in tie-break priority order.
var RuleColors = []Color{ColorRed, ColorGreen, ColorBlue, ColorYellow}

func (c Color) IsRuleColor() bool {
	return ColorRed <= c && c <= ColorYellow
}

func (c Color) String() string {
	switch c {
	case ColorRed:
		return "red"
	case ColorGreen:
		return "green"
	case ColorBlue:
		return "blue"
	case ColorYellow:
		return "yellow"
	case ColorWild:
		return "wild"
	default:
		return "invalid_color"
	}
}

func (c Color) Text() string {
	s := c.String()
	return strings.ToUpper(s[0:1]) + s[1:]
}

func ParseColor(s string) (Color, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "red":
		return ColorRed, nil
	case "green":
		return ColorGreen, nil
	case "blue":
		return ColorBlue, nil
	case "yellow":
		return ColorYellow, nil
	default:
		return ColorWild, fmt.Errorf("unknown rule color: '%s'", s)
	}
}

// DeckSize is the number of cards in a full deck. Every reachable state holds exactly
// this many cards across hands, draw pile and discard pile.
const DeckSize = 108

// actionCardCount is the number of Skip, Reverse, DrawTwo and wild cards in a full deck.
const actionCardCount = 32

var ErrEmptyDeck = errors.New("empty deck")

type Deck []Card

func (d Deck) String() string {
	if len(d) == 0 {
		return "[]"
	}

	var sb strings.Builder

	sb.WriteString("[")

	for _, card := range d[0 : len(d)-1] {
		sb.WriteString(card.String())
		sb.WriteString("|")
	}

	sb.WriteString(d[len(d)-1].String())
	sb.WriteString("]")

	return sb.String()
}

func (d Deck) Len() int {
	return len(d)
}

func NewEmptyDeck() Deck {
	return make([]Card, 0, DeckSize)
}

// NewFullDeck returns the 108 cards in a fixed order: one zero and two of each of
// 1-9, Skip, Reverse, DrawTwo per color, followed by four Wild and four WildDrawFour.
func NewFullDeck() Deck {
	cards := make([]Card, 0, DeckSize)
	for _, color := range RuleColors {
		cards = append(cards, Card{Number: 0, Color: color})
		for copies := 0; copies < 2; copies++ {
			for number := Number(1); number <= NumberDrawTwo; number++ {
				cards = append(cards, Card{Number: number, Color: color})
			}
		}
	}

	for i := 0; i < 4; i++ {
		cards = append(cards, Card{Number: NumberWild, Color: ColorWild})
		cards = append(cards, Card{Number: NumberWildDrawFour, Color: ColorWild})
	}

	return Deck(cards)
}

func (d Deck) IsEmpty() bool {
	return len(d) == 0
}

func (d Deck) Push(cards ...Card) Deck {
	return append(d, cards...)
}

func (d Deck) Top() (Card, error) {
	if d.IsEmpty() {
		return Card{}, ErrEmptyDeck
	}
	return d[len(d)-1], nil
}

func (d Deck) MustTop() Card {
	if d.IsEmpty() {
		panic("Deck.MustTop() called on empty deck")
	}
	return d[len(d)-1]
}

func (d Deck) Pop() (Deck, error) {
	if d.IsEmpty() {
		return d, ErrEmptyDeck
	}
	return d[0 : len(d)-1], nil
}

func (d Deck) MustPop() Deck {
	if d.IsEmpty() {
		panic("Deck.MustPop() called on an empty deck")
	}
	return d[0 : len(d)-1]
}

// RemoveCard removes the card at index in place.
func (d Deck) RemoveCard(index int) Deck {
	return slices.Delete(d, index, index+1)
}

func (d Deck) FindCard(wantedCard Card) (int, error) {
	index := slices.Index(d, wantedCard)
	if index < 0 {
		return 0, fmt.Errorf("could not find card %s", wantedCard.String())
	}
	return index, nil
}

func (d Deck) Clone() Deck {
	return slices.Clone(d)
}

func (d Deck) Equal(other Deck) bool {
	return slices.Equal(d, other)
}
