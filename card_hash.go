package uno

import "github.com/pkg/errors"

// [unused bits][5 bits for number][4 bits for color]
const (
	numberBitsCount = 5
	colorBitsCount  = 4
	numberMask      = (uint32(1<<numberBitsCount) - 1) << uint32(colorBitsCount)
	colorMask       = (uint32(1<<colorBitsCount) - 1)
)

var ErrInvalidCardColor = errors.New("invalid card color")
var ErrInvalidCardNumber = errors.New("invalid card number")

func (c Card) EncodeUint32() uint32 {
	return (uint32(c.Number) << colorBitsCount) | uint32(c.Color)
}

func DecodeCardFromUint32(x uint32) (Card, error) {
	color := uint32(x & colorMask)
	if color > uint32(ColorYellow) {
		return Card{}, ErrInvalidCardColor
	}
	number := uint32(x&numberMask) >> colorBitsCount
	if number > uint32(NumberWildDrawFour) {
		return Card{}, ErrInvalidCardNumber
	}
	return Card{Color: Color(color), Number: Number(number)}, nil
}

func MustDecodeCardFromUint32(x uint32) Card {
	card, err := DecodeCardFromUint32(x)
	if err != nil {
		panic(err)
	}
	return card
}

func (c Card) Hash() uint32 {
	return c.EncodeUint32()
}

// CountCards tallies cards by hash.
func CountCards(decks ...Deck) map[uint32]int {
	countOfCard := make(map[uint32]int, 64)
	for _, d := range decks {
		for _, card := range d {
			countOfCard[card.Hash()]++
		}
	}
	return countOfCard
}

// CheckConservation reports an error unless the given decks hold exactly the cards of
// one full deck.
func CheckConservation(decks ...Deck) error {
	want := CountCards(NewFullDeck())
	have := CountCards(decks...)

	for hash, count := range have {
		card, err := DecodeCardFromUint32(hash)
		if err != nil {
			return err
		}
		if want[hash] != count {
			return errors.Errorf("card %s appears %d times, expected %d", card.String(), count, want[hash])
		}
	}
	for hash, count := range want {
		if have[hash] == 0 {
			return errors.Errorf("card %s missing, expected %d", MustDecodeCardFromUint32(hash).String(), count)
		}
	}
	return nil
}
