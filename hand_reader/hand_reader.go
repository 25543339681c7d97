// Read a JSON representation of a table and build a `uno.GameState` from it.
// This is only for testing/debugging purpose.
package hand_reader

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"math/rand"
	"sort"
	"strings"

	"github.com/nrawrx3/uno"
)

/*
	{
		"player.alice": {
			"red": [1, 2, "skip"],
			"green": [9, "draw_2"],
			"wild": ["wild", "wild_draw_4"],

			"draw_upto": {
				"total": 12
			}
		},

		"player.john": {
			"red": [5, 2, "skip"],
			"blue": [7, 9, 2, "reverse"],
			"ai": true
		},

		"player.jane": {
			"draw_upto": {
				"total": 8
			}
		},

		"seat_order": ["alice", "john", "jane"],
		"discard_top": "yellow-4",
		"shuffle_seed": 0, // 0 says don't shuffle the draw pile
		"player_of_next_turn": "alice"
	}
*/

type drawUpto struct {
	total int
}

type handDesc struct {
	cards    []uno.Card
	isAI     bool
	drawUpto drawUpto
}

type serializedJSON struct {
	handDescOfPlayer map[string]*handDesc
	seatOrder        []string
	discardTop       *uno.Card
	shuffleSeed      int64
	playerToPlay     string
}

var ErrUnknownKey = errors.New("unknown key")
var ErrCouldNotRemoveCard = errors.New("could not remove card")

// LoadPreset reads the hand-config JSON and builds a round-1 state from it. Cards not
// given to any player form the draw pile.
func LoadPreset(bytes []byte, logger *log.Logger) (*uno.GameState, error) {
	var j map[string]interface{}
	err := json.Unmarshal(bytes, &j)
	if err != nil {
		return nil, err
	}

	desc := serializedJSON{
		handDescOfPlayer: make(map[string]*handDesc),
	}

	for key, value := range j {
		if strings.HasPrefix(key, "player.") {
			playerName := strings.TrimPrefix(key, "player.")
			handDesc, err := castHandDescMap(value)
			if err != nil {
				return nil, fmt.Errorf("LoadPreset: player '%s': %w", playerName, err)
			}
			desc.handDescOfPlayer[playerName] = handDesc
		} else if key == "seat_order" {
			names, ok := value.([]interface{})
			if !ok {
				return nil, errors.New("expected an array of names for seat_order")
			}
			for _, nameIF := range names {
				name, ok := nameIF.(string)
				if !ok {
					return nil, errors.New("expected a string in seat_order")
				}
				desc.seatOrder = append(desc.seatOrder, name)
			}
		} else if key == "discard_top" {
			token, ok := value.(string)
			if !ok {
				return nil, errors.New("expected a card token for discard_top")
			}
			card, err := uno.ParseCardToken(token)
			if err != nil {
				return nil, err
			}
			desc.discardTop = &card
		} else if key == "shuffle_seed" {
			seed, ok := value.(float64)
			if !ok {
				return nil, errors.New("expected an integer value for shuffle_seed")
			}
			desc.shuffleSeed = int64(seed)
		} else if key == "player_of_next_turn" {
			name, ok := value.(string)
			if !ok {
				return nil, errors.New("expected a player name for player_of_next_turn")
			}
			desc.playerToPlay = strings.TrimSpace(name)
		} else {
			return nil, fmt.Errorf("%w: %s", ErrUnknownKey, key)
		}
	}

	return makeState(desc, logger)
}

// updates countOfCard by removing each given card in cards slice
func removeCardsFromDeck(cards []uno.Card, countOfCard map[uint32]int) error {
	for _, card := range cards {
		enc := card.EncodeUint32()
		count := countOfCard[enc]
		if count == 0 {
			return fmt.Errorf("%w: %s", ErrCouldNotRemoveCard, card.String())
		}
		countOfCard[enc] = count - 1
	}
	return nil
}

func seatOrder(desc serializedJSON) ([]string, error) {
	if len(desc.seatOrder) == 0 {
		names := make([]string, 0, len(desc.handDescOfPlayer))
		for name := range desc.handDescOfPlayer {
			names = append(names, name)
		}
		sort.Strings(names)
		return names, nil
	}

	if len(desc.seatOrder) != len(desc.handDescOfPlayer) {
		return nil, fmt.Errorf("seat_order names %d players but %d are described", len(desc.seatOrder), len(desc.handDescOfPlayer))
	}
	for _, name := range desc.seatOrder {
		if _, ok := desc.handDescOfPlayer[name]; !ok {
			return nil, fmt.Errorf("seat_order names undescribed player '%s'", name)
		}
	}
	return desc.seatOrder, nil
}

func makeState(desc serializedJSON, logger *log.Logger) (*uno.GameState, error) {
	names, err := seatOrder(desc)
	if err != nil {
		return nil, err
	}

	players := make([]uno.PlayerConfig, len(names))
	for i, name := range names {
		players[i] = uno.PlayerConfig{Name: name, IsAI: desc.handDescOfPlayer[name].isAI}
	}
	state := uno.NewGameState(players)

	countOfCard := uno.CountCards(uno.NewFullDeck())

	for i, name := range names {
		handDesc := desc.handDescOfPlayer[name]
		if err := removeCardsFromDeck(handDesc.cards, countOfCard); err != nil {
			return nil, fmt.Errorf("player '%s': %w", name, err)
		}
		state.Players[i].Hand = state.Players[i].Hand.Push(handDesc.cards...)
	}

	if desc.discardTop != nil {
		if err := removeCardsFromDeck([]uno.Card{*desc.discardTop}, countOfCard); err != nil {
			return nil, fmt.Errorf("discard_top: %w", err)
		}
	}

	// Build the draw pile in full-deck order so presets without a seed are reproducible.
	drawPile := uno.NewEmptyDeck()
	for _, card := range uno.NewFullDeck() {
		enc := card.EncodeUint32()
		if countOfCard[enc] > 0 {
			countOfCard[enc]--
			drawPile = drawPile.Push(card)
		}
	}
	if desc.shuffleSeed != 0 {
		drawPile = drawPile.Shuffled(rand.New(rand.NewSource(desc.shuffleSeed)))
	}

	for i, name := range names {
		total := desc.handDescOfPlayer[name].drawUpto.total
		for state.Players[i].Hand.Len() < total {
			card, err := drawPile.Top()
			if err != nil {
				return nil, fmt.Errorf("draw_upto for '%s': %w", name, err)
			}
			drawPile = drawPile.MustPop()
			state.Players[i].Hand = state.Players[i].Hand.Push(card)
		}
	}

	var top uno.Card
	if desc.discardTop != nil {
		top = *desc.discardTop
	} else {
		index := -1
		for i := drawPile.Len() - 1; i >= 0; i-- {
			if !drawPile[i].IsAction() {
				index = i
				break
			}
		}
		if index < 0 {
			return nil, errors.New("no numeral left in the draw pile for the discard top")
		}
		top = drawPile[index]
		drawPile = drawPile.RemoveCard(index)
	}
	if top.IsWild() {
		return nil, fmt.Errorf("discard top %s needs a bound color, use a colored card", top.Text())
	}

	state.DrawPile = drawPile
	state.DiscardPile = uno.NewEmptyDeck().Push(top)
	state.ActiveColor = top.Color
	logger.Printf("hand-reader: discard top %s, required color %s", top.Text(), top.Color.String())

	if desc.playerToPlay != "" {
		index, ok := state.PlayerIndexFromName(desc.playerToPlay)
		if !ok {
			return nil, fmt.Errorf("player_of_next_turn: unknown player '%s'", desc.playerToPlay)
		}
		state.Current = index
	}

	if err := state.Validate(); err != nil {
		return nil, err
	}
	return state, nil
}

func colorFromKey(colorKey string) (uno.Color, error) {
	if strings.ToLower(colorKey) == "wild" {
		return uno.ColorWild, nil
	}
	return uno.ParseColor(colorKey)
}

func numberFromSpecial(special string) (uno.Number, error) {
	switch strings.ToLower(special) {
	case "skip":
		return uno.NumberSkip, nil
	case "reverse":
		return uno.NumberReverse, nil
	case "draw_2":
		return uno.NumberDrawTwo, nil
	case "wild":
		return uno.NumberWild, nil
	case "wild_draw_4":
		return uno.NumberWildDrawFour, nil
	default:
		return uno.Number(0), fmt.Errorf("unknown special number key: %s", special)
	}
}

func tryCastNumber(v interface{}) (uno.Number, error) {
	number, ok := v.(float64)
	if ok {
		if number != math.Floor(number) || number < 0 || number > 9 {
			return 0, fmt.Errorf("expected an integer in [0, 9] in place of %v", number)
		}
		return uno.Number(number), nil
	}

	specialString, ok := v.(string)
	if !ok {
		return uno.Number(0), errors.New("could not cast value to uno.Number")
	}
	return numberFromSpecial(specialString)
}

func castHandDescMap(handDescIF interface{}) (*handDesc, error) {
	handDescMap, ok := handDescIF.(map[string]interface{})
	if !ok {
		return nil, errors.New("could not cast handDescMapIF")
	}

	handDesc := &handDesc{
		cards: make([]uno.Card, 0, len(handDescMap)),
	}

	// Colors are read in rule order so the resulting hand order is reproducible.
	colorKeys := []string{"red", "green", "blue", "yellow", "wild"}

	for key := range handDescMap {
		switch key {
		case "draw_upto", "ai", "red", "green", "blue", "yellow", "wild":
		default:
			return nil, fmt.Errorf("%w: %s", ErrUnknownKey, key)
		}
	}

	if v, ok := handDescMap["draw_upto"]; ok {
		drawUpto, err := castDrawUpto(v)
		if err != nil {
			return nil, err
		}
		handDesc.drawUpto = drawUpto
	}

	if v, ok := handDescMap["ai"]; ok {
		isAI, ok := v.(bool)
		if !ok {
			return nil, errors.New("expected a boolean for 'ai'")
		}
		handDesc.isAI = isAI
	}

	for _, key := range colorKeys {
		valueIF, ok := handDescMap[key]
		if !ok {
			continue
		}

		color, err := colorFromKey(key)
		if err != nil {
			return nil, err
		}

		numberList, ok := valueIF.([]interface{})
		if !ok {
			return nil, fmt.Errorf("failed to cast number-list value to array for color %s", key)
		}

		for i, numberIF := range numberList {
			number, err := tryCastNumber(numberIF)
			if err != nil {
				return nil, fmt.Errorf("card index %d: %w", i, err)
			}

			card := uno.Card{
				Color:  color,
				Number: number,
			}
			if !card.Valid() {
				return nil, fmt.Errorf("card index %d: %s is not a card of the deck", i, card.String())
			}

			handDesc.cards = append(handDesc.cards, card)
		}
	}

	return handDesc, nil
}

func castDrawUpto(v interface{}) (drawUpto, error) {
	drawUpto := drawUpto{}

	object, ok := v.(map[string]interface{})
	if !ok {
		return drawUpto, errors.New("failed to cast drawUpto object")
	}

	for key, value := range object {
		if key == "total" {
			total, ok := value.(float64)
			if !ok {
				return drawUpto, errors.New("failed to cast value of 'total'")
			}
			drawUpto.total = int(total)
		}
	}
	return drawUpto, nil
}
