package uno

// AIView is everything a strategy may look at: its own hand and public table facts.
type AIView struct {
	Hand                Deck
	Top                 Card
	ActiveColor         Color
	NextPlayerHandCount int
	// OnlyLast restricts the choice to the last card of Hand (the card just drawn).
	OnlyLast bool
}

func (v *AIView) legal(i int) bool {
	if v.OnlyLast && i != len(v.Hand)-1 {
		return false
	}
	return CanPlayOn(v.Hand[i], v.Top, v.ActiveColor)
}

// Strategy decides for a non-human player. Implementations must be deterministic for a
// given view.
type Strategy interface {
	// ChooseCard returns the index of the card to play, or false to draw.
	ChooseCard(view AIView) (int, bool)
	ChooseColor(hand Deck) Color
}

// DefensiveStrategy plays the first legal action card in hand order when the next
// player is close to going out, and the first legal numeral otherwise.
type DefensiveStrategy struct {
	LowHandThreshold int
}

func NewDefensiveStrategy() *DefensiveStrategy {
	return &DefensiveStrategy{LowHandThreshold: 2}
}

func (st *DefensiveStrategy) ChooseCard(view AIView) (int, bool) {
	firstAction, firstNumeral := -1, -1
	for i := range view.Hand {
		if !view.legal(i) {
			continue
		}
		if view.Hand[i].IsAction() {
			if firstAction < 0 {
				firstAction = i
			}
		} else if firstNumeral < 0 {
			firstNumeral = i
		}
	}

	if firstAction >= 0 && view.NextPlayerHandCount <= st.LowHandThreshold {
		return firstAction, true
	}
	if firstNumeral >= 0 {
		return firstNumeral, true
	}
	if firstAction >= 0 {
		return firstAction, true
	}
	return -1, false
}

// ChooseColor picks the rule color held most often, ties going to red, green, blue,
// yellow in that order.
func (st *DefensiveStrategy) ChooseColor(hand Deck) Color {
	counts := make(map[Color]int, 4)
	for _, card := range hand {
		if card.Color.IsRuleColor() {
			counts[card.Color]++
		}
	}

	best := ColorRed
	for _, color := range RuleColors {
		if counts[color] > counts[best] {
			best = color
		}
	}
	return best
}

func (s *GameState) aiView(onlyLast bool) AIView {
	next := s.GetNextPlayerIndex(s.Current, 1)
	return AIView{
		Hand:                s.CurrentPlayer().Hand,
		Top:                 s.TopCard(),
		ActiveColor:         s.ActiveColor,
		NextPlayerHandCount: len(s.Players[next].Hand),
		OnlyLast:            onlyLast,
	}
}
