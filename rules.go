package uno

// CanPlayOn reports whether card may be put on top, given the active rule color.
// Wild variants are always playable.
func CanPlayOn(card, top Card, activeColor Color) bool {
	if card.IsWild() {
		return true
	}
	if card.Color == activeColor {
		return true
	}
	return !top.IsWild() && card.Number == top.Number
}

// Effect describes what ResolveEffect did, for logging and the info line.
type Effect struct {
	Card          Card
	Skipped       int
	Reversed      bool
	ForcedDraw    int
	ForcedPlayer  int
	NeedsColor    bool
	StackRejected bool
}

// ResolveEffect applies the rule effect of a card that just left the current player's
// hand and now sits on top of the discard pile.
//
// Forced draws do not stack: if a count is already pending, a later DrawTwo or
// WildDrawFour leaves it unchanged.
func ResolveEffect(played Card, s *GameState) Effect {
	effect := Effect{Card: played, ForcedPlayer: -1}

	if played.IsWild() {
		s.ActiveColor = ColorWild
		s.AwaitingWildColor = true
		effect.NeedsColor = true
	} else {
		s.ActiveColor = played.Color
	}

	switch played.Number {
	case NumberSkip:
		s.SkipCount = 1
		effect.Skipped = 1

	case NumberReverse:
		s.Direction = -s.Direction
		effect.Reversed = true
		if s.PlayerCount() == 2 {
			s.SkipCount = 1
			effect.Skipped = 1
		}

	case NumberDrawTwo:
		forceDraw(s, 2, &effect)

	case NumberWildDrawFour:
		forceDraw(s, 4, &effect)
	}

	return effect
}

func forceDraw(s *GameState, count int, effect *Effect) {
	if s.MustDrawCount > 0 {
		effect.StackRejected = true
		return
	}
	s.MustDrawCount = count
	s.MustDrawPlayer = s.GetNextPlayerIndex(s.Current, 1)
	effect.ForcedDraw = count
	effect.ForcedPlayer = s.MustDrawPlayer
}
