package uno

import (
	"math/rand"

	"github.com/google/uuid"
)

// Rules holds the per-game thresholds that the state transitions consult.
type Rules struct {
	HandSize    int
	TargetScore int
	MaxRounds   int // 0 means unlimited
}

// NewGameState seats the players with empty hands and empty piles. Use it together
// with a dealer, or fill the piles by hand for presets.
func NewGameState(players []PlayerConfig) *GameState {
	s := &GameState{
		GameID:         uuid.New(),
		Players:        make([]Player, len(players)),
		Direction:      1,
		MustDrawPlayer: -1,
		Round:          1,
		Winner:         -1,
	}
	for i, p := range players {
		s.Players[i] = Player{Name: p.Name, IsAI: p.IsAI, Hand: NewEmptyDeck()}
	}
	return s
}

// dealRound shuffles a full deck, deals handSize cards to every seat and flips the
// first numeral as the starting discard. Non-numerals flipped on the way go to the
// bottom of the draw pile. Scores and round number are kept.
func dealRound(s *GameState, rng *rand.Rand, handSize int) {
	deck := NewFullDeck().Shuffled(rng)

	for i := range s.Players {
		s.Players[i].Hand = deck[0:handSize].Clone()
		deck = deck[handSize:]
	}
	drawPile := deck.Clone()

	for {
		top := drawPile.MustTop()
		drawPile = drawPile.MustPop()
		if !top.IsAction() {
			s.DiscardPile = NewEmptyDeck().Push(top)
			s.ActiveColor = top.Color
			break
		}
		drawPile = append(Deck{top}, drawPile...)
	}

	s.DrawPile = drawPile
	s.Current = (s.Round - 1) % s.PlayerCount()
	s.Direction = 1
	s.AwaitingWildColor = false
	s.MustDrawCount = 0
	s.MustDrawPlayer = -1
	s.SkipCount = 0
	s.TurnFinished = false
	s.DrewCard = false
	s.RoundOver = false
	s.Winner = -1
}

func (s *GameState) checkActing(playerIndex int) error {
	if s.RoundOver {
		return invalidState("round %d is over", s.Round)
	}
	if s.AwaitingWildColor {
		return invalidState("waiting for %s to choose a wild color", s.CurrentPlayer().Name)
	}
	if playerIndex < 0 || playerIndex >= s.PlayerCount() {
		return illegalMove("no player with index %d", playerIndex)
	}
	if playerIndex != s.Current {
		return illegalMove("not %s's turn, it is %s's", s.Players[playerIndex].Name, s.CurrentPlayer().Name)
	}
	return nil
}

// CheckPlayable reports why the given card could not be played now, or nil.
func (s *GameState) CheckPlayable(playerIndex, cardIndex int) error {
	if err := s.checkActing(playerIndex); err != nil {
		return err
	}

	player := &s.Players[playerIndex]
	if cardIndex < 0 || cardIndex >= len(player.Hand) {
		return illegalMove("card index %d out of range for a hand of %d", cardIndex, len(player.Hand))
	}
	if owed := s.OwedDraws(playerIndex); owed > 0 {
		return illegalMove("%s must draw %d more card(s) before playing", player.Name, owed)
	}
	if s.TurnFinished {
		return illegalMove("%s already finished the turn", player.Name)
	}
	if s.DrewCard && cardIndex != len(player.Hand)-1 {
		return illegalMove("after drawing only the drawn card may be played")
	}

	card := player.Hand[cardIndex]
	top := s.TopCard()
	if !CanPlayOn(card, top, s.ActiveColor) {
		return illegalMove("%s does not match %s (active color %s)", card.Text(), top.Text(), s.ActiveColor.String())
	}
	return nil
}

func (s *GameState) playCard(playerIndex, cardIndex int) (Card, Effect, error) {
	if err := s.CheckPlayable(playerIndex, cardIndex); err != nil {
		return Card{}, Effect{}, err
	}

	player := &s.Players[playerIndex]
	card := player.Hand[cardIndex]
	player.Hand = player.Hand.RemoveCard(cardIndex)
	s.DiscardPile = s.DiscardPile.Push(card)

	effect := ResolveEffect(card, s)
	if !effect.NeedsColor {
		s.TurnFinished = true
	}
	return card, effect, nil
}

func (s *GameState) bindWildColor(color Color) error {
	if !s.AwaitingWildColor {
		return invalidState("no wild color resolution is pending")
	}
	if !color.IsRuleColor() {
		return illegalMove("%s is not one of red, green, blue, yellow", color.String())
	}
	s.ActiveColor = color
	s.AwaitingWildColor = false
	s.TurnFinished = true
	return nil
}

// drawOne moves the top of the draw pile into the player's hand, first reshuffling
// everything but the discard top into the draw pile if the draw pile is empty.
func (s *GameState) drawOne(playerIndex int, rng *rand.Rand) (card Card, reshuffled bool, err error) {
	if s.DrawPile.IsEmpty() {
		if len(s.DiscardPile) <= 1 {
			return Card{}, false, ErrDeckExhausted
		}
		top := s.DiscardPile.MustTop()
		s.DrawPile = s.DiscardPile.MustPop().Shuffled(rng)
		s.DiscardPile = NewEmptyDeck().Push(top)
		reshuffled = true
	}

	card = s.DrawPile.MustTop()
	s.DrawPile = s.DrawPile.MustPop()
	s.Players[playerIndex].Hand = s.Players[playerIndex].Hand.Push(card)
	return card, reshuffled, nil
}

type drawResult struct {
	card       Card
	forced     bool
	owed       int
	playable   bool
	reshuffled bool
}

func (s *GameState) drawCard(playerIndex int, rng *rand.Rand) (drawResult, error) {
	if err := s.checkActing(playerIndex); err != nil {
		return drawResult{}, err
	}

	player := &s.Players[playerIndex]
	owed := s.OwedDraws(playerIndex)
	if owed == 0 {
		if s.TurnFinished {
			return drawResult{}, illegalMove("%s already finished the turn", player.Name)
		}
		if s.DrewCard {
			return drawResult{}, illegalMove("%s already drew a card this turn", player.Name)
		}
	}

	card, reshuffled, err := s.drawOne(playerIndex, rng)
	if err != nil {
		return drawResult{}, err
	}

	result := drawResult{card: card, reshuffled: reshuffled}
	if owed > 0 {
		result.forced = true
		s.MustDrawCount--
		if s.MustDrawCount == 0 {
			s.MustDrawPlayer = -1
		}
		result.owed = s.MustDrawCount
		return result, nil
	}

	s.DrewCard = true
	result.playable = CanPlayOn(card, s.TopCard(), s.ActiveColor)
	if !result.playable {
		s.TurnFinished = true
	}
	return result, nil
}

type advanceResult struct {
	roundEnded bool
	gameEnded  bool
	points     int
	forgiven   int
}

func (s *GameState) advanceTurn(rules Rules) (advanceResult, error) {
	var result advanceResult

	if s.RoundOver {
		return result, invalidState("round %d is over", s.Round)
	}
	if s.AwaitingWildColor {
		return result, invalidState("cannot advance while a wild color is pending")
	}

	player := s.CurrentPlayer()
	if owed := s.OwedDraws(s.Current); owed > 0 {
		if s.CanDraw() {
			return result, illegalMove("%s must draw %d more card(s)", player.Name, owed)
		}
		result.forgiven = owed
		s.MustDrawCount = 0
		s.MustDrawPlayer = -1
	}
	if !s.TurnFinished && !s.DrewCard && s.CanDraw() {
		return result, illegalMove("%s must play or draw before passing", player.Name)
	}

	for i := range s.Players {
		if s.Players[i].Hand.IsEmpty() {
			result.roundEnded = true
			result.points = s.endRound(i)
			result.gameEnded = s.checkGameEnd(rules)
			return result, nil
		}
	}

	s.Current = s.GetNextPlayerIndex(s.Current, 1+s.SkipCount)
	s.SkipCount = 0
	s.TurnFinished = false
	s.DrewCard = false
	return result, nil
}

// endRound credits the winner with the points left in every other hand.
func (s *GameState) endRound(winner int) int {
	points := 0
	for i := range s.Players {
		if i != winner {
			points += s.Players[i].HandPoints()
		}
	}
	s.Players[winner].Score += points
	s.RoundOver = true
	s.Winner = winner
	return points
}

func (s *GameState) checkGameEnd(rules Rules) bool {
	if rules.TargetScore > 0 && s.Players[s.Winner].Score >= rules.TargetScore {
		s.GameOver = true
	}
	if rules.MaxRounds > 0 && s.Round >= rules.MaxRounds {
		s.GameOver = true
	}
	return s.GameOver
}

// Leader is the index of the highest score, lowest seat on ties.
func (s *GameState) Leader() int {
	leader := 0
	for i := range s.Players {
		if s.Players[i].Score > s.Players[leader].Score {
			leader = i
		}
	}
	return leader
}

func (s *GameState) startNextRound(rng *rand.Rand, rules Rules) error {
	if !s.RoundOver {
		return invalidState("round %d is still in progress", s.Round)
	}
	s.Round++
	dealRound(s, rng, rules.HandSize)
	return nil
}
