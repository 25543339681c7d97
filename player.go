package uno

type Player struct {
	Name  string `json:"name"`
	IsAI  bool   `json:"is_ai"`
	Hand  Deck   `json:"hand"`
	Score int    `json:"score"`
}

func (p *Player) clone() Player {
	return Player{
		Name:  p.Name,
		IsAI:  p.IsAI,
		Hand:  p.Hand.Clone(),
		Score: p.Score,
	}
}

func (p *Player) HandPoints() int {
	points := 0
	for _, card := range p.Hand {
		points += card.Points()
	}
	return points
}

// PlayerConfig describes a seat at setup time.
type PlayerConfig struct {
	Name string
	IsAI bool
}
