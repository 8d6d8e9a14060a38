package uno

// Player is a seat in a game: identity, hand and Uno declaration.
//
// Invariant: calledUno implies len(hand) == 1.
type Player struct {
	ID   string
	Name string

	hand      []Card
	calledUno bool
}

// NewPlayer creates a player with an empty hand.
//
// Precondition: id must be unique within a game.
func NewPlayer(id, name string) *Player {
	return &Player{ID: id, Name: name}
}

// Hand returns a copy of the player's hand in index order.
func (p *Player) Hand() []Card {
	hand := make([]Card, len(p.hand))
	copy(hand, p.hand)
	return hand
}

// HandSize returns the number of cards held.
func (p *Player) HandSize() int { return len(p.hand) }

// CalledUno reports whether the player has declared Uno on their last card.
func (p *Player) CalledUno() bool { return p.calledUno }

// PlayableIndices returns the hand indexes that may legally be played on top.
func (p *Player) PlayableIndices(top Card) []int {
	var idx []int
	for i, c := range p.hand {
		if c.CanPlayOn(top) {
			idx = append(idx, i)
		}
	}
	return idx
}

func (p *Player) addCards(cards ...Card) {
	p.hand = append(p.hand, cards...)
	if len(p.hand) > 1 {
		p.calledUno = false
	}
}

func (p *Player) removeAt(i int) Card {
	c := p.hand[i]
	p.hand = append(p.hand[:i], p.hand[i+1:]...)
	if len(p.hand) != 1 {
		p.calledUno = false
	}
	return c
}

func (p *Player) takeHand() []Card {
	hand := p.hand
	p.hand = nil
	p.calledUno = false
	return hand
}

// holdsColorExcept reports whether any non-wild card other than the one at skip has color c.
func (p *Player) holdsColorExcept(c Color, skip int) bool {
	for i, card := range p.hand {
		if i != skip && !card.IsWild() && card.Color == c {
			return true
		}
	}
	return false
}
