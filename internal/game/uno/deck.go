package uno

import "github.com/cory-johannsen/uno/internal/game/random"

// DeckSize is the number of cards in a standard deck.
const DeckSize = 108

// StandardCards returns the 108-card composition in a fixed order: for each
// normal color one 0, two each of 1-9, two each of SKIP, REVERSE and DRAW_TWO;
// then four WILD and four WILD_DRAW_FOUR.
//
// Postcondition: len(result) == DeckSize.
func StandardCards() []Card {
	cards := make([]Card, 0, DeckSize)
	for _, color := range NormalColors {
		cards = append(cards, NumberCard(color, 0))
		for n := 1; n <= 9; n++ {
			cards = append(cards, NumberCard(color, n), NumberCard(color, n))
		}
		for i := 0; i < 2; i++ {
			cards = append(cards,
				ActionCard(color, KindSkip),
				ActionCard(color, KindReverse),
				ActionCard(color, KindDrawTwo),
			)
		}
	}
	for i := 0; i < 4; i++ {
		cards = append(cards, WildCard(KindWild), WildCard(KindWildDrawFour))
	}
	return cards
}

// Deck holds the draw pile and the discard pile.
//
// The top of each pile is the last element of its slice.
type Deck struct {
	draw    []Card
	discard []Card
	src     random.Source
}

// NewDeck returns a deck holding all StandardCards in its draw pile, unshuffled.
//
// Precondition: src must be non-nil.
func NewDeck(src random.Source) *Deck {
	return &Deck{draw: StandardCards(), src: src}
}

// Shuffle randomizes the draw pile.
func (d *Deck) Shuffle() {
	random.Shuffle(d.src, len(d.draw), func(i, j int) {
		d.draw[i], d.draw[j] = d.draw[j], d.draw[i]
	})
}

// Draw pops the top card of the draw pile. When the draw pile is empty, every
// discard except the top card is shuffled into a new draw pile first.
//
// Postcondition: Returns (card, true), or (Card{}, false) when no card is available.
func (d *Deck) Draw() (Card, bool) {
	if len(d.draw) == 0 {
		d.recycleDiscards()
	}
	if len(d.draw) == 0 {
		return Card{}, false
	}
	top := d.draw[len(d.draw)-1]
	d.draw = d.draw[:len(d.draw)-1]
	return top, true
}

// DrawN draws up to n cards, stopping early if the deck runs dry.
func (d *Deck) DrawN(n int) []Card {
	cards := make([]Card, 0, n)
	for i := 0; i < n; i++ {
		c, ok := d.Draw()
		if !ok {
			break
		}
		cards = append(cards, c)
	}
	return cards
}

// recycleDiscards moves all but the top discard into the draw pile and shuffles it.
// Wild cards regain their unbound color on the way back.
func (d *Deck) recycleDiscards() {
	if len(d.discard) <= 1 {
		return
	}
	top := d.discard[len(d.discard)-1]
	for _, c := range d.discard[:len(d.discard)-1] {
		if c.IsWild() {
			c = c.WithColor(ColorWild)
		}
		d.draw = append(d.draw, c)
	}
	d.discard = append(d.discard[:0], top)
	d.Shuffle()
}

// Discard pushes c onto the discard pile.
func (d *Deck) Discard(c Card) {
	d.discard = append(d.discard, c)
}

// Top returns the top discard.
//
// Postcondition: Returns (card, true), or (Card{}, false) if the discard pile is empty.
func (d *Deck) Top() (Card, bool) {
	if len(d.discard) == 0 {
		return Card{}, false
	}
	return d.discard[len(d.discard)-1], true
}

// PutBottom places cards under the draw pile, unbinding wild colors.
func (d *Deck) PutBottom(cards ...Card) {
	if len(cards) == 0 {
		return
	}
	bottom := make([]Card, 0, len(cards)+len(d.draw))
	for _, c := range cards {
		if c.IsWild() {
			c = c.WithColor(ColorWild)
		}
		bottom = append(bottom, c)
	}
	d.draw = append(bottom, d.draw...)
}

// DrawPileSize returns the number of cards in the draw pile.
func (d *Deck) DrawPileSize() int { return len(d.draw) }

// DiscardPileSize returns the number of cards in the discard pile.
func (d *Deck) DiscardPileSize() int { return len(d.discard) }
