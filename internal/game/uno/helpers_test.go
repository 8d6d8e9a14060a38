package uno

import (
	"fmt"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
)

// lastSource makes Shuffle the identity permutation and Pick return the last item.
type lastSource struct{}

func (lastSource) Intn(n int) int { return n - 1 }

// stack moves cards to the top of the draw pile so they are drawn in the given order.
func stack(t *testing.T, d *Deck, cards ...Card) {
	t.Helper()
	for _, c := range cards {
		i := slices.Index(d.draw, c)
		require.GreaterOrEqual(t, i, 0, "card %s not in draw pile", c)
		d.draw = slices.Delete(d.draw, i, i+1)
	}
	for i := len(cards) - 1; i >= 0; i-- {
		d.draw = append(d.draw, cards[i])
	}
}

// riggedGame seats one player per hand (ids p0, p1, ...) and starts a game in
// which each player is dealt exactly the given hand and the opening discard is opening.
//
// Precondition: every hand has the same length.
func riggedGame(t *testing.T, hands [][]Card, opening ...Card) *Game {
	t.Helper()
	g := NewGame(lastSource{}, WithHandSize(len(hands[0])))
	var order []Card
	for i, h := range hands {
		require.Len(t, h, len(hands[0]))
		require.NoError(t, g.AddPlayer(NewPlayer(fmt.Sprintf("p%d", i), fmt.Sprintf("Player %d", i))))
		order = append(order, h...)
	}
	order = append(order, opening...)
	stack(t, g.deck, order...)
	require.NoError(t, g.Start())
	return g
}

func red(n int) Card    { return NumberCard(ColorRed, n) }
func blue(n int) Card   { return NumberCard(ColorBlue, n) }
func green(n int) Card  { return NumberCard(ColorGreen, n) }
func yellow(n int) Card { return NumberCard(ColorYellow, n) }

func requireConserved(t require.TestingT, g *Game) {
	require.Equal(t, DeckSize, g.CardCount(), "card conservation")
}
