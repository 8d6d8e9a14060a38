package uno

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/uno/internal/game/random"
)

func TestStandardCards_Composition(t *testing.T) {
	cards := StandardCards()
	require.Len(t, cards, DeckSize)

	counts := make(map[Card]int)
	for _, c := range cards {
		counts[c]++
	}
	for _, color := range NormalColors {
		assert.Equal(t, 1, counts[NumberCard(color, 0)], "%s 0", color)
		for n := 1; n <= 9; n++ {
			assert.Equal(t, 2, counts[NumberCard(color, n)], "%s %d", color, n)
		}
		for _, k := range []Kind{KindSkip, KindReverse, KindDrawTwo} {
			assert.Equal(t, 2, counts[ActionCard(color, k)], "%s %s", color, k)
		}
	}
	assert.Equal(t, 4, counts[WildCard(KindWild)])
	assert.Equal(t, 4, counts[WildCard(KindWildDrawFour)])
}

func TestDeck_DrawFromTop(t *testing.T) {
	d := NewDeck(lastSource{})
	want := d.draw[len(d.draw)-1]
	got, ok := d.Draw()
	require.True(t, ok)
	assert.Equal(t, want, got)
	assert.Equal(t, DeckSize-1, d.DrawPileSize())
}

func TestDeck_ShuffleKeepsCards(t *testing.T) {
	d := NewDeck(random.NewSeededSource(1))
	d.Shuffle()
	assert.ElementsMatch(t, StandardCards(), d.draw)
}

// TestDeck_RecyclesDiscardsExceptTop covers a draw that empties the draw pile:
// the pile is rebuilt from the discards under the top card.
func TestDeck_RecyclesDiscardsExceptTop(t *testing.T) {
	d := NewDeck(random.NewSeededSource(3))
	last := d.draw[DeckSize-1]
	d.discard = append([]Card(nil), d.draw[:DeckSize-1]...)
	d.discard[0] = WildCard(KindWild).WithColor(ColorBlue)
	d.draw = []Card{last}
	top, _ := d.Top()

	c, ok := d.Draw()
	require.True(t, ok)
	assert.Equal(t, last, c)
	assert.Equal(t, 0, d.DrawPileSize())

	discards := d.DiscardPileSize()
	_, ok = d.Draw()
	require.True(t, ok)
	assert.Equal(t, 1, d.DiscardPileSize())
	assert.Equal(t, discards-2, d.DrawPileSize())
	after, _ := d.Top()
	assert.Equal(t, top, after)
	for _, c := range d.draw {
		if c.IsWild() {
			assert.Equal(t, ColorWild, c.Color, "recycled wild cards lose their declared color")
		}
	}
}

func TestDeck_DrawEmpty(t *testing.T) {
	d := NewDeck(lastSource{})
	d.draw = nil
	d.discard = []Card{NumberCard(ColorRed, 1)}
	_, ok := d.Draw()
	assert.False(t, ok)
	assert.Empty(t, d.DrawN(3))
}

func TestDeck_PutBottom(t *testing.T) {
	d := NewDeck(lastSource{})
	d.PutBottom(WildCard(KindWildDrawFour).WithColor(ColorRed), NumberCard(ColorBlue, 2))
	assert.Equal(t, WildCard(KindWildDrawFour), d.draw[0])
	assert.Equal(t, NumberCard(ColorBlue, 2), d.draw[1])
	assert.Equal(t, DeckSize+2, d.DrawPileSize())
}
