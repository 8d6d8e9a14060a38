package random_test

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/uno/internal/game/random"
)

func TestCryptoSource_Range(t *testing.T) {
	src := random.NewCryptoSource()
	for i := 0; i < 1000; i++ {
		v := src.Intn(4)
		assert.GreaterOrEqual(t, v, 0)
		assert.Less(t, v, 4)
	}
}

func TestCryptoSource_PanicsOnNonPositive(t *testing.T) {
	src := random.NewCryptoSource()
	assert.Panics(t, func() { src.Intn(0) })
}

func TestSeededSource_Deterministic(t *testing.T) {
	a := random.NewSeededSource(42)
	b := random.NewSeededSource(42)
	for i := 0; i < 100; i++ {
		assert.Equal(t, a.Intn(1000), b.Intn(1000))
	}
}

// TestShuffle_IsPermutation verifies Shuffle never adds or drops elements.
func TestShuffle_IsPermutation(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		items := rapid.SliceOf(rapid.Int()).Draw(rt, "items")
		seed := rapid.Uint64().Draw(rt, "seed")

		shuffled := append([]int(nil), items...)
		random.Shuffle(random.NewSeededSource(seed), len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		want := append([]int(nil), items...)
		sort.Ints(want)
		sort.Ints(shuffled)
		assert.Equal(rt, want, shuffled)
	})
}

func TestPick(t *testing.T) {
	items := []string{"a", "b", "c"}
	src := random.NewSeededSource(7)
	for i := 0; i < 50; i++ {
		assert.Contains(t, items, random.Pick(src, items))
	}
}
