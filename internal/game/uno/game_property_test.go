package uno

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/uno/internal/game/random"
)

// checkInvariants asserts the invariants that hold at every point of a started game.
func checkInvariants(t require.TestingT, g *Game) {
	require.Equal(t, DeckSize, g.CardCount(), "card conservation")
	if g.State() == StateInProgress {
		require.GreaterOrEqual(t, g.CurrentIndex(), 0)
		require.Less(t, g.CurrentIndex(), len(g.Players()))
		require.NotNil(t, g.CurrentPlayer())
	}
	for _, p := range g.Players() {
		if p.CalledUno() {
			require.Equal(t, 1, p.HandSize(), "%s declared uno with %d cards", p.ID, p.HandSize())
		}
	}
}

// TestGame_RandomPlayKeepsInvariants drives games with random actions from
// random seats, legal or not, and checks the invariants after every step.
func TestGame_RandomPlayKeepsInvariants(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		seed := rapid.Uint64().Draw(rt, "seed")
		n := rapid.IntRange(MinPlayers, MaxPlayers).Draw(rt, "players")

		g := NewGame(random.NewSeededSource(seed))
		for i := 0; i < n; i++ {
			require.NoError(rt, g.AddPlayer(NewPlayer(fmt.Sprintf("p%d", i), fmt.Sprintf("P%d", i))))
		}
		require.NoError(rt, g.Start())
		checkInvariants(rt, g)

		steps := rapid.IntRange(1, 300).Draw(rt, "steps")
		for step := 0; step < steps && g.State() == StateInProgress; step++ {
			players := g.Players()
			actor := players[rapid.IntRange(0, len(players)-1).Draw(rt, "actor")]
			before := g.CurrentIndex()

			switch rapid.IntRange(0, 6).Draw(rt, "action") {
			case 0, 1:
				top, _ := g.TopCard()
				playable := actor.PlayableIndices(top)
				idx := rapid.IntRange(-1, actor.HandSize()).Draw(rt, "index")
				if len(playable) > 0 && rapid.Bool().Draw(rt, "pickPlayable") {
					idx = rapid.SampledFrom(playable).Draw(rt, "playable")
				}
				color := rapid.SampledFrom(NormalColors).Draw(rt, "color")
				handBefore := actor.HandSize()
				_, err := g.PlayCard(actor.ID, idx, color)
				if err != nil {
					assert.Equal(rt, handBefore, actor.HandSize())
					assert.Equal(rt, before, g.CurrentIndex())
				}
			case 2:
				_, _ = g.DrawCard(actor.ID)
				assert.Equal(rt, before, g.CurrentIndex(), "draw never advances the turn")
			case 3:
				_ = g.EndTurn(actor.ID)
			case 4:
				err := g.CallUno(actor.ID)
				assert.Equal(rt, actor.HandSize() == 1, err == nil)
			case 5:
				target := players[rapid.IntRange(0, len(players)-1).Draw(rt, "target")]
				_, _ = g.Challenge(actor.ID, target.ID)
			case 6:
				target := players[rapid.IntRange(0, len(players)-1).Draw(rt, "target")]
				_ = g.PenalizeMissedUno(actor.ID, target.ID)
			}
			checkInvariants(rt, g)
		}

		if g.State() == StateOver {
			require.NotNil(rt, g.Winner())
			assert.Equal(rt, 0, g.Winner().HandSize())
			for _, p := range g.Players() {
				_, err := g.PlayCard(p.ID, 0, ColorRed)
				assert.ErrorIs(rt, err, ErrGameOver)
			}
		}
	})
}

// TestGame_DeparturesKeepInvariants removes random players mid-game.
func TestGame_DeparturesKeepInvariants(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		seed := rapid.Uint64().Draw(rt, "seed")
		g := NewGame(random.NewSeededSource(seed))
		for i := 0; i < MaxPlayers; i++ {
			require.NoError(rt, g.AddPlayer(NewPlayer(fmt.Sprintf("p%d", i), fmt.Sprintf("P%d", i))))
		}
		require.NoError(rt, g.Start())

		for g.State() == StateInProgress {
			if rapid.Bool().Draw(rt, "endTurn") {
				require.NoError(rt, g.EndTurn(g.CurrentPlayer().ID))
			}
			players := g.Players()
			leaver := players[rapid.IntRange(0, len(players)-1).Draw(rt, "leaver")]
			require.NoError(rt, g.RemovePlayer(leaver.ID))
			checkInvariants(rt, g)
		}
		require.NotNil(rt, g.Winner())
		assert.Len(rt, g.Players(), 1)
	})
}
