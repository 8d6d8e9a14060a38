package uno

import (
	"fmt"

	"github.com/cory-johannsen/uno/internal/game/random"
)

const (
	// MaxPlayers is the seat limit of a game.
	MaxPlayers = 4
	// MinPlayers is the number of players needed to start.
	MinPlayers = 2
	// DefaultHandSize is the number of cards dealt to each player on start.
	DefaultHandSize = 7
)

// State is the lifecycle stage of a Game.
type State int

const (
	StateNotStarted State = iota
	StateInProgress
	StateOver
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateInProgress:
		return "in_progress"
	case StateOver:
		return "over"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// WildDrawFourPlay records the context of the most recent WILD_DRAW_FOUR so
// that it can be challenged.
type WildDrawFourPlay struct {
	// PlayerID is the player who played the card.
	PlayerID string
	// PriorColor is the effective color of the discard top before the play.
	PriorColor Color
	// HeldMatch reports whether the player still held a non-wild card of PriorColor.
	HeldMatch bool
}

// ChallengeResult describes how a challenge resolved.
type ChallengeResult struct {
	// Upheld is true when the challenged player held a matching card.
	Upheld bool
	// Penalized is the player who drew the penalty cards.
	Penalized *Player
	// Drawn is the number of cards the penalized player drew.
	Drawn int
	// PriorColor is the color the wild was played over.
	PriorColor Color
}

// Option configures a Game.
type Option func(*Game)

// WithHandSize overrides the number of cards dealt per player.
//
// Precondition: n >= 1.
func WithHandSize(n int) Option {
	return func(g *Game) {
		if n > 0 {
			g.handSize = n
		}
	}
}

// Game is one match: seats, turn pointer, direction and deck.
//
// Invariant: while state == StateInProgress, 0 <= current < len(players).
// Invariant: draw pile + discard pile + all hands == DeckSize.
type Game struct {
	players   []*Player
	current   int
	clockwise bool
	deck      *Deck
	src       random.Source
	state     State
	winner    *Player
	handSize  int
	lastWD4   *WildDrawFourPlay
}

// NewGame creates an unstarted game with a fresh deck.
//
// Precondition: src must be non-nil.
// Postcondition: State() == StateNotStarted; the deck holds DeckSize cards.
func NewGame(src random.Source, opts ...Option) *Game {
	g := &Game{
		clockwise: true,
		deck:      NewDeck(src),
		src:       src,
		handSize:  DefaultHandSize,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// AddPlayer seats p at the end of the turn order.
//
// Precondition: State() == StateNotStarted.
// Postcondition: p is seated, or an error explains why not.
func (g *Game) AddPlayer(p *Player) error {
	if g.state != StateNotStarted {
		return ErrGameStarted
	}
	if len(g.players) >= MaxPlayers {
		return ErrGameFull
	}
	if _, ok := g.Player(p.ID); ok {
		return ErrDuplicatePlayer
	}
	g.players = append(g.players, p)
	return nil
}

// RemovePlayer unseats the player with the given id in any state.
//
// During a game the player's hand goes under the draw pile, the turn passes to
// whoever would have played next, and the game ends when fewer than MinPlayers
// remain, with the last player standing as winner.
func (g *Game) RemovePlayer(id string) error {
	idx := g.indexOf(id)
	if idx < 0 {
		return ErrPlayerNotFound
	}
	p := g.players[idx]
	g.deck.PutBottom(p.takeHand()...)
	g.players = append(g.players[:idx], g.players[idx+1:]...)
	if g.lastWD4 != nil && g.lastWD4.PlayerID == id {
		g.lastWD4 = nil
	}

	if g.state != StateInProgress {
		if g.current >= len(g.players) {
			g.current = 0
		}
		return nil
	}

	n := len(g.players)
	if n < MinPlayers {
		g.state = StateOver
		g.current = 0
		if n == 1 {
			g.winner = g.players[0]
		}
		return nil
	}
	switch {
	case idx < g.current:
		g.current--
	case idx == g.current:
		if g.clockwise {
			g.current = idx % n
		} else {
			g.current = (idx - 1 + n) % n
		}
	}
	return nil
}

// Start shuffles, deals, and flips the opening discard.
//
// A WILD_DRAW_FOUR opening card goes back under the draw pile and is redrawn.
// A WILD opening card is bound to a random color. SKIP skips the first player,
// REVERSE starts counter-clockwise, DRAW_TWO makes the first player draw two
// and skips them.
//
// Precondition: State() == StateNotStarted and len(Players()) >= MinPlayers.
// Postcondition: State() == StateInProgress.
func (g *Game) Start() error {
	if g.state != StateNotStarted {
		return ErrGameStarted
	}
	if len(g.players) < MinPlayers {
		return ErrNotEnoughPlayers
	}

	g.deck.Shuffle()
	for _, p := range g.players {
		p.addCards(g.deck.DrawN(g.handSize)...)
	}

	opening, ok := g.deck.Draw()
	for ok && opening.Kind == KindWildDrawFour {
		g.deck.PutBottom(opening)
		opening, ok = g.deck.Draw()
	}
	if !ok {
		return ErrDrawPileEmpty
	}
	if opening.Kind == KindWild {
		opening = opening.WithColor(random.Pick(g.src, NormalColors))
	}
	g.deck.Discard(opening)

	g.state = StateInProgress
	g.current = 0
	g.clockwise = true

	switch opening.Kind {
	case KindSkip:
		g.advance()
	case KindReverse:
		g.clockwise = false
	case KindDrawTwo:
		g.players[g.current].addCards(g.deck.DrawN(2)...)
		g.advance()
	}
	return nil
}

// PlayCard plays the card at index from the current player's hand.
//
// declared is used only for wild cards and must be a normal color.
//
// Precondition: State() == StateInProgress and playerID is the current player.
// Postcondition: On success returns the card as placed on the discard pile.
func (g *Game) PlayCard(playerID string, index int, declared Color) (Card, error) {
	p, err := g.turnPlayer(playerID)
	if err != nil {
		return Card{}, err
	}
	if index < 0 || index >= len(p.hand) {
		return Card{}, ErrInvalidCardIndex
	}
	top, _ := g.deck.Top()
	card := p.hand[index]
	if !card.CanPlayOn(top) {
		return Card{}, fmt.Errorf("%w: %s on %s", ErrIllegalCard, card, top)
	}
	if card.IsWild() && !declared.IsNormal() {
		return Card{}, fmt.Errorf("%w: wild cards need RED, BLUE, GREEN or YELLOW", ErrInvalidColor)
	}

	var wd4 *WildDrawFourPlay
	if card.Kind == KindWildDrawFour {
		wd4 = &WildDrawFourPlay{
			PlayerID:   p.ID,
			PriorColor: top.Color,
			HeldMatch:  p.holdsColorExcept(top.Color, index),
		}
	}

	p.removeAt(index)
	if card.IsWild() {
		card = card.WithColor(declared)
	}
	g.deck.Discard(card)
	g.lastWD4 = nil

	if len(p.hand) == 0 {
		g.state = StateOver
		g.winner = p
		return card, nil
	}

	g.resolve(card)
	g.lastWD4 = wd4
	return card, nil
}

// resolve applies the effect of a just-played card and advances the turn.
func (g *Game) resolve(card Card) {
	switch card.Kind {
	case KindSkip:
		g.advance()
		g.advance()
	case KindReverse:
		g.clockwise = !g.clockwise
		if len(g.players) == 2 {
			g.advance()
		}
		g.advance()
	case KindDrawTwo:
		g.advance()
		g.players[g.current].addCards(g.deck.DrawN(2)...)
		g.advance()
	case KindWildDrawFour:
		g.advance()
		g.players[g.current].addCards(g.deck.DrawN(4)...)
		g.advance()
	default:
		g.advance()
	}
}

// DrawCard draws one card into the current player's hand. The turn does not
// advance; EndTurn must follow.
func (g *Game) DrawCard(playerID string) (Card, error) {
	p, err := g.turnPlayer(playerID)
	if err != nil {
		return Card{}, err
	}
	c, ok := g.deck.Draw()
	if !ok {
		return Card{}, ErrDrawPileEmpty
	}
	p.addCards(c)
	return c, nil
}

// EndTurn passes the turn to the next player with no other effect.
func (g *Game) EndTurn(playerID string) error {
	if _, err := g.turnPlayer(playerID); err != nil {
		return err
	}
	g.advance()
	g.lastWD4 = nil
	return nil
}

// CallUno sets the player's Uno declaration.
//
// Precondition: the player holds exactly one card.
func (g *Game) CallUno(playerID string) error {
	p, ok := g.Player(playerID)
	if !ok {
		return ErrPlayerNotFound
	}
	if len(p.hand) != 1 {
		return ErrCannotCallUno
	}
	p.calledUno = true
	return nil
}

// PenalizeMissedUno makes target draw two cards when they hold one card and
// have not declared Uno.
func (g *Game) PenalizeMissedUno(accuserID, targetID string) error {
	if err := g.requireInProgress(); err != nil {
		return err
	}
	if _, ok := g.Player(accuserID); !ok {
		return ErrPlayerNotFound
	}
	if accuserID == targetID {
		return ErrCannotSelfTarget
	}
	target, ok := g.Player(targetID)
	if !ok {
		return ErrPlayerNotFound
	}
	if len(target.hand) != 1 || target.calledUno {
		return ErrNoUnoPenalty
	}
	target.addCards(g.deck.DrawN(2)...)
	return nil
}

// Challenge contests the WILD_DRAW_FOUR that challengedID just played.
//
// If the challenged player held a card of the prior color the challenge is
// upheld and they draw 4; otherwise the challenger draws 6. The turn does not
// advance. Each WILD_DRAW_FOUR can be challenged once, by the player whose
// turn follows its resolution.
func (g *Game) Challenge(challengerID, challengedID string) (ChallengeResult, error) {
	challenger, err := g.turnPlayer(challengerID)
	if err != nil {
		return ChallengeResult{}, err
	}
	if challengerID == challengedID {
		return ChallengeResult{}, ErrCannotSelfTarget
	}
	challenged, ok := g.Player(challengedID)
	if !ok {
		return ChallengeResult{}, ErrPlayerNotFound
	}
	top, _ := g.deck.Top()
	play := g.lastWD4
	if play == nil || play.PlayerID != challengedID || top.Kind != KindWildDrawFour {
		return ChallengeResult{}, ErrNoChallenge
	}
	g.lastWD4 = nil

	result := ChallengeResult{Upheld: play.HeldMatch, PriorColor: play.PriorColor, Penalized: challenger}
	n := 6
	if play.HeldMatch {
		result.Penalized = challenged
		n = 4
	}
	drawn := g.deck.DrawN(n)
	result.Drawn = len(drawn)
	result.Penalized.addCards(drawn...)
	return result, nil
}

func (g *Game) requireInProgress() error {
	switch g.state {
	case StateNotStarted:
		return ErrNotStarted
	case StateOver:
		return ErrGameOver
	}
	return nil
}

// turnPlayer returns the current player if it is playerID's turn.
func (g *Game) turnPlayer(playerID string) (*Player, error) {
	if err := g.requireInProgress(); err != nil {
		return nil, err
	}
	p := g.players[g.current]
	if p.ID != playerID {
		if g.indexOf(playerID) < 0 {
			return nil, ErrPlayerNotFound
		}
		return nil, ErrNotYourTurn
	}
	return p, nil
}

// advance moves the turn pointer one seat in the current direction.
func (g *Game) advance() {
	n := len(g.players)
	if g.clockwise {
		g.current = (g.current + 1) % n
	} else {
		g.current = (g.current - 1 + n) % n
	}
}

func (g *Game) indexOf(id string) int {
	for i, p := range g.players {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// Player returns the seated player with the given id.
func (g *Game) Player(id string) (*Player, bool) {
	if i := g.indexOf(id); i >= 0 {
		return g.players[i], true
	}
	return nil, false
}

// Players returns the seated players in turn order.
func (g *Game) Players() []*Player {
	players := make([]*Player, len(g.players))
	copy(players, g.players)
	return players
}

// CurrentPlayer returns the player whose turn it is, or nil when no game is in progress.
func (g *Game) CurrentPlayer() *Player {
	if g.state != StateInProgress || len(g.players) == 0 {
		return nil
	}
	return g.players[g.current]
}

// CurrentIndex returns the seat index of the current player.
func (g *Game) CurrentIndex() int { return g.current }

// Clockwise reports the direction of play.
func (g *Game) Clockwise() bool { return g.clockwise }

// TopCard returns the top discard.
func (g *Game) TopCard() (Card, bool) { return g.deck.Top() }

// State returns the lifecycle stage.
func (g *Game) State() State { return g.state }

// Started reports whether the game has left StateNotStarted.
func (g *Game) Started() bool { return g.state != StateNotStarted }

// Over reports whether the game has ended.
func (g *Game) Over() bool { return g.state == StateOver }

// Winner returns the winning player once the game is over, or nil.
func (g *Game) Winner() *Player { return g.winner }

// DrawPileSize returns the number of cards left to draw.
func (g *Game) DrawPileSize() int { return g.deck.DrawPileSize() }

// DiscardPileSize returns the number of cards on the discard pile.
func (g *Game) DiscardPileSize() int { return g.deck.DiscardPileSize() }

// LastWildDrawFour returns the challengeable WILD_DRAW_FOUR context, if any.
func (g *Game) LastWildDrawFour() (WildDrawFourPlay, bool) {
	if g.lastWD4 == nil {
		return WildDrawFourPlay{}, false
	}
	return *g.lastWD4, true
}

// CardCount returns the number of cards across both piles and all seated hands.
//
// Postcondition: equals DeckSize at every point in a game's life.
func (g *Game) CardCount() int {
	n := g.deck.DrawPileSize() + g.deck.DiscardPileSize()
	for _, p := range g.players {
		n += len(p.hand)
	}
	return n
}
