// Package uno implements the authoritative rules engine: card composition,
// deck handling, turn order, card effects and win detection.
//
// Nothing in this package is safe for concurrent use; callers serialize access.
package uno

import (
	"fmt"
	"strings"
)

// Color is the color of a card. ColorWild marks an unplayed wild card.
type Color int

const (
	ColorRed Color = iota
	ColorBlue
	ColorGreen
	ColorYellow
	ColorWild
)

var colorNames = [...]string{"RED", "BLUE", "GREEN", "YELLOW", "WILD"}

// NormalColors lists the four colors a wild card may be bound to.
var NormalColors = []Color{ColorRed, ColorBlue, ColorGreen, ColorYellow}

func (c Color) String() string {
	if c < ColorRed || c > ColorWild {
		return fmt.Sprintf("Color(%d)", int(c))
	}
	return colorNames[c]
}

// IsNormal reports whether c is one of the four bindable colors.
func (c Color) IsNormal() bool {
	return c >= ColorRed && c <= ColorYellow
}

// ParseColor parses a color name such as "red" or "YELLOW".
//
// Postcondition: Returns the matching Color or an error wrapping ErrInvalidColor.
func ParseColor(s string) (Color, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for i, n := range colorNames {
		if n == name {
			return Color(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidColor, s)
}

// Kind is the rank or action of a card.
type Kind int

const (
	KindNumber Kind = iota
	KindSkip
	KindReverse
	KindDrawTwo
	KindWild
	KindWildDrawFour
)

var kindNames = [...]string{"NUMBER", "SKIP", "REVERSE", "DRAW_TWO", "WILD", "WILD_DRAW_FOUR"}

func (k Kind) String() string {
	if k < KindNumber || k > KindWildDrawFour {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Card is an immutable card value. Equality is structural.
//
// Invariant: Number is meaningful only when Kind == KindNumber and is 0 otherwise.
type Card struct {
	Color  Color
	Kind   Kind
	Number int
}

// NumberCard returns a numbered card.
//
// Precondition: color is a normal color; 0 <= n <= 9.
func NumberCard(color Color, n int) Card {
	return Card{Color: color, Kind: KindNumber, Number: n}
}

// ActionCard returns a SKIP, REVERSE or DRAW_TWO card of the given color.
func ActionCard(color Color, kind Kind) Card {
	return Card{Color: color, Kind: kind}
}

// WildCard returns an unbound WILD or WILD_DRAW_FOUR card.
func WildCard(kind Kind) Card {
	return Card{Color: ColorWild, Kind: kind}
}

// IsWild reports whether the card is a WILD or WILD_DRAW_FOUR.
func (c Card) IsWild() bool {
	return c.Kind == KindWild || c.Kind == KindWildDrawFour
}

// WithColor returns a copy of c bound to color.
func (c Card) WithColor(color Color) Card {
	c.Color = color
	return c
}

// CanPlayOn reports whether c may legally be played on top.
//
// Wild cards are always playable. On a wild top the card must match the top's
// declared color; otherwise it must share color, non-NUMBER kind, or number.
func (c Card) CanPlayOn(top Card) bool {
	if c.IsWild() {
		return true
	}
	if top.IsWild() {
		return c.Color == top.Color
	}
	if c.Color == top.Color {
		return true
	}
	if c.Kind != KindNumber {
		return c.Kind == top.Kind
	}
	return top.Kind == KindNumber && c.Number == top.Number
}

// String renders the card for notices, e.g. "RED 7", "BLUE SKIP", "WILD_DRAW_FOUR (GREEN)".
func (c Card) String() string {
	switch {
	case c.Kind == KindNumber:
		return fmt.Sprintf("%s %d", c.Color, c.Number)
	case c.IsWild() && c.Color != ColorWild:
		return fmt.Sprintf("%s (%s)", c.Kind, c.Color)
	case c.IsWild():
		return c.Kind.String()
	default:
		return fmt.Sprintf("%s %s", c.Color, c.Kind)
	}
}
