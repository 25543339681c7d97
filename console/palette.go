package console

import (
	"fmt"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/nrawrx3/uno"
)

// displayColor is how one rule color is named and painted in a theme.
type displayColor struct {
	name          string
	colorFunction func(format string, a ...interface{}) string
}

func (c *displayColor) Paint(text string) string {
	return c.colorFunction("%s", text)
}

var lightTheme = map[uno.Color]*displayColor{
	uno.ColorRed:    {name: "red", colorFunction: color.New(color.FgHiRed).SprintfFunc()},
	uno.ColorGreen:  {name: "green", colorFunction: color.New(color.FgHiGreen).SprintfFunc()},
	uno.ColorBlue:   {name: "blue", colorFunction: color.New(color.FgHiBlue).SprintfFunc()},
	uno.ColorYellow: {name: "yellow", colorFunction: color.New(color.FgHiYellow).SprintfFunc()},
}

// The dark theme renames the four rule colors. Rules never see these names.
var darkTheme = map[uno.Color]*displayColor{
	uno.ColorRed:    {name: "teal", colorFunction: color.New(color.FgCyan).SprintfFunc()},
	uno.ColorGreen:  {name: "pink", colorFunction: color.New(color.FgHiMagenta).SprintfFunc()},
	uno.ColorBlue:   {name: "purple", colorFunction: color.New(color.FgMagenta).SprintfFunc()},
	uno.ColorYellow: {name: "orange", colorFunction: color.New(color.FgYellow).SprintfFunc()},
}

var wildColor = &displayColor{name: "gray", colorFunction: color.New(color.FgHiBlack).SprintfFunc()}

// Palette maps rule colors to what the player sees, in light or dark mode. Frontends
// sharing an engine share one palette, so the mode is guarded.
type Palette struct {
	mu   sync.RWMutex
	dark bool
}

func NewPalette(dark bool) *Palette {
	return &Palette{dark: dark}
}

func (p *Palette) Dark() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.dark
}

func (p *Palette) SetDark(dark bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dark = dark
}

func (p *Palette) theme() map[uno.Color]*displayColor {
	if p.Dark() {
		return darkTheme
	}
	return lightTheme
}

func (p *Palette) display(c uno.Color) *displayColor {
	if d, ok := p.theme()[c]; ok {
		return d
	}
	return wildColor
}

func (p *Palette) ColorName(c uno.Color) string {
	return p.display(c).name
}

// ColorNames lists the selectable names in rule order.
func (p *Palette) ColorNames() []string {
	names := make([]string, 0, len(uno.RuleColors))
	for _, c := range uno.RuleColors {
		names = append(names, p.ColorName(c))
	}
	return names
}

// ParseColor accepts the rule color names and, in dark mode, the dark names.
func (p *Palette) ParseColor(name string) (uno.Color, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for c, d := range p.theme() {
		if d.name == name {
			return c, nil
		}
	}
	c, err := uno.ParseColor(name)
	if err != nil {
		return uno.ColorWild, fmt.Errorf("expected a color (%s), found '%s'", strings.Join(p.ColorNames(), "|"), name)
	}
	return c, nil
}

func (p *Palette) Paint(c uno.Color, text string) string {
	return p.display(c).Paint(text)
}

// CardText names a card with the theme's color name, e.g. "Teal 7" in dark mode.
func (p *Palette) CardText(card uno.Card) string {
	if card.IsWild() {
		return card.Number.Text()
	}
	return capitalize(p.ColorName(card.Color)) + " " + card.Number.Text()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// PaintCard paints the card with its own color, or the bound color for a wild on top.
func (p *Palette) PaintCard(card uno.Card, boundColor uno.Color) string {
	text := p.CardText(card)
	if card.IsWild() && boundColor.IsRuleColor() {
		text = fmt.Sprintf("%s (%s)", text, p.ColorName(boundColor))
		return p.Paint(boundColor, text)
	}
	return p.Paint(card.Color, text)
}
