// Package artwork renders the default placeholder artwork for the card library.
package artwork

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"text/template"

	"github.com/randomtoy/cyberdamus-go/internal/domain"
)

//go:embed data/*.json
var dataFS embed.FS

type majorCard struct {
	ID      int    `json:"id"`
	Numeral string `json:"numeral"`
	Title   string `json:"title"`
	Shape   string `json:"shape"`
}

type suitStyle struct {
	Name   string
	Color  string
	Symbol string
}

type minorCard struct {
	Name   string
	Color  string
	Symbol string
	Rank   string
}

var suitStyles = [domain.SuitCount]suitStyle{
	domain.Wands:     {Name: "WANDS", Color: "#e74c3c", Symbol: "⚡"},
	domain.Cups:      {Name: "CUPS", Color: "#3498db", Symbol: "♡"},
	domain.Swords:    {Name: "SWORDS", Color: "#9b59b6", Symbol: "⚔"},
	domain.Pentacles: {Name: "PENTACLES", Color: "#f1c40f", Symbol: "◈"},
}

var majorTmpl = template.Must(template.New("major").Parse(
	`<svg width="100" height="150" xmlns="http://www.w3.org/2000/svg">
  <rect width="100" height="150" fill="#1a1a2e" stroke="#ffd700" stroke-width="2"/>
  {{.Shape}}
  <text x="50" y="25" text-anchor="middle" fill="#ffd700" font-size="14" font-weight="bold">{{.Numeral}}</text>
  <text x="50" y="135" text-anchor="middle" fill="#ffd700" font-size="{{if gt (len .Title) 8}}9{{else}}10{{end}}" font-weight="bold">{{.Title}}</text>
</svg>`))

var minorTmpl = template.Must(template.New("minor").Parse(
	`<svg width="100" height="150" xmlns="http://www.w3.org/2000/svg">
  <rect width="100" height="150" fill="#1a1a2e" stroke="{{.Color}}" stroke-width="2"/>
  <text x="50" y="30" text-anchor="middle" fill="{{.Color}}" font-size="20" font-weight="bold">{{.Symbol}}</text>
  <text x="50" y="60" text-anchor="middle" fill="{{.Color}}" font-size="18" font-weight="bold">{{.Rank}}</text>
  <text x="50" y="135" text-anchor="middle" fill="{{.Color}}" font-size="10" font-weight="bold">{{.Name}}</text>
</svg>`))

// DefaultLibrary renders one placeholder SVG per card, in pool order.
type DefaultLibrary struct {
	once  sync.Once
	cards []string
	err   error
}

func NewDefaultLibrary() *DefaultLibrary {
	return &DefaultLibrary{}
}

func (l *DefaultLibrary) init() {
	raw, err := dataFS.ReadFile("data/major_arcana.json")
	if err != nil {
		l.err = fmt.Errorf("read embedded major arcana: %w", err)
		return
	}
	var majors []majorCard
	if err := json.Unmarshal(raw, &majors); err != nil {
		l.err = fmt.Errorf("parse embedded major arcana: %w", err)
		return
	}
	if len(majors) != domain.MajorCount {
		l.err = fmt.Errorf("embedded major arcana has %d cards, want %d", len(majors), domain.MajorCount)
		return
	}

	cards := make([]string, 0, domain.PoolSize)
	var buf bytes.Buffer
	for i, m := range majors {
		if m.ID != i {
			l.err = fmt.Errorf("embedded major arcana out of order at %d", i)
			return
		}
		buf.Reset()
		if err := majorTmpl.Execute(&buf, m); err != nil {
			l.err = fmt.Errorf("render card %d: %w", i, err)
			return
		}
		cards = append(cards, buf.String())
	}

	for id := domain.CardID(domain.MajorCount); id < domain.PoolSize; id++ {
		suit, _ := id.Suit()
		style := suitStyles[suit]
		buf.Reset()
		err := minorTmpl.Execute(&buf, minorCard{
			Name:   style.Name,
			Color:  style.Color,
			Symbol: style.Symbol,
			Rank:   rankLabel(id.Rank()),
		})
		if err != nil {
			l.err = fmt.Errorf("render card %d: %w", id, err)
			return
		}
		cards = append(cards, buf.String())
	}
	l.cards = cards
}

// Cards returns the rendered library. The slice is shared; callers must not modify it.
func (l *DefaultLibrary) Cards() ([]string, error) {
	l.once.Do(l.init)
	return l.cards, l.err
}

func rankLabel(rank int) string {
	switch rank {
	case 1:
		return "A"
	case 11:
		return "P"
	case 12:
		return "N"
	case 13:
		return "Q"
	case 14:
		return "K"
	default:
		return strconv.Itoa(rank)
	}
}
