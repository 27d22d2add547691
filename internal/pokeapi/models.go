package pokeapi

import (
	"fmt"
	"strings"
)

// NamedResource is the {name, url} pair PokéAPI uses for references.
type NamedResource struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// ListPage is one response of the paginated list endpoint.
type ListPage struct {
	Count    int             `json:"count"`
	Next     *string         `json:"next"`
	Previous *string         `json:"previous"`
	Results  []NamedResource `json:"results"`
}

// HasNext reports whether another page exists.
func (p *ListPage) HasNext() bool {
	return p != nil && p.Next != nil && *p.Next != ""
}

// Pokemon is the detail record for one catalog item.
type Pokemon struct {
	ID             int           `json:"id"`
	Name           string        `json:"name"`
	Height         int           `json:"height"`
	Weight         int           `json:"weight"`
	BaseExperience int           `json:"base_experience"`
	Types          []TypeSlot    `json:"types"`
	Stats          []StatValue   `json:"stats"`
	Abilities      []AbilitySlot `json:"abilities"`
	Sprites        Sprites       `json:"sprites"`
}

type TypeSlot struct {
	Slot int           `json:"slot"`
	Type NamedResource `json:"type"`
}

type StatValue struct {
	BaseStat int           `json:"base_stat"`
	Effort   int           `json:"effort"`
	Stat     NamedResource `json:"stat"`
}

type AbilitySlot struct {
	Ability  NamedResource `json:"ability"`
	IsHidden bool          `json:"is_hidden"`
	Slot     int           `json:"slot"`
}

type Sprites struct {
	FrontDefault *string        `json:"front_default"`
	Other        OtherSprites   `json:"other"`
	Versions     VersionSprites `json:"versions"`
}

type OtherSprites struct {
	OfficialArtwork struct {
		FrontDefault *string `json:"front_default"`
	} `json:"official-artwork"`
}

type VersionSprites struct {
	GenerationV struct {
		BlackWhite struct {
			Animated struct {
				FrontDefault *string `json:"front_default"`
			} `json:"animated"`
		} `json:"black-white"`
	} `json:"generation-v"`
}

// SpriteURL derives the static sprite location for an identity.
func SpriteURL(spriteBase, identity string) string {
	if spriteBase != "" && !strings.HasSuffix(spriteBase, "/") {
		spriteBase += "/"
	}
	return spriteBase + identity + ".png"
}

// ArtworkURL picks the best available image: animated gen-V sprite,
// official artwork, default sprite, then the derived static sprite.
func (p *Pokemon) ArtworkURL(spriteBase string) string {
	for _, u := range []*string{
		p.Sprites.Versions.GenerationV.BlackWhite.Animated.FrontDefault,
		p.Sprites.Other.OfficialArtwork.FrontDefault,
		p.Sprites.FrontDefault,
	} {
		if u != nil && *u != "" {
			return *u
		}
	}
	return SpriteURL(spriteBase, fmt.Sprint(p.ID))
}

// TypeNames returns the type names in slot order.
func (p *Pokemon) TypeNames() []string {
	names := make([]string, 0, len(p.Types))
	for _, t := range p.Types {
		names = append(names, t.Type.Name)
	}
	return names
}

// AbilityNames returns display names ("solar power" for "solar-power").
func (p *Pokemon) AbilityNames() []string {
	names := make([]string, 0, len(p.Abilities))
	for _, a := range p.Abilities {
		names = append(names, strings.Replace(a.Ability.Name, "-", " ", 1))
	}
	return names
}

// HeightMeters converts decimetres to metres.
func (p *Pokemon) HeightMeters() float64 { return float64(p.Height) / 10 }

// WeightKilograms converts hectograms to kilograms.
func (p *Pokemon) WeightKilograms() float64 { return float64(p.Weight) / 10 }

// StatLabel shortens stat names for display ("special-attack" -> "sp. attack").
func StatLabel(name string) string {
	return strings.Replace(name, "special-", "sp. ", 1)
}
