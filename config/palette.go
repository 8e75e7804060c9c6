package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

type (
	// SectionColour is one palette entry for colouring arrangement
	// sections. Colour is RRGGBB or AARRGGBB hex.
	SectionColour struct {
		Name   string
		Colour string
	}
)

var sectionColourMap = map[string]color.NRGBA{}
var sectionColourNames []string // lookup keys, in definition order
var titleCaser = cases.Title(language.English)

//go:embed palette.yml
var defaultPaletteYaml []byte

func init() {
	var palette, userPalette []SectionColour
	dec := yaml.NewDecoder(bytes.NewReader(defaultPaletteYaml))
	dec.KnownFields(true)
	if err := dec.Decode(&palette); err != nil {
		panic(fmt.Errorf("failed to unmarshal default palette: %w", err))
	}
	if exists, err := ReadCustomConfigYml("palette.yml", &userPalette); exists && err == nil {
		palette = append(palette, userPalette...)
	}

	for _, sc := range palette {
		key := strings.ToLower(sc.Name)
		_, bound := sectionColourMap[key]
		if sc.Colour == "" { // unbind
			if bound {
				delete(sectionColourMap, key)
				for i, n := range sectionColourNames {
					if n == key {
						sectionColourNames = append(sectionColourNames[:i], sectionColourNames[i+1:]...)
						break
					}
				}
			}
			continue
		}
		nrgba, err := sc.NRGBA()
		if err != nil { // keep the previous binding, if any
			continue
		}
		sectionColourMap[key] = nrgba
		if !bound {
			sectionColourNames = append(sectionColourNames, key)
		}
	}
}

// NRGBA parses the entry's colour. Six hex digits are RRGGBB with full
// alpha, eight are AARRGGBB.
func (s SectionColour) NRGBA() (color.NRGBA, error) {
	v, err := strconv.ParseUint(s.Colour, 16, 64)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("parsing colour %q: %w", s.Colour, err)
	}
	switch len(s.Colour) {
	case 6:
		return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xFF}, nil
	case 8:
		return color.NRGBA{A: uint8(v >> 24), R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
	}
	return color.NRGBA{}, fmt.Errorf("colour %q is neither RRGGBB nor AARRGGBB", s.Colour)
}

// SectionColourByName returns the palette colour bound to name. Names
// compare case-insensitively.
func SectionColourByName(name string) (color.NRGBA, bool) {
	c, ok := sectionColourMap[strings.ToLower(name)]
	return c, ok
}

// SectionColourNames returns the palette names in definition order,
// title-cased for display.
func SectionColourNames() []string {
	names := make([]string, len(sectionColourNames))
	for i, n := range sectionColourNames {
		names[i] = titleCaser.String(n)
	}
	return names
}
