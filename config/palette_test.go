package config

import (
	"image/color"
	"testing"
)

func TestSectionColourByName(t *testing.T) {
	blue, ok := SectionColourByName("blue")
	if !ok {
		t.Fatal("the default palette should bind blue")
	}
	if blue != (color.NRGBA{B: 0xFF, A: 0xFF}) {
		t.Errorf("blue = %v, want pure blue", blue)
	}
	// names compare case-insensitively
	if caps, ok := SectionColourByName("BLUE"); !ok || caps != blue {
		t.Error("lookup should be case-insensitive")
	}
	if _, ok := SectionColourByName("no such colour"); ok {
		t.Error("an unbound name should not resolve")
	}
}

func TestSectionColourNames(t *testing.T) {
	names := SectionColourNames()
	if len(names) == 0 {
		t.Fatal("the default palette is empty")
	}
	found := map[string]bool{}
	for _, n := range names {
		found[n] = true
	}
	// display names are title-cased
	if !found["Blue"] || !found["Dark Blue"] {
		t.Errorf("names = %v, want them to include Blue and Dark Blue", names)
	}
}

func TestSectionColourParsing(t *testing.T) {
	for _, tc := range []struct {
		colour  string
		want    color.NRGBA
		wantErr bool
	}{
		{"FF0000", color.NRGBA{R: 0xFF, A: 0xFF}, false},
		{"43A047", color.NRGBA{R: 0x43, G: 0xA0, B: 0x47, A: 0xFF}, false},
		{"80FF0000", color.NRGBA{A: 0x80, R: 0xFF}, false},
		{"F00", color.NRGBA{}, true},    // neither 6 nor 8 digits
		{"ZZZZZZ", color.NRGBA{}, true}, // not hex
	} {
		got, err := SectionColour{Name: "x", Colour: tc.colour}.NRGBA()
		if (err != nil) != tc.wantErr {
			t.Errorf("NRGBA(%q) error = %v, wantErr %v", tc.colour, err, tc.wantErr)
			continue
		}
		if err == nil && got != tc.want {
			t.Errorf("NRGBA(%q) = %v, want %v", tc.colour, got, tc.want)
		}
	}
}
