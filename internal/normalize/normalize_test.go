package normalize

import (
	"reflect"
	"testing"
)

func TestArtistCanonicalForms(t *testing.T) {
	variants := []string{
		"Океан Ельзи",
		"океан ельзи",
		"  Океан Ельзи  ",
		"Океан   Ельзи",
		"Океан Ельзи feat. Іво Бобул",
		"Океан Ельзи ft. Іво Бобул",
		"Океан Ельзи (feat. Іво Бобул)",
		"Океан Ельзи [feat. Іво Бобул]",
	}

	want := "океан ельзи"
	for _, raw := range variants {
		if got := Artist(raw); got != want {
			t.Fatalf("Artist(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestArtistConjunctions(t *testing.T) {
	cases := map[string]string{
		"Artem Pivovarov & Klavdia Petrivna":   "artem pivovarov, klavdia petrivna",
		"Artem Pivovarov and Klavdia Petrivna": "artem pivovarov, klavdia petrivna",
		"Artem Pivovarov; Klavdia Petrivna":    "artem pivovarov, klavdia petrivna",
	}
	for raw, want := range cases {
		if got := Artist(raw); got != want {
			t.Fatalf("Artist(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestArtistEmpty(t *testing.T) {
	if got := Artist("   "); got != "" {
		t.Fatalf("Artist(blank) = %q, want empty", got)
	}
}

func TestTitleStripsGroups(t *testing.T) {
	cases := map[string]string{
		"Shum (Official Video)":     "shum",
		"Shum [Remastered 2022]":    "shum",
		"Shum feat. Someone":        "shum",
		"  SHUM  ":                  "shum",
		"Shum (Live) [Lyric Video]": "shum",
	}
	for raw, want := range cases {
		if got := Title(raw); got != want {
			t.Fatalf("Title(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestSplitArtistsKeepsFeaturedCredits(t *testing.T) {
	cases := map[string][]string{
		"Monatik":                          {"monatik"},
		"Monatik feat. Vera Brezhneva":     {"monatik", "vera brezhneva"},
		"Monatik (feat. Vera Brezhneva)":   {"monatik", "vera brezhneva"},
		"Monatik & Vera Brezhneva":         {"monatik", "vera brezhneva"},
		"Monatik, Vera Brezhneva, Monatik": {"monatik", "vera brezhneva"},
		"A ft. B and C":                    {"a", "b", "c"},
		"Alyona Alyona x Jerry Heil":       {"alyona alyona", "jerry heil"},
	}
	for raw, want := range cases {
		got := SplitArtists(raw)
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("SplitArtists(%q) = %v, want %v", raw, got, want)
		}
	}
}

func TestSplitArtistsEmpty(t *testing.T) {
	if got := SplitArtists(""); len(got) != 0 {
		t.Fatalf("SplitArtists(empty) = %v, want empty slice", got)
	}
}

func TestIsUkrainianText(t *testing.T) {
	cases := map[string]bool{
		"Гей, соколі":    true,
		"Червона калина": false,
		"Водограй і ти":  true,
		"Її пісня":       true,
		"Єдина":          true,
		"Ґанок":          true,
		"Shum":           false,
		"":               false,
	}
	for text, want := range cases {
		if got := IsUkrainianText(text); got != want {
			t.Fatalf("IsUkrainianText(%q) = %v, want %v", text, got, want)
		}
	}
}
