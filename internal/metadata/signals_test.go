package metadata

import "testing"

func TestHasFlaggedPlatformLink(t *testing.T) {
	cases := map[string]struct {
		links []string
		want  bool
	}{
		"vk link": {
			links: []string{"https://instagram.com/artist", "https://VK.com/artist"},
			want:  true,
		},
		"yandex music": {
			links: []string{"https://music.yandex.ru/artist/123"},
			want:  true,
		},
		"clean links": {
			links: []string{"https://instagram.com/artist", "https://open.spotify.com/artist/x"},
			want:  false,
		},
		"no links": {
			links: nil,
			want:  false,
		},
	}

	for name, tc := range cases {
		if got := hasFlaggedPlatformLink(tc.links); got != tc.want {
			t.Fatalf("%s: hasFlaggedPlatformLink(%v) = %v, want %v", name, tc.links, got, tc.want)
		}
	}
}

func TestHasFlaggedContact(t *testing.T) {
	cases := map[string]bool{
		"booking: +7 912 345 67 89":            true,
		"booking: +7(912)345-67-89":            true,
		"write to artist@mail.ru for shows":    true,
		"contact: someone@yandex.ru":           true,
		"contact: artist@gmail.com":            false,
		"call +380 44 123 4567":                false,
		"":                                     false,
	}
	for text, want := range cases {
		if got := hasFlaggedContact(text); got != want {
			t.Fatalf("hasFlaggedContact(%q) = %v, want %v", text, got, want)
		}
	}
}

func TestExtractLinks(t *testing.T) {
	text := "Official site: https://artist.example.com and merch at http://shop.example.com/store."
	links := extractLinks(text)
	if len(links) != 2 {
		t.Fatalf("expected 2 links, got %v", links)
	}
}
