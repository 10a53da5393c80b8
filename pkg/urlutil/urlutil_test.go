package urlutil

import "testing"

func TestNormalizeDestination(t *testing.T) {
	cases := map[string]string{
		"example.com":          "https://example.com",
		"http://example.com/x": "http://example.com/x",
		"https://example.com":  "https://example.com",
		"HTTPS://Example.com":  "HTTPS://Example.com",
		"  example.com/path  ": "https://example.com/path",
		"":                     "",
	}

	for in, want := range cases {
		if got := NormalizeDestination(in); got != want {
			t.Errorf("NormalizeDestination(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestValidSlug(t *testing.T) {
	valid := []string{"abc", "promo-2024", "A_b-C", "x"}
	for _, s := range valid {
		if !ValidSlug(s) {
			t.Errorf("ValidSlug(%q) = false, want true", s)
		}
	}

	invalid := []string{"", "has space", "a/b", "ção", string(make([]byte, MaxSlugLength+1))}
	for _, s := range invalid {
		if ValidSlug(s) {
			t.Errorf("ValidSlug(%q) = true, want false", s)
		}
	}
}

func TestIsReservedSlug(t *testing.T) {
	if !IsReservedSlug("API") {
		t.Error("IsReservedSlug(API) = false, want true")
	}
	if IsReservedSlug("promo") {
		t.Error("IsReservedSlug(promo) = true, want false")
	}
}

func TestRandomSlug(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		s, err := RandomSlug()
		if err != nil {
			t.Fatalf("RandomSlug() error = %v", err)
		}
		if len(s) != randomSlugLength || !ValidSlug(s) {
			t.Fatalf("RandomSlug() = %q, not a valid %d-char slug", s, randomSlugLength)
		}
		seen[s] = true
	}
	if len(seen) < 45 {
		t.Errorf("RandomSlug() produced only %d distinct slugs out of 50", len(seen))
	}
}
