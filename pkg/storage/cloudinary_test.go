package storage

import "testing"

func TestPublicIDFromURL(t *testing.T) {
	cases := map[string]string{
		"https://res.cloudinary.com/demo/image/upload/v1712/linkbio/avatars/17-me.webp": "linkbio/avatars/17-me",
		"https://res.cloudinary.com/demo/image/upload/linkbio/bio-avatars/a.png":        "linkbio/bio-avatars/a",
		"https://res.cloudinary.com/demo/image/upload/v1712":                            "",
		"https://example.com/no/upload-segment.png":                                     "",
		"::not a url":                                                                   "",
	}

	for in, want := range cases {
		if got := publicIDFromURL(in); got != want {
			t.Errorf("publicIDFromURL(%q) = %q, want %q", in, got, want)
		}
	}
}
