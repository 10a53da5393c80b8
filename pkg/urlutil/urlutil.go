// Package urlutil holds the destination and slug rules shared by links,
// bio links and the redirect path.
package urlutil

import (
	"crypto/rand"
	"math/big"
	"regexp"
	"strings"
)

const (
	MaxSlugLength    = 64
	randomSlugLength = 6
	slugAlphabet     = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

var slugPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// reservedSlugs are first path segments already taken by the app's own routes.
var reservedSlugs = map[string]struct{}{
	"api":        {},
	"bio":        {},
	"login":      {},
	"dashboard":  {},
	"criar-link": {},
	"profile":    {},
	"usuarios":   {},
	"bio-links":  {},
	"expired":    {},
	"404":        {},
	"healthz":    {},
}

// NormalizeDestination prefixes https:// when the URL carries no http(s) scheme.
func NormalizeDestination(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return trimmed
	}
	lower := strings.ToLower(trimmed)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return trimmed
	}
	return "https://" + trimmed
}

func ValidSlug(slug string) bool {
	if slug == "" || len(slug) > MaxSlugLength {
		return false
	}
	return slugPattern.MatchString(slug)
}

func IsReservedSlug(slug string) bool {
	_, ok := reservedSlugs[strings.ToLower(slug)]
	return ok
}

// RandomSlug returns a short slug drawn from [A-Za-z0-9].
func RandomSlug() (string, error) {
	var sb strings.Builder
	max := big.NewInt(int64(len(slugAlphabet)))
	for i := 0; i < randomSlugLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		sb.WriteByte(slugAlphabet[n.Int64()])
	}
	return sb.String(), nil
}
