package auth

import (
	"net/url"
	"strings"
)

// bearerPrefix is matched case sensitively: the legacy writers only ever
// emitted this exact casing.
const bearerPrefix = "Bearer "

// TokenNormalizer reduces the historical carrier encodings to the canonical
// compact token. Cookies written by older releases carried the token percent
// encoded, sometimes with a "Bearer " prefix baked into the value, and
// occasionally both. Strategies run in order until one of the produced
// candidates verifies; the first candidate is always the input untouched, so
// canonical tokens pay no normalization cost.
//
// Deprecation path: once tokens issued before the canonical writer shipped
// have all expired (24h TTL) the legacy strategies can be removed.
type TokenNormalizer struct {
	strategies []normalizeStrategy
}

type normalizeStrategy func(string) (string, bool)

// NewTokenNormalizer builds the default strategy chain.
func NewTokenNormalizer() *TokenNormalizer {
	return &TokenNormalizer{
		strategies: []normalizeStrategy{
			normalizeCanonical,
			normalizeStripBearer,
			normalizeDecodeOnce,
			normalizeDecodeThenStrip,
		},
	}
}

// Candidates returns the ordered, de-duplicated candidate tokens for raw.
func (n *TokenNormalizer) Candidates(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	seen := make(map[string]struct{}, len(n.strategies))
	candidates := make([]string, 0, len(n.strategies))
	for _, strategy := range n.strategies {
		candidate, ok := strategy(raw)
		if !ok || candidate == "" {
			continue
		}
		if _, dup := seen[candidate]; dup {
			continue
		}
		seen[candidate] = struct{}{}
		candidates = append(candidates, candidate)
	}

	return candidates
}

func normalizeCanonical(raw string) (string, bool) {
	return raw, true
}

func normalizeStripBearer(raw string) (string, bool) {
	if !strings.HasPrefix(raw, bearerPrefix) {
		return "", false
	}
	return strings.TrimSpace(raw[len(bearerPrefix):]), true
}

// normalizeDecodeOnce undoes a single layer of percent encoding. Exactly one
// layer: a double encoded value decodes to the single encoded form, which the
// chain does not decode again.
func normalizeDecodeOnce(raw string) (string, bool) {
	decoded, err := url.QueryUnescape(raw)
	if err != nil || decoded == raw {
		return "", false
	}
	return strings.TrimSpace(decoded), true
}

func normalizeDecodeThenStrip(raw string) (string, bool) {
	decoded, ok := normalizeDecodeOnce(raw)
	if !ok {
		return "", false
	}
	return normalizeStripBearer(decoded)
}
