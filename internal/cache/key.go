// Package cache stores accepted generation results keyed by a
// deterministic digest of the generation parameters. Caching is
// content-addressed: caller identity never participates in the key, so
// two callers asking for the same artifact share one entry.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/lessonforge/lessonforge/internal/domain"
)

// fieldSep separates digest fields so that adjacent values can never be
// confused ("ab"+"c" vs "a"+"bc").
const fieldSep = "\x1f"

// Key derives the cache key for a request. It is a pure function of the
// request content: artifact type, normalized topic, audience level and
// the ordered extra parameters. Semantically identical requests collide
// by construction; caller identity is deliberately excluded.
func Key(req *domain.GenerationRequest) string {
	h := sha256.New()

	h.Write([]byte(string(req.ArtifactType)))
	h.Write([]byte(fieldSep))
	h.Write([]byte(Normalize(req.Topic)))
	h.Write([]byte(fieldSep))
	h.Write([]byte(string(req.AudienceLevel)))

	for _, p := range req.ExtraParams {
		h.Write([]byte(fieldSep))
		h.Write([]byte(Normalize(p.Key)))
		h.Write([]byte("="))
		h.Write([]byte(Normalize(p.Value)))
	}

	return "art:" + hex.EncodeToString(h.Sum(nil))
}

// Normalize folds case and collapses whitespace runs so that requests
// differing only in formatting map to the same key.
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
