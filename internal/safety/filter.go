package safety

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/rs/zerolog"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Verdict is the outcome of a content-safety check. Reason is empty iff the
// content is safe. Computed once per request and never cached.
type Verdict struct {
	Safe   bool
	Reason string
}

// Moderator is the optional semantic moderation collaborator. It returns
// either "SAFE" or "UNSAFE: <reason>".
type Moderator interface {
	Classify(ctx context.Context, text string) (string, error)
}

// Layer 1: instant blocklist, no external call needed.
var blockedKeywords = []string{
	"violence", "blood", "gore", "weapon", "gun", "knife", "death", "kill",
	"murder", "war", "bomb", "nude", "naked", "sex", "adult", "porn",
	"drugs", "alcohol", "beer", "wine", "cigarette", "smoking",
	"hate", "racist", "slur", "curse", "profanity",
}

// Standalone special characters that NFKD does not decompose.
var transliterations = map[rune]string{
	'ø': "o", 'Ø': "O", 'ð': "d", 'Ð': "D", 'þ': "th", 'Þ': "TH",
	'æ': "ae", 'Æ': "AE", 'œ': "oe", 'Œ': "OE", 'ß': "ss",
	'μ': "u", 'ł': "l", 'Ł': "L", 'đ': "d", 'Đ': "D",
}

var stripMarks = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))

// Filter is the two-layer content gate. Layer 1 is a deterministic keyword
// scan over normalized text; layer 2 is the optional semantic moderator and
// fails open when unavailable.
type Filter struct {
	moderator Moderator
	logger    zerolog.Logger
}

// NewFilter builds a filter. A nil moderator disables layer 2.
func NewFilter(moderator Moderator, logger zerolog.Logger) *Filter {
	return &Filter{moderator: moderator, logger: logger}
}

// Check runs both layers, short-circuiting on a layer-1 hit. Any moderator
// failure (timeout, network, malformed response) falls back to the layer-1
// result.
func (f *Filter) Check(ctx context.Context, text string) Verdict {
	if v := f.scanKeywords(text); !v.Safe {
		return v
	}
	if f.moderator == nil {
		return Verdict{Safe: true}
	}

	result, err := f.moderator.Classify(ctx, text)
	if err != nil {
		f.logger.Warn().Err(err).Msg("safety: semantic moderation unavailable, layer 1 only")
		return Verdict{Safe: true}
	}
	if reason, unsafe := parseModeration(result); unsafe {
		f.logger.Info().Str("reason", reason).Msg("safety: content blocked by layer 2")
		return Verdict{Safe: false, Reason: reason}
	}
	return Verdict{Safe: true}
}

// scanKeywords is layer 1: normalize to defeat unicode evasion, then scan
// for blocklist membership.
func (f *Filter) scanKeywords(text string) Verdict {
	normalized := normalize(text)
	for _, word := range blockedKeywords {
		if strings.Contains(normalized, word) {
			f.logger.Info().Str("keyword", word).Msg("safety: content blocked by layer 1")
			return Verdict{Safe: false, Reason: fmt.Sprintf("Content contains inappropriate term: '%s'", word)}
		}
	}
	return Verdict{Safe: true}
}

// normalize defeats common unicode evasion tricks:
//
//	vïølence -> violence  (strip diacritics + transliterate special chars)
//	g u n    -> gun       (collapse whitespace)
//	gμn      -> gun       (NFKD + transliteration)
func normalize(text string) string {
	decomposed, _, err := transform.String(stripMarks, text)
	if err != nil {
		decomposed = text
	}

	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.IsSpace(r) {
			continue
		}
		if repl, ok := transliterations[r]; ok {
			b.WriteString(repl)
			continue
		}
		b.WriteRune(r)
	}
	return strings.ToLower(b.String())
}

// parseModeration interprets the moderator's two-state textual verdict.
func parseModeration(result string) (reason string, unsafe bool) {
	trimmed := strings.TrimSpace(result)
	if !strings.HasPrefix(trimmed, "UNSAFE") {
		return "", false
	}
	reason = strings.TrimSpace(strings.TrimPrefix(trimmed, "UNSAFE"))
	reason = strings.TrimSpace(strings.TrimPrefix(reason, ":"))
	return reason, true
}
