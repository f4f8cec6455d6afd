// Package sanitize hardens user- and corpus-supplied text before it enters
// a model prompt. Suspicious input is flagged and logged, never blocked —
// the submitter must always be able to keep going.
package sanitize

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

// Length caps per input class.
const (
	MaxMessageLength    = 10000
	MaxNameLength       = 200
	MaxDescriptionLen   = 5000
	MaxShortFieldLength = 500
	MaxListItems        = 20
	MaxListItemLength   = 500
)

// injectionPatterns match common prompt-injection phrasings. Detection is
// for monitoring only.
var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(end\s+)?(system\s+)?(prompt|instruction|context)\b`),
	regexp.MustCompile(`(?i)\b(new|ignore|override|forget|disregard)\s+(all\s+)?(instructions?|rules?|prompts?|everything)\b`),
	regexp.MustCompile(`(?i)\b(you\s+are\s+now|act\s+as|pretend\s+to\s+be)\b`),
	regexp.MustCompile(`(?i)\bignore\s+(all\s+)?(previous|above|prior|the\s+above)\b`),
	regexp.MustCompile(`(?im)^(assistant|system|user)\s*:`),
	regexp.MustCompile(`<\s*/?system\s*>`),
	regexp.MustCompile(`<\s*/?instruction\s*>`),
	regexp.MustCompile(`<\s*/?prompt\s*>`),
	regexp.MustCompile(`<\s*/?\s*user\s*>`),
	regexp.MustCompile(`(?i)\bDAN\s+(mode|jailbreak)\b`),
	regexp.MustCompile(`(?i)\b(forget|disregard)\s+(everything|all)`),
}

var (
	controlChars   = regexp.MustCompile("[\x00-\x08\x0b\x0c\x0e-\x1f\x7f]")
	longWhitespace = regexp.MustCompile(`[ \t]{10,}`)
	manyNewlines   = regexp.MustCompile(`\n{5,}`)

	xmlTags         = regexp.MustCompile(`<([^>]+)>`)
	boundaryMarkers = regexp.MustCompile(`(?i)(end|new)\s+(system\s+)?(prompt|instruction)`)
	injectionVerbs  = regexp.MustCompile(`(?i)(ignore|forget|disregard)\s+(all\s+)?(previous|instructions|rules)`)
)

// Text truncates to maxLength, strips control characters (keeping newlines
// and tabs), and collapses excessive whitespace.
func Text(text string, maxLength int) string {
	if text == "" {
		return text
	}

	// Truncate by runes, not bytes, so a multibyte character is never
	// split mid-sequence.
	if utf8.RuneCountInString(text) > maxLength {
		runes := []rune(text)
		text = string(runes[:maxLength])
	}

	text = controlChars.ReplaceAllString(text, "")
	text = longWhitespace.ReplaceAllString(text, "    ")
	text = manyNewlines.ReplaceAllString(text, "\n\n\n")

	return strings.TrimSpace(text)
}

// ContainsInjection reports whether text matches a known prompt-injection
// pattern. Callers log the hit; the input is still used.
func ContainsInjection(text string) bool {
	if text == "" {
		return false
	}
	for _, p := range injectionPatterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// UserMessage sanitizes a chat message from the submitter. Injection hits
// are logged for review.
func UserMessage(sessionID, message string) string {
	if ContainsInjection(message) {
		zap.L().Warn("sanitize: possible prompt injection in user message",
			zap.String("session_id", sessionID),
		)
	}
	return Text(message, MaxMessageLength)
}

// Name sanitizes a technology name.
func Name(name string) string {
	return Text(name, MaxNameLength)
}

// Description sanitizes a blip description.
func Description(description string) string {
	return Text(description, MaxDescriptionLen)
}

// ShortField sanitizes short scalar fields (why_now, contact, rationale).
func ShortField(value string) string {
	return Text(value, MaxShortFieldLength)
}

// ListField caps list length and sanitizes each item. Items that are empty
// after sanitization are dropped so they never count toward evidence
// thresholds.
func ListField(items []string) []string {
	if len(items) == 0 {
		return items
	}
	if len(items) > MaxListItems {
		items = items[:MaxListItems]
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if cleaned := Text(item, MaxListItemLength); cleaned != "" {
			out = append(out, cleaned)
		}
	}
	return out
}

// ExternalData sanitizes strings that arrive from sources we don't control
// (the radar history CSVs). On top of the standard pass it defangs
// XML-like tags and instruction boundary markers.
func ExternalData(text string) string {
	if text == "" {
		return text
	}

	text = Text(text, MaxShortFieldLength)
	text = xmlTags.ReplaceAllString(text, "[$1]")
	text = boundaryMarkers.ReplaceAllString(text, "[$1 $2$3]")
	text = injectionVerbs.ReplaceAllString(text, "[$1 $2$3]")

	return text
}
