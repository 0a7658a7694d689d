package utils

import (
	"strings"
	"unicode"
)

// CountWords counts the words in a rich-text markup string. The count is
// provisional: the server recomputes the authoritative word count on save,
// so this is only used for display before a save round-trips.
func CountWords(markup string) int {
	text := stripMarkup(markup)

	words := strings.FieldsFunc(text, func(r rune) bool {
		return unicode.IsSpace(r)
	})

	count := 0
	for _, word := range words {
		if len(strings.TrimSpace(word)) > 0 {
			count++
		}
	}

	return count
}

// stripMarkup removes tags and decodes the handful of entities the editor
// emits, leaving plain text separated by spaces.
func stripMarkup(markup string) string {
	var b strings.Builder
	b.Grow(len(markup))

	inTag := false
	for _, r := range markup {
		switch {
		case r == '<':
			inTag = true
			// Tags are word boundaries: "</p><p>" must not glue words.
			b.WriteRune(' ')
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}

	// Decode in a fixed order, ampersand last, so an escaped entity like
	// "&amp;nbsp;" comes out as the literal "&nbsp;" and is never decoded
	// a second time.
	replacements := []struct{ entity, plain string }{
		{"&nbsp;", " "},
		{"&lt;", "<"},
		{"&gt;", ">"},
		{"&quot;", `"`},
		{"&#39;", "'"},
		{"&amp;", "&"},
	}

	text := b.String()
	for _, r := range replacements {
		text = strings.ReplaceAll(text, r.entity, r.plain)
	}

	return text
}
