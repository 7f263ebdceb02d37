package models

import (
	"strings"
	"unicode"
)

// Marka builds the customer code used to group leads into clients.
// Multi-word names contribute their initials (up to three), single words
// their first three letters; the city adds its first three letters after a
// dash. Anything that is not a letter is ignored.
func Marka(customerName, city string) string {
	words := strings.FieldsFunc(customerName, func(r rune) bool { return !unicode.IsLetter(r) })
	var name string
	switch {
	case len(words) == 0:
		return ""
	case len(words) == 1:
		name = firstLetters(words[0], 3)
	default:
		if len(words) > 3 {
			words = words[:3]
		}
		var b strings.Builder
		for _, w := range words {
			b.WriteString(firstLetters(w, 1))
		}
		name = b.String()
	}

	cityPart := firstLetters(strings.Map(keepLetters, city), 3)
	if cityPart == "" {
		return name
	}
	return name + "-" + cityPart
}

func firstLetters(s string, n int) string {
	runes := []rune(strings.ToUpper(s))
	if len(runes) > n {
		runes = runes[:n]
	}
	return string(runes)
}

func keepLetters(r rune) rune {
	if unicode.IsLetter(r) {
		return r
	}
	return -1
}
