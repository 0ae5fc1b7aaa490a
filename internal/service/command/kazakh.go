// Package command turns recognized Kazakh speech into actions.
package command

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// kazakhAlphabet is the Cyrillic Kazakh alphabet in lower case.
const kazakhAlphabet = "аәбвгғдеёжзийкқлмнңоөпрстуұүфхһцчшыіэюя"

var kazakhRunes = func() map[rune]bool {
	set := make(map[rune]bool, len(kazakhAlphabet))
	for _, r := range kazakhAlphabet {
		set[r] = true
	}
	return set
}()

// Normalize applies NFKC and lower-cases the text.
func Normalize(text string) string {
	return norm.NFKC.String(strings.ToLower(text))
}

// IsKazakhWord reports whether the word contains at least one Kazakh letter.
func IsKazakhWord(word string) bool {
	for _, r := range strings.ToLower(word) {
		if kazakhRunes[r] {
			return true
		}
	}
	return false
}

// Tokenize splits recognized text into runs of Cyrillic letters.
// Latin letters, digits and punctuation act as separators.
func Tokenize(text string) []string {
	text = Normalize(text)

	return strings.FieldsFunc(text, func(r rune) bool {
		return !isTokenRune(r)
	})
}

// KazakhWords returns only the tokens that contain Kazakh letters.
func KazakhWords(text string) []string {
	var words []string
	for _, token := range Tokenize(text) {
		if IsKazakhWord(token) {
			words = append(words, token)
		}
	}
	return words
}

func isTokenRune(r rune) bool {
	if r >= 'а' && r <= 'я' {
		return true
	}
	if kazakhRunes[r] {
		return true
	}
	// Keep other Cyrillic lower-case letters together so a word is never split mid-way.
	return unicode.Is(unicode.Cyrillic, r) && unicode.IsLower(r)
}
