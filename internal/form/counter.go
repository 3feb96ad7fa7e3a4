package form

import "unicode/utf8"

// Remaining returns how many characters may still be typed, never negative.
func Remaining(text string, max int) int {
	if n := max - utf8.RuneCountInString(text); n > 0 {
		return n
	}
	return 0
}

// Clip cuts text to at most max characters.
func Clip(text string, max int) string {
	if utf8.RuneCountInString(text) <= max {
		return text
	}
	runes := []rune(text)
	return string(runes[:max])
}
