package rsvp

import "unicode/utf8"

// AnchorIndex returns the 0-based rune index of the character to hold fixed
// on screen while word is displayed. It approximates the optimal recognition
// point with a step function of word length:
//
//	length 1      -> 0
//	length 2..5   -> 1
//	length 6..9   -> 2
//	length 10..13 -> 3
//	length 14+    -> 4
//
// Only the length of word matters, not its content. Callers must not pass an
// empty word; AnchorIndex("") returns 0.
func AnchorIndex(word string) int {
	n := utf8.RuneCountInString(word)

	switch {
	case n <= 1:
		return 0
	case n <= 5:
		return 1
	case n <= 9:
		return 2
	case n <= 13:
		return 3
	default:
		return 4
	}
}

// ClampAnchorIndex bounds index to [0, len(word)-1], measured in runes.
// An empty word clamps to 0.
func ClampAnchorIndex(word string, index int) int {
	last := utf8.RuneCountInString(word) - 1
	if index > last {
		index = last
	}
	if index < 0 {
		index = 0
	}
	return index
}
