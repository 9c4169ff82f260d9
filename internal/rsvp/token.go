// Package rsvp turns selected text into a timed sequence of display tokens
// for rapid serial visual presentation.
package rsvp

import (
	"errors"
	"fmt"
	"math"
	"time"
	"unicode/utf8"

	"github.com/example/go-rsvp/internal/text"
)

// Reading-rate bounds shared by the tokenizer and playback layers.
const (
	DefaultWPM = 450
	MinWPM     = 100
	MaxWPM     = 2000
	WPMStep    = 25
	SeekStep   = 5
)

// Multiplier bonuses. These are empirical and must not drift.
const (
	sentenceEndBonus = 1.0
	clauseBreakBonus = 0.4
	longWordBonus    = 0.3 // more than longWordLen runes
	mediumWordBonus  = 0.2 // more than mediumWordLen runes

	longWordLen   = 12
	mediumWordLen = 7
)

// ErrInvalidRate is returned when the words-per-minute rate is not a positive
// finite number.
var ErrInvalidRate = errors.New("invalid rate")

// Token is one displayable unit. Tokens are values; nothing mutates them
// after Tokenize returns.
type Token struct {
	Text           string  `json:"text" cbor:"text"`
	AnchorIndex    int     `json:"anchorIndex" cbor:"anchorIndex"`
	BaseDurationMs float64 `json:"baseDurationMs" cbor:"baseDurationMs"`
	DurationMs     float64 `json:"durationMs" cbor:"durationMs"`
	IsSentenceEnd  bool    `json:"isSentenceEnd" cbor:"isSentenceEnd"`
	IsClauseBreak  bool    `json:"isClauseBreak" cbor:"isClauseBreak"`
	Multiplier     float64 `json:"multiplier" cbor:"multiplier"`
}

// Duration returns DurationMs as a time.Duration.
func (t Token) Duration() time.Duration {
	return msToDuration(t.DurationMs)
}

// DurationAt returns the display duration of t at a different reading rate,
// keeping its multiplier. Playback uses this so speed changes apply to the
// next token without re-tokenizing.
func (t Token) DurationAt(wpm float64) time.Duration {
	return msToDuration(BaseDurationMs(wpm) * t.Multiplier)
}

// Split returns the text left of the anchor, the anchor character itself,
// and the text right of it.
func (t Token) Split() (left, anchor, right string) {
	i := 0
	for pos, r := range t.Text {
		if i == t.AnchorIndex {
			size := utf8.RuneLen(r)
			return t.Text[:pos], t.Text[pos : pos+size], t.Text[pos+size:]
		}
		i++
	}
	return t.Text, "", ""
}

// BaseDurationMs is the display time of one word at wpm with multiplier 1.
func BaseDurationMs(wpm float64) float64 {
	return 60000 / wpm
}

// ValidateRate returns ErrInvalidRate unless wpm is positive and finite.
func ValidateRate(wpm float64) error {
	if math.IsNaN(wpm) || math.IsInf(wpm, 0) || wpm <= 0 {
		return fmt.Errorf("%w: %v words per minute", ErrInvalidRate, wpm)
	}
	return nil
}

// Tokenize splits text into whitespace-delimited words and returns one Token
// per word, in reading order, timed for wpm.
//
// Empty or whitespace-only text yields an empty, non-nil slice.
func Tokenize(input string, wpm float64) ([]Token, error) {
	if err := ValidateRate(wpm); err != nil {
		return nil, err
	}

	words := text.Words(input)
	baseMs := BaseDurationMs(wpm)

	tokens := make([]Token, 0, len(words))
	for _, w := range words {
		tokens = append(tokens, newToken(w, baseMs))
	}

	return tokens, nil
}

func newToken(word string, baseMs float64) Token {
	last, _ := utf8.DecodeLastRuneInString(word)
	isSentenceEnd := last == '.' || last == '!' || last == '?'
	isClauseBreak := !isSentenceEnd && (last == ',' || last == ';' || last == ':')

	multiplier := 1.0

	// Length penalty is applied before the punctuation bonus so that the
	// float sums match across implementations.
	n := utf8.RuneCountInString(word)
	if n > longWordLen {
		multiplier += longWordBonus
	} else if n > mediumWordLen {
		multiplier += mediumWordBonus
	}

	if isSentenceEnd {
		multiplier += sentenceEndBonus
	} else if isClauseBreak {
		multiplier += clauseBreakBonus
	}

	return Token{
		Text:           word,
		AnchorIndex:    ClampAnchorIndex(word, AnchorIndex(word)),
		BaseDurationMs: baseMs,
		DurationMs:     baseMs * multiplier,
		IsSentenceEnd:  isSentenceEnd,
		IsClauseBreak:  isClauseBreak,
		Multiplier:     multiplier,
	}
}

func msToDuration(ms float64) time.Duration {
	return time.Duration(math.Round(ms * float64(time.Millisecond)))
}
