package testutil

import (
	"testing"

	"github.com/example/go-rsvp/internal/rsvp"
)

// recordingTB captures failures so assertions can be tested without failing
// the enclosing test.
type recordingTB struct {
	testing.TB
	failed bool
}

func (r *recordingTB) Helper() {}

func (r *recordingTB) Errorf(string, ...any) { r.failed = true }

func TestAssertTokenInvariants_AcceptsTokenizerOutput(t *testing.T) {
	tokens := MustTokenize(t, "The quick, brown fox jumps over extraordinarily lazy dogs!", 450)

	rec := &recordingTB{TB: t}
	AssertTokenInvariants(rec, tokens, 450)

	if rec.failed {
		t.Fatal("tokenizer output reported as invalid")
	}
}

func TestAssertTokenInvariants_RejectsBrokenTokens(t *testing.T) {
	tests := []struct {
		name string
		tok  rsvp.Token
	}{
		{
			name: "anchor out of range",
			tok:  rsvp.Token{Text: "hi", AnchorIndex: 5, BaseDurationMs: 100, DurationMs: 100, Multiplier: 1},
		},
		{
			name: "duration mismatch",
			tok:  rsvp.Token{Text: "hi", AnchorIndex: 1, BaseDurationMs: 100, DurationMs: 150, Multiplier: 1},
		},
		{
			name: "multiplier below one",
			tok:  rsvp.Token{Text: "hi", AnchorIndex: 1, BaseDurationMs: 100, DurationMs: 50, Multiplier: 0.5},
		},
		{
			name: "both punctuation flags",
			tok: rsvp.Token{
				Text: "hi.", AnchorIndex: 1, BaseDurationMs: 100, DurationMs: 100, Multiplier: 1,
				IsSentenceEnd: true, IsClauseBreak: true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recordingTB{TB: t}
			AssertTokenInvariants(rec, []rsvp.Token{tt.tok}, 600)

			if !rec.failed {
				t.Errorf("expected %s to be reported", tt.name)
			}
		})
	}
}
