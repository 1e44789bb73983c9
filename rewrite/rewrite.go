// Package rewrite sends selected text to an OpenAI-compatible chat
// model and returns a restyled version of the same text.
package rewrite

import "context"

// Preset selects the style applied to the text.
type Preset string

const (
	FixGrammar   Preset = "fix-grammar"
	Professional Preset = "professional"
	Concise      Preset = "concise"
	Friendly     Preset = "friendly"
)

// Presets lists the supported presets in display order.
var Presets = []Preset{FixGrammar, Professional, Concise, Friendly}

func (p Preset) Valid() bool {
	switch p {
	case FixGrammar, Professional, Concise, Friendly:
		return true
	}
	return false
}

// systemPrompt is the instruction sent ahead of the user's text. The
// model must return only the rewritten text so it can be pasted back
// over the selection verbatim.
func (p Preset) systemPrompt() string {
	const tail = " Return only the rewritten text with no explanations, no quotes, and no markdown."
	switch p {
	case FixGrammar:
		return "Fix the spelling, grammar and punctuation of the user's text. Keep the wording, tone and formatting otherwise unchanged." + tail
	case Professional:
		return "Rewrite the user's text in a polished, professional tone suitable for workplace communication. Preserve its meaning and approximate length." + tail
	case Concise:
		return "Rewrite the user's text to be as short and direct as possible without losing information." + tail
	case Friendly:
		return "Rewrite the user's text in a warm, friendly and approachable tone. Preserve its meaning." + tail
	}
	return "Rewrite the user's text." + tail
}

// Rewriter transforms text according to a preset. Implementations
// block until the model answers or the context is cancelled.
type Rewriter interface {
	Name() string
	Rewrite(ctx context.Context, text string, preset Preset) (string, error)
}
