// Confirmation reply classification.
//
// Only an explicit affirmative moves a pending invocation to executing, and
// a cancellation is always accepted. Anything else is routed back through
// extraction as a potential field correction.

package chat

import "strings"

type replyKind int

const (
	replyOther replyKind = iota
	replyAffirmative
	replyNegative
)

var affirmatives = map[string]struct{}{
	"yes": {}, "y": {}, "yes please": {}, "yep": {}, "yeah": {},
	"confirm": {}, "confirmed": {}, "ok": {}, "okay": {},
	"sure": {}, "go ahead": {}, "do it": {}, "please do": {}, "sounds good": {},
}

var negatives = map[string]struct{}{
	"no": {}, "n": {}, "nope": {}, "cancel": {}, "stop": {},
	"abort": {}, "don't": {}, "dont": {}, "never mind": {}, "nevermind": {},
	"cancel it": {}, "no thanks": {},
}

func classifyReply(text string) replyKind {
	normalized := strings.ToLower(strings.TrimSpace(text))
	normalized = strings.TrimRight(normalized, ".!?, ")
	if _, ok := affirmatives[normalized]; ok {
		return replyAffirmative
	}
	if _, ok := negatives[normalized]; ok {
		return replyNegative
	}
	return replyOther
}
