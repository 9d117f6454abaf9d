// Result rendering: maps technical invocation state back to user vocabulary.
//
// Every string produced here goes through the translate package for field
// and enum naming; technical identifiers must never appear in a reply.

package chat

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/carebridge/carebridge/session"
	"github.com/carebridge/carebridge/tools"
	"github.com/carebridge/carebridge/translate"
)

// toolTitle derives the user-facing name of a tool from its technical name
// ("create_schedule" -> "Create Schedule").
func toolTitle(name string) string {
	return translate.FieldLabel(tools.Field{Name: name})
}

// renderConfirmation presents a complete invocation back for approval.
func (o *Orchestrator) renderConfirmation(def tools.Definition, args tools.Args) (string, error) {
	pairs, err := o.translator.ToUser(def.Name, args)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Here's the %s I have:\n", toolTitle(def.Name))
	for _, p := range pairs {
		fmt.Fprintf(&b, "- %s: %s\n", p.Label, p.Value)
	}
	b.WriteString("Shall I go ahead? (yes/no)")
	return b.String(), nil
}

// renderProblems reports values the normalizer could not understand, in user
// vocabulary and without calling them a format problem.
func renderProblems(problems []extractProblem) string {
	var b strings.Builder
	for _, p := range problems {
		fmt.Fprintf(&b, "I didn't catch %q as a %s. ", p.value, strings.ToLower(translate.FieldLabel(p.field)))
	}
	return strings.TrimSpace(b.String())
}

// prefixProblems prepends the not-understood notes to a reply, so a rejected
// correction is never silently swallowed by the response that follows it.
func prefixProblems(problems []extractProblem, reply string) string {
	if len(problems) == 0 {
		return reply
	}
	return renderProblems(problems) + "\n" + reply
}

// renderMissing asks for the outstanding fields, plus any values that could
// not be understood.
func (o *Orchestrator) renderMissing(def tools.Definition, missing []string, problems []extractProblem) string {
	labels := make([]string, 0, len(missing))
	for _, name := range missing {
		if field, ok := def.Field(name); ok {
			labels = append(labels, translate.FieldLabel(field))
		}
	}

	var b strings.Builder
	if len(problems) > 0 {
		b.WriteString(renderProblems(problems))
		b.WriteString(" ")
	}
	if len(labels) > 0 {
		fmt.Fprintf(&b, "To set up the %s I still need: %s.",
			toolTitle(def.Name), strings.Join(labels, ", "))
	}
	return strings.TrimSpace(b.String())
}

// renderInvalid reports a value outside an enumerated field's options, in
// user vocabulary only.
func (o *Orchestrator) renderInvalid(def tools.Definition, invalid *tools.InvalidEnumError) string {
	field, ok := def.Field(invalid.Field)
	if !ok {
		return "One of the values doesn't match the available options. Could you rephrase?"
	}
	return fmt.Sprintf("%q isn't an option for %s. It can be: %s. Which should it be?",
		invalid.Value, translate.FieldLabel(field), strings.Join(translate.EnumLabels(field), ", "))
}

// renderOutcome reports a terminal invocation.
func (o *Orchestrator) renderOutcome(def tools.Definition, inv *session.Invocation) string {
	title := toolTitle(def.Name)
	if inv.State == session.StateFailed {
		return fmt.Sprintf("I couldn't complete the %s: %s. Your conversation is still active, so feel free to try again.",
			title, inv.FailReason)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Done, the %s went through.", title)
	if inv.Result != nil && len(inv.Result.Data) > 0 {
		keys := make([]string, 0, len(inv.Result.Data))
		for k := range inv.Result.Data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "\n- %s: %s", humanizeKey(def, k), humanizeValue(inv.Result.Data[k]))
		}
	}
	return b.String()
}

// humanizeKey prefers the tool's own label for a result key, falling back to
// mechanical derivation for keys outside the schema (e.g. generated ids).
func humanizeKey(def tools.Definition, key string) string {
	if field, ok := def.Field(key); ok {
		return translate.FieldLabel(field)
	}
	return translate.FieldLabel(tools.Field{Name: key})
}

// humanizeValue rewrites enum-shaped tokens (UPPER_SNAKE_CASE) into words;
// anything else passes through untouched.
func humanizeValue(value string) string {
	if !looksLikeToken(value) {
		return value
	}
	words := strings.Split(value, "_")
	for i, w := range words {
		w = strings.ToLower(w)
		if w != "" {
			w = strings.ToUpper(w[:1]) + w[1:]
		}
		words[i] = w
	}
	return strings.Join(words, " ")
}

func looksLikeToken(value string) bool {
	if !strings.Contains(value, "_") {
		return false
	}
	for _, r := range value {
		if r != '_' && !unicode.IsUpper(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
