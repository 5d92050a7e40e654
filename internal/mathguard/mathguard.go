// Package mathguard reversibly hides embedded math notation behind opaque
// placeholder tokens so structural parsing never has to reason about
// brackets, digits or letters that live inside an expression. A Table is
// scoped to one protect/restore pair; two concurrent imports never share
// placeholder indices.
package mathguard

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Emphasis markers replace bold/emphasis wrappers before math is hidden.
// They exist only between Protect and Restore and carry exactly one
// meaning: "this content marks the correct option".
const (
	EmphOpen  = "\x02"
	EmphClose = "\x03"
)

// Pad separates a placeholder from an adjacent letter or digit so that
// boundary regexes downstream cannot fuse with a placeholder. Restore
// removes it, keeping the round trip exact.
const Pad = "\x1c"

var (
	artifacts = strings.NewReplacer(
		"\\'", "'",
		"’", "'", "‘", "'", "`", "'",
		"“", `"`, "”", `"`,
	)

	emphRes = []*regexp.Regexp{
		regexp.MustCompile(`\\(?:textbf|mathbf|bm|emph)\{([^{}]*)\}`),
		regexp.MustCompile(`\*\*([^*]+)\*\*`),
		regexp.MustCompile(`__([^_]+)__`),
		regexp.MustCompile(`(?is)<(?:b|strong)>(.*?)</(?:b|strong)>`),
	}

	// All delimiter conventions in one alternation; $$ before $ so block
	// math is not split into two empty inline spans. Single-dollar spans
	// must not start or end with whitespace, which keeps prose like
	// "$5 and $6" out of the table.
	spanRe = regexp.MustCompile(`(?s)\\\[.*?\\\]|\\\(.*?\\\)|\$\$.*?\$\$|\$(?:[^\s$][^$\n]*[^\s$]|[^\s$])\$`)

	// An option letter stranded inside a math span, right after a digit or
	// a closing brace/bracket/paren.
	bleedRe = regexp.MustCompile(`([0-9}\)\]])\s*([A-H][\.\)])`)

	tokenRe   = regexp.MustCompile(`@@MATH:(\d+)@@`)
	padBefore = regexp.MustCompile(`([A-Za-z0-9])(@@MATH:\d+@@)`)
	padAfter  = regexp.MustCompile(`(@@MATH:\d+@@)([A-Za-z0-9])`)
)

// Table is the request-scoped placeholder side table.
type Table struct {
	spans []string
}

// Len reports how many spans were hidden.
func (t *Table) Len() int { return len(t.spans) }

// Protect hides every well-formed math span in text behind an indexed
// placeholder and returns the rewritten text plus the side table needed to
// undo it. Malformed spans (unbalanced delimiters) match nothing and are
// left in place; they degrade to a review flag downstream instead of an
// error here.
func Protect(text string) (string, *Table) {
	t := &Table{}
	out := artifacts.Replace(text)
	for _, re := range emphRes {
		out = re.ReplaceAllString(out, EmphOpen+"$1"+EmphClose)
	}
	out = spanRe.ReplaceAllStringFunc(out, t.hideSpan)
	out = padBefore.ReplaceAllString(out, "$1"+Pad+"$2")
	out = padAfter.ReplaceAllString(out, "$1"+Pad+"$2")
	return out, t
}

// hideSpan stores one matched span and emits its placeholder. Two signals
// must stay visible outside the opaque token: emphasis markers (moved to
// wrap the placeholder, since they are the correctness signal) and any
// option-boundary token an author accidentally wrote inside the expression
// (the span is split before the token and a new span reopened after it).
func (t *Table) hideSpan(span string) string {
	open, close := delimiters(span)
	body := span[len(open) : len(span)-len(close)]

	emphasized := strings.Contains(body, EmphOpen) || strings.Contains(body, EmphClose)
	if emphasized {
		body = strings.NewReplacer(EmphOpen, "", EmphClose, "").Replace(body)
	}

	var out string
	if loc := bleedRe.FindStringSubmatchIndex(body); loc != nil {
		left := body[:loc[3]] // up to and including the digit/brace
		token := body[loc[4]:loc[5]]
		rest := body[loc[5]:]

		out = t.add(open+left+close) + " " + token
		if strings.TrimSpace(rest) != "" {
			out += " " + t.hideSpan(open+rest+close)
		}
	} else {
		out = t.add(open + body + close)
	}
	if emphasized {
		out = EmphOpen + out + EmphClose
	}
	return out
}

func (t *Table) add(span string) string {
	t.spans = append(t.spans, span)
	return fmt.Sprintf("@@MATH:%d@@", len(t.spans)-1)
}

func delimiters(span string) (open, close string) {
	switch {
	case strings.HasPrefix(span, `\[`):
		return `\[`, `\]`
	case strings.HasPrefix(span, `\(`):
		return `\(`, `\)`
	case strings.HasPrefix(span, "$$"):
		return "$$", "$$"
	default:
		return "$", "$"
	}
}

// Restore substitutes every placeholder in fragment with its original span
// and strips the transient markers. Restore(Protect(text)) == text for any
// input whose math spans are well-formed.
func (t *Table) Restore(fragment string) string {
	out := tokenRe.ReplaceAllStringFunc(fragment, func(tok string) string {
		n, err := strconv.Atoi(tokenRe.FindStringSubmatch(tok)[1])
		if err != nil || n < 0 || n >= len(t.spans) {
			return tok
		}
		return t.spans[n]
	})
	return StripMarkers(out)
}

// StripMarkers drops emphasis and padding markers. Emphasis is consumed as
// a correctness signal only and must never reach a reader.
func StripMarkers(s string) string {
	r := strings.NewReplacer(EmphOpen, "", EmphClose, "", Pad, "")
	return r.Replace(s)
}
