package service

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// placeholderPattern matches a sigil followed by a placeholder name, e.g. §current or $goal.
var placeholderPattern = regexp.MustCompile(`[§$]([A-Za-z_]+)`)

var lineBreakPattern = regexp.MustCompile(`(?i)<br\s*/?>`)

// TemplateValues are the values a success text may reference.
type TemplateValues struct {
	Current  string
	Goal     string
	Deadline string
}

// placeholders is the closed set of names a template may use. Either sigil works
// for every name.
var placeholders = map[string]func(TemplateValues) string{
	"current":  func(v TemplateValues) string { return v.Current },
	"goal":     func(v TemplateValues) string { return v.Goal },
	"deadline": func(v TemplateValues) string { return v.Deadline },
}

// RenderTemplate substitutes known placeholders. Unknown names are left verbatim,
// and a name only matches as a whole word, so "$goals" stays untouched.
func RenderTemplate(text string, values TemplateValues) string {
	return placeholderPattern.ReplaceAllStringFunc(text, func(match string) string {
		name := placeholderPattern.FindStringSubmatch(match)[1]
		resolve, ok := placeholders[name]
		if !ok {
			return match
		}
		return resolve(values)
	})
}

// FormatNumber renders whole numbers without a fractional part and everything
// else as the shortest decimal that round-trips.
func FormatNumber(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// NormalizeLineBreaks turns legacy <br> markers into newlines.
func NormalizeLineBreaks(text string) string {
	return lineBreakPattern.ReplaceAllString(text, "\n")
}

func roundDiff(v float64) float64 {
	r := math.Round(v*1e6) / 1e6
	if r == 0 {
		return 0
	}
	return r
}

func normalizeKeyword(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
