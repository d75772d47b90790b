// Package filter evaluates the three-field log filter (severity, category,
// message) against records.
package filter

import (
	"strings"

	"github.com/five82/logdeck/internal/record"
)

// Spec is the user-entered filter. Each field is a comma-separated list of
// terms; a leading '!' excludes and, for severity only, a leading '>' selects
// that severity or anything more urgent. An empty field matches everything.
type Spec struct {
	Severity string `toml:"severity"`
	Category string `toml:"category"`
	Message  string `toml:"message"`
}

// IsZero reports whether no field constrains anything.
func (s Spec) IsZero() bool {
	return strings.TrimSpace(s.Severity) == "" &&
		strings.TrimSpace(s.Category) == "" &&
		strings.TrimSpace(s.Message) == ""
}

// Patch is a partial Spec update; nil fields are left unchanged.
type Patch struct {
	Severity *string
	Category *string
	Message  *string
}

// Apply returns s with the non-nil fields of p replaced.
func (s Spec) Apply(p Patch) Spec {
	if p.Severity != nil {
		s.Severity = *p.Severity
	}
	if p.Category != nil {
		s.Category = *p.Category
	}
	if p.Message != nil {
		s.Message = *p.Message
	}
	return s
}

type matchMode int

const (
	matchSubstring matchMode = iota
	matchSeverity
)

type term struct {
	text      string
	threshold bool
	rank      int
	known     bool
}

type fieldMatcher struct {
	mode     matchMode
	includes []term
	excludes []term
}

// Predicate is a compiled Spec. The zero value matches every record.
type Predicate struct {
	severity fieldMatcher
	category fieldMatcher
	message  fieldMatcher
}

// Compile parses spec into a reusable Predicate.
func Compile(spec Spec) Predicate {
	return Predicate{
		severity: compileField(spec.Severity, matchSeverity),
		category: compileField(spec.Category, matchSubstring),
		message:  compileField(spec.Message, matchSubstring),
	}
}

// Passes reports whether r satisfies spec.
func Passes(r record.Record, spec Spec) bool {
	return Compile(spec).Match(r)
}

// Match reports whether r satisfies every field of the predicate.
func (p Predicate) Match(r record.Record) bool {
	return p.severity.match(r.Severity) &&
		p.category.match(r.Category) &&
		p.message.match(r.Message)
}

func compileField(raw string, mode matchMode) fieldMatcher {
	fm := fieldMatcher{mode: mode}
	for _, part := range strings.Split(raw, ",") {
		text := strings.TrimSpace(part)
		if text == "" {
			continue
		}
		exclude := false
		if rest, ok := strings.CutPrefix(text, "!"); ok {
			exclude = true
			text = strings.TrimSpace(rest)
		}
		t, ok := compileTerm(text, mode)
		if !ok {
			continue
		}
		if exclude {
			fm.excludes = append(fm.excludes, t)
		} else {
			fm.includes = append(fm.includes, t)
		}
	}
	return fm
}

func compileTerm(text string, mode matchMode) (term, bool) {
	if mode == matchSeverity {
		if name, ok := strings.CutPrefix(text, ">"); ok {
			name = strings.TrimSpace(name)
			if name == "" {
				return term{}, false
			}
			rank, known := SeverityRank(name)
			return term{text: strings.ToLower(name), threshold: true, rank: rank, known: known}, true
		}
	}
	if text == "" {
		return term{}, false
	}
	return term{text: strings.ToLower(text)}, true
}

func (fm fieldMatcher) match(value string) bool {
	if len(fm.includes) == 0 && len(fm.excludes) == 0 {
		return true
	}
	folded := strings.ToLower(value)
	for _, t := range fm.excludes {
		if fm.matchTerm(folded, t) {
			return false
		}
	}
	if len(fm.includes) == 0 {
		return true
	}
	for _, t := range fm.includes {
		if fm.matchTerm(folded, t) {
			return true
		}
	}
	return false
}

func (fm fieldMatcher) matchTerm(folded string, t term) bool {
	if fm.mode == matchSubstring {
		return strings.Contains(folded, t.text)
	}
	if t.threshold {
		if !t.known {
			return false
		}
		rank, ok := SeverityRank(folded)
		return ok && rank >= t.rank
	}
	return folded == t.text
}
