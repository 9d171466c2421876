package grading

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Matcher names accepted in short-answer grader rules.
const (
	MatcherCaseInsensitive = "case_insensitive"
	MatcherRegex           = "regex"
	MatcherNumeric         = "numeric"
)

// Matcher tests a student response against one expected answer. Matchers are
// compiled from the authored rule once, at configuration-parse time, so a bad
// pattern fails the upload instead of a grading request.
type Matcher interface {
	Matches(actual string) bool
}

// NewMatcher builds the named matcher for an expected answer. An empty name
// means case_insensitive.
func NewMatcher(name, expected string) (Matcher, error) {
	switch name {
	case MatcherCaseInsensitive, "":
		return caseInsensitiveMatcher{want: strings.ToLower(expected)}, nil
	case MatcherRegex:
		re, err := compilePattern(expected)
		if err != nil {
			return nil, fmt.Errorf("regex matcher %q: %w", expected, err)
		}
		return regexMatcher{re: re}, nil
	case MatcherNumeric:
		want, ok := toNumber(expected)
		return numericMatcher{want: want, valid: ok}, nil
	default:
		return nil, fmt.Errorf("unknown matcher %q", name)
	}
}

type caseInsensitiveMatcher struct{ want string }

func (m caseInsensitiveMatcher) Matches(actual string) bool {
	return strings.ToLower(actual) == m.want
}

type regexMatcher struct{ re *regexp.Regexp }

func (m regexMatcher) Matches(actual string) bool { return m.re.MatchString(actual) }

// numericMatcher compares exact float equality after parsing. A response that
// does not parse is a no-match; so is an expected answer that never parsed
// (authoring slip, kept silent to mirror how the checkers behave in the wild).
type numericMatcher struct {
	want  float64
	valid bool
}

func (m numericMatcher) Matches(actual string) bool {
	if !m.valid {
		return false
	}
	got, ok := toNumber(actual)
	return ok && got == m.want
}

// compilePattern accepts either a bare pattern ("a.*c") or the
// delimiter-wrapped form with trailing flag letters ("/a.*c/i"). Of the flags,
// i and m translate to pattern modifiers; g has no meaning for a single match
// and is ignored.
func compilePattern(expr string) (*regexp.Regexp, error) {
	if len(expr) >= 2 && strings.HasPrefix(expr, "/") {
		if end := strings.LastIndex(expr, "/"); end > 0 {
			pat, flags := expr[1:end], expr[end+1:]
			if validFlags(flags) {
				mods := ""
				if strings.ContainsRune(flags, 'i') {
					mods += "i"
				}
				if strings.ContainsRune(flags, 'm') {
					mods += "m"
				}
				if mods != "" {
					pat = "(?" + mods + ")" + pat
				}
				return regexp.Compile(pat)
			}
		}
	}
	return regexp.Compile(expr)
}

func validFlags(s string) bool {
	for _, r := range s {
		switch r {
		case 'i', 'g', 'm':
		default:
			return false
		}
	}
	return true
}

func toNumber(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
