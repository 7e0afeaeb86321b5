// Package selector translates a restricted XPath subset into CSS selectors.
//
// The rule author controls both the expressions and the markup they run
// against, so general XPath evaluation is unnecessary: the translator only has
// to be correct for the finite vocabulary a rule may use, and must reject
// everything else rather than mis-translate it.
//
// Supported subset:
//   - descendant ("//") and child ("/") separators, including a leading "./"
//     or ".//" for expressions evaluated relative to an element
//   - tag-name steps
//   - contains(@attr, 'v') predicates -> [attr*="v"]
//   - the class-list idiom contains(concat(' ', @class, ' '), ' v ') -> .v
//   - conjunctive predicates joined with "and"
//   - fixed-index child predicates for an enumerated tag set -> :nth-child(n)
//   - a trailing /text() step (stripped; text is read from the element)
//   - a trailing /@attr step (stripped; the attribute name travels on the rule)
package selector

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrUnsupported marks expressions that use XPath constructs outside the
// supported subset. Callers surface it as a per-rule error.
var ErrUnsupported = errors.New("unsupported xpath construct")

// fixedIndexMax enumerates the tag/index pairs allowed as positional
// predicates. Positions map to :nth-child (structural position among all
// siblings), so widening this table needs markup where that equivalence holds.
var fixedIndexMax = map[string]int{
	"td":   2,
	"tr":   18,
	"font": 2,
}

var (
	reTag          = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9-]*`)
	reAttrName     = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)
	reContainsAttr = regexp.MustCompile(`^contains\(\s*@([A-Za-z_][A-Za-z0-9_-]*)\s*,\s*'([^']*)'\s*\)$`)
	reClassIdiom   = regexp.MustCompile(`^contains\(\s*concat\(\s*' '\s*,\s*@class\s*,\s*' '\s*\)\s*,\s*' (.+) '\s*\)$`)
)

// ToCSS translates expr into an equivalent CSS selector string.
//
// The translation is a pure string transform: the same expression always
// yields the same selector, independent of any document.
func ToCSS(expr string) (string, error) {
	s := strings.TrimSpace(expr)
	if s == "" {
		return "", errors.New("empty xpath expression")
	}

	// A leading "." anchors the expression to the current element; goquery
	// runs selectors relative to the matched node already, so it is dropped.
	if strings.HasPrefix(s, "..") {
		return "", fmt.Errorf("%w: parent axis %q", ErrUnsupported, "..")
	}
	s = strings.TrimPrefix(s, ".")

	steps, err := splitSteps(s)
	if err != nil {
		return "", err
	}
	if len(steps) == 0 {
		return "", errors.New("xpath expression selects nothing")
	}

	// Strip a trailing /text() or /@attr step. Text is always read from the
	// matched element, and the attribute name is carried on the rule itself.
	last := steps[len(steps)-1]
	if last.raw == "text()" || strings.HasPrefix(last.raw, "@") {
		if strings.HasPrefix(last.raw, "@") && !reAttrName.MatchString(last.raw[1:]) {
			return "", fmt.Errorf("invalid attribute step %q", last.raw)
		}
		steps = steps[:len(steps)-1]
		if len(steps) == 0 {
			return "", errors.New("xpath expression selects nothing but a value step")
		}
	}

	var b strings.Builder
	for i, st := range steps {
		css, err := translateStep(st.raw)
		if err != nil {
			return "", err
		}
		if i > 0 {
			if st.descendant {
				b.WriteString(" ")
			} else {
				b.WriteString(" > ")
			}
		}
		b.WriteString(css)
	}
	return b.String(), nil
}

// step is one location step plus the axis that led to it.
type step struct {
	raw        string
	descendant bool
}

// splitSteps splits the expression on '/' separators that are not inside
// predicates or quoted strings. A doubled separator means descendant axis.
func splitSteps(s string) ([]step, error) {
	var steps []step
	var cur strings.Builder
	depth := 0
	inQuote := false
	descendant := true // a bare leading step is a descendant of the root
	pendingSep := 0

	flush := func() error {
		raw := strings.TrimSpace(cur.String())
		cur.Reset()
		if raw == "" {
			return nil
		}
		switch pendingSep {
		case 0, 1, 2:
		default:
			return fmt.Errorf("%w: %q separator", ErrUnsupported, strings.Repeat("/", pendingSep))
		}
		steps = append(steps, step{raw: raw, descendant: descendant})
		return nil
	}

	for _, r := range s {
		switch {
		case inQuote:
			cur.WriteRune(r)
			if r == '\'' {
				inQuote = false
			}
		case r == '\'':
			inQuote = true
			cur.WriteRune(r)
		case r == '[':
			depth++
			cur.WriteRune(r)
		case r == ']':
			depth--
			if depth < 0 {
				return nil, errors.New("unbalanced ']' in xpath expression")
			}
			cur.WriteRune(r)
		case r == '/' && depth == 0:
			if cur.Len() > 0 {
				if err := flush(); err != nil {
					return nil, err
				}
				pendingSep = 0
			}
			pendingSep++
			descendant = pendingSep >= 2
		default:
			cur.WriteRune(r)
		}
	}
	if inQuote {
		return nil, errors.New("unterminated string literal in xpath expression")
	}
	if depth != 0 {
		return nil, errors.New("unbalanced '[' in xpath expression")
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return steps, nil
}

// translateStep converts one location step ("tag[pred][pred]") into CSS.
func translateStep(raw string) (string, error) {
	if strings.Contains(raw, "text()") {
		return "", fmt.Errorf("%w: text() is only supported as the final step", ErrUnsupported)
	}
	if strings.HasPrefix(raw, "@") {
		return "", fmt.Errorf("%w: attribute step %q is only supported at the end", ErrUnsupported, raw)
	}
	if raw == "*" {
		return "", fmt.Errorf("%w: wildcard step", ErrUnsupported)
	}

	tag := reTag.FindString(raw)
	if tag == "" {
		return "", fmt.Errorf("%w: step %q has no tag name", ErrUnsupported, raw)
	}

	rest := raw[len(tag):]
	var b strings.Builder
	b.WriteString(tag)

	for rest != "" {
		if rest[0] != '[' {
			return "", fmt.Errorf("%w: unexpected %q after tag %q", ErrUnsupported, rest, tag)
		}
		end, err := matchBracket(rest)
		if err != nil {
			return "", err
		}
		pred := strings.TrimSpace(rest[1:end])
		rest = rest[end+1:]

		css, err := translatePredicate(tag, pred)
		if err != nil {
			return "", err
		}
		b.WriteString(css)
	}
	return b.String(), nil
}

// matchBracket returns the index of the ']' closing the '[' at position 0,
// honoring nested brackets and quoted strings.
func matchBracket(s string) (int, error) {
	depth := 0
	inQuote := false
	for i, r := range s {
		switch {
		case inQuote:
			if r == '\'' {
				inQuote = false
			}
		case r == '\'':
			inQuote = true
		case r == '[':
			depth++
		case r == ']':
			depth--
			if depth == 0 {
				return i, nil
			}
		}
	}
	return 0, errors.New("unbalanced '[' in predicate")
}

// translatePredicate converts one predicate, which may be a conjunction of
// supported conditions joined by "and".
func translatePredicate(tag, pred string) (string, error) {
	var b strings.Builder
	for _, cond := range splitAnd(pred) {
		css, err := translateCondition(tag, strings.TrimSpace(cond))
		if err != nil {
			return "", err
		}
		b.WriteString(css)
	}
	return b.String(), nil
}

// splitAnd splits on top-level " and " tokens, outside parentheses and quotes.
func splitAnd(s string) []string {
	var parts []string
	depth := 0
	inQuote := false
	start := 0
	for i := 0; i+5 <= len(s); i++ {
		switch {
		case inQuote:
			if s[i] == '\'' {
				inQuote = false
			}
			continue
		case s[i] == '\'':
			inQuote = true
			continue
		case s[i] == '(':
			depth++
			continue
		case s[i] == ')':
			depth--
			continue
		}
		if depth == 0 && s[i:i+5] == " and " {
			parts = append(parts, s[start:i])
			start = i + 5
		}
	}
	parts = append(parts, s[start:])
	return parts
}

func translateCondition(tag, cond string) (string, error) {
	if n, err := strconv.Atoi(cond); err == nil {
		max, ok := fixedIndexMax[tag]
		if !ok || n < 1 || n > max {
			return "", fmt.Errorf("%w: positional predicate %s[%d]", ErrUnsupported, tag, n)
		}
		return fmt.Sprintf(":nth-child(%d)", n), nil
	}

	if m := reClassIdiom.FindStringSubmatch(cond); m != nil {
		classes := strings.Fields(m[1])
		if len(classes) == 0 {
			return "", fmt.Errorf("empty class list in %q", cond)
		}
		return "." + strings.Join(classes, "."), nil
	}

	if m := reContainsAttr.FindStringSubmatch(cond); m != nil {
		return fmt.Sprintf(`[%s*=%s]`, m[1], quoteCSS(m[2])), nil
	}

	return "", fmt.Errorf("%w: predicate %q", ErrUnsupported, cond)
}

// quoteCSS renders v as a double-quoted CSS string.
func quoteCSS(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `"`, `\"`)
	return `"` + v + `"`
}
