package config

import "fmt"

// Severity grades a validation finding.
type Severity string

const (
	// SeverityError findings abort the run before evaluation starts.
	SeverityError Severity = "error"
	// SeverityWarning findings are reported but do not block the run; the
	// evaluator degrades per rule instead.
	SeverityWarning Severity = "warning"
)

// Issue is one validation finding, addressed by a dotted path into the config.
type Issue struct {
	Severity Severity
	Path     string
	Message  string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue has error severity.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Validate checks the structural invariants of a configuration.
//
// Errors (fatal to the run):
//   - empty config name, no rules, unnamed rules, empty selector expressions
//   - both children and for-each-item on one rule (exactly one nesting style)
//   - attribute extraction without an attribute name
//   - an extraction kind outside the closed set (possible when a Config is
//     built in code rather than decoded)
//
// Warnings (run continues; the evaluator reports per-rule failures):
//   - an object rule without children
//   - children on a non-object rule (they are ignored)
//   - map-item without a for-each-item to iterate
//   - duplicate rule names within one sibling scope (last write wins)
func Validate(c *Config) []Issue {
	var issues []Issue

	if c.Name == "" {
		issues = append(issues, Issue{SeverityError, "name", "configuration name is required"})
	}
	if len(c.Rules) == 0 {
		issues = append(issues, Issue{SeverityError, "rules", "configuration has no rules"})
	}
	issues = append(issues, validateScope(c.Rules, "rules")...)
	return issues
}

// validateScope validates one sibling scope, including the duplicate-name check.
func validateScope(rules []*Rule, path string) []Issue {
	var issues []Issue
	seen := make(map[string]bool, len(rules))

	for i, r := range rules {
		p := fmt.Sprintf("%s[%d]", path, i)
		if r == nil {
			issues = append(issues, Issue{SeverityError, p, "rule is null"})
			continue
		}
		if r.Name != "" && seen[r.Name] {
			issues = append(issues, Issue{SeverityWarning, p,
				fmt.Sprintf("duplicate rule name %q in this scope; the later rule overwrites the earlier result", r.Name)})
		}
		seen[r.Name] = true
		issues = append(issues, validateRule(r, p, false)...)
	}
	return issues
}

// validateRule checks one rule. iterated is true when r is the target of a
// for-each-item, where a nested map-item is the supported compatibility form.
func validateRule(r *Rule, path string, iterated bool) []Issue {
	var issues []Issue

	if r.Name == "" {
		issues = append(issues, Issue{SeverityError, path, "rule name is required"})
	}
	if r.XPath == "" {
		issues = append(issues, Issue{SeverityError, path, "xpath expression is required"})
	}
	if !r.Extract.Valid() {
		issues = append(issues, Issue{SeverityError, path,
			fmt.Sprintf("unknown extract_type %q", string(r.Extract))})
	}

	if r.Extract == KindAttribute && r.Attribute == "" {
		issues = append(issues, Issue{SeverityError, path,
			"extract_type \"attribute\" requires an attribute name"})
	}
	if r.Extract != KindAttribute && r.Attribute != "" {
		issues = append(issues, Issue{SeverityWarning, path,
			"attribute is ignored unless extract_type is \"attribute\""})
	}

	if len(r.Children) > 0 && r.ForEachItem != nil {
		issues = append(issues, Issue{SeverityError, path,
			"children and for-each-item are mutually exclusive; a rule has exactly one nesting style"})
	}
	if r.Extract == KindObject && len(r.Children) == 0 {
		issues = append(issues, Issue{SeverityWarning, path,
			"object rule has no children; it will fail at evaluation time"})
	}
	if r.Extract != KindObject && len(r.Children) > 0 {
		issues = append(issues, Issue{SeverityWarning, path,
			"children are ignored unless extract_type is \"object\""})
	}
	if r.MapItem != nil && r.ForEachItem == nil && !iterated {
		issues = append(issues, Issue{SeverityWarning, path,
			"map-item has no for-each-item to iterate; it is ignored"})
	}

	if len(r.Children) > 0 {
		issues = append(issues, validateScope(r.Children, path+".children")...)
	}
	if r.ForEachItem != nil {
		issues = append(issues, validateRule(r.ForEachItem, path+".for-each-item", true)...)
	}
	if r.MapItem != nil {
		issues = append(issues, validateRule(r.MapItem, path+".map-item", false)...)
	}
	return issues
}
