// Package config defines the declarative rule configuration: what to select
// from a document and how to shape the output. It owns loading (JSON or YAML),
// the closed extraction-kind enum, nesting-mode derivation, and structural
// validation.
package config

import (
	"encoding/json"
	"fmt"

	"xpath2json/internal/ordered"
)

// ExtractKind controls what is read from a matched element.
//
// The set is closed: adding a kind is a reviewed code change, not data.
type ExtractKind string

const (
	KindText      ExtractKind = "text"
	KindAttribute ExtractKind = "attribute"
	KindHTML      ExtractKind = "html"
	KindCount     ExtractKind = "count"
	KindObject    ExtractKind = "object"
)

// Valid reports whether k is a member of the closed kind set.
func (k ExtractKind) Valid() bool {
	switch k {
	case KindText, KindAttribute, KindHTML, KindCount, KindObject:
		return true
	}
	return false
}

// UnmarshalJSON rejects kinds outside the closed set at decode time, so a typo
// in a configuration surfaces as a parse error rather than a silent no-op.
func (k *ExtractKind) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v := ExtractKind(s)
	if !v.Valid() {
		return fmt.Errorf("unknown extract_type %q", s)
	}
	*k = v
	return nil
}

// NestingMode describes which nesting style drives a rule.
type NestingMode int

const (
	// NestNone means the rule stands alone.
	NestNone NestingMode = iota
	// NestChildren means child rules are evaluated per matched element.
	NestChildren
	// NestForEach means the for-each-item rule's result is iterated.
	NestForEach
)

// Rule is one node of the extraction rule tree.
type Rule struct {
	// Name identifies the rule; it becomes the key in the raw data store.
	// Names must be unique within a sibling scope; a duplicate silently
	// overwrites the earlier entry (last write wins) and validation flags it.
	Name string `json:"name"`

	// XPath is the selector expression, restricted to the subset the
	// translator supports (see internal/selector).
	XPath string `json:"xpath"`

	// Extract selects the extraction kind for matched elements.
	Extract ExtractKind `json:"extract_type"`

	// Attribute names the attribute to read; required when Extract is
	// KindAttribute and meaningless otherwise.
	Attribute string `json:"attribute,omitempty"`

	// IterateOver is accepted for compatibility with existing configurations.
	// No evaluation semantics are defined for it.
	IterateOver string `json:"iterate_over,omitempty"`

	// Children are evaluated relative to each matched element when Extract is
	// KindObject. The wire format also accepts "fields" as an alias.
	Children []*Rule `json:"children,omitempty"`

	// ForEachItem, when set, is evaluated first and its result iterated.
	ForEachItem *Rule `json:"for-each-item,omitempty"`

	// MapItem is applied per iterated item. It may be declared on the rule
	// itself or nested inside ForEachItem; EffectiveMapItem resolves both.
	MapItem *Rule `json:"map-item,omitempty"`
}

// UnmarshalJSON accepts "fields" as an alias for "children".
func (r *Rule) UnmarshalJSON(b []byte) error {
	type plain Rule
	aux := struct {
		*plain
		Fields []*Rule `json:"fields"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if r.Children == nil {
		r.Children = aux.Fields
	}
	return nil
}

// Nesting derives the rule's nesting mode. ForEachItem wins when both styles
// are present, but Validate reports that configuration as an error before the
// evaluator ever sees it.
func (r *Rule) Nesting() NestingMode {
	switch {
	case r.ForEachItem != nil:
		return NestForEach
	case len(r.Children) > 0:
		return NestChildren
	default:
		return NestNone
	}
}

// EffectiveMapItem returns the map-item rule governing iteration: the rule's
// own MapItem, or the one nested inside its ForEachItem rule.
func (r *Rule) EffectiveMapItem() *Rule {
	if r.MapItem != nil {
		return r.MapItem
	}
	if r.ForEachItem != nil {
		return r.ForEachItem.MapItem
	}
	return nil
}

// Config is a complete rule configuration.
type Config struct {
	// Name labels the configuration; it is echoed into the result.
	Name string

	// Description is free text for humans.
	Description string

	// OutputSample, when present, is the projection template: arbitrary JSON
	// decoded with key order preserved (objects are *ordered.Object).
	OutputSample any

	// Rules are the top-level extraction rules, in declaration order.
	Rules []*Rule
}

// UnmarshalJSON decodes the config, parsing output_sample into ordered values
// so template object keys keep their declared order.
func (c *Config) UnmarshalJSON(b []byte) error {
	aux := struct {
		Name         string          `json:"name"`
		Description  string          `json:"description"`
		OutputSample json.RawMessage `json:"output_sample"`
		Rules        []*Rule         `json:"rules"`
	}{}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	c.Name = aux.Name
	c.Description = aux.Description
	c.Rules = aux.Rules
	c.OutputSample = nil

	if len(aux.OutputSample) > 0 && string(aux.OutputSample) != "null" {
		v, err := ordered.Unmarshal(aux.OutputSample)
		if err != nil {
			return fmt.Errorf("parse output_sample: %w", err)
		}
		c.OutputSample = v
	}
	return nil
}
