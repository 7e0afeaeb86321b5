// Package extract evaluates a rule configuration against a parsed HTML
// document and produces a JSON-ready result.
//
// Each rule carries a path expression that is translated to a CSS selector
// before matching. A failing rule is recorded as one error string and its
// value set to null; sibling rules keep evaluating.
package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"xpath2json/internal/calendar"
	"xpath2json/internal/config"
	"xpath2json/internal/ordered"
	"xpath2json/internal/projector"
	"xpath2json/internal/selector"
)

// Evaluator runs rule configurations against one document.
type Evaluator struct {
	doc    *goquery.Document
	days   projector.DayItemSource
	clock  projector.Clock
	logger *zap.Logger
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithDayItemSource overrides the calendar lookup used by iterated rules and
// by month expansion during projection.
func WithDayItemSource(src projector.DayItemSource) Option {
	return func(e *Evaluator) { e.days = src }
}

// WithClock overrides the clock forwarded to the projector.
func WithClock(c projector.Clock) Option {
	return func(e *Evaluator) { e.clock = c }
}

// WithLogger attaches a logger for per-rule diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(e *Evaluator) { e.logger = l }
}

// New builds an Evaluator over doc. By default the day/item lookup is a
// calendar resolver over the same document with standard settings.
func New(doc *goquery.Document, opts ...Option) *Evaluator {
	e := &Evaluator{
		doc:    doc,
		clock:  projector.SystemClock,
		logger: zap.NewNop(),
	}
	for _, apply := range opts {
		apply(e)
	}
	if e.days == nil {
		e.days = calendar.New(doc, calendar.WithLogger(e.logger))
	}
	return e
}

// Run evaluates every top-level rule in declaration order, then projects the
// raw values through the configuration's output template when one is present.
//
// Rule failures never abort the run; each contributes one entry to
// Result.Errors and a null value under its rule name. Duplicate rule names at
// the same level silently overwrite earlier values.
func (e *Evaluator) Run(cfg *config.Config) *Result {
	raw := ordered.NewObject()
	errs := []string{}

	for _, rule := range cfg.Rules {
		e.evalRule(rule, raw, &errs)
	}

	res := &Result{ConfigName: cfg.Name, Errors: errs}
	if cfg.OutputSample != nil {
		p := projector.New(raw,
			projector.WithDayItemSource(e.days),
			projector.WithClock(e.clock))
		res.Data = p.Project(cfg.OutputSample)
	} else {
		res.Data = raw
	}
	return res
}

// evalRule evaluates one rule and stores its value in raw. Errors are
// appended to errs tagged with the rule name, and the value becomes null.
func (e *Evaluator) evalRule(rule *config.Rule, raw *ordered.Object, errs *[]string) {
	var (
		val any
		err error
	)
	switch rule.Nesting() {
	case config.NestForEach:
		err = e.evalForEach(rule, raw)
		if err == nil {
			return
		}
	default:
		val, err = e.evalSelect(rule, e.doc.Selection)
	}

	if err != nil {
		e.logger.Warn("rule failed",
			zap.String("rule", rule.Name),
			zap.Error(err))
		*errs = append(*errs, fmt.Sprintf("rule %q: %v", rule.Name, err))
		raw.Set(rule.Name, nil)
		return
	}

	e.logger.Debug("rule evaluated", zap.String("rule", rule.Name))
	raw.Set(rule.Name, val)
}

// evalForEach handles the iterated nesting style. The rule named "months"
// takes the calendar path: its own selection is stored under "months", the
// iterated sub-rule's values under "days" (always as a sequence, so a
// single-day document still projects through the day placeholders), and when
// a per-item sub-rule is present, the day-to-items association under
// "day_items". Other iterated rules store the per-item result arrays under
// their own name.
func (e *Evaluator) evalForEach(rule *config.Rule, raw *ordered.Object) error {
	items, err := e.evalSelect(rule.ForEachItem, e.doc.Selection)
	if err != nil {
		return err
	}
	seq := asSequence(items)

	if rule.Name == "months" {
		own, err := e.evalSelect(rule, e.doc.Selection)
		if err != nil {
			return err
		}
		raw.Set("months", own)
		raw.Set("days", seq)
		if rule.EffectiveMapItem() != nil {
			raw.Set("day_items", e.dayItemsFor(seq))
		}
		return nil
	}

	if rule.EffectiveMapItem() == nil {
		raw.Set(rule.Name, items)
		return nil
	}

	mapped := make([]any, 0, len(seq))
	for _, item := range seq {
		key, ok := item.(string)
		if !ok {
			mapped = append(mapped, []any{})
			continue
		}
		mapped = append(mapped, toAnySlice(e.days.ItemsForDay(strings.TrimSpace(key))))
	}
	raw.Set(rule.Name, mapped)
	return nil
}

// dayItemsFor builds the day-label to item-array mapping used by projection.
func (e *Evaluator) dayItemsFor(days []any) *ordered.Object {
	out := ordered.NewObject()
	for _, d := range days {
		label, ok := d.(string)
		if !ok {
			continue
		}
		label = strings.TrimSpace(label)
		if label == "" {
			continue
		}
		out.Set(label, toAnySlice(e.days.ItemsForDay(label)))
	}
	return out
}

// evalSelect translates the rule's path expression, matches it relative to
// root and extracts per the rule's kind.
//
// Semantics:
//   - Text: trimmed element text per match; empty strings are dropped.
//   - Attribute: the named attribute per match; elements missing it are skipped.
//   - Html: the inner markup per match.
//   - Count: the match count, always a single integer.
//   - Object: one object per match, built from the child rules scoped to
//     that element's subtree.
//
// All kinds except Count collapse cardinality: zero values become null, one
// value its scalar, several an array in document order.
func (e *Evaluator) evalSelect(rule *config.Rule, root *goquery.Selection) (any, error) {
	css, err := selector.ToCSS(rule.XPath)
	if err != nil {
		return nil, err
	}
	sel := root.Find(css)

	switch rule.Extract {
	case config.KindText:
		var vals []any
		sel.Each(func(_ int, s *goquery.Selection) {
			if t := strings.TrimSpace(s.Text()); t != "" {
				vals = append(vals, t)
			}
		})
		return collapse(vals), nil

	case config.KindAttribute:
		if rule.Attribute == "" {
			return nil, fmt.Errorf("attribute extraction without an attribute name")
		}
		var vals []any
		sel.Each(func(_ int, s *goquery.Selection) {
			if v, ok := s.Attr(rule.Attribute); ok {
				vals = append(vals, v)
			}
		})
		return collapse(vals), nil

	case config.KindHTML:
		var vals []any
		sel.Each(func(_ int, s *goquery.Selection) {
			h, err := s.Html()
			if err != nil {
				return
			}
			vals = append(vals, h)
		})
		return collapse(vals), nil

	case config.KindCount:
		return sel.Length(), nil

	case config.KindObject:
		if len(rule.Children) == 0 {
			return nil, fmt.Errorf("object extraction requires child rules")
		}
		var vals []any
		var childErr error
		sel.Each(func(_ int, s *goquery.Selection) {
			if childErr != nil {
				return
			}
			obj := ordered.NewObject()
			for _, child := range rule.Children {
				v, err := e.evalSelect(child, s)
				if err != nil {
					childErr = fmt.Errorf("child %q: %w", child.Name, err)
					return
				}
				obj.Set(child.Name, v)
			}
			vals = append(vals, obj)
		})
		if childErr != nil {
			return nil, childErr
		}
		return collapse(vals), nil

	default:
		return nil, fmt.Errorf("unknown extract kind %q", rule.Extract)
	}
}

// collapse applies the cardinality rule: no values is null, one value the
// scalar itself, several the array in match order.
func collapse(vals []any) any {
	switch len(vals) {
	case 0:
		return nil
	case 1:
		return vals[0]
	default:
		return vals
	}
}

// asSequence wraps a scalar into a one-element sequence. Null stays empty.
func asSequence(v any) []any {
	switch t := v.(type) {
	case nil:
		return nil
	case []any:
		return t
	default:
		return []any{t}
	}
}

func toAnySlice(ss []string) []any {
	out := make([]any, 0, len(ss))
	for _, s := range ss {
		out = append(out, s)
	}
	return out
}
