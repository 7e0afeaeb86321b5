// Package projector renders an output-shape template against evaluated rule
// results. The template is arbitrary JSON; strings of the form "{identifier}"
// (keys included) are resolved against the raw data store, and a few reserved
// identifiers trigger month expansion, day-range expansion, indexed-day
// lookup and current-date substitution.
//
// Projection never fails: every branch has a defined fallback, and an
// unresolved placeholder passes its literal text through.
package projector

import (
	"sort"
	"strconv"
	"strings"

	"xpath2json/internal/ordered"
)

// DayItemSource answers day → items lookups, optionally scoped to a month's
// calendar table. It is consulted by month expansion to rebuild the day_items
// mapping per month.
type DayItemSource interface {
	ItemsForDay(day string) []string
	ItemsForDayInMonth(day, month string) []string
}

// monthIndex orders month-name tokens chronologically. Unknown names sort last.
var monthIndex = map[string]int{
	"January": 0, "February": 1, "March": 2, "April": 3,
	"May": 4, "June": 5, "July": 6, "August": 7,
	"September": 8, "October": 9, "November": 10, "December": 11,
}

// Projector renders templates against one raw data store.
type Projector struct {
	data  *ordered.Object
	days  DayItemSource
	clock Clock
}

// Option configures a Projector.
type Option func(*Projector)

// WithClock overrides the clock used by the current-date placeholders.
func WithClock(c Clock) Option {
	return func(p *Projector) { p.clock = c }
}

// WithDayItemSource supplies the day → items lookup used by month expansion.
// Without one, month expansion keeps the unfiltered day_items mapping.
func WithDayItemSource(src DayItemSource) Option {
	return func(p *Projector) { p.days = src }
}

// New builds a Projector over data. A nil data store acts as empty.
func New(data *ordered.Object, opts ...Option) *Projector {
	if data == nil {
		data = ordered.NewObject()
	}
	p := &Projector{data: data, clock: SystemClock}
	for _, apply := range opts {
		apply(p)
	}
	return p
}

// Project renders the template. The input is never mutated; the output shares
// no object containers with the template.
func (p *Projector) Project(template any) any {
	return p.projectValue(template)
}

func (p *Projector) projectValue(t any) any {
	switch v := t.(type) {
	case *ordered.Object:
		return p.projectObject(v)
	case []any:
		return p.projectArray(v)
	case string:
		return p.projectString(v)
	default:
		// Numbers, booleans and null are literal output.
		return t
	}
}

// projectObject walks the entries in template order. Expansion keys (months,
// day ranges) rewrite the output shape; everything else resolves key and value
// independently.
func (p *Projector) projectObject(obj *ordered.Object) *ordered.Object {
	out := ordered.NewObject()
	for _, key := range obj.Keys() {
		val, _ := obj.Get(key)
		ph := parsePlaceholder(key)

		switch ph.kind {
		case phMonths:
			if p.expandMonths(out, val) {
				continue
			}
		case phDayRange:
			p.expandDayRange(out, ph.from, ph.to)
			continue
		case phDayIndex:
			out.Set(p.resolveKey(key), p.dayItemsAt(ph.from))
			continue
		}

		out.Set(p.resolveKey(key), p.projectValue(val))
	}
	return out
}

// expandMonths projects the sub-template once per month, in chronological
// order, under the month name as key. Each month gets a scoped copy of the
// data store whose day_items mapping is rebuilt against that month's table.
//
// It reports false when the months value is not an array, in which case the
// caller falls back to plain key/value projection.
func (p *Projector) expandMonths(out *ordered.Object, tmpl any) bool {
	monthsVal, _ := p.data.Get("months")
	arr, ok := monthsVal.([]any)
	if !ok {
		return false
	}

	entries := make([]string, 0, len(arr))
	for _, m := range arr {
		if s, ok := m.(string); ok {
			entries = append(entries, s)
		}
	}
	sortMonths(entries)

	for _, entry := range entries {
		name := firstField(entry)
		if name == "" {
			continue
		}

		scoped := p.data.Clone()
		if di, ok := p.data.Get("day_items"); ok && p.days != nil {
			if diObj, ok := di.(*ordered.Object); ok {
				scoped.Set("day_items", p.monthDayItems(diObj, monthLabel(entry)))
			}
		}

		sub := &Projector{data: scoped, days: p.days, clock: p.clock}
		out.Set(name, sub.projectValue(tmpl))
	}
	return true
}

// monthDayItems rebuilds the day → items mapping restricted to one month.
func (p *Projector) monthDayItems(dayItems *ordered.Object, month string) *ordered.Object {
	filtered := ordered.NewObject()
	for _, day := range dayItems.Keys() {
		items := p.days.ItemsForDayInMonth(day, month)
		vals := make([]any, 0, len(items))
		for _, it := range items {
			vals = append(vals, it)
		}
		filtered.Set(day, vals)
	}
	return filtered
}

// expandDayRange merges one entry per day in [from, to] into the parent
// object, replacing the template's own key. Day 0 is skipped. Days without a
// precomputed day_items entry get an empty array.
func (p *Projector) expandDayRange(out *ordered.Object, from, to int) {
	dayItems, _ := p.data.Get("day_items")
	diObj, _ := dayItems.(*ordered.Object)

	for i := from; i <= to; i++ {
		if i == 0 {
			continue
		}
		key := strconv.Itoa(i)
		if diObj != nil {
			if v, ok := diObj.Get(key); ok {
				out.Set(key, v)
				continue
			}
		}
		out.Set(key, []any{})
	}
}

// dayItemsAt returns the item slice for the Nth day in the days array. It
// prefers the precomputed day_items entry for that day's label and falls back
// to an even split of the flat items array, with the last day absorbing the
// remainder. The fallback is a known approximation: it does not guarantee
// items land on their true originating day under non-uniform layouts.
func (p *Projector) dayItemsAt(n int) []any {
	days := p.stringArray("days")
	if n < 0 || n >= len(days) {
		return []any{}
	}

	label := strings.TrimSpace(days[n])
	if di, ok := p.data.Get("day_items"); ok {
		if diObj, ok := di.(*ordered.Object); ok {
			if v, ok := diObj.Get(label); ok {
				if arr, ok := v.([]any); ok {
					return arr
				}
			}
		}
	}

	items := p.anyArray("items")
	if len(items) == 0 {
		return []any{}
	}
	per := len(items) / len(days)
	start := n * per
	end := start + per
	if n == len(days)-1 {
		end = len(items)
	}
	if start > len(items) {
		return []any{}
	}
	out := make([]any, end-start)
	copy(out, items[start:end])
	return out
}

// projectArray handles the two single-element array forms with special
// meaning (item grouping and paired zipping) and otherwise projects each
// element independently, preserving order.
func (p *Projector) projectArray(arr []any) any {
	if len(arr) == 1 {
		if s, ok := arr[0].(string); ok && s == "{items}" {
			return p.groupItemsByDay()
		}
		if obj, ok := arr[0].(*ordered.Object); ok && obj.Len() == 1 {
			key := obj.Keys()[0]
			val, _ := obj.Get(key)
			if vs, ok := val.(string); ok {
				kp := parsePlaceholder(key)
				vp := parsePlaceholder(vs)
				if kp.kind != phNone && vp.kind != phNone {
					return p.zipPairs(kp.name, vp.name)
				}
			}
		}
	}

	out := make([]any, 0, len(arr))
	for _, el := range arr {
		out = append(out, p.projectValue(el))
	}
	return out
}

// groupItemsByDay distributes the flat items array round-robin across the
// days array and returns a day → items mapping. Like the even split in
// dayItemsAt, this is an approximation used when no explicit association
// exists in the document.
func (p *Projector) groupItemsByDay() *ordered.Object {
	out := ordered.NewObject()
	days := p.stringArray("days")
	if len(days) == 0 {
		return out
	}

	for i, item := range p.anyArray("items") {
		day := strings.TrimSpace(days[i%len(days)])
		cur, _ := out.Get(day)
		list, _ := cur.([]any)
		out.Set(day, append(list, item))
	}
	return out
}

// zipPairs zips two stored arrays element-wise up to the shorter length,
// producing one {trimmed(a[i]): trimmed(b[i])} object per index. Non-string
// elements are skipped.
func (p *Projector) zipPairs(keyName, valName string) []any {
	keys := p.anyArray(keyName)
	vals := p.anyArray(valName)

	n := len(keys)
	if len(vals) < n {
		n = len(vals)
	}

	out := []any{}
	for i := 0; i < n; i++ {
		k, ok1 := keys[i].(string)
		v, ok2 := vals[i].(string)
		if !ok1 || !ok2 {
			continue
		}
		pair := ordered.NewObject()
		pair.Set(strings.TrimSpace(k), strings.TrimSpace(v))
		out = append(out, pair)
	}
	return out
}

// projectString resolves a whole-string placeholder. Anything unresolved
// passes through as its literal text.
func (p *Projector) projectString(s string) any {
	ph := parsePlaceholder(s)
	switch ph.kind {
	case phCurrentYear, phCurrentMonth, phCurrentDay, phCurrentDate:
		return p.clockField(ph.kind)
	case phDayIndex:
		return p.dayItemsAt(ph.from)
	case phMonths:
		// Month expansion only applies in key position; as a value the whole
		// stored months value comes back, array included.
		if v, ok := p.data.Get(ph.name); ok {
			return v
		}
		return s
	case phLookup:
		if v, resolved := p.lookupScalar(ph.name); resolved {
			return v
		}
		return s
	default:
		return s
	}
}

// resolveKey resolves an object key. Keys degrade to their literal text when
// the identifier is unknown or the stored value is not usable as a key.
func (p *Projector) resolveKey(key string) string {
	ph := parsePlaceholder(key)
	switch ph.kind {
	case phCurrentYear, phCurrentMonth, phCurrentDay, phCurrentDate:
		return p.clockField(ph.kind)
	case phMonths:
		if v, resolved := p.lookupScalar("months"); resolved {
			if s, ok := v.(string); ok {
				if name := firstField(s); name != "" {
					return name
				}
			}
		}
		return key
	case phDayIndex:
		if days := p.stringArray("days"); ph.from < len(days) {
			return strings.TrimSpace(days[ph.from])
		}
		return key
	case phLookup:
		if v, resolved := p.lookupScalar(ph.name); resolved {
			if s, ok := v.(string); ok {
				return s
			}
		}
		return key
	default:
		return key
	}
}

// lookupScalar fetches a named value, collapsing a stored array to its first
// element and trimming string results. The second return is false when the
// identifier is absent, leaving the caller to pass the literal through.
func (p *Projector) lookupScalar(name string) (any, bool) {
	v, ok := p.data.Get(name)
	if !ok {
		return nil, false
	}
	if arr, isArr := v.([]any); isArr {
		if len(arr) == 0 {
			return arr, true
		}
		v = arr[0]
	}
	if s, isStr := v.(string); isStr {
		return strings.TrimSpace(s), true
	}
	return v, true
}

func (p *Projector) clockField(kind placeholderKind) string {
	now := p.clock.Now()
	switch kind {
	case phCurrentYear:
		return strconv.Itoa(now.Year())
	case phCurrentMonth:
		return strconv.Itoa(int(now.Month()))
	case phCurrentDay:
		return strconv.Itoa(now.Day())
	default:
		return now.Format("2006-01-02")
	}
}

// stringArray returns the named stored value as a string slice, tolerating
// mixed arrays by skipping non-strings.
func (p *Projector) stringArray(name string) []string {
	var out []string
	for _, v := range p.anyArray(name) {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// anyArray returns the named stored value when it is an array, else nil.
func (p *Projector) anyArray(name string) []any {
	v, ok := p.data.Get(name)
	if !ok {
		return nil
	}
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	return arr
}

// sortMonths orders month entries chronologically by their leading month-name
// token. The sort is stable so unknown names keep their input order at the end.
func sortMonths(entries []string) {
	sort.SliceStable(entries, func(i, j int) bool {
		return monthRank(entries[i]) < monthRank(entries[j])
	})
}

func monthRank(entry string) int {
	if idx, ok := monthIndex[firstField(entry)]; ok {
		return idx
	}
	return len(monthIndex)
}

// firstField returns the first whitespace-separated token of s.
func firstField(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// monthLabel derives the "Month Year" text used to match a month's calendar
// table, from an entry like "October 2025 Ex-Dividend Calendar". When the
// entry has a single token, that token alone is the label.
func monthLabel(entry string) string {
	fields := strings.Fields(entry)
	switch {
	case len(fields) >= 2:
		return fields[0] + " " + fields[1]
	case len(fields) == 1:
		return fields[0]
	default:
		return ""
	}
}
