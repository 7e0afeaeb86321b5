// Package calendar resolves which items belong to which day in a grid-calendar
// document, where rows alternate between day-number cells and item cells.
//
// The association is purely positional: a day label found in a day-number row
// owns the same column of the immediately following row. Nothing in the markup
// links the two explicitly, so this only works for grids with exactly one
// items row under each day-numbers row and consistent column alignment.
package calendar

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

type options struct {
	marker   string
	dayCell  string
	itemCell string
	leaf     string
	logger   *zap.Logger
}

// Defaults match the dividend-calendar layout this heuristic was built for.
var defaultOptions = options{
	marker:   "Ex-Dividend Calendar",
	dayCell:  "td.caltabletdnum",
	itemCell: "td.caltabletdevt",
	leaf:     "a",
	logger:   zap.NewNop(),
}

// Option configures a Resolver.
type Option func(*options)

// WithMarker sets the text that identifies a table as a calendar table.
func WithMarker(marker string) Option {
	return func(o *options) { o.marker = marker }
}

// WithDayCells sets the selector for day-number cells.
func WithDayCells(sel string) Option {
	return func(o *options) { o.dayCell = sel }
}

// WithItemCells sets the selector for item cells.
func WithItemCells(sel string) Option {
	return func(o *options) { o.itemCell = sel }
}

// WithLeaves sets the selector for the leaf elements inside an item cell whose
// text becomes the item values.
func WithLeaves(sel string) Option {
	return func(o *options) { o.leaf = sel }
}

// WithLogger sets the logger; the default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Resolver answers "which items belong to day N" against one parsed document.
// It re-scans the document per lookup and holds no state besides the document
// reference, so it is safe to share across lookups.
type Resolver struct {
	doc  *goquery.Document
	opts options
}

// New builds a Resolver over doc.
func New(doc *goquery.Document, opts ...Option) *Resolver {
	o := defaultOptions
	for _, apply := range opts {
		apply(&o)
	}
	return &Resolver{doc: doc, opts: o}
}

// ItemsForDay returns the items associated with the given day label across all
// calendar tables, in document order.
func (r *Resolver) ItemsForDay(day string) []string {
	return r.ItemsForDayInMonth(day, "")
}

// ItemsForDayInMonth returns the items for a day label, considering only
// calendar tables whose text also contains the month label. An empty month
// label disables the filter.
//
// A day with no following items row yields an empty list, not an error. A day
// appearing in several qualifying tables accumulates items from all of them,
// in table order.
func (r *Resolver) ItemsForDayInMonth(day, month string) []string {
	items := []string{}

	r.doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		text := table.Text()
		if !strings.Contains(text, r.opts.marker) {
			return
		}
		if month != "" && !strings.Contains(text, month) {
			return
		}
		items = append(items, r.scanTable(table, day)...)
	})

	r.opts.logger.Debug("resolved day items",
		zap.String("day", day),
		zap.String("month", month),
		zap.Int("count", len(items)))
	return items
}

// scanTable walks the rows of one calendar table looking for the day label in
// a day-number row and reading the same column of the next row.
func (r *Resolver) scanTable(table *goquery.Selection, day string) []string {
	var items []string

	rows := table.Find("tr")
	n := rows.Length()
	for i := 0; i < n; i++ {
		col := columnOf(rows.Eq(i), r.opts.dayCell, day)
		if col < 0 || i+1 >= n {
			continue
		}

		cells := rows.Eq(i + 1).Find(r.opts.itemCell)
		if col >= cells.Length() {
			continue
		}
		cells.Eq(col).Find(r.opts.leaf).Each(func(_ int, leaf *goquery.Selection) {
			if v := strings.TrimSpace(leaf.Text()); v != "" {
				items = append(items, v)
			}
		})
	}
	return items
}

// columnOf returns the index of day among the row's non-empty day-number
// cells, or -1 when the row has no cell with that label.
func columnOf(row *goquery.Selection, dayCellSel, day string) int {
	col := -1
	idx := 0
	row.Find(dayCellSel).Each(func(_ int, cell *goquery.Selection) {
		v := strings.TrimSpace(cell.Text())
		if v == "" {
			return
		}
		if v == day && col < 0 {
			col = idx
		}
		idx++
	})
	return col
}
