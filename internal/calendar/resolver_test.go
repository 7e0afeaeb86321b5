package calendar

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc
}

const calendarHTML = `
<table>
  <caption>October 2025 Ex-Dividend Calendar</caption>
  <tr>
    <td class="caltabletdnum">1</td>
    <td class="caltabletdnum">2</td>
    <td class="caltabletdnum">3</td>
  </tr>
  <tr>
    <td class="caltabletdevt"><a>AAA</a><a>AAB</a></td>
    <td class="caltabletdevt"><a>BBB</a></td>
    <td class="caltabletdevt"></td>
  </tr>
  <tr>
    <td class="caltabletdnum">4</td>
  </tr>
</table>
<table>
  <caption>November 2025 Ex-Dividend Calendar</caption>
  <tr><td class="caltabletdnum">1</td></tr>
  <tr><td class="caltabletdevt"><a>NOV</a></td></tr>
</table>
<table>
  <caption>Unrelated table</caption>
  <tr><td class="caltabletdnum">1</td></tr>
  <tr><td class="caltabletdevt"><a>IGNORED</a></td></tr>
</table>
`

// TestItemsForDay_ColumnAlignment verifies the row-adjacency heuristic: a day
// label owns the same column of the immediately following row.
func TestItemsForDay_ColumnAlignment(t *testing.T) {
	t.Parallel()

	r := New(mustDoc(t, calendarHTML))

	got := r.ItemsForDayInMonth("2", "October 2025")
	if len(got) != 1 || got[0] != "BBB" {
		t.Fatalf("day 2: expected [BBB], got %v", got)
	}

	got = r.ItemsForDayInMonth("1", "October 2025")
	if len(got) != 2 || got[0] != "AAA" || got[1] != "AAB" {
		t.Fatalf("day 1: expected [AAA AAB], got %v", got)
	}
}

// TestItemsForDay_EmptyCases verifies empty results rather than errors when a
// day has no items row, an empty item cell, or does not exist.
func TestItemsForDay_EmptyCases(t *testing.T) {
	t.Parallel()

	r := New(mustDoc(t, calendarHTML))

	if got := r.ItemsForDayInMonth("3", "October 2025"); len(got) != 0 {
		t.Fatalf("day 3 has an empty cell: expected no items, got %v", got)
	}
	if got := r.ItemsForDayInMonth("4", "October 2025"); len(got) != 0 {
		t.Fatalf("day 4 has no following row: expected no items, got %v", got)
	}
	if got := r.ItemsForDay("99"); len(got) != 0 {
		t.Fatalf("unknown day: expected no items, got %v", got)
	}
}

// TestItemsForDay_AccumulatesAcrossTables verifies that without a month filter
// a day collects items from every qualifying calendar table, in table order,
// and that non-calendar tables are ignored.
func TestItemsForDay_AccumulatesAcrossTables(t *testing.T) {
	t.Parallel()

	r := New(mustDoc(t, calendarHTML))

	got := r.ItemsForDay("1")
	want := []string{"AAA", "AAB", "NOV"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

// TestItemsForDay_MonthFilter verifies the month label restricts which tables
// are scanned.
func TestItemsForDay_MonthFilter(t *testing.T) {
	t.Parallel()

	r := New(mustDoc(t, calendarHTML))

	got := r.ItemsForDayInMonth("1", "November 2025")
	if len(got) != 1 || got[0] != "NOV" {
		t.Fatalf("expected [NOV], got %v", got)
	}
}

// TestResolver_Options verifies the cell selectors and marker are configurable.
func TestResolver_Options(t *testing.T) {
	t.Parallel()

	html := `
	<table>
	  <caption>Event Grid</caption>
	  <tr><td class="day">7</td></tr>
	  <tr><td class="evt"><span>X</span></td></tr>
	</table>`

	r := New(mustDoc(t, html),
		WithMarker("Event Grid"),
		WithDayCells("td.day"),
		WithItemCells("td.evt"),
		WithLeaves("span"),
	)
	got := r.ItemsForDay("7")
	if len(got) != 1 || got[0] != "X" {
		t.Fatalf("expected [X], got %v", got)
	}
}
