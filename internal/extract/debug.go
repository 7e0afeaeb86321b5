package extract

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"xpath2json/internal/selector"
)

// DebugPrintSelector translates expr and prints either outer HTML or text of
// its matches, one per blank-line-separated block. This backs the command's
// "-selector" probe mode, used to check an expression against a saved page
// before wiring it into a rule file.
func DebugPrintSelector(w io.Writer, doc *goquery.Document, expr string, textOnly bool) error {
	css, err := selector.ToCSS(expr)
	if err != nil {
		return fmt.Errorf("translate %q: %w", expr, err)
	}
	fmt.Fprintf(w, "selector: %s\n\n", css)

	doc.Find(css).Each(func(_ int, s *goquery.Selection) {
		if textOnly {
			fmt.Fprintln(w, strings.TrimSpace(s.Text()))
			fmt.Fprintln(w)
			return
		}
		out, err := goquery.OuterHtml(s)
		if err != nil {
			in, _ := s.Html()
			fmt.Fprintln(w, in)
			fmt.Fprintln(w)
			return
		}
		fmt.Fprintln(w, out)
		fmt.Fprintln(w)
	})
	return nil
}
