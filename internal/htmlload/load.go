// Package htmlload parses HTML sources into goquery documents, decoding
// legacy encodings declared by a byte-order mark or a meta tag. Saved pages
// from older sites are frequently windows-1252 rather than UTF-8, and feeding
// them to the parser undecoded corrupts extracted text.
package htmlload

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/transform"
)

// sniffLen is how many leading bytes are examined for encoding hints.
const sniffLen = 1024

// Decode reads an HTML document from r, converting it to UTF-8 based on the
// detected source encoding before parsing.
func Decode(r io.Reader) (*goquery.Document, error) {
	br := bufio.NewReader(r)
	peek, err := br.Peek(sniffLen)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("read html: %w", err)
	}

	enc, name, _ := charset.DetermineEncoding(peek, "")
	var src io.Reader = br
	if name != "utf-8" {
		src = transform.NewReader(br, enc.NewDecoder())
	}

	doc, err := goquery.NewDocumentFromReader(src)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

// ReadFile loads and decodes the HTML file at path.
func ReadFile(path string) (*goquery.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	doc, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Parse parses an in-memory UTF-8 HTML string.
func Parse(html string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}
