// Command xpath2json applies a declarative extraction configuration to HTML
// (from stdin, a file, or a directory of files) and prints JSON.
//
// Usage (stdin):
//
//	cat page.html | xpath2json -xpath-config rules.json
//
// Usage (file):
//
//	xpath2json -xpath-config rules.yaml -html page.html -output result.json
//
// Usage (directory mode, one result per file):
//
//	xpath2json -xpath-config rules.json -dir ./pages
//
// Validate a configuration without extracting:
//
//	xpath2json -xpath-config rules.json -validate
//
// Debug (print matches for a path expression):
//
//	cat page.html | xpath2json -selector "//td[contains(@class, 'caltabletdnum')]" -text
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"xpath2json/internal/archive"
	"xpath2json/internal/config"
	"xpath2json/internal/extract"
	"xpath2json/internal/htmlload"
	"xpath2json/internal/logging"
)

func main() {
	os.Exit(run(
		context.Background(),
		os.Args[1:],
		os.Stdin,
		os.Stdout,
		os.Stderr,
	))
}

// run is split out from main so we can unit test the command without spawning
// an OS process.
//
// It returns a Unix-style exit code:
//   - 0 for success
//   - 2 for usage/config errors
//   - 1 for operational/runtime errors
func run(
	ctx context.Context,
	args []string,
	stdin io.Reader,
	stdout io.Writer,
	stderr io.Writer,
) int {
	fs := flag.NewFlagSet("xpath2json", flag.ContinueOnError)
	fs.SetOutput(stderr)

	configPath := fs.String("xpath-config", "", "Path to the rule configuration (JSON or YAML)")
	htmlPath := fs.String("html", "", "HTML file to extract from (default: stdin)")
	dirFlag := fs.String("dir", "", "Directory of HTML files; emits a JSON array with one result per file")
	outputPath := fs.String("output", "", "Write result JSON to this file instead of stdout")
	validate := fs.Bool("validate", false, "Validate the configuration and exit without extracting")
	debugSelector := fs.String("selector", "", "Debug: path expression to print matches for (not JSON)")
	onlyText := fs.Bool("text", false, "Debug: print text blocks for -selector matches")
	archiveDSN := fs.String("archive", "", "SQLite database to append each result to")
	logFile := fs.String("log-file", "", "Also write logs to this rotating file")
	verbose := fs.Bool("v", false, "Enable debug logging")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	logger := logging.New(*verbose, *logFile)
	defer func() { _ = logger.Sync() }()

	// Debug selector mode needs HTML input but no configuration.
	if *debugSelector != "" {
		doc, err := loadDoc(*htmlPath, stdin)
		if err != nil {
			fmt.Fprintf(stderr, "load html: %v\n", err)
			return 1
		}
		if err := extract.DebugPrintSelector(stdout, doc, *debugSelector, *onlyText); err != nil {
			fmt.Fprintf(stderr, "debug selector: %v\n", err)
			return 1
		}
		return 0
	}

	if *configPath == "" {
		fmt.Fprintf(stderr, "missing -xpath-config\n")
		return 2
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "load config: %v\n", err)
		return 2
	}

	if *validate {
		issues := config.Validate(cfg)
		for _, issue := range issues {
			fmt.Fprintln(stdout, issue.String())
		}
		if config.HasErrors(issues) {
			return 2
		}
		fmt.Fprintf(stdout, "%s: configuration valid\n", *configPath)
		return 0
	}

	var store *archive.Store
	if *archiveDSN != "" {
		store, err = archive.Open(ctx, *archiveDSN)
		if err != nil {
			fmt.Fprintf(stderr, "open archive: %v\n", err)
			return 1
		}
		defer store.Close()
	}

	out := stdout
	if *outputPath != "" {
		f, err := os.Create(*outputPath)
		if err != nil {
			fmt.Fprintf(stderr, "create output: %v\n", err)
			return 1
		}
		defer f.Close()
		out = f
	}

	enc := json.NewEncoder(out)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")

	evaluate := func(doc *goquery.Document) *extract.Result {
		return extract.New(doc, extract.WithLogger(logger)).Run(cfg)
	}

	if *dirFlag != "" {
		results, err := runDir(ctx, *dirFlag, evaluate, store, logger)
		if err != nil {
			fmt.Fprintf(stderr, "dir extract: %v\n", err)
			return 1
		}
		if err := enc.Encode(results); err != nil {
			fmt.Fprintf(stderr, "encode json: %v\n", err)
			return 1
		}
		if *outputPath != "" {
			fmt.Fprintf(stdout, "Results written to %s\n", *outputPath)
		}
		return 0
	}

	doc, err := loadDoc(*htmlPath, stdin)
	if err != nil {
		fmt.Fprintf(stderr, "load html: %v\n", err)
		return 1
	}

	res := evaluate(doc)
	if store != nil {
		source := *htmlPath
		if source == "" {
			source = "stdin"
		}
		if err := store.Append(ctx, source, res); err != nil {
			fmt.Fprintf(stderr, "archive: %v\n", err)
			return 1
		}
	}

	if err := enc.Encode(res); err != nil {
		fmt.Fprintf(stderr, "encode json: %v\n", err)
		return 1
	}
	if *outputPath != "" {
		fmt.Fprintf(stdout, "Results written to %s\n", *outputPath)
	}
	return 0
}

// fileResult pairs one directory entry's result with its source file name.
type fileResult struct {
	SourceFile string `json:"source_file"`
	*extract.Result
}

// runDir evaluates the configuration against every HTML file in dir, in
// stable filename order. Unreadable or unparseable files are skipped so one
// bad page does not fail the batch.
func runDir(
	ctx context.Context,
	dir string,
	evaluate func(*goquery.Document) *extract.Result,
	store *archive.Store,
	logger *zap.Logger,
) ([]fileResult, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	results := []fileResult{}
	for _, e := range entries {
		if e.IsDir() || !isHTMLName(e.Name()) {
			continue
		}

		full := filepath.Join(dir, e.Name())
		doc, err := htmlload.ReadFile(full)
		if err != nil {
			logger.Warn("skipping file", zap.String("file", full), zap.Error(err))
			continue
		}

		res := evaluate(doc)
		if store != nil {
			if err := store.Append(ctx, full, res); err != nil {
				return nil, fmt.Errorf("archive %s: %w", full, err)
			}
		}
		results = append(results, fileResult{SourceFile: e.Name(), Result: res})
	}
	return results, nil
}

func isHTMLName(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".html", ".htm":
		return true
	}
	return false
}

// loadDoc reads HTML from the named file, or stdin when no file is given.
func loadDoc(path string, stdin io.Reader) (*goquery.Document, error) {
	if path != "" {
		return htmlload.ReadFile(path)
	}
	return htmlload.Decode(stdin)
}
