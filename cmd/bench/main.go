// bench - TOON benchmark runner
//
// Compares TOON encoding vs JSON-minified over generated event datasets:
//   - Bytes on wire
//   - Bytes after zstd compression
//   - Approximate token counts (using byte-based heuristics)
//
// Output: CSV and markdown summary
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/Neumenon/toon/dataset"
	"github.com/Neumenon/toon/internal/config"
	"github.com/Neumenon/toon/toon"
)

type CaseResult struct {
	Name        string
	Records     int
	JSONBytes   int
	TOONBytes   int
	BytesSaved  int
	BytesPct    float64
	JSONZstd    int
	TOONZstd    int
	JSONTokens  int
	TOONTokens  int
	TokensSaved int
	TokensPct   float64
}

func main() {
	csvPath := flag.String("csv", "bench_results.csv", "CSV output path")
	mdPath := flag.String("md", "BENCH.md", "markdown output path")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := cfg.Logger()

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "zstd: %v\n", err)
		os.Exit(1)
	}
	defer enc.Close()

	fmt.Fprintf(os.Stderr, "TOON Benchmark Runner\n")
	fmt.Fprintf(os.Stderr, "=====================\n")
	fmt.Fprintf(os.Stderr, "Seed: %d\n\n", cfg.Seed)

	now := time.Now()
	sizes := []int{1, 10, 50, 200, 1000}

	var results []CaseResult
	var totalJSONBytes, totalTOONBytes int
	var totalJSONTokens, totalTOONTokens int

	for _, n := range sizes {
		name := fmt.Sprintf("events-%d", n)
		events, err := dataset.NewGenerator(dataset.Options{Seed: cfg.Seed, Count: n, Now: now}).Generate()
		if err != nil {
			logger.Warn("skip case", "case", name, "error", err)
			continue
		}
		recs := dataset.Records(events)

		if err := toon.ValidateRoundTrip(toon.EventSchema(), recs); err != nil {
			logger.Warn("skip case: round trip failed", "case", name, "error", err)
			continue
		}

		toonStr, err := toon.Marshal(recs)
		if err != nil {
			logger.Warn("skip case", "case", name, "error", err)
			continue
		}
		jsonMin, err := json.Marshal(events)
		if err != nil {
			logger.Warn("skip case", "case", name, "error", err)
			continue
		}

		// Calculate metrics
		jsonBytes := len(jsonMin)
		toonBytes := len(toonStr)
		bytesSaved := jsonBytes - toonBytes
		bytesPct := 0.0
		if jsonBytes > 0 {
			bytesPct = float64(bytesSaved) / float64(jsonBytes) * 100.0
		}

		jsonTokens := estimateTokens(string(jsonMin))
		toonTokens := estimateTokens(toonStr)
		tokensSaved := jsonTokens - toonTokens
		tokensPct := 0.0
		if jsonTokens > 0 {
			tokensPct = float64(tokensSaved) / float64(jsonTokens) * 100.0
		}

		results = append(results, CaseResult{
			Name:        name,
			Records:     n,
			JSONBytes:   jsonBytes,
			TOONBytes:   toonBytes,
			BytesSaved:  bytesSaved,
			BytesPct:    bytesPct,
			JSONZstd:    len(enc.EncodeAll(jsonMin, nil)),
			TOONZstd:    len(enc.EncodeAll([]byte(toonStr), nil)),
			JSONTokens:  jsonTokens,
			TOONTokens:  toonTokens,
			TokensSaved: tokensSaved,
			TokensPct:   tokensPct,
		})

		totalJSONBytes += jsonBytes
		totalTOONBytes += toonBytes
		totalJSONTokens += jsonTokens
		totalTOONTokens += toonTokens
	}

	if len(results) == 0 {
		fmt.Fprintln(os.Stderr, "No cases completed")
		os.Exit(1)
	}

	if err := writeFile(*csvPath, func(w io.Writer) {
		writeCSV(w, results)
	}); err != nil {
		logger.Error("write CSV", "path", *csvPath, "error", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "CSV written to: %s\n", *csvPath)

	if err := writeFile(*mdPath, func(w io.Writer) {
		writeMarkdown(w, results, totalJSONBytes, totalTOONBytes, totalJSONTokens, totalTOONTokens, cfg.Seed, now)
	}); err != nil {
		logger.Error("write markdown", "path", *mdPath, "error", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "Markdown written to: %s\n", *mdPath)

	// Summary to stdout
	fmt.Printf("\n=== SUMMARY ===\n")
	fmt.Printf("Cases:        %d\n", len(results))
	fmt.Printf("JSON total:   %d bytes, ~%d tokens\n", totalJSONBytes, totalJSONTokens)
	fmt.Printf("TOON total:   %d bytes, ~%d tokens\n", totalTOONBytes, totalTOONTokens)
	fmt.Printf("Bytes saved:  %d (%.1f%%)\n", totalJSONBytes-totalTOONBytes, float64(totalJSONBytes-totalTOONBytes)/float64(totalJSONBytes)*100)
	fmt.Printf("Tokens saved: %d (%.1f%%)\n", totalJSONTokens-totalTOONTokens, float64(totalJSONTokens-totalTOONTokens)/float64(totalJSONTokens)*100)
}

// estimateTokens approximates a cl100k_base token count: words and numbers
// take ~4 chars per token, and runs of punctuation merge pairwise, so JSON's
// `":"` and `","` cost two tokens while a TOON separator costs one.
func estimateTokens(s string) int {
	if len(s) == 0 {
		return 0
	}

	tokens := 0
	i := 0
	for i < len(s) {
		c := s[i]

		switch {
		case isPunctuation(c):
			run := 0
			for i < len(s) && isPunctuation(s[i]) {
				run++
				i++
			}
			tokens += (run + 1) / 2

		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++ // merged with the next token

		case c >= '0' && c <= '9' || c == '-':
			n := 0
			for i < len(s) && isNumeric(s[i]) {
				n++
				i++
			}
			tokens += (n + 3) / 4

		case isAlphaNum(c) || c == '_':
			n := 0
			for i < len(s) && (isAlphaNum(s[i]) || s[i] == '_') {
				n++
				i++
			}
			tokens += (n + 3) / 4

		default:
			tokens++
			i++
		}
	}

	return max(1, tokens)
}

// isPunctuation covers the structural characters of both formats.
func isPunctuation(c byte) bool {
	switch c {
	case '{', '}', '[', ']', ':', ',', '"', '/':
		return true
	}
	return false
}

func isNumeric(c byte) bool {
	return c >= '0' && c <= '9' || c == '.' || c == '-' || c == '+' || c == 'e' || c == 'E' || c == 'T' || c == 'Z'
}

func isAlphaNum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// writeFile creates path and hands it to write, reporting create and close
// errors.
func writeFile(path string, write func(io.Writer)) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	write(f)
	return f.Close()
}

func writeCSV(w io.Writer, results []CaseResult) {
	fmt.Fprintln(w, "name,records,json_bytes,toon_bytes,bytes_saved,bytes_pct,json_zstd,toon_zstd,json_tokens,toon_tokens,tokens_saved,tokens_pct")
	for _, r := range results {
		fmt.Fprintf(w, "%s,%d,%d,%d,%d,%.1f,%d,%d,%d,%d,%d,%.1f\n",
			r.Name, r.Records, r.JSONBytes, r.TOONBytes, r.BytesSaved, r.BytesPct,
			r.JSONZstd, r.TOONZstd, r.JSONTokens, r.TOONTokens, r.TokensSaved, r.TokensPct)
	}
}

func writeMarkdown(w io.Writer, results []CaseResult, totalJSON, totalTOON, totalJSONTok, totalTOONTok int, seed uint64, date time.Time) {
	fmt.Fprintf(w, "# TOON Benchmark Results\n\n")
	fmt.Fprintf(w, "**Date:** %s  \n", date.Format("2006-01-02"))
	fmt.Fprintf(w, "**Corpus:** generated events, seed %d (%d cases)  \n\n", seed, len(results))

	fmt.Fprintf(w, "## Summary\n\n")
	fmt.Fprintf(w, "| Metric | JSON (minified) | TOON | Savings |\n")
	fmt.Fprintf(w, "|--------|-----------------|------|---------|\n")
	bytesSaved := totalJSON - totalTOON
	bytesPct := float64(bytesSaved) / float64(totalJSON) * 100
	tokensSaved := totalJSONTok - totalTOONTok
	tokensPct := float64(tokensSaved) / float64(totalJSONTok) * 100
	fmt.Fprintf(w, "| **Bytes** | %d | %d | %d (%.1f%%) |\n", totalJSON, totalTOON, bytesSaved, bytesPct)
	fmt.Fprintf(w, "| **Tokens** (est.) | ~%d | ~%d | ~%d (%.1f%%) |\n\n", totalJSONTok, totalTOONTok, tokensSaved, tokensPct)

	sorted := make([]CaseResult, len(results))
	copy(sorted, results)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].BytesPct > sorted[j].BytesPct
	})

	fmt.Fprintf(w, "## Best Case\n\n")
	fmt.Fprintf(w, "%s: %.1f%% fewer bytes than minified JSON.\n\n", sorted[0].Name, sorted[0].BytesPct)

	fmt.Fprintf(w, "## Methodology\n\n")
	fmt.Fprintf(w, "- **JSON:** Minified (no whitespace), using Go's `json.Marshal`\n")
	fmt.Fprintf(w, "- **TOON:** `toon.Marshal` with the 15-field event schema; every case passes `toon.ValidateRoundTrip` first\n")
	fmt.Fprintf(w, "- **zstd:** klauspost/compress default level, single frame\n")
	fmt.Fprintf(w, "- **Tokens:** Estimated using cl100k_base-like heuristics (~4 chars/token for words and numbers, punctuation runs merged pairwise)\n\n")

	fmt.Fprintf(w, "## Detailed Results\n\n")
	fmt.Fprintf(w, "| Case | Records | JSON Bytes | TOON Bytes | Bytes %% | JSON zstd | TOON zstd | JSON Tok | TOON Tok | Tok %% |\n")
	fmt.Fprintf(w, "|------|---------|------------|------------|---------|-----------|-----------|----------|----------|-------|\n")
	for _, r := range results {
		fmt.Fprintf(w, "| %s | %d | %d | %d | %+.1f%% | %d | %d | %d | %d | %+.1f%% |\n",
			r.Name, r.Records, r.JSONBytes, r.TOONBytes, r.BytesPct,
			r.JSONZstd, r.TOONZstd, r.JSONTokens, r.TOONTokens, r.TokensPct)
	}
}
