// Package logscan classifies retrieved log lines into a bounded summary.
package logscan

import "strings"

// Category is the classification of a single log line.
type Category int

const (
	CategoryNone Category = iota
	CategoryError
	CategoryWarning
)

// Classifier maps a log line to a category. It is pluggable so a structured
// parser can replace the substring heuristic without touching callers.
type Classifier func(line string) Category

// DefaultClassifier uses case-insensitive substring containment. This is a
// documented heuristic, not a structured log parser: any line mentioning an
// error counts, including lines quoting one.
func DefaultClassifier(line string) Category {
	lower := strings.ToLower(line)
	switch {
	case strings.Contains(lower, "error"):
		return CategoryError
	case strings.Contains(lower, "warn"):
		return CategoryWarning
	default:
		return CategoryNone
	}
}

const (
	recentLimit  = 10
	flaggedLimit = 5
)

// Summary is the bounded classification of a log window.
type Summary struct {
	TotalLines   int      `json:"total_lines"`
	ErrorCount   int      `json:"error_count"`
	WarningCount int      `json:"warning_count"`
	Recent       []string `json:"recent_entries"`
	Flagged      []string `json:"flagged_entries"`
}

// Analyze splits raw text into lines and classifies each one. Recent holds
// the last 10 lines and Flagged the last 5 classified lines, both in source
// order (most recent last).
func Analyze(raw string, classify Classifier) *Summary {
	if classify == nil {
		classify = DefaultClassifier
	}
	summary := &Summary{}

	lines := splitLines(raw)
	summary.TotalLines = len(lines)

	var flagged []string
	for _, line := range lines {
		switch classify(line) {
		case CategoryError:
			summary.ErrorCount++
			flagged = append(flagged, line)
		case CategoryWarning:
			summary.WarningCount++
			flagged = append(flagged, line)
		}
	}

	summary.Recent = lastN(lines, recentLimit)
	summary.Flagged = lastN(flagged, flaggedLimit)
	return summary
}

func splitLines(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	lines := strings.Split(strings.TrimRight(raw, "\n"), "\n")
	out := lines[:0]
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}

func lastN(lines []string, n int) []string {
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	// Copy so the summary does not alias the caller's slice.
	return append([]string(nil), lines...)
}
