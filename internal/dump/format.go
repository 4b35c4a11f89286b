package dump

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dyluth/warren/pkg/blackboard"
)

// OutputFormat specifies how snapshots and board lists are rendered.
type OutputFormat string

const (
	// OutputFormatDefault uses a table format with truncated values
	OutputFormatDefault OutputFormat = "default"

	// OutputFormatJSON outputs complete records as pretty-printed JSON
	OutputFormatJSON OutputFormat = "json"
)

// ParseOutputFormat validates a format name given on the command line.
func ParseOutputFormat(name string) (OutputFormat, error) {
	switch OutputFormat(name) {
	case OutputFormatDefault, OutputFormatJSON:
		return OutputFormat(name), nil
	}
	return "", fmt.Errorf("unknown output format: %s", name)
}

// FormatTable writes the records of board as a table with columns NAME, TYPE and
// VALUE (truncated). Returns the number of records formatted.
func FormatTable(w io.Writer, board string, records []blackboard.Record) int {
	if len(records) == 0 {
		fmt.Fprintf(w, "No entries found on board '%s'\n", board)
		return 0
	}

	fmt.Fprintf(w, "Entries of board '%s':\n\n", board)

	fmt.Fprintf(w, "%-24s %-10s %s\n", "NAME", "TYPE", "VALUE")
	fmt.Fprintf(w, "%-24s %-10s %s\n",
		"------------------------", "----------", "----------------------------------------")

	for _, rec := range records {
		fmt.Fprintf(w, "%-24s %-10s %s\n",
			formatName(rec.Name),
			rec.Type,
			formatValue(rec.Value),
		)
	}

	fmt.Fprintf(w, "\n%d %s found\n", len(records), plural(len(records), "entry", "entries"))
	return len(records)
}

// snapshotDocument is the JSON shape of one rendered board.
type snapshotDocument struct {
	Board   string              `json:"board"`
	Entries []blackboard.Record `json:"entries"`
}

// FormatJSON writes the records of board as pretty-printed JSON.
func FormatJSON(w io.Writer, board string, records []blackboard.Record) error {
	if records == nil {
		records = []blackboard.Record{}
	}
	data, err := json.MarshalIndent(snapshotDocument{Board: board, Entries: records}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot to JSON: %w", err)
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write JSON output: %w", err)
	}
	fmt.Fprintln(w)
	return nil
}

// FormatBoards writes the saved board names of an instance, one per line.
// Returns the number of boards formatted.
func FormatBoards(w io.Writer, instanceName string, boards []string) int {
	if len(boards) == 0 {
		fmt.Fprintf(w, "No boards found for instance '%s'\n", instanceName)
		return 0
	}

	fmt.Fprintf(w, "Boards for instance '%s':\n\n", instanceName)
	for _, board := range boards {
		fmt.Fprintf(w, "  %s\n", board)
	}
	fmt.Fprintf(w, "\n%d %s found\n", len(boards), plural(len(boards), "board", "boards"))
	return len(boards)
}

// FormatBoardsJSON writes the saved board names as a JSON array.
func FormatBoardsJSON(w io.Writer, boards []string) error {
	if boards == nil {
		boards = []string{}
	}
	data, err := json.Marshal(boards)
	if err != nil {
		return fmt.Errorf("failed to marshal boards to JSON: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

// formatName truncates long entry names for compact display.
func formatName(name string) string {
	if len(name) > 24 {
		return name[:21] + "..."
	}
	return name
}

// formatValue renders an encoded value for table display. Strings are shown
// unquoted, only their first non-empty line is kept, and the result is truncated
// to 40 characters. Empty values return "-".
func formatValue(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "-"
	}

	text := string(raw)
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		text = s
	}

	var firstLine string
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			firstLine = trimmed
			break
		}
	}
	if firstLine == "" {
		return "-"
	}

	if len(firstLine) > 40 {
		return firstLine[:37] + "..."
	}
	return firstLine
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
