package dump

import (
	"context"
	"fmt"
	"io"

	"github.com/dyluth/warren/internal/filter"
	"github.com/dyluth/warren/pkg/blackboard"
	"github.com/dyluth/warren/pkg/snapshotstore"
)

// ListBoards retrieves the saved boards of the client's instance and writes them
// to w in the requested format.
func ListBoards(ctx context.Context, client *snapshotstore.Client, format OutputFormat, w io.Writer) error {
	boards, err := client.ListBoards(ctx)
	if err != nil {
		return err
	}

	switch format {
	case OutputFormatDefault:
		FormatBoards(w, client.InstanceName(), boards)
	case OutputFormatJSON:
		if err := FormatBoardsJSON(w, boards); err != nil {
			return fmt.Errorf("failed to format JSON output: %w", err)
		}
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
	return nil
}

// GetBoard retrieves the snapshot of board and writes the records matching
// criteria to w in the requested format. A nil criteria keeps every record.
// Returns a *BoardNotFoundError if the board was never saved.
func GetBoard(ctx context.Context, client *snapshotstore.Client, board string, criteria *filter.Criteria, format OutputFormat, w io.Writer) error {
	records, err := client.LoadSnapshot(ctx, board)
	if err != nil {
		if snapshotstore.IsNotFound(err) {
			return &BoardNotFoundError{Board: board}
		}
		return fmt.Errorf("failed to fetch snapshot: %w", err)
	}

	return WriteRecords(w, board, filter.Apply(criteria, records), format)
}

// WriteRecords renders the records of board in the requested format.
func WriteRecords(w io.Writer, board string, records []blackboard.Record, format OutputFormat) error {
	switch format {
	case OutputFormatDefault:
		FormatTable(w, board, records)
	case OutputFormatJSON:
		if err := FormatJSON(w, board, records); err != nil {
			return fmt.Errorf("failed to format snapshot: %w", err)
		}
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
	return nil
}

// BoardNotFoundError represents a specific "board not found" error.
// This allows callers to distinguish not-found errors from other failures.
type BoardNotFoundError struct {
	Board string
}

func (e *BoardNotFoundError) Error() string {
	return fmt.Sprintf("board '%s' not found", e.Board)
}

// IsNotFound returns true if the error is a BoardNotFoundError.
func IsNotFound(err error) bool {
	_, ok := err.(*BoardNotFoundError)
	return ok
}
