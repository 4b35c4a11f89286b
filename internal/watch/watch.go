package watch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/dyluth/warren/pkg/blackboard"
	"github.com/dyluth/warren/pkg/snapshotstore"
)

// OutputFormat specifies how streamed events are rendered.
type OutputFormat string

const (
	// OutputFormatDefault prints one human-readable line per event
	OutputFormatDefault OutputFormat = "default"

	// OutputFormatJSON prints line-delimited JSON
	OutputFormatJSON OutputFormat = "json"
)

// PollForBoard polls until board has a saved snapshot and returns its records.
// Polls every 200ms for the specified timeout duration.
func PollForBoard(ctx context.Context, client *snapshotstore.Client, board string, timeout time.Duration) ([]blackboard.Record, error) {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	timeoutCh := time.After(timeout)

	for {
		records, err := client.LoadSnapshot(ctx, board)
		if err == nil {
			return records, nil
		}
		if !snapshotstore.IsNotFound(err) {
			return nil, fmt.Errorf("failed to query for board: %w", err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timeoutCh:
			return nil, fmt.Errorf("timeout waiting for board '%s' after %v", board, timeout)
		case <-ticker.C:
		}
	}
}

// StreamSnapshots writes every snapshot event of the client's instance to w until
// ctx is cancelled. Malformed events are reported inline and skipped.
func StreamSnapshots(ctx context.Context, client *snapshotstore.Client, format OutputFormat, w io.Writer) error {
	if format != OutputFormatDefault && format != OutputFormatJSON {
		return fmt.Errorf("unknown output format: %s", format)
	}

	sub, err := client.SubscribeSnapshotEvents(ctx)
	if err != nil {
		return err
	}
	defer sub.Close()

	if format == OutputFormatDefault {
		fmt.Fprintf(w, "Watching snapshots of instance '%s'...\n", client.InstanceName())
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-sub.Events():
			if !ok {
				return nil
			}
			if err := writeEvent(w, format, event); err != nil {
				return err
			}
		case err, ok := <-sub.Errors():
			if !ok {
				return nil
			}
			fmt.Fprintf(w, "⚠️  %v\n", err)
		}
	}
}

func writeEvent(w io.Writer, format OutputFormat, event *snapshotstore.SnapshotEvent) error {
	if format == OutputFormatJSON {
		data, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("failed to marshal event: %w", err)
		}
		_, err = fmt.Fprintf(w, "%s\n", data)
		return err
	}

	_, err := fmt.Fprintf(w, "[%s] 💾 board '%s' saved (%d %s)\n",
		formatTime(event.SavedAtMs), event.Board, event.Entries, entriesWord(event.Entries))
	return err
}

func formatTime(ms int64) string {
	return time.UnixMilli(ms).Format("15:04:05")
}

func entriesWord(n int) string {
	if n == 1 {
		return "entry"
	}
	return "entries"
}
