package resolver

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/dyluth/warren/pkg/snapshotstore"
)

// ResolveBoard resolves a board name or a unique prefix of one to the full
// saved board name. An exact match always wins over prefix matches.
func ResolveBoard(ctx context.Context, client *snapshotstore.Client, prefix string) (string, error) {
	boards, err := client.ListBoards(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to search for board: %w", err)
	}

	if slices.Contains(boards, prefix) {
		return prefix, nil
	}

	var matches []string
	if prefix != "" {
		for _, board := range boards {
			if strings.HasPrefix(board, prefix) {
				matches = append(matches, board)
			}
		}
	}

	switch len(matches) {
	case 0:
		return "", &NotFoundError{Prefix: prefix}
	case 1:
		return matches[0], nil
	default:
		return "", &AmbiguousError{Prefix: prefix, Matches: matches}
	}
}

// NotFoundError indicates no saved board matched the prefix.
type NotFoundError struct {
	Prefix string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no boards found matching '%s'", e.Prefix)
}

// AmbiguousError indicates several saved boards matched the prefix.
type AmbiguousError struct {
	Prefix  string
	Matches []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("ambiguous board name '%s' matches %d boards", e.Prefix, len(e.Matches))
}

// FormatAmbiguousError creates a user-friendly listing of the matching boards.
// Lists up to 10 names, then "...and N more".
func FormatAmbiguousError(err *AmbiguousError) string {
	var b strings.Builder
	fmt.Fprintf(&b, "'%s' matches %d boards:\n", err.Prefix, len(err.Matches))

	displayCount := min(len(err.Matches), 10)
	for _, name := range err.Matches[:displayCount] {
		fmt.Fprintf(&b, "  %s\n", name)
	}
	if len(err.Matches) > 10 {
		fmt.Fprintf(&b, "  ...and %d more\n", len(err.Matches)-10)
	}

	b.WriteString("\nUse a longer prefix to uniquely identify the board.")
	return b.String()
}

// IsNotFoundError checks if an error is a NotFoundError.
func IsNotFoundError(err error) bool {
	_, ok := err.(*NotFoundError)
	return ok
}

// IsAmbiguousError checks if an error is an AmbiguousError.
func IsAmbiguousError(err error) bool {
	_, ok := err.(*AmbiguousError)
	return ok
}
