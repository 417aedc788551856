package feed

import (
	"fmt"
	"strconv"
	"strings"
)

// Query describes one user search. It is immutable; a new submission
// produces a new Query with a higher Epoch.
type Query struct {
	PlaylistID int
	PageSize   int
	Epoch      uint64
}

// Valid reports whether q can be sent to the service.
func (q Query) Valid() bool {
	return q.PlaylistID > 0 && q.PageSize > 0
}

// ValidationError reports form input that could not become a Query.
type ValidationError struct {
	Field string
	Value string
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s is required", e.Field)
	}
	return fmt.Sprintf("%s must be a positive integer, got %q", e.Field, e.Value)
}

// ParseQuery coerces raw form input into a Query. The epoch is left at zero;
// the Controller assigns it on submission.
func ParseQuery(rawPlaylistID, rawPageSize string) (Query, error) {
	playlistID, err := parsePositive("playlist id", rawPlaylistID)
	if err != nil {
		return Query{}, err
	}
	pageSize, err := parsePositive("page size", rawPageSize)
	if err != nil {
		return Query{}, err
	}
	return Query{PlaylistID: playlistID, PageSize: pageSize}, nil
}

func parsePositive(field, raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, &ValidationError{Field: field, Value: raw}
	}
	return n, nil
}
