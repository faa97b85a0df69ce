package pagination

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"
)

const timeFormat = time.RFC3339Nano // Use a precise time format

// EncodeCursorToken creates a base64 encoded pagination token from the
// timestamp and id of the last transaction on a page. Listings are ordered
// newest first, so the token marks the exact record after which the next page
// resumes; carrying the id keeps records that share a timestamp from being
// skipped across the page boundary.
func EncodeCursorToken(ts time.Time, id string) string {
	raw := ts.Format(timeFormat) + "|" + id
	return base64.StdEncoding.EncodeToString([]byte(raw))
}

// DecodeCursorToken parses a pagination token back into its timestamp and
// transaction id.
func DecodeCursorToken(token string) (time.Time, string, error) {
	decodedBytes, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("invalid pagination token format (base64 decode): %w", err)
	}

	rawTS, id, found := strings.Cut(string(decodedBytes), "|")
	if !found {
		return time.Time{}, "", fmt.Errorf("invalid pagination token format (missing id separator)")
	}

	ts, err := time.Parse(timeFormat, rawTS)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("invalid pagination token format (timestamp parse): %w", err)
	}

	return ts, id, nil
}
