package sqlite

import (
	"fmt"
	"path/filepath"
	"strings"
)

// parseDSN maps sqlite://<path> (or sqlite://:memory:) to a driver DSN.
func parseDSN(dsn string) (string, error) {
	if !strings.HasPrefix(dsn, "sqlite://") {
		return "", fmt.Errorf("invalid sqlite DSN scheme, expected sqlite://")
	}
	rest := strings.TrimPrefix(dsn, "sqlite://")
	if rest == "" {
		return "", fmt.Errorf("sqlite DSN has no path")
	}
	if rest == ":memory:" {
		return ":memory:", nil
	}
	path, query, _ := strings.Cut(rest, "?")
	path = filepath.Clean(path)
	if query != "" {
		return path + "?" + query, nil
	}
	return path, nil
}
