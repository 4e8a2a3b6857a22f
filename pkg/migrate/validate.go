package migrate

import (
	"fmt"
	"io/fs"
	"regexp"
	"strconv"
	"strings"
)

var fileName = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)

// Validate checks every .sql file in migrations: timestamped name, unique
// version and both goose sections present. It returns the newest version.
func Validate(migrations fs.FS) (int64, error) {
	entries, err := fs.ReadDir(migrations, ".")
	if err != nil {
		return 0, fmt.Errorf("list migrations: %w", err)
	}

	var latest int64
	seen := make(map[int64]string, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}
		match := fileName.FindStringSubmatch(name)
		if match == nil {
			return 0, fmt.Errorf("%s: want YYYYMMDDHHMMSS_snake_name.sql", name)
		}
		version, _ := strconv.ParseInt(match[1], 10, 64)
		if other, dup := seen[version]; dup {
			return 0, fmt.Errorf("%s and %s share version %d", other, name, version)
		}
		seen[version] = name

		body, err := fs.ReadFile(migrations, name)
		if err != nil {
			return 0, err
		}
		for _, section := range []string{"-- +goose Up", "-- +goose Down"} {
			if !strings.Contains(string(body), section) {
				return 0, fmt.Errorf("%s: missing %q", name, section)
			}
		}
		latest = max(latest, version)
	}
	return latest, nil
}
