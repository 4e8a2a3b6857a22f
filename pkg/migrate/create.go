package migrate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"
	"time"
)

var notSnake = regexp.MustCompile(`[^a-z0-9]+`)

var skeleton = template.Must(template.New("migration").Parse(`-- +goose Up
-- +goose StatementBegin
-- {{.}}
-- +goose StatementEnd

-- +goose Down
-- +goose StatementBegin
-- revert {{.}}
-- +goose StatementEnd
`))

// Create writes an empty migration named <version>_<snake name>.sql into dir
// and returns its path. The version is the UTC time at now.
func Create(dir, name string, now time.Time) (string, error) {
	slug := strings.Trim(notSnake.ReplaceAllString(strings.ToLower(name), "_"), "_")
	if slug == "" {
		return "", errors.New("migration name must contain letters or digits")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	path := filepath.Join(dir, fmt.Sprintf("%s_%s.sql", now.UTC().Format("20060102150405"), slug))
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	if err := skeleton.Execute(f, strings.TrimSpace(name)); err != nil {
		return "", err
	}
	return path, nil
}
