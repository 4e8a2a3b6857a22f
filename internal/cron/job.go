// Package cron runs the marketplace's periodic maintenance jobs.
package cron

import "context"

// Job is one unit of scheduled work. Name doubles as the metrics label.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}
