package config

import "time"

// GCPConfig credentials: inline JSON wins over a key file path; with neither,
// application default credentials are used.
type GCPConfig struct {
	ProjectID              string `envconfig:"SABJI_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"SABJI_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"SABJI_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	DomainTopic           string `envconfig:"SABJI_PUBSUB_DOMAIN_TOPIC" default:"sabji-domain-events"`
	AnalyticsSubscription string `envconfig:"SABJI_PUBSUB_ANALYTICS_SUBSCRIPTION" default:"sabji-analytics"`
}

type BigQueryConfig struct {
	Dataset                string `envconfig:"SABJI_BIGQUERY_DATASET" default:"sabji"`
	MarketplaceEventsTable string `envconfig:"SABJI_BIGQUERY_MARKETPLACE_TABLE" default:"marketplace_events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"SABJI_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"SABJI_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"SABJI_OUTBOX_MAX_ATTEMPTS" default:"10"`
	// published rows and dead letters are pruned by the cron worker after these windows
	RetentionDays    int `envconfig:"SABJI_OUTBOX_RETENTION_DAYS" default:"30"`
	DLQRetentionDays int `envconfig:"SABJI_OUTBOX_DLQ_RETENTION_DAYS" default:"90"`
}

// EventingConfig.OutboxIdempotencyTTL is how long consumers remember a
// processed event id.
type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"SABJI_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}
