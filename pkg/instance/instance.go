package instance

import "github.com/sabjimart/sabji-backend/pkg/env"

// GetID returns the process instance identifier used to tag logs.
// SABJI_INSTANCE_ID wins over the platform-provided DYNO and HOSTNAME.
func GetID(fallback string) string {
	for _, key := range []string{"SABJI_INSTANCE_ID", "DYNO", "HOSTNAME"} {
		if id := env.Get(key, ""); id != "" {
			return id
		}
	}
	return fallback
}
