package config

import "time"

type JWTConfig struct {
	Secret                 string `envconfig:"SABJI_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"SABJI_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"SABJI_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"SABJI_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL is zero when unset or negative.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	return time.Duration(max(j.RefreshTokenTTLMinutes, 0)) * time.Minute
}

// PasswordConfig tunes argon2id hashing.
type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"SABJI_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"SABJI_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"SABJI_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"SABJI_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"SABJI_ARGON_KEY_LEN" default:"32"`
}

// AuthRateLimitConfig bounds login and signup attempts per client IP and per
// email or mobile. A zero limit disables that dimension.
type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"SABJI_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"SABJI_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"SABJI_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"SABJI_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"SABJI_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"SABJI_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"SABJI_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}
