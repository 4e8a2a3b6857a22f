package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"
)

type DBConfig struct {
	DSN    string `envconfig:"SABJI_DB_DSN"`
	Driver string `envconfig:"SABJI_DB_DRIVER" default:"postgres"`

	// Used only when DSN is empty.
	Host     string `envconfig:"SABJI_DB_HOST"`
	Port     int    `envconfig:"SABJI_DB_PORT" default:"5432"`
	User     string `envconfig:"SABJI_DB_USER"`
	Password string `envconfig:"SABJI_DB_PASSWORD"`
	Name     string `envconfig:"SABJI_DB_NAME"`
	SSLMode  string `envconfig:"SABJI_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SABJI_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SABJI_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SABJI_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SABJI_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (db *DBConfig) resolveDSN() error {
	if db.DSN != "" {
		return nil
	}
	var missing []string
	for _, part := range [][2]string{{EnvDBHost, db.Host}, {EnvDBUser, db.User}, {EnvDBName, db.Name}} {
		if part[1] == "" {
			missing = append(missing, part[0])
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("set %s or all of %s", EnvDBDSN, strings.Join(missing, ", "))
	}

	u := url.URL{
		Scheme: "postgres",
		User:   url.User(db.User),
		Host:   net.JoinHostPort(db.Host, strconv.Itoa(db.Port)),
		Path:   "/" + db.Name,
	}
	if db.Password != "" {
		u.User = url.UserPassword(db.User, db.Password)
	}
	if db.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {db.SSLMode}}.Encode()
	}
	db.DSN = u.String()
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"SABJI_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SABJI_REDIS_ADDR"`
	Password     string        `envconfig:"SABJI_REDIS_PASSWORD"`
	DB           int           `envconfig:"SABJI_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SABJI_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SABJI_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SABJI_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SABJI_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SABJI_REDIS_WRITE_TIMEOUT" default:"5s"`
}
