package database

import (
	"fmt"
	"net/url"

	"github.com/sifan077/QuotaLink/config"
)

type connParts struct {
	host     string
	port     int
	user     string
	password string
	database string
	sslMode  string
}

// ConnString builds a postgres:// URL, filling in local defaults.
func ConnString(cfg config.PostgresConfig) string {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port == 0 {
		port = 5432
	}
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	database := cfg.Database
	if database == "" {
		database = "shortener"
	}

	return buildConnString(connParts{
		host:     host,
		port:     port,
		user:     cfg.User,
		password: cfg.Password,
		database: database,
		sslMode:  sslMode,
	})
}

func buildConnString(parts connParts) string {
	u := url.URL{
		Scheme:   "postgres",
		Host:     fmt.Sprintf("%s:%d", parts.host, parts.port),
		Path:     "/" + parts.database,
		RawQuery: url.Values{"sslmode": []string{parts.sslMode}}.Encode(),
	}
	if parts.user != "" {
		if parts.password != "" {
			u.User = url.UserPassword(parts.user, parts.password)
		} else {
			u.User = url.User(parts.user)
		}
	}
	return u.String()
}
