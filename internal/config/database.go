// internal/config/database.go
package config

import (
	"fmt"
	"net/url"
)

func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode,
	)
}

// SQLiteDSN enables foreign keys and a busy timeout so concurrent writers
// wait on the file lock instead of failing immediately.
func (d *DatabaseConfig) SQLiteDSN() string {
	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "busy_timeout(5000)")
	q.Add("_pragma", "journal_mode(WAL)")
	return d.SQLitePath + "?" + q.Encode()
}
