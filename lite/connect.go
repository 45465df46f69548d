// Package lite points the benchmark at a local SQLite file. Useful as a
// baseline with no network in the way.
package lite

import (
	"connlat-bench/bench"
	"connlat-bench/sqldb"

	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

const DefaultQuery = "SELECT 'Hello World!'"

func NewEnvironment(logger log.FieldLogger) *sqldb.Environment {
	return sqldb.New("sqlite", DSN, logger)
}

// DSN uses the descriptor as the database path; SQLite has no credentials.
func DSN(_ bench.Credentials, descriptor string) (string, error) {
	return descriptor, nil
}
