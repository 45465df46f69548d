package pg

import (
	"strings"

	"connlat-bench/bench"
	"connlat-bench/sqldb"

	"github.com/lib/pq"
	log "github.com/sirupsen/logrus"
)

// NewPQEnvironment runs the same benchmark through lib/pq and database/sql
// instead of pgx, for comparing the two client stacks.
func NewPQEnvironment(logger log.FieldLogger) *sqldb.Environment {
	return sqldb.New("postgres", PQDSN, logger)
}

// PQDSN converts a postgres:// URL or keyword/value string into lib/pq's
// keyword/value form with the given credentials appended.
func PQDSN(creds bench.Credentials, descriptor string) (string, error) {
	dsn := descriptor
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		var err error
		if dsn, err = pq.ParseURL(dsn); err != nil {
			return "", err
		}
	}
	parts := []string{}
	if dsn != "" {
		parts = append(parts, dsn)
	}
	parts = append(parts, "user="+quote(creds.User), "password="+quote(creds.Password))
	return strings.Join(parts, " "), nil
}

func quote(v string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(v) + "'"
}
