package my

import (
	"connlat-bench/bench"
	"connlat-bench/sqldb"

	"github.com/go-sql-driver/mysql"
	log "github.com/sirupsen/logrus"
)

const DefaultQuery = "SELECT 'Hello World!' FROM DUAL"

func NewEnvironment(logger log.FieldLogger) *sqldb.Environment {
	return sqldb.New("mysql", DSN, logger)
}

// DSN accepts a go-sql-driver DSN without credentials, e.g.
// "tcp(127.0.0.1:3306)/bench", and fills in user and password.
func DSN(creds bench.Credentials, descriptor string) (string, error) {
	cfg, err := mysql.ParseDSN(descriptor)
	if err != nil {
		return "", err
	}
	cfg.User = creds.User
	cfg.Passwd = creds.Password
	cfg.InterpolateParams = true
	cfg.AllowCleartextPasswords = true
	return cfg.FormatDSN(), nil
}
