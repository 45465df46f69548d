package ora

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"connlat-bench/bench"
	"connlat-bench/sqldb"

	go_ora "github.com/sijms/go-ora/v2"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultQuery = "SELECT 'Hello World!' FROM DUAL"
	DefaultPort  = 1521
)

func NewEnvironment(logger log.FieldLogger) *sqldb.Environment {
	return sqldb.New("oracle", DSN, logger)
}

// DSN builds a go-ora URL. TNS descriptors such as
// "(DESCRIPTION=(ADDRESS=(PROTOCOL=TCP)(HOST=db)(PORT=1521))(CONNECT_DATA=(SERVICE_NAME=orcl)))"
// are passed through as connStr; easy-connect strings like "db:1521/orcl"
// are split into host, port and service.
func DSN(creds bench.Credentials, descriptor string) (string, error) {
	descriptor = strings.TrimSpace(descriptor)
	if descriptor == "" {
		return "", errors.New("empty connect descriptor")
	}
	if strings.Contains(strings.ToUpper(descriptor), "(DESCRIPTION") {
		return go_ora.BuildJDBC(creds.User, creds.Password, descriptor, nil), nil
	}

	host, port, service, err := ParseEasyConnect(descriptor)
	if err != nil {
		return "", err
	}
	return go_ora.BuildUrl(host, port, service, creds.User, creds.Password, nil), nil
}

// ParseEasyConnect splits "[//]host[:port][/service[:server][/instance]]".
// Server type and instance name are dropped.
func ParseEasyConnect(s string) (host string, port int, service string, err error) {
	s = strings.TrimPrefix(s, "//")
	addr, rest, _ := strings.Cut(s, "/")
	if i := strings.IndexAny(rest, ":/"); i >= 0 {
		rest = rest[:i]
	}

	host, port, service = addr, DefaultPort, rest
	switch {
	case strings.HasPrefix(addr, "[") && strings.HasSuffix(addr, "]"):
		host = addr[1 : len(addr)-1]
	case strings.HasPrefix(addr, "[") || strings.Count(addr, ":") == 1:
		h, p, err := net.SplitHostPort(addr)
		if err != nil {
			return "", 0, "", fmt.Errorf("easy connect %q: %w", s, err)
		}
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 || n > 65535 {
			return "", 0, "", fmt.Errorf("easy connect %q: bad port %q", s, p)
		}
		host, port = h, n
	}
	if host == "" {
		return "", 0, "", fmt.Errorf("easy connect %q: missing host", s)
	}
	return host, port, service, nil
}
