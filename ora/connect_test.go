package ora

import (
	"testing"

	"connlat-bench/bench"

	go_ora "github.com/sijms/go-ora/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tns = "(DESCRIPTION=(ADDRESS=(PROTOCOL=TCP)(HOST=db)(PORT=1521))(CONNECT_DATA=(SERVICE_NAME=orcl)))"

func TestDSN(t *testing.T) {
	tests := []struct {
		name       string
		descriptor string
		host       string
		port       int
		service    string
	}{
		{name: "tns", descriptor: tns, host: "db", port: 1521, service: "orcl"},
		{name: "tuned tns", descriptor: bench.TuneDescriptor(tns), host: "db", port: 1521, service: "orcl"},
		{name: "easy connect", descriptor: "db:1521/orcl", host: "db", port: 1521, service: "orcl"},
		{name: "easy connect default port", descriptor: "//db.example.com/sales", host: "db.example.com", port: 1521, service: "sales"},
		{name: "easy connect with server", descriptor: "db:1522/orcl:dedicated", host: "db", port: 1522, service: "orcl"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dsn, err := DSN(bench.Credentials{User: "bench", Password: "pw"}, tt.descriptor)
			require.NoError(t, err)

			cfg, err := go_ora.ParseConfig(dsn)
			require.NoError(t, err, dsn)
			require.NotEmpty(t, cfg.Servers, dsn)
			assert.Equal(t, tt.host, cfg.Servers[0].Addr)
			assert.EqualValues(t, tt.port, cfg.Servers[0].Port)
			assert.Equal(t, tt.service, cfg.ServiceName)
			assert.Equal(t, "bench", cfg.UserID)
		})
	}
}

func TestDSNInvalid(t *testing.T) {
	for _, d := range []string{"", "   ", "db:port/orcl", ":1521/orcl", "db:70000/orcl"} {
		_, err := DSN(bench.Credentials{}, d)
		assert.Error(t, err, "%q", d)
	}
}

func TestParseEasyConnect(t *testing.T) {
	host, port, service, err := ParseEasyConnect("[::1]:1522/orcl/inst1")
	require.NoError(t, err)
	assert.Equal(t, "::1", host)
	assert.Equal(t, 1522, port)
	assert.Equal(t, "orcl", service)

	host, port, service, err = ParseEasyConnect("db")
	require.NoError(t, err)
	assert.Equal(t, "db", host)
	assert.Equal(t, DefaultPort, port)
	assert.Empty(t, service)
}
