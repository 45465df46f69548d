package sqldb

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"connlat-bench/bench"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func newSQLite(t *testing.T) (*Environment, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bench.db")
	env := New("sqlite", func(_ bench.Credentials, d string) (string, error) { return d, nil }, log.New())
	return env, path
}

func fetch(t *testing.T, conn bench.Conn) []any {
	t.Helper()
	rows, err := conn.Query(context.Background(), "SELECT 'Hello World!', 42")
	require.NoError(t, err)
	defer rows.Close()

	var last []any
	n := 0
	for rows.Next() {
		vals, err := rows.Values()
		require.NoError(t, err)
		last = vals
		n++
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, 1, n)
	return last
}

func TestDirectConnection(t *testing.T) {
	ctx := context.Background()
	env, path := newSQLite(t)
	defer env.Close()

	conn, err := env.Connect(ctx, bench.Credentials{}, path)
	require.NoError(t, err)

	vals := fetch(t, conn)
	require.Len(t, vals, 2)
	assert.Equal(t, "Hello World!", vals[0])
	assert.EqualValues(t, 42, vals[1])

	require.NoError(t, env.Terminate(ctx, conn))
	assert.ErrorIs(t, env.Terminate(ctx, conn), bench.ErrClosed)

	_, err = conn.Query(ctx, "SELECT 1")
	assert.ErrorIs(t, err, bench.ErrClosed)
}

func TestPoolAcquireRelease(t *testing.T) {
	ctx := context.Background()
	env, path := newSQLite(t)

	p, err := env.CreatePool(ctx, bench.Credentials{}, path, bench.DefaultPoolSizing)
	require.NoError(t, err)
	pool := p.(*Pool)
	defer pool.Close()

	st := pool.db.Stats()
	assert.Equal(t, 2, st.OpenConnections, "warmed to min")
	assert.Equal(t, 2, st.Idle)

	for i := 0; i < 5; i++ {
		conn, err := pool.Acquire(ctx)
		require.NoError(t, err)
		fetch(t, conn)
		require.NoError(t, pool.Release(ctx, conn))
		assert.ErrorIs(t, pool.Release(ctx, conn), bench.ErrClosed)
	}
	assert.Equal(t, 2, pool.db.Stats().OpenConnections, "idle sessions are reused")
}

func TestPoolGrowsByIncrement(t *testing.T) {
	ctx := context.Background()
	env, path := newSQLite(t)

	p, err := env.CreatePool(ctx, bench.Credentials{}, path, bench.PoolSizing{Min: 1, Max: 4, Increment: 2})
	require.NoError(t, err)
	pool := p.(*Pool)
	defer pool.Close()

	var held []bench.Conn
	for i := 0; i < 4; i++ {
		conn, err := pool.Acquire(ctx)
		require.NoError(t, err)
		held = append(held, conn)
	}
	st := pool.db.Stats()
	assert.Equal(t, 4, st.OpenConnections)
	assert.Equal(t, 4, st.InUse)

	for _, c := range held {
		require.NoError(t, pool.Release(ctx, c))
	}
	assert.Equal(t, 4, pool.db.Stats().Idle)
}

func TestOwnershipIsEnforced(t *testing.T) {
	ctx := context.Background()
	env, path := newSQLite(t)

	p, err := env.CreatePool(ctx, bench.Credentials{}, path, bench.DefaultPoolSizing)
	require.NoError(t, err)
	defer p.Close()
	other, err := env.CreatePool(ctx, bench.Credentials{}, path, bench.DefaultPoolSizing)
	require.NoError(t, err)
	defer other.Close()

	pooled, err := p.Acquire(ctx)
	require.NoError(t, err)
	assert.ErrorIs(t, env.Terminate(ctx, pooled), bench.ErrForeignConn)
	assert.ErrorIs(t, other.Release(ctx, pooled), bench.ErrForeignConn)
	require.NoError(t, p.Release(ctx, pooled))

	direct, err := env.Connect(ctx, bench.Credentials{}, path)
	require.NoError(t, err)
	assert.ErrorIs(t, p.Release(ctx, direct), bench.ErrForeignConn)
	require.NoError(t, env.Terminate(ctx, direct))
}

func TestCreatePoolRejectsBadSizing(t *testing.T) {
	env, path := newSQLite(t)
	_, err := env.CreatePool(context.Background(), bench.Credentials{}, path, bench.PoolSizing{Min: 3, Max: 2, Increment: 1})
	assert.ErrorIs(t, err, bench.ErrInvalidSizing)
}

func TestDSNErrorIsWrapped(t *testing.T) {
	boom := errors.New("bad descriptor")
	env := New("sqlite", func(bench.Credentials, string) (string, error) { return "", boom }, log.New())

	_, err := env.Connect(context.Background(), bench.Credentials{}, "x")
	assert.ErrorIs(t, err, boom)
	_, err = env.CreatePool(context.Background(), bench.Credentials{}, "x", bench.DefaultPoolSizing)
	assert.ErrorIs(t, err, boom)
}

func TestCloseReclaimsLeftovers(t *testing.T) {
	ctx := context.Background()
	logger, hook := test.NewNullLogger()
	path := filepath.Join(t.TempDir(), "bench.db")
	env := New("sqlite", func(_ bench.Credentials, d string) (string, error) { return d, nil }, logger)

	leaked, err := env.Connect(ctx, bench.Credentials{}, path)
	require.NoError(t, err)
	done, err := env.Connect(ctx, bench.Credentials{}, path)
	require.NoError(t, err)
	require.NoError(t, env.Terminate(ctx, done))

	p, err := env.CreatePool(ctx, bench.Credentials{}, path, bench.DefaultPoolSizing)
	require.NoError(t, err)
	closedPool, err := env.CreatePool(ctx, bench.Credentials{}, path, bench.DefaultPoolSizing)
	require.NoError(t, err)
	require.NoError(t, closedPool.Close())

	env.Close()

	var warnings []string
	for _, e := range hook.AllEntries() {
		assert.Equal(t, log.WarnLevel, e.Level)
		warnings = append(warnings, e.Message)
	}
	assert.Equal(t, []string{"terminating leaked connection", "closing leaked pool"}, warnings)

	_, err = leaked.Query(ctx, "SELECT 1")
	assert.ErrorIs(t, err, bench.ErrClosed)
	assert.ErrorIs(t, env.Terminate(ctx, leaked), bench.ErrClosed)
	assert.Error(t, p.(*Pool).db.PingContext(ctx), "pool closed")
	assert.Empty(t, env.conns)
	assert.Empty(t, env.pools)

	hook.Reset()
	env.Close()
	assert.Empty(t, hook.AllEntries(), "second close has nothing left to reclaim")
}
