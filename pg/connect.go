package pg

import (
	"context"
	"fmt"

	"connlat-bench/bench"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

const DefaultQuery = "SELECT 'Hello World!'"

// Environment drives pgx directly: pgx.Conn for unpooled sessions and
// pgxpool for pooled ones.
type Environment struct {
	log   log.FieldLogger
	conns map[*Conn]struct{}
	pools map[*Pool]struct{}
}

func NewEnvironment(logger log.FieldLogger) *Environment {
	return &Environment{
		log:   logger,
		conns: map[*Conn]struct{}{},
		pools: map[*Pool]struct{}{},
	}
}

// ConnConfig parses a pgx connection string (URL or keyword/value form) and
// overrides its credentials.
func ConnConfig(creds bench.Credentials, descriptor string) (*pgx.ConnConfig, error) {
	cfg, err := pgx.ParseConfig(descriptor)
	if err != nil {
		return nil, err
	}
	cfg.User = creds.User
	cfg.Password = creds.Password
	return cfg, nil
}

func PoolConfig(creds bench.Credentials, descriptor string, sizing bench.PoolSizing) (*pgxpool.Config, error) {
	if err := sizing.Validate(); err != nil {
		return nil, err
	}
	cfg, err := pgxpool.ParseConfig(descriptor)
	if err != nil {
		return nil, err
	}
	cfg.ConnConfig.User = creds.User
	cfg.ConnConfig.Password = creds.Password
	cfg.MaxConns = int32(sizing.Max)
	cfg.MinConns = int32(sizing.Min)
	return cfg, nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type Conn struct {
	q      querier
	direct *pgx.Conn
	pooled *pgxpool.Conn
	pool   *Pool
	closed bool
}

func (c *Conn) Query(ctx context.Context, sql string) (bench.Rows, error) {
	if c.closed {
		return nil, bench.ErrClosed
	}
	rows, err := c.q.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	return &Rows{Rows: rows}, nil
}

func (e *Environment) Connect(ctx context.Context, creds bench.Credentials, descriptor string) (bench.Conn, error) {
	cfg, err := ConnConfig(creds, descriptor)
	if err != nil {
		return nil, err
	}
	conn, err := pgx.ConnectConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	c := &Conn{q: conn, direct: conn}
	e.conns[c] = struct{}{}
	return c, nil
}

func (e *Environment) Terminate(ctx context.Context, c bench.Conn) error {
	conn, ok := c.(*Conn)
	if !ok || conn.direct == nil {
		return bench.ErrForeignConn
	}
	if conn.closed {
		return bench.ErrClosed
	}
	conn.closed = true
	delete(e.conns, conn)
	return conn.direct.Close(ctx)
}

func (e *Environment) CreatePool(ctx context.Context, creds bench.Credentials, descriptor string, sizing bench.PoolSizing) (bench.Pool, error) {
	cfg, err := PoolConfig(creds, descriptor, sizing)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	// pgxpool opens MinConns in the background; only growth past them is ours.
	p := &Pool{pool: pool, sizing: sizing, log: e.log, env: e}
	e.pools[p] = struct{}{}
	return p, nil
}

// Close terminates connections and pools the caller never gave back.
func (e *Environment) Close() {
	for c := range e.conns {
		e.log.Warn("terminating leaked connection")
		c.closed = true
		if err := c.direct.Close(context.Background()); err != nil {
			e.log.Warnf("terminate leaked connection: %v", err)
		}
		delete(e.conns, c)
	}
	for p := range e.pools {
		e.log.Warn("closing leaked pool")
		p.Close()
	}
}

type Pool struct {
	pool   *pgxpool.Pool
	sizing bench.PoolSizing
	log    log.FieldLogger
	env    *Environment
}

// grow checks out n fresh sessions at once and returns them, leaving them idle.
func (p *Pool) grow(ctx context.Context, n int) error {
	if n == 0 {
		return nil
	}
	conns := make([]*pgxpool.Conn, 0, n)
	defer func() {
		for _, c := range conns {
			c.Release()
		}
	}()
	for i := 0; i < n; i++ {
		c, err := p.pool.Acquire(ctx)
		if err != nil {
			return fmt.Errorf("grow pool: %w", err)
		}
		conns = append(conns, c)
	}
	p.log.WithField("open", p.pool.Stat().TotalConns()).Debugf("pool grew by %d", n)
	return nil
}

func (p *Pool) Acquire(ctx context.Context) (bench.Conn, error) {
	st := p.pool.Stat()
	if err := p.grow(ctx, p.sizing.Grow(int(st.IdleConns()), int(st.TotalConns()))); err != nil {
		return nil, err
	}
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return &Conn{q: conn, pooled: conn, pool: p}, nil
}

func (p *Pool) Release(ctx context.Context, c bench.Conn) error {
	conn, ok := c.(*Conn)
	if !ok || conn.pool != p {
		return bench.ErrForeignConn
	}
	if conn.closed {
		return bench.ErrClosed
	}
	conn.closed = true
	conn.pooled.Release()
	return nil
}

func (p *Pool) Close() error {
	delete(p.env.pools, p)
	p.pool.Close()
	return nil
}

// Rows adapts pgx.Rows, whose Close reports nothing, to bench.Rows.
type Rows struct {
	pgx.Rows
}

func (r *Rows) Close() error {
	r.Rows.Close()
	return r.Rows.Err()
}
