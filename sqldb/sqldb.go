// Package sqldb runs the benchmark over any database/sql driver.
package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"connlat-bench/bench"

	log "github.com/sirupsen/logrus"
)

// DSNFunc turns credentials and a connect descriptor into the data source
// name of a particular driver.
type DSNFunc func(creds bench.Credentials, descriptor string) (string, error)

// Environment remembers every direct connection and pool it hands out until
// they are terminated or closed, so Close can reclaim whatever is left.
type Environment struct {
	driver string
	dsn    DSNFunc
	log    log.FieldLogger

	conns map[*Conn]struct{}
	pools map[*Pool]struct{}
}

func New(driver string, dsn DSNFunc, logger log.FieldLogger) *Environment {
	return &Environment{
		driver: driver,
		dsn:    dsn,
		log:    logger,
		conns:  map[*Conn]struct{}{},
		pools:  map[*Pool]struct{}{},
	}
}

type Conn struct {
	db     *sql.DB
	conn   *sql.Conn
	pool   *Pool
	closed bool
}

func (c *Conn) Query(ctx context.Context, query string) (bench.Rows, error) {
	if c.closed {
		return nil, bench.ErrClosed
	}
	rows, err := c.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	return &Rows{rows: rows}, nil
}

func (e *Environment) open(creds bench.Credentials, descriptor string) (*sql.DB, error) {
	dsn, err := e.dsn(creds, descriptor)
	if err != nil {
		return nil, fmt.Errorf("build %s dsn: %w", e.driver, err)
	}
	return sql.Open(e.driver, dsn)
}

// Connect dials a dedicated session that is not shared with any pool.
func (e *Environment) Connect(ctx context.Context, creds bench.Credentials, descriptor string) (bench.Conn, error) {
	db, err := e.open(creds, descriptor)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(0)

	conn, err := db.Conn(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}
	c := &Conn{db: db, conn: conn}
	e.conns[c] = struct{}{}
	return c, nil
}

func (e *Environment) Terminate(ctx context.Context, c bench.Conn) error {
	conn, ok := c.(*Conn)
	if !ok || conn.pool != nil {
		return bench.ErrForeignConn
	}
	if conn.closed {
		return bench.ErrClosed
	}
	conn.closed = true
	delete(e.conns, conn)
	return errors.Join(conn.conn.Close(), conn.db.Close())
}

func (e *Environment) CreatePool(ctx context.Context, creds bench.Credentials, descriptor string, sizing bench.PoolSizing) (bench.Pool, error) {
	if err := sizing.Validate(); err != nil {
		return nil, err
	}
	db, err := e.open(creds, descriptor)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(sizing.Max)
	db.SetMaxIdleConns(sizing.Max)

	p := &Pool{db: db, sizing: sizing, log: e.log, env: e}
	if err := p.grow(ctx, sizing.Warm(0)); err != nil {
		db.Close()
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	e.pools[p] = struct{}{}
	return p, nil
}

// Close terminates connections and pools the caller never gave back.
func (e *Environment) Close() {
	for c := range e.conns {
		e.log.Warn("terminating leaked connection")
		c.closed = true
		if err := errors.Join(c.conn.Close(), c.db.Close()); err != nil {
			e.log.Warnf("terminate leaked connection: %v", err)
		}
		delete(e.conns, c)
	}
	for p := range e.pools {
		e.log.Warn("closing leaked pool")
		if err := p.Close(); err != nil {
			e.log.Warnf("close leaked pool: %v", err)
		}
	}
}

type Pool struct {
	db     *sql.DB
	sizing bench.PoolSizing
	log    log.FieldLogger
	env    *Environment
}

// grow opens n sessions and parks them as idle.
func (p *Pool) grow(ctx context.Context, n int) error {
	if n == 0 {
		return nil
	}
	conns := make([]*sql.Conn, 0, n)
	defer func() {
		for _, c := range conns {
			c.Close()
		}
	}()
	for i := 0; i < n; i++ {
		c, err := p.db.Conn(ctx)
		if err != nil {
			return fmt.Errorf("grow pool: %w", err)
		}
		conns = append(conns, c)
	}
	p.log.WithField("open", p.db.Stats().OpenConnections).Debugf("pool grew by %d", n)
	return nil
}

func (p *Pool) Acquire(ctx context.Context) (bench.Conn, error) {
	st := p.db.Stats()
	if err := p.grow(ctx, p.sizing.Grow(st.Idle, st.OpenConnections)); err != nil {
		return nil, err
	}
	conn, err := p.db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	return &Conn{db: p.db, conn: conn, pool: p}, nil
}

// Release hands the session back to the pool's idle set.
func (p *Pool) Release(ctx context.Context, c bench.Conn) error {
	conn, ok := c.(*Conn)
	if !ok || conn.pool != p {
		return bench.ErrForeignConn
	}
	if conn.closed {
		return bench.ErrClosed
	}
	conn.closed = true
	return conn.conn.Close()
}

func (p *Pool) Close() error {
	delete(p.env.pools, p)
	return p.db.Close()
}

type Rows struct {
	rows *sql.Rows
}

func (r *Rows) Next() bool   { return r.rows.Next() }
func (r *Rows) Err() error   { return r.rows.Err() }
func (r *Rows) Close() error { return r.rows.Close() }

func (r *Rows) Values() ([]any, error) {
	cols, err := r.rows.Columns()
	if err != nil {
		return nil, err
	}
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	if err := r.rows.Scan(ptrs...); err != nil {
		return nil, err
	}
	return vals, nil
}
