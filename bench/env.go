package bench

import (
	"context"
	"errors"
)

var (
	// ErrForeignConn is returned when a connection is handed back to something
	// that did not produce it: a pooled connection passed to Terminate, a
	// direct one passed to Release, or a connection from another pool.
	ErrForeignConn = errors.New("connection does not belong here")
	ErrClosed      = errors.New("connection already closed")
)

// Environment is the root handle of a database client library. It creates
// direct connections and pools; every resource it hands out must be given
// back before Close.
type Environment interface {
	Connect(ctx context.Context, creds Credentials, descriptor string) (Conn, error)
	Terminate(ctx context.Context, conn Conn) error
	CreatePool(ctx context.Context, creds Credentials, descriptor string, sizing PoolSizing) (Pool, error)
	Close()
}

type Pool interface {
	Acquire(ctx context.Context) (Conn, error)
	Release(ctx context.Context, conn Conn) error
	Close() error
}

type Conn interface {
	Query(ctx context.Context, sql string) (Rows, error)
}

type Rows interface {
	Next() bool
	Values() ([]any, error)
	Err() error
	Close() error
}
