package bench

import "time"

const (
	StepCreateConnection  = "Create Connection"
	StepExecuteSQL        = "Execute SQL"
	StepTerminateConn     = "Terminate Connection"
	StepAcquireConnection = "Get Connection from Pool"
	StepReleaseConnection = "Release Connection to Pool"
)

const (
	PhaseUnpooled = "unpooled"
	PhasePooled   = "pooled"
)

type Credentials struct {
	User     string
	Password string
}

// PoolSizing is the growth policy of a connection pool: it starts with Min
// sessions, grows by Increment when no idle session is left, and never
// exceeds Max.
type PoolSizing struct {
	Min       int
	Max       int
	Increment int
}

var DefaultPoolSizing = PoolSizing{Min: 2, Max: 10, Increment: 2}

type Sample struct {
	Iteration int
	Step      string
	At        time.Time
	Duration  time.Duration
	Err       error
}

type Report struct {
	Unpooled []Sample
	Pooled   []Sample
}

type StepStats struct {
	Label      string
	Total      int
	Errors     int
	LatencyAvg time.Duration
	LatencyMin time.Duration
	LatencyMax time.Duration
	LatencyP50 time.Duration
	LatencyP90 time.Duration
	LatencyP99 time.Duration
}
