package bench

import "fmt"

// FatalError ends a benchmark run. Everything else the collaborator reports
// is logged and the run goes on.
type FatalError struct {
	Step string
	Err  error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }
