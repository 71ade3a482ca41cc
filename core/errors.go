package core

import "errors"

// Configuration and logic errors. The configuration errors are reported by
// Build before any interrupt is enabled.
var (
	ErrCeilingTooLow    = errors.New("resource ceiling below task priority")
	ErrCeilingRange     = errors.New("resource ceiling out of range")
	ErrPriorityRange    = errors.New("task priority out of range")
	ErrSourceRange      = errors.New("interrupt source out of range")
	ErrDuplicateSource  = errors.New("interrupt source already bound")
	ErrNoHandler        = errors.New("task has no handler")
	ErrForeignResource  = errors.New("resource belongs to another app")
	ErrTooManyResources = errors.New("too many resources")
	ErrSealed           = errors.New("app already built")
	ErrNotBuilt         = errors.New("app not built")

	ErrAlreadyHeld   = errors.New("resource already held")
	ErrForeignHandle = errors.New("handle belongs to another task")
	ErrScopeExpired  = errors.New("threshold used outside its invocation")
	ErrNestingDepth  = errors.New("lock scopes nested too deeply")

	// ErrNotReady is returned by non-blocking hardware polls.
	ErrNotReady = errors.New("not ready")
	// ErrShortWrite is returned when a port accepted fewer bytes than given.
	ErrShortWrite = errors.New("short write")
)

// ConfigError ties a configuration error to the task and resource involved.
type ConfigError struct {
	Task     string
	Resource string
	Err      error
}

func (e *ConfigError) Error() string {
	msg := e.Err.Error()
	if e.Resource != "" {
		msg = "resource " + e.Resource + ": " + msg
	}
	if e.Task != "" {
		msg = "task " + e.Task + ": " + msg
	}
	return msg
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
