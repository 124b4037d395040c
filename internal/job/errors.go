package job

import "errors"

// ErrNotFound indicates that no job exists for the requested id.
var ErrNotFound = errors.New("job not found")

// ErrValidation indicates a malformed submission or request.
var ErrValidation = errors.New("validation failed")

// ErrInsufficientJobs indicates that fewer than two jobs could be
// loaded for a comparison.
var ErrInsufficientJobs = errors.New("comparison requires at least 2 loadable jobs")

// ErrEngineInvocation indicates that the evaluation engine signaled
// failure at submission time.
var ErrEngineInvocation = errors.New("evaluation engine invocation failed")
