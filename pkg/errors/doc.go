// Package errors provides structured error types for the jobstats role monitor.
//
// Errors carry a classification code aligned with the agent's failure
// taxonomy: transient cluster-manager outages (ErrCodeUnavailable),
// credential problems requiring operator action (ErrCodeUnauthorized),
// process supervisor failures (ErrCodeInternal), and so on. The
// reconciliation loop uses the code to decide how loudly to log a failure;
// no code is ever fatal to the agent.
//
// StructuredError supports errors.Is and errors.As through Unwrap, so callers
// can still match on underlying sentinel errors where needed.
package errors
