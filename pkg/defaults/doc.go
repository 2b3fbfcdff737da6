// Package defaults centralizes timeout and interval constants used across the
// role monitor. Keeping them in one place makes the agent's timing behavior
// auditable without chasing magic numbers through the reconciler.
package defaults
