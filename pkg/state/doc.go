// Package state persists the per-host reconciliation state across agent
// restarts.
//
// The state is a single JSON document per host, written atomically after
// every cycle. It records the last successfully reconciled role, per-service
// retry bookkeeping, and the hash of the last discovery file written, so a
// restarted agent resumes where it left off instead of blindly redoing work.
//
// Loading is deliberately forgiving: a missing or corrupt state file yields
// a fresh zero state, never an error that could keep the agent down.
package state
