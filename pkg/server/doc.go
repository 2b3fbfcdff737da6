// Package server implements the agent's optional introspection listener.
//
// The listener is disabled unless the configuration sets metrics_address.
// When enabled it exposes:
//
//	GET /health   - liveness probe, always 200 while the process runs
//	GET /ready    - 200 once at least one reconciliation cycle completed
//	GET /status   - JSON view of the loop: phase, role, last cycle time
//	GET /metrics  - Prometheus metrics for the agent itself
//
// The status endpoint runs through request-ID, panic-recovery, logging, and
// metrics middleware; the probe endpoints are served bare so orchestration
// probes stay cheap.
package server
