// Package controller reconciles the running state of the exporter services
// with the host's assigned role.
//
// When the role is present, every descriptor should be active; when absent,
// none should be. Start attempts are bounded by an explicit RetryPolicy:
// a service that keeps failing is marked degraded for the remainder of the
// current cycle-window instead of being retried forever, and a fresh
// cycle-window re-arms it. Services are independent: one degraded exporter
// never blocks reconciliation of the others or of the discovery file.
package controller
