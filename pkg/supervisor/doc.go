// Package supervisor abstracts the local process supervisor that runs the
// exporter units.
//
// The production implementation talks to systemd over D-Bus. Start and stop
// are idempotent at this layer: starting an active unit or stopping an
// inactive one is a no-op success, so the controller above never has to
// special-case converged services.
//
// A scriptable Fake lives alongside for controller and loop tests.
package supervisor
