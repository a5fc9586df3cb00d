// Package bootstrap runs the scribe process lifecycle.
//
// An App starts its registered components in order, runs the OnStart and
// OnReady hooks, prints a startup summary and then either waits for a
// shutdown signal (Run) or executes a finite task (RunTask). Shutdown runs
// the OnStop hooks and stops components in reverse order within a graceful
// timeout.
package bootstrap
