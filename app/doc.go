// Package app wires a scribe process from its Config: model backends from
// the provider registries, the job pipeline, the batch orchestrator with its
// history store, and the HTTP server with the transcription API.
package app
