// Package storage defines the object-store contract used for per-job
// workspaces. The local subpackage keeps objects on disk under one root
// directory, which is what the audio tools need: ffmpeg and the model
// sidecars read real file paths.
package storage
