// Package diarization defines the speaker diarization contract: an audio
// file in, speaker-attributed time spans out.
//
// Span order is whatever the backend returns; consumers must not assume
// the spans are sorted or disjoint.
//
//   - diarization/pyannote: pyannote.audio HTTP sidecar
package diarization
