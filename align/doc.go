// Package align attributes transcript text to speakers.
//
// Each speaker span, in the order given, claims every not-yet-claimed
// transcript segment that overlaps it by a positive amount. A transcript
// segment is attributed to at most one speaker, so a segment straddling a
// speaker change goes to whichever span is processed first.
package align
