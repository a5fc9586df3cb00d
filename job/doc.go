// Package job runs one audio input through normalize, transcribe, diarize
// and align.
//
// A job never returns an error. Every failure is folded into the Result as
// a Failure naming the stage that failed and the error code, so a caller
// running many jobs can treat each outcome as plain data.
//
// Each job owns a workspace directory, <work_dir>/<job_id>, that holds the
// staged payload and the canonical audio. The workspace is removed when Run
// returns, whatever the outcome.
package job
