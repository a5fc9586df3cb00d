// Package api exposes the transcription pipeline over HTTP.
//
//	POST /api/v1/transcripts   multipart "file"             one result
//	POST /api/v1/batches       multipart "files" (repeated) {batch_id, results}
//	GET  /api/v1/history                                     completed batches
//	GET  /api/v1/history/:id                                 one batch
//
// Every submission runs through the batch orchestrator, so single uploads
// share the concurrency caps and land in history like batches do.
package api
