// Package errors defines AppError, the coded error every scribe layer
// returns. A code fixes the HTTP status and whether a retry can help, and
// job failures carry it through to the API and CLI output unchanged.
package errors
