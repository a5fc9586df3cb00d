// Package logger wraps zerolog for scribe.
//
// Each subsystem takes a scoped logger from the registry and attaches
// structured fields per event:
//
//	log := logger.Get("job")
//	log.Info("stage completed", logger.Fields("job_id", id, "stage", "normalize"))
//
// Output is JSON or a console writer, sent to stdout, stderr, or a file
// rotated by lumberjack:
//
//	logging:
//	  level: info
//	  format: json
//	  output: file
//	  file: /var/log/scribe/scribe.log
package logger
