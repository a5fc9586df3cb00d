// Package version reports the build version of the scribe binary.
//
// Version, git commit and build time are set at compile time via
// -ldflags, falling back to the VCS stamp Go embeds in the binary:
//
//	go build -ldflags "-X github.com/kbukum/scribe/version.Version=1.0.0" ./cmd/scribe
package version
