// Package util holds small helpers shared by the config, server, and CLI
// layers: size parsing, secret masking and input cleanup.
package util
