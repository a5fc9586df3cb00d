// Package watch turns new audio files in a directory into batches.
//
// A Watcher listens for fsnotify create and write events, waits until a file
// has been quiet for the settle interval so partially copied recordings are
// not picked up, and hands every settled file to the submit function in one
// call, sorted by name.
package watch
