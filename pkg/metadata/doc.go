// Package metadata writes a JSON sidecar beside each raw case document,
// recording the source URL, discovery title and window, content hash and
// fetch time. Store wraps storage.RawStore so every Put leaves both files.
package metadata
