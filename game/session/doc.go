// Package session provides session management for Grid Cleaner.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Unique session ID generation
//   - Session cleanup and expiration
//   - Write-only session transcripts
//
// Core Types:
//
// Manager is the session store. Each session wraps an engine.GameEngine built
// from a scenario; a scenario with a start position begins in play, any other
// begins in setup.
//
// Recorder receives one TranscriptEntry per command. ZstdRecorder appends them
// as JSON lines to a zstd-compressed file per session run. Transcripts are for
// auditing and tooling; sessions are never restored from them.
//
// Session Identifiers:
//
// Sessions use 4-character hex IDs, matched case-insensitively.
//
// Usage:
//
//	rec, err := session.NewZstdRecorder("transcripts")
//	if err != nil {
//		log.Fatal(err)
//	}
//	manager := session.NewManagerWithRecorder(rec)
//	defer manager.Close()
//
//	sess, err := manager.Create("", "classic", scenario)
package session
