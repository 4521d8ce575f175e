// Package persistence checkpoints batch transfers so an interrupted batch
// can resume.
//
// The checkpoint is a JSON file recording, per local file, where it was
// uploaded and the SHA-256 it had at the time. A resumed batch skips a job
// only when the file still hashes to the recorded digest and the remote path
// is unchanged.
package persistence
