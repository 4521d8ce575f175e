// Package transfer implements verified file uploads over SSH.
//
// A Client uploads local files with the SCP sink protocol, optionally
// verifies each upload by comparing the local SHA-256 with the output of
// sha256sum on the remote host, and retries failed attempts with
// exponential backoff. Every successful upload produces a Metrics record
// (size, duration, throughput, checksum) that feeds the quality analysis in
// package sigma.
//
// The SSH side is hidden behind the Remote interface; Dial returns a Client
// backed by a real SSH connection, NewClient wraps any Remote.
//
//	client, err := transfer.Dial(ctx, transfer.Config{
//	    Host:     "example.com",
//	    Username: "user",
//	    KeyPath:  "/home/user/.ssh/id_ed25519",
//	})
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	m, err := client.SecureTransfer(ctx, transfer.Job{
//	    LocalPath:  "/data/file1.txt",
//	    RemotePath: "/srv/in/file1.txt",
//	})
package transfer
