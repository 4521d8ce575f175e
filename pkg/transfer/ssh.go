package transfer

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// sshRemote implements Remote over an SSH connection.
type sshRemote struct {
	client *ssh.Client
	addr   string
}

// dialSSH opens an authenticated SSH connection for cfg.
func dialSSH(ctx context.Context, cfg Config) (*sshRemote, error) {
	signer, err := loadSigner(cfg.KeyPath, cfg.KeyPassphrase)
	if err != nil {
		return nil, err
	}

	hostKeyCallback, err := hostKeyCallback(cfg.HostKeyPolicy, cfg.KnownHostsPath)
	if err != nil {
		return nil, err
	}

	clientConfig := &ssh.ClientConfig{
		User:            cfg.Username,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: hostKeyCallback,
		Timeout:         cfg.SocketTimeout,
	}

	addr := cfg.Addr()
	dialer := &net.Dialer{Timeout: cfg.SocketTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, clientConfig)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("ssh handshake with %s: %w", addr, err)
	}

	return &sshRemote{
		client: ssh.NewClient(sshConn, chans, reqs),
		addr:   addr,
	}, nil
}

// loadSigner reads a private key file.
func loadSigner(path, passphrase string) (ssh.Signer, error) {
	pemBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}

	var signer ssh.Signer
	if passphrase != "" {
		signer, err = ssh.ParsePrivateKeyWithPassphrase(pemBytes, []byte(passphrase))
	} else {
		signer, err = ssh.ParsePrivateKey(pemBytes)
	}
	if err != nil {
		var missing *ssh.PassphraseMissingError
		if errors.As(err, &missing) {
			return nil, fmt.Errorf("private key %s is encrypted: passphrase required", path)
		}
		return nil, fmt.Errorf("parse private key %s: %w", path, err)
	}
	return signer, nil
}

// DefaultKnownHostsPath returns ~/.ssh/known_hosts.
func DefaultKnownHostsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".ssh", "known_hosts")
	}
	return filepath.Join(home, ".ssh", "known_hosts")
}

// hostKeyCallback builds the host key check for a policy.
func hostKeyCallback(policy HostKeyPolicy, path string) (ssh.HostKeyCallback, error) {
	if policy == HostKeyInsecure {
		return ssh.InsecureIgnoreHostKey(), nil
	}
	if path == "" {
		path = DefaultKnownHostsPath()
	}

	if policy == HostKeyAcceptNew {
		if err := ensureFile(path); err != nil {
			return nil, fmt.Errorf("known_hosts: %w", err)
		}
	}

	check, err := knownhosts.New(path)
	if err != nil {
		return nil, fmt.Errorf("known_hosts: %w", err)
	}
	if policy == HostKeyStrict {
		return check, nil
	}

	var mu sync.Mutex
	return func(hostname string, remote net.Addr, key ssh.PublicKey) error {
		err := check(hostname, remote, key)
		var keyErr *knownhosts.KeyError
		if err == nil || !errors.As(err, &keyErr) || len(keyErr.Want) > 0 {
			// Known, unrelated failure, or a changed key.
			return err
		}

		mu.Lock()
		defer mu.Unlock()
		return appendKnownHost(path, hostname, key)
	}, nil
}

func ensureFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDONLY, 0600)
	if err != nil {
		return err
	}
	return f.Close()
}

func appendKnownHost(path, hostname string, key ssh.PublicKey) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("known_hosts: %w", err)
	}
	defer f.Close()

	line := knownhosts.Line([]string{knownhosts.Normalize(hostname)}, key)
	if _, err := fmt.Fprintln(f, line); err != nil {
		return fmt.Errorf("known_hosts: %w", err)
	}
	return nil
}

// Upload runs "scp -t" on the remote host and streams src to it.
func (r *sshRemote) Upload(ctx context.Context, src io.Reader, info FileInfo, remotePath string) error {
	session, err := r.client.NewSession()
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}
	defer session.Close()

	stdin, err := session.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := session.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	var stderr bytes.Buffer
	session.Stderr = &stderr

	if err := session.Start("scp -t " + shellQuote(remotePath)); err != nil {
		return fmt.Errorf("start scp: %w", err)
	}

	stop := context.AfterFunc(ctx, func() { session.Close() })
	defer stop()

	sendErr := sendFile(stdin, bufio.NewReader(stdout), src, info)
	stdin.Close()
	waitErr := session.Wait()

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if sendErr != nil {
		return sendErr
	}
	if waitErr != nil {
		return fmt.Errorf("scp exited: %w: %s", waitErr, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// SHA256 runs sha256sum on the remote file.
func (r *sshRemote) SHA256(ctx context.Context, remotePath string) (string, error) {
	session, err := r.client.NewSession()
	if err != nil {
		return "", fmt.Errorf("open session: %w", err)
	}
	defer session.Close()

	stop := context.AfterFunc(ctx, func() { session.Close() })
	defer stop()

	var stderr bytes.Buffer
	session.Stderr = &stderr
	out, err := session.Output("sha256sum -- " + shellQuote(remotePath))
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	if err != nil {
		return "", fmt.Errorf("sha256sum: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return parseSHA256Output(out)
}

// parseSHA256Output extracts the digest from sha256sum output.
func parseSHA256Output(out []byte) (string, error) {
	fields := strings.Fields(string(out))
	if len(fields) == 0 {
		return "", errors.New("sha256sum: empty output")
	}
	digest := strings.ToLower(strings.TrimPrefix(fields[0], `\`))
	if !IsSHA256Hex(digest) {
		return "", fmt.Errorf("sha256sum: unexpected output %q", fields[0])
	}
	return digest, nil
}

func (r *sshRemote) Addr() string {
	return r.addr
}

func (r *sshRemote) Close() error {
	return r.client.Close()
}

var _ Remote = (*sshRemote)(nil)
