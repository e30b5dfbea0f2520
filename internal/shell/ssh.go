package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/pulpprobe/pulpprobe/internal/config"
	"golang.org/x/crypto/ssh"
)

// sshTransport runs each command in a fresh session on a single remote
// host. One connection is dialed lazily and reused for the transport's
// lifetime.
type sshTransport struct {
	addr   string
	cfg    *ssh.ClientConfig
	client *ssh.Client
}

func newSSHTransport(sc config.ShellConfig) (*sshTransport, error) {
	host := strings.TrimSpace(sc.Host)
	if host == "" {
		return nil, fmt.Errorf("shell: ssh transport requires a host")
	}
	user := strings.TrimSpace(sc.User)
	if user == "" {
		return nil, fmt.Errorf("shell: ssh transport requires a user")
	}
	keyPath := strings.TrimSpace(sc.KeyFile)
	if keyPath == "" {
		return nil, fmt.Errorf("shell: ssh transport requires a key_file")
	}
	// #nosec G304 -- key path comes from the operator's own settings file
	keyData, err := os.ReadFile(filepath.Clean(keyPath))
	if err != nil {
		return nil, fmt.Errorf("shell: read ssh key: %w", err)
	}
	signer, err := ssh.ParsePrivateKey(keyData)
	if err != nil {
		return nil, fmt.Errorf("shell: parse ssh key: %w", err)
	}

	port := sc.Port
	if port == 0 {
		port = 22
	}
	return &sshTransport{
		addr: net.JoinHostPort(host, fmt.Sprintf("%d", port)),
		cfg: &ssh.ClientConfig{
			User: user,
			Auth: []ssh.AuthMethod{ssh.PublicKeys(signer)},
			// #nosec G106 -- test deployments are provisioned ad hoc; pinning host keys is not practical here
			HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		},
	}, nil
}

func (t *sshTransport) connect() (*ssh.Client, error) {
	if t.client != nil {
		return t.client, nil
	}
	c, err := ssh.Dial("tcp", t.addr, t.cfg)
	if err != nil {
		return nil, fmt.Errorf("shell: ssh dial %s: %w", t.addr, err)
	}
	t.client = c
	return c, nil
}

func (t *sshTransport) Run(ctx context.Context, argv []string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	client, err := t.connect()
	if err != nil {
		return nil, err
	}
	session, err := client.NewSession()
	if err != nil {
		return nil, fmt.Errorf("shell: ssh session: %w", err)
	}
	defer func() { _ = session.Close() }()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	err = session.Run(quoteArgv(argv))
	res := &Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err != nil {
		var ee *ssh.ExitError
		if errors.As(err, &ee) {
			res.Code = ee.ExitStatus()
			return res, nil
		}
		return nil, err
	}
	return res, nil
}

// Close tears down the cached connection.
func (t *sshTransport) Close() error {
	if t.client == nil {
		return nil
	}
	err := t.client.Close()
	t.client = nil
	return err
}

// quoteArgv joins argv into the single command line an SSH session expects,
// single-quoting any argument with shell-significant characters.
func quoteArgv(argv []string) string {
	parts := make([]string, len(argv))
	for i, a := range argv {
		if strings.ContainsAny(a, " \t\"'$&|;<>()*?#~`") {
			parts[i] = "'" + strings.ReplaceAll(a, "'", `'\''`) + "'"
		} else {
			parts[i] = a
		}
	}
	return strings.Join(parts, " ")
}
