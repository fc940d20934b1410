// Package prompt collects answers from the user: yes/no confirmations, free-text
// values and remote credentials.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/bral/git-bump-go/internal/repo"
)

// Confirmer answers yes/no questions.
type Confirmer interface {
	Confirm(question string) bool
}

// Asker collects a free-text value, falling back to def on an empty answer.
type Asker interface {
	Ask(question, def string) (string, error)
}

// CredentialSource supplies credentials after the remote rejected the current ones.
type CredentialSource interface {
	ResolveCredentials() (repo.Credentials, error)
}

// Prompter is everything a run may ask the user.
type Prompter interface {
	Confirmer
	Asker
	CredentialSource
}

// ErrNoInput is returned when input ends before an answer is given.
var ErrNoInput = errors.New("no input available")

const maxAttempts = 3

// Terminal prompts on a reader/writer pair, normally stdin and stdout.
type Terminal struct {
	reader    *bufio.Reader
	writer    io.Writer
	secret    func() (string, error)
	assumeYes bool
}

var _ Prompter = (*Terminal)(nil)

// NewTerminal returns a Terminal. When in is a terminal, secrets are read without echo.
// With assumeYes every confirmation is answered yes and credentials are skipped.
func NewTerminal(in io.Reader, out io.Writer, assumeYes bool) *Terminal {
	t := &Terminal{reader: bufio.NewReader(in), writer: out, assumeYes: assumeYes}
	t.secret = t.readLine
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		t.secret = func() (string, error) {
			b, err := term.ReadPassword(int(f.Fd()))
			_, _ = fmt.Fprintln(t.writer)
			return strings.TrimSpace(string(b)), err
		}
	}
	return t
}

func (t *Terminal) readLine() (string, error) {
	input, err := t.reader.ReadString('\n')
	if err != nil && (input == "" || !errors.Is(err, io.EOF)) {
		if errors.Is(err, io.EOF) {
			return "", ErrNoInput
		}
		return "", err
	}
	return strings.TrimSpace(input), nil
}

// Confirm asks a yes/no question. Anything other than y or yes, including end of
// input, is a no.
func (t *Terminal) Confirm(question string) bool {
	if t.assumeYes {
		_, _ = fmt.Fprintf(t.writer, "%s (y/n): y\n", question)
		return true
	}
	_, _ = fmt.Fprintf(t.writer, "%s (y/n): ", question)
	input, err := t.readLine()
	if err != nil {
		_, _ = fmt.Fprintln(t.writer)
		return false
	}
	switch strings.ToLower(input) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// Ask prompts for a value. An empty answer returns def.
func (t *Terminal) Ask(question, def string) (string, error) {
	if def != "" {
		_, _ = fmt.Fprintf(t.writer, "%s [%s]: ", question, def)
	} else {
		_, _ = fmt.Fprintf(t.writer, "%s: ", question)
	}
	input, err := t.readLine()
	if err != nil {
		return def, err
	}
	if input == "" {
		return def, nil
	}
	return input, nil
}

// ResolveCredentials walks the user through choosing an authentication method.
func (t *Terminal) ResolveCredentials() (repo.Credentials, error) {
	if t.assumeYes {
		return repo.Credentials{Method: repo.AuthSkip}, nil
	}

	_, _ = fmt.Fprintln(t.writer, "\nChoose how to authenticate with the remote:")
	_, _ = fmt.Fprintln(t.writer, "  1. SSH (use your SSH key and agent)")
	_, _ = fmt.Fprintln(t.writer, "  2. HTTPS (username and password)")
	_, _ = fmt.Fprintln(t.writer, "  3. Personal access token")
	_, _ = fmt.Fprintln(t.writer, "  4. Skip (continue without remote access)")

	for attempt := 0; attempt < maxAttempts; attempt++ {
		choice, err := t.Ask("Option", "4")
		if err != nil {
			return repo.Credentials{}, err
		}
		switch choice {
		case "1":
			_, _ = fmt.Fprintln(t.writer, "Make sure your public key (for example ~/.ssh/id_ed25519.pub) is registered with the host")
			_, _ = fmt.Fprintln(t.writer, "and that the remote URL uses the git@host:owner/repo form.")
			return repo.Credentials{Method: repo.AuthSSH}, nil
		case "2":
			return t.readSecretPair(repo.AuthHTTPS, "Username", "Password")
		case "3":
			return t.readSecretPair(repo.AuthToken, "Username (optional)", "Token")
		case "4":
			return repo.Credentials{Method: repo.AuthSkip}, nil
		default:
			_, _ = fmt.Fprintf(t.writer, "Invalid option %q.\n", choice)
		}
	}
	return repo.Credentials{}, fmt.Errorf("no valid authentication option chosen after %d attempts", maxAttempts)
}

func (t *Terminal) readSecretPair(method repo.AuthMethod, userLabel, secretLabel string) (repo.Credentials, error) {
	user, err := t.Ask(userLabel, "")
	if err != nil {
		return repo.Credentials{}, err
	}
	if user == "" && method == repo.AuthHTTPS {
		return repo.Credentials{}, fmt.Errorf("username cannot be empty")
	}
	_, _ = fmt.Fprintf(t.writer, "%s: ", secretLabel)
	secret, err := t.secret()
	if err != nil {
		return repo.Credentials{}, err
	}
	if secret == "" {
		return repo.Credentials{}, fmt.Errorf("%s cannot be empty", strings.ToLower(secretLabel))
	}
	return repo.Credentials{Method: method, Username: user, Secret: secret}, nil
}
