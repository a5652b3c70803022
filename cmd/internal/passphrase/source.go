package passphrase

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

// EnvVar is consulted before prompting for a keystore passphrase.
const EnvVar = "RELP_KEYSTORE_PASSPHRASE"

// ErrNoTerminal is returned when the environment variable is unset and stdin
// cannot be prompted.
var ErrNoTerminal = errors.New("keystore passphrase required and no terminal available")

// Source resolves a keystore passphrase once, from an environment variable or
// by prompting on the terminal, and caches the result.
type Source struct {
	envVar string
	prompt io.Writer

	once  sync.Once
	value string
	err   error
}

// NewSource returns a source that checks envVar before prompting on prompt.
func NewSource(envVar string, prompt io.Writer) *Source {
	if prompt == nil {
		prompt = os.Stderr
	}
	return &Source{envVar: strings.TrimSpace(envVar), prompt: prompt}
}

// Get returns the passphrase. Whitespace-only values are rejected.
func (s *Source) Get() (string, error) {
	s.once.Do(func() {
		s.value, s.err = s.resolve()
	})
	return s.value, s.err
}

func (s *Source) resolve() (string, error) {
	if s.envVar != "" {
		if value, ok := os.LookupEnv(s.envVar); ok {
			if strings.TrimSpace(value) == "" {
				return "", fmt.Errorf("%s is set but empty", s.envVar)
			}
			return value, nil
		}
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		if s.envVar != "" {
			return "", fmt.Errorf("%w; set %s", ErrNoTerminal, s.envVar)
		}
		return "", ErrNoTerminal
	}
	fmt.Fprint(s.prompt, "Keystore passphrase: ")
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(s.prompt)
	if err != nil {
		return "", fmt.Errorf("read passphrase: %w", err)
	}
	value := string(raw)
	if strings.TrimSpace(value) == "" {
		return "", errors.New("keystore passphrase cannot be empty")
	}
	return value, nil
}
