package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// readSecret prompts on stderr and reads a line without echo when stdin
// is a terminal, or a plain line when it is piped.
func readSecret(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return "", err
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	fmt.Fprint(os.Stderr, prompt)
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// ensurePassphrase configures the secure store, prompting when no
// passphrase came from flags or the environment.
func ensurePassphrase() error {
	if app.Secrets.Configured() {
		return nil
	}
	pass, err := readSecret("Passphrase: ")
	if err != nil {
		return err
	}
	return app.Secrets.Configure(pass)
}
