package settings

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// Prompter asks for settings values on a terminal.
type Prompter struct {
	reader *bufio.Reader
	out    io.Writer

	// ReadSecret reads a value without echoing it. Defaults to term.ReadPassword on stdin.
	ReadSecret func() (string, error)
}

// NewPrompter returns a prompter reading answers from in and writing prompts to out.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	p := &Prompter{
		reader: bufio.NewReader(in),
		out:    out,
	}
	p.ReadSecret = p.readHidden
	return p
}

// Prompt walks through every setting, offering the current value as default,
// and returns the updated copy. An empty token answer keeps the existing token.
func (p *Prompter) Prompt(current *Settings) (*Settings, error) {
	s := *current

	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, "Azure DevOps organization or collection URL")
	fmt.Fprintln(p.out, "Example: https://dev.azure.com/contoso")
	s.Collection = p.readValue("Enter collection URL", s.Collection)

	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, "Project that owns the release pipelines")
	s.Project = p.readValue("Enter project", s.Project)

	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, "Personal access token with Release (Read) scope")
	if s.PersonalAccessToken != "" {
		fmt.Fprint(p.out, "Enter personal access token (leave empty to keep current): ")
	} else {
		fmt.Fprint(p.out, "Enter personal access token: ")
	}
	token, err := p.ReadSecret()
	fmt.Fprintln(p.out)
	if err != nil {
		return nil, fmt.Errorf("reading personal access token: %w", err)
	}
	if token = strings.TrimSpace(token); token != "" {
		s.PersonalAccessToken = token
	}

	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, "Seconds between refreshes in watch mode")
	refresh := p.readValue("Enter refresh seconds", strconv.Itoa(s.RefreshSeconds))
	seconds, err := strconv.Atoi(refresh)
	if err != nil {
		return nil, fmt.Errorf("refresh seconds must be a number, got %q", refresh)
	}
	s.RefreshSeconds = seconds

	return &s, nil
}

// readValue prompts for input with an optional default
func (p *Prompter) readValue(prompt, defaultValue string) string {
	if defaultValue != "" {
		fmt.Fprintf(p.out, "%s [%s]: ", prompt, defaultValue)
	} else {
		fmt.Fprintf(p.out, "%s: ", prompt)
	}

	input, err := p.reader.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" || (err != nil && err != io.EOF) {
		return defaultValue
	}
	return input
}

func (p *Prompter) readHidden() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := p.reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return "", err
		}
		return strings.TrimSpace(line), nil
	}

	secret, err := term.ReadPassword(fd)
	if err != nil {
		return "", err
	}
	return string(secret), nil
}

// IsInteractive checks if stdin is a terminal
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}
