package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// errNoInput is returned when input ends before anything was typed.
var errNoInput = errors.New("no input")

// prompter asks questions on the command's streams.
type prompter struct {
	in  io.Reader
	r   *bufio.Reader
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: in, r: bufio.NewReader(in), out: out}
}

// Line prints question and returns the answer without its line ending.
// End of input with nothing typed is an error.
func (p *prompter) Line(question string) (string, error) {
	fmt.Fprint(p.out, question)
	s, err := p.r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && s != "") {
		if errors.Is(err, io.EOF) {
			return "", errNoInput
		}
		return "", err
	}
	return strings.TrimRight(s, "\r\n"), nil
}

// Secret reads a value without echo when the input is a terminal.
func (p *prompter) Secret(question string) (string, error) {
	f, ok := p.in.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return p.Line(question)
	}
	fmt.Fprint(p.out, question)
	b, err := term.ReadPassword(int(f.Fd()))
	fmt.Fprintln(p.out)
	if err != nil {
		return "", fmt.Errorf("reading secret: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

// Wait blocks until return is pressed.
func (p *prompter) Wait(message string) error {
	_, err := p.Line(message)
	if errors.Is(err, errNoInput) {
		return nil
	}
	return err
}

// maskToken shows only the last four characters of a token.
func maskToken(token string) string {
	if len(token) <= 4 {
		return strings.Repeat("*", len(token))
	}
	return strings.Repeat("*", len(token)-4) + token[len(token)-4:]
}
