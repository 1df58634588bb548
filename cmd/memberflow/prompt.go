package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// prompter reads line-oriented answers from the terminal.
type prompter struct {
	in *bufio.Reader
}

func newPrompter() *prompter {
	return &prompter{in: bufio.NewReader(os.Stdin)}
}

// Ask prints a label and returns the trimmed answer.
func (p *prompter) Ask(label string) (string, error) {
	fmt.Printf("%s: ", label)
	line, err := p.in.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// AskDefault asks with a default shown in brackets; an empty answer
// keeps the default.
func (p *prompter) AskDefault(label, def string) (string, error) {
	shown := label
	if def != "" {
		shown = fmt.Sprintf("%s [%s]", label, def)
	}
	answer, err := p.Ask(shown)
	if err != nil {
		return "", err
	}
	if answer == "" {
		return def, nil
	}
	return answer, nil
}

// Choose asks until the answer is one of the options (case-insensitive).
func (p *prompter) Choose(label string, options ...string) (string, error) {
	for {
		answer, err := p.Ask(fmt.Sprintf("%s (%s)", label, strings.Join(options, "/")))
		if err != nil {
			return "", err
		}
		for _, opt := range options {
			if strings.EqualFold(answer, opt) {
				return opt, nil
			}
		}
		fmt.Printf("Please answer one of: %s\n", strings.Join(options, ", "))
	}
}
