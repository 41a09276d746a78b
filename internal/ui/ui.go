// Package ui holds the interactive terminal prompts used by the CLI.
package ui

import (
	"errors"
	"fmt"
	"io"

	"github.com/AlecAivazis/survey/v2"
)

var errEmptyAnswer = errors.New("an answer is required")

// Prompter asks the user for input on the terminal.
type Prompter struct {
	opts []survey.AskOpt
}

// NewPrompter creates a prompter on the process terminal.
func NewPrompter(opts ...survey.AskOpt) *Prompter {
	return &Prompter{opts: opts}
}

// Credentials asks for a username and password. defaultUser pre-fills the username.
func (p *Prompter) Credentials(defaultUser string) (string, string, error) {
	answers := struct {
		Username string
		Password string
	}{}

	questions := []*survey.Question{
		{
			Name:     "username",
			Prompt:   &survey.Input{Message: "Username:", Default: defaultUser},
			Validate: survey.Required,
		},
		{
			Name:     "password",
			Prompt:   &survey.Password{Message: "Password:"},
			Validate: survey.Required,
		},
	}

	if err := survey.Ask(questions, &answers, p.opts...); err != nil {
		return "", "", fmt.Errorf("failed to read credentials: %w", err)
	}
	if answers.Username == "" || answers.Password == "" {
		return "", "", errEmptyAnswer
	}
	return answers.Username, answers.Password, nil
}

// Confirm asks a yes/no question.
func (p *Prompter) Confirm(message string, def bool) (bool, error) {
	ok := def
	prompt := &survey.Confirm{Message: message, Default: def}
	if err := survey.AskOne(prompt, &ok, p.opts...); err != nil {
		return false, fmt.Errorf("failed to get confirmation: %w", err)
	}
	return ok, nil
}

// ShowDeviceCode tells the user where to enter a device authorization code.
func ShowDeviceCode(w io.Writer, verificationURI, userCode string) {
	_, _ = fmt.Fprintf(w, "Open %s and enter the code: %s\n", verificationURI, userCode)
}
