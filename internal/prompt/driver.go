// Package prompt asks the questions of terminal workflows, such as choosing
// and confirming a bulk action.
package prompt

import (
	"context"
	"errors"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

// ErrAborted reports that the user interrupted a prompt.
var ErrAborted = errors.New("prompt: aborted")

type InputConfig struct {
	Message   string
	Default   string
	Help      string
	Validator func(string) error
}

type ConfirmConfig struct {
	Message string
	Default bool
}

type SelectConfig struct {
	Message string
	Options []string
	Default int
}

// Driver asks questions. Tests swap in a scripted driver.
type Driver interface {
	Input(ctx context.Context, cfg InputConfig) (string, error)
	Confirm(ctx context.Context, cfg ConfirmConfig) (bool, error)
	Select(ctx context.Context, cfg SelectConfig) (int, error)
}

// Survey returns a Driver that prompts on the terminal with opts, typically
// survey.WithStdio.
func Survey(opts ...survey.AskOpt) Driver {
	return surveyDriver{opts: opts}
}

type surveyDriver struct {
	opts []survey.AskOpt
}

func (d surveyDriver) Input(ctx context.Context, cfg InputConfig) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	opts := d.opts
	if cfg.Validator != nil {
		opts = append(append([]survey.AskOpt{}, opts...), survey.WithValidator(func(ans any) error {
			s, _ := ans.(string)
			return cfg.Validator(s)
		}))
	}
	var out string
	err := survey.AskOne(&survey.Input{Message: cfg.Message, Default: cfg.Default, Help: cfg.Help}, &out, opts...)
	return out, translate(err)
}

func (d surveyDriver) Confirm(ctx context.Context, cfg ConfirmConfig) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	var out bool
	err := survey.AskOne(&survey.Confirm{Message: cfg.Message, Default: cfg.Default}, &out, d.opts...)
	return out, translate(err)
}

func (d surveyDriver) Select(ctx context.Context, cfg SelectConfig) (int, error) {
	if err := ctx.Err(); err != nil {
		return -1, err
	}
	prompt := &survey.Select{Message: cfg.Message, Options: cfg.Options}
	if cfg.Default >= 0 && cfg.Default < len(cfg.Options) {
		prompt.Default = cfg.Options[cfg.Default]
	}
	var out int
	if err := survey.AskOne(prompt, &out, d.opts...); err != nil {
		return -1, translate(err)
	}
	return out, nil
}

func translate(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return ErrAborted
	}
	return err
}
