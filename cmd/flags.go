package cmd

import (
	"github.com/inovacc/gitlab-dumper/internal/gitlab"
	"github.com/spf13/pflag"
)

// authModeValue adapts gitlab.AuthMode to a pflag.Value so an unknown mode is
// rejected while flags are parsed.
type authModeValue struct {
	mode gitlab.AuthMode
}

var _ pflag.Value = (*authModeValue)(nil)

func (v *authModeValue) String() string {
	return v.mode.String()
}

func (v *authModeValue) Set(s string) error {
	mode, err := gitlab.ParseAuthMode(s)
	if err != nil {
		return err
	}

	v.mode = mode

	return nil
}

func (v *authModeValue) Type() string {
	return "mode"
}
