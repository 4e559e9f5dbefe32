// SPDX-License-Identifier: AGPL-3.0-or-later

// Package command assembles and executes the shell invocations issued by
// scenario steps against the CLI under test.
package command

import (
	"path/filepath"
	"strings"

	"github.com/bartekus/clirig/internal/config"
)

// EnvNames are the variables injected into the child's environment.
type EnvNames struct {
	Cassette string
	Mode     string
	Host     string
}

// Builder turns a step command such as "terminus site info" into a shell line.
type Builder struct {
	// Root is the directory Bin is resolved against.
	Root string
	// Name is the logical CLI name substituted in commands.
	Name string
	// Bin is the binary path relative to Root.
	Bin string
	Env EnvNames
}

// NewBuilder configures a Builder from the loaded config.
func NewBuilder(cfg *config.Config) Builder {
	return Builder{
		Root: cfg.CLI.Root,
		Name: cfg.CLI.Name,
		Bin:  cfg.CLI.Bin,
		Env: EnvNames{
			Cassette: cfg.Env.Cassette,
			Mode:     cfg.Env.Mode,
			Host:     cfg.Env.Host,
		},
	}
}

// Path is the resolved invocation path of the CLI.
func (b Builder) Path() string {
	return filepath.Join(b.Root, b.Bin)
}

// Build returns the shell line for command.
//
// Every occurrence of Name is replaced with Path, including occurrences
// inside other words. The cassette assignment is always present, even when
// empty; mode and host are added only when the connection carries them.
func (b Builder) Build(command, cassette string, conn config.Connection) string {
	line := strings.ReplaceAll(command, b.Name, b.Path())
	line = assign(b.Env.Cassette, cassette) + " " + line
	if mode, ok := conn.Lookup(config.KeyVCRMode); ok {
		line = assign(b.Env.Mode, mode) + " " + line
	}
	if host, ok := conn.Lookup(config.KeyHost); ok {
		line = assign(b.Env.Host, host) + " " + line
	}
	return line
}

func assign(name, value string) string {
	return name + "=" + Quote(value)
}

// Quote single-quotes s for sh unless every byte is shell-safe.
// The empty string stays empty, which reads as an empty assignment value.
func Quote(s string) string {
	if s == "" {
		return ""
	}
	for _, r := range s {
		if !safe(r) {
			return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
		}
	}
	return s
}

func safe(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	}
	return strings.ContainsRune("_-./:@,+%", r)
}
