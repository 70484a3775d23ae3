// Package preflight decides whether the agent is allowed to start.
package preflight

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

// ModelServer is the part of the model server API the checks need.
type ModelServer interface {
	Version(ctx context.Context) (string, error)
	ModelNames(ctx context.Context) ([]string, error)
}

// Checks names each requirement.
const (
	CheckPlatform   = "platform"
	CheckMicrophone = "microphone"
	CheckServer     = "model server"
	CheckModels     = "models"
)

// supportedPlatforms are the systems the audio backend runs on.
var supportedPlatforms = map[string]bool{
	"windows": true,
	"darwin":  true,
	"linux":   true,
}

// Failure describes the first requirement that was not met.
type Failure struct {
	Check string
	Err   error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("requirement %q not met: %v", f.Check, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// MissingModelsError lists required models the server does not have.
type MissingModelsError struct {
	Models []string
}

func (e *MissingModelsError) Error() string {
	return "missing required models: " + strings.Join(e.Models, ", ")
}

type Checker struct {
	Server         ModelServer
	ServerURL      string
	RequiredModels []string
	Logger         zerolog.Logger

	// GOOS defaults to runtime.GOOS.
	GOOS string
	// Microphone defaults to no check.
	Microphone func() error
}

// Run checks every requirement in order and stops at the first failure.
func (c *Checker) Run(ctx context.Context) error {
	log := c.Logger
	log.Info().Msg("Checking requirements to run...")

	goos := c.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}
	if !supportedPlatforms[goos] {
		return c.fail(CheckPlatform, fmt.Errorf("unsupported platform %s", goos))
	}

	if c.Microphone != nil {
		if err := c.Microphone(); err != nil {
			return c.fail(CheckMicrophone, err)
		}
	}

	version, err := c.Server.Version(ctx)
	if err != nil {
		return c.fail(CheckServer, fmt.Errorf("make sure the model server is running on %s: %w",
			c.ServerURL, err))
	}
	log.Debug().Str("version", version).Str("url", c.ServerURL).Msg("Model server reachable")

	names, err := c.Server.ModelNames(ctx)
	if err != nil {
		return c.fail(CheckModels, err)
	}
	if missing := missingModels(c.RequiredModels, names); len(missing) > 0 {
		return c.fail(CheckModels, &MissingModelsError{Models: missing})
	}

	log.Info().Msg("All requirements are met")
	return nil
}

func (c *Checker) fail(check string, err error) error {
	c.Logger.Error().Err(err).Str("check", check).Msg("Requirement not met")
	return &Failure{Check: check, Err: err}
}

func missingModels(required, available []string) []string {
	have := make(map[string]struct{}, len(available))
	for _, name := range available {
		have[name] = struct{}{}
	}

	var missing []string
	seen := make(map[string]struct{}, len(required))
	for _, name := range required {
		if _, ok := have[name]; ok {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		missing = append(missing, name)
	}
	sort.Strings(missing)
	return missing
}
