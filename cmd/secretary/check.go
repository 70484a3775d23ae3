package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/petems/secretary/internal/preflight"
)

func newCheckCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check the platform, microphone access and model server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(opts)
			if err != nil {
				return err
			}

			err = newChecker(cfg, log).Run(cmd.Context())
			var f *preflight.Failure
			if errors.As(err, &f) {
				return fmt.Errorf("%s check failed: %w", f.Check, f.Err)
			}
			if err != nil {
				return err
			}

			fmt.Println(successStyle.Render("✓ All requirements are met"))
			fmt.Println(dimStyle.Render(fmt.Sprintf("  server: %s", cfg.OllamaURL())))
			for _, m := range cfg.Ollama.RequiredModels {
				fmt.Println(dimStyle.Render("  model:  " + m))
			}
			return nil
		},
	}
}
