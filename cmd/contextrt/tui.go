package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/abelbrown/contextrt/internal/logging"
	"github.com/abelbrown/contextrt/internal/ui"
)

func newTUICommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Run the interactive context controller",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			// The alt screen owns stdout, so logs go to a file.
			if err := logging.Init(cfg.Paths.DataDir, ctx.debug()); err != nil {
				return fmt.Errorf("init logging: %w", err)
			}
			defer logging.Close()

			rt, err := newRuntime(cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			controller := ui.NewController(ui.Config{
				Backend:     rt.service,
				Events:      rt.events,
				Ring:        rt.ring,
				Debounce:    cfg.Debounce(),
				BlurGrace:   cfg.BlurGrace(),
				MinLength:   cfg.UI.MinLength,
				AutoDisplay: cfg.UI.AutoDisplay,
			})

			logging.Info("contextrt tui starting", "config", ctx.configPath, "data", cfg.Paths.DataDir)
			program := tea.NewProgram(controller, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			if _, err := program.Run(); err != nil {
				return fmt.Errorf("run tui: %w", err)
			}
			return nil
		},
	}
}
