package main

import (
	"github.com/spf13/cobra"
	"github.com/vrsandeep/mango-catalog/internal/core"
)

// commandContext opens the application lazily so commands that only parse
// never touch the configuration or the database.
type commandContext struct {
	configFlag *string
	app        *core.App
}

func (c *commandContext) ensureApp() (*core.App, error) {
	if c.app != nil {
		return c.app, nil
	}
	app, err := core.NewFromFile(*c.configFlag)
	if err != nil {
		return nil, err
	}
	c.app = app
	return app, nil
}

func (c *commandContext) close() {
	if c.app != nil {
		c.app.Close()
		c.app = nil
	}
}

func newRootCommand() *cobra.Command {
	var configFlag string
	ctx := &commandContext{configFlag: &configFlag}

	rootCmd := &cobra.Command{
		Use:           "mango-cli",
		Short:         "Manga and comic catalog tools",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			ctx.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path (default ./config.yml)")

	rootCmd.AddCommand(newParseCommand())
	rootCmd.AddCommand(newScanCommand(ctx))
	rootCmd.AddCommand(newSeriesCommand(ctx))

	return rootCmd
}
