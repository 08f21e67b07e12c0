package main

import (
	"github.com/spf13/cobra"
)

func newMigrateCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the products schema on relational backends",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			b, err := openBackend(ctx, c.cfg, c.log)
			if err != nil {
				return err
			}
			defer c.closeBackend(b)

			if b.migrate == nil {
				c.log.Info().Msg("backend is schemaless, nothing to migrate")
				return nil
			}
			if err := b.migrate(ctx); err != nil {
				return err
			}
			c.log.Info().Msg("schema migrated")
			return nil
		},
	}
}
