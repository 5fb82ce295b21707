package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/storefront/config"
	"github.com/shashiranjanraj/storefront/internal/server"
)

// storefront db:index
var dbIndexCmd = &cobra.Command{
	Use:   "db:index",
	Short: "Create the MongoDB indexes for carts and products",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 2*config.MongoTimeout())
		defer cancel()

		d, err := server.Boot(ctx)
		if err != nil {
			return err
		}
		defer d.Close(context.Background()) //nolint:errcheck

		names, err := d.EnsureIndexes(ctx)
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Fprintf(cmd.OutOrStdout(), "✅  %s\n", name)
		}
		return nil
	},
}
