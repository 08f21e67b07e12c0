package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/surrealdb/surrealdb.go/contrib/repokit/pkg/models"
)

var sampleProducts = []struct {
	name  string
	price float64
}{
	{"Desk lamp", 24.90},
	{"Office chair", 189.00},
	{"Standing desk", 449.00},
	{"Monitor arm", 79.50},
	{"Notebook", 3.20},
}

func newSeedCmd(c *cli) *cobra.Command {
	var prefix string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert sample products in one unit of work",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			b, err := openBackend(ctx, c.cfg, c.log)
			if err != nil {
				return err
			}
			defer c.closeBackend(b)

			now := time.Now().UTC()
			products := make([]*models.Product, len(sampleProducts))
			for i, s := range sampleProducts {
				p := &models.Product{Name: prefix + s.name, Price: s.price}
				p.Stamp(now)
				products[i] = p
			}

			n, err := b.addAll(ctx, products)
			if err != nil {
				return fmt.Errorf("failed to seed products: %w", err)
			}
			c.log.Info().Int("products", n).Msg("products seeded")
			return nil
		},
	}

	cmd.Flags().StringVar(&prefix, "prefix", "", "prefix added to every product name")
	return cmd
}
