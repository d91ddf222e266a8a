package cmd

import (
	"fmt"
	"os"

	"emperror.dev/errors"
	"github.com/spf13/cobra"

	"modular.GO/config"
	productService "modular.GO/service/product"
)

var stockBatchSize int

// openProducts is replaced in tests.
var openProducts = func() (*productService.Service, error) {
	db, err := config.NewDB()
	if err != nil {
		return nil, errors.Wrap(err, "database connection failed")
	}
	return productService.NewService(db), nil
}

var importStockCmd = &cobra.Command{
	Use:   "products:import-stock <file.csv>",
	Short: "Set product stock levels from a barcode,stock CSV",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return errors.Wrap(err, "open CSV")
		}
		defer f.Close()
		svc, err := openProducts()
		if err != nil {
			return err
		}
		res, err := svc.ImportStock(f, stockBatchSize)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, w := range res.Warnings {
			fmt.Fprintln(out, "warning:", w)
		}
		fmt.Fprintf(out, "Rows: %d, updated: %d, skipped: %d (%s)\n", res.TotalRows, res.Updated, res.Skipped, res.TotalTime)
		return nil
	},
}

func init() {
	importStockCmd.Flags().IntVar(&stockBatchSize, "batch-size", 500, "Barcodes per batch")
	rootCmd.AddCommand(importStockCmd)
}
