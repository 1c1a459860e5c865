package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JakeFAU/adforge/internal/product"
)

type scrapeOutput struct {
	URL         string          `json:"url"`
	Source      string          `json:"source"`
	ProductData product.Scraped `json:"productData"`
}

// newScrapeCmd creates the 'scrape' subcommand. It runs the same tier chain
// as POST /api/scrape-product and prints the result as JSON.
func newScrapeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scrape <url>...",
		Short: "Scrapes product pages and prints the normalized records",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runScrapeCommand,
	}
}

func runScrapeCommand(cmd *cobra.Command, args []string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	defer func() {
		_ = appInstance.Close(context.WithoutCancel(cmd.Context()))
	}()

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	for _, url := range args {
		url = strings.TrimSpace(url)
		res := appInstance.Scrape(cmd.Context(), url)
		if err := enc.Encode(scrapeOutput{URL: url, Source: res.Source, ProductData: res.Product}); err != nil {
			return fmt.Errorf("write result: %w", err)
		}
	}
	return nil
}
