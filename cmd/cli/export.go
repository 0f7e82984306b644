package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"mealhub/pkg/models"
)

var exportCmd = &cobra.Command{
	Use:       "export <json|csv>",
	Short:     "Export the catalog list to a file",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"json", "csv"},
	RunE:      runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().String("out", "", "output path (default data/meals.<format>)")
	exportCmd.Flags().StringP("query", "q", "", "only export meals matching the search")
	exportCmd.Flags().Int("limit", 0, "max meals to export (0 = all)")
}

func runExport(cmd *cobra.Command, args []string) error {
	format := args[0]
	out, _ := cmd.Flags().GetString("out")
	query, _ := cmd.Flags().GetString("query")
	limit, _ := cmd.Flags().GetInt("limit")
	if out == "" {
		out = filepath.Join("data", "meals."+format)
	}

	resp, err := fetchList(cmd.Context(), httpClient, apiURL, query, "", "")
	if err != nil {
		return fmt.Errorf("export %s failed: %w", format, err)
	}
	items := resp.Items
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}

	write := writeJSON
	if format == "csv" {
		write = writeCSV
	}
	if err := writeFile(out, items, write); err != nil {
		return fmt.Errorf("write %s failed: %w", format, err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "exported %d meals to %s\n", len(items), out)
	return nil
}

func writeFile(path string, items []models.Meal, write func(io.Writer, []models.Meal) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f, items); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func writeJSON(w io.Writer, items []models.Meal) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(items)
}

func writeCSV(w io.Writer, items []models.Meal) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"id", "name", "category", "region", "image_url"}); err != nil {
		return err
	}
	for _, m := range items {
		if err := writer.Write([]string{m.ID, m.Name, m.Category, m.Region, m.ImageURL}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
