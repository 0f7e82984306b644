package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"mealhub/pkg/models"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List the catalog, optionally filtered and sorted",
	Args:    cobra.NoArgs,
	RunE:    runList,
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one meal with its ingredients",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

var galleryCmd = &cobra.Command{
	Use:   "gallery",
	Short: "Fetch meals of the selected categories (all when none given)",
	Args:  cobra.NoArgs,
	RunE:  runGallery,
}

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List meal categories",
	Args:  cobra.NoArgs,
	RunE:  runCategories,
}

func init() {
	rootCmd.AddCommand(listCmd, showCmd, galleryCmd, categoriesCmd)

	listCmd.Flags().StringP("query", "q", "", "case-insensitive name search")
	listCmd.Flags().String("sort", "", "sort field: name, id, category, region")
	listCmd.Flags().String("order", "", "asc or desc")

	galleryCmd.Flags().StringSliceP("category", "c", nil, "category to include (repeatable)")
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runList(cmd *cobra.Command, args []string) error {
	query, _ := cmd.Flags().GetString("query")
	sort, _ := cmd.Flags().GetString("sort")
	order, _ := cmd.Flags().GetString("order")

	resp, err := fetchList(cmd.Context(), httpClient, apiURL, query, sort, order)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), resp)
	}
	if err := writeTable(cmd.OutOrStdout(), resp.Items); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\n%d of %d meals (%s)\n", resp.Count, resp.Total, resp.Source)
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	var resp detailResponse
	if err := doJSON(cmd.Context(), httpClient, endpoint(apiURL, "/meals/"+url.PathEscape(args[0]), nil), &resp); err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), resp)
	}

	w := cmd.OutOrStdout()
	m := resp.Meal
	fmt.Fprintf(w, "%s  [%s]\n", m.Name, m.ID)
	if m.Category != "" || m.Region != "" {
		fmt.Fprintf(w, "%s / %s\n", orDash(m.Category), orDash(m.Region))
	}
	if m.ImageURL != "" {
		fmt.Fprintln(w, m.ImageURL)
	}
	if resp.Error != "" {
		fmt.Fprintf(w, "\n! details unavailable: %s\n", resp.Error)
	}
	if len(resp.Ingredients) > 0 {
		fmt.Fprintln(w, "\nIngredients:")
		for _, ing := range resp.Ingredients {
			fmt.Fprintf(w, "  - %s %s\n", ing.Measure, ing.Name)
		}
	}
	if m.Detail != nil && m.Detail.Instructions != "" {
		fmt.Fprintf(w, "\n%s\n", m.Detail.Instructions)
	}
	fmt.Fprintf(w, "\nprev: %s  next: %s\n", orDash(resp.Prev), orDash(resp.Next))
	return nil
}

func runGallery(cmd *cobra.Command, args []string) error {
	cats, _ := cmd.Flags().GetStringSlice("category")
	q := url.Values{}
	if len(cats) > 0 {
		q.Set("categories", strings.Join(cats, ","))
	}

	var resp galleryResponse
	if err := doJSON(cmd.Context(), httpClient, endpoint(apiURL, "/gallery", q), &resp); err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), resp)
	}

	w := cmd.OutOrStdout()
	for _, g := range resp.Groups {
		fmt.Fprintf(w, "== %s (%d)\n", g.Category, len(g.Meals))
		for _, m := range g.Meals {
			fmt.Fprintf(w, "  %-8s %s\n", m.ID, m.Name)
		}
	}
	active := "all"
	if len(resp.Active) > 0 {
		active = strings.Join(resp.Active, ", ")
	}
	fmt.Fprintf(w, "\n%d meals, categories: %s\n", len(resp.Items), active)
	return nil
}

func runCategories(cmd *cobra.Command, args []string) error {
	var resp categoriesResponse
	if err := doJSON(cmd.Context(), httpClient, endpoint(apiURL, "/categories", nil), &resp); err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), resp)
	}
	for _, c := range resp.Categories {
		fmt.Fprintln(cmd.OutOrStdout(), c)
	}
	return nil
}

func writeTable(w io.Writer, meals []models.Meal) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tREGION")
	for _, m := range meals {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", m.ID, m.Name, orDash(m.Category), orDash(m.Region))
	}
	return tw.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
