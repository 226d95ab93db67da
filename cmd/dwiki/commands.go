package main

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"os"

	"github.com/spf13/cobra"

	"github.com/kalambet/dwiki/internal/config"
)

// --- index ---

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "List wiki articles, most recently updated first",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/api/index")
		if err != nil {
			return err
		}

		var entries []struct {
			Slug    string `json:"slug"`
			Title   string `json:"title"`
			Updated string `json:"updated"`
		}
		if err := decodeJSON(resp, &entries); err != nil {
			return err
		}

		if len(entries) == 0 {
			fmt.Println("No articles found.")
			return nil
		}

		for _, e := range entries {
			fmt.Printf("%s  %s  %s\n",
				colorize(colorCyan, e.Slug),
				e.Updated,
				e.Title,
			)
		}
		return nil
	},
}

// --- page ---

var pageCmd = &cobra.Command{
	Use:   "page <slug>",
	Short: "Fetch one wiki page by slug",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/api/pages/"+url.PathEscape(args[0]))
		if err != nil {
			return err
		}

		var page struct {
			Kind      string `json:"kind"`
			Slug      string `json:"slug"`
			Title     string `json:"title"`
			Markdown  string `json:"md"`
			PDFBase64 string `json:"pdfBase64"`
			PDFPages  int    `json:"pdfPages"`
			UpdatedBy string `json:"updatedBy"`
		}
		if err := decodeJSON(resp, &page); err != nil {
			return err
		}

		switch page.Kind {
		case "pdf":
			if output == "" {
				printWarning("%q is a PDF (%d pages); use --output to save it", page.Title, page.PDFPages)
				return nil
			}
			data, err := base64.StdEncoding.DecodeString(page.PDFBase64)
			if err != nil {
				return fmt.Errorf("decoding PDF payload: %w", err)
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", output, err)
			}
			printSuccess("Saved %q to %s", page.Title, output)
		default:
			fmt.Print(page.Markdown)
			if page.UpdatedBy != "" {
				fmt.Fprintf(os.Stderr, "\nLast updated by %s\n", page.UpdatedBy)
			}
		}
		return nil
	},
}

func init() {
	pageCmd.Flags().String("output", "", "file path to save PDF page content")
}

// --- wordcloud ---

var wordcloudCmd = &cobra.Command{
	Use:   "wordcloud",
	Short: "Show the corpus-wide word-frequency summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/api/wordcloud")
		if err != nil {
			return err
		}

		var result struct {
			Words []struct {
				Word  string `json:"word"`
				Count int    `json:"count"`
			} `json:"words"`
			TotalDocs int `json:"totalDocs"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		if len(result.Words) == 0 {
			fmt.Println("No words found.")
			return nil
		}

		words := result.Words
		if limit > 0 && limit < len(words) {
			words = words[:limit]
		}
		for _, w := range words {
			fmt.Printf("%5d  %s\n", w.Count, w.Word)
		}
		printStatus("Documents", "%d", result.TotalDocs)
		return nil
	},
}

func init() {
	wordcloudCmd.Flags().Int("limit", 25, "maximum number of words to show")
}

// --- cache ---

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage cached results",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Evict the cached index and word cloud",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/api/cache/clear")
		if err != nil {
			return err
		}

		var result map[string]bool
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Cache cleared")
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		for _, k := range config.ShowAll(cfg) {
			fmt.Printf("  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
