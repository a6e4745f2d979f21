package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"

	"github.com/asystent-elektryka/audytor/internal/analysis"
	"github.com/asystent-elektryka/audytor/internal/audit"
	"github.com/asystent-elektryka/audytor/internal/config"
	"github.com/asystent-elektryka/audytor/internal/intake"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newAnalyzeCmd() *cobra.Command {
	var (
		format string
		output string
		model  string
	)

	cmd := &cobra.Command{
		Use:   "analyze <image>",
		Short: "Analyze one switchboard photo and print the audit",
		Long: `Sends a single switchboard photo through the same pipeline as the web
interface and prints the structured audit as YAML or JSON.`,
		Example: `  audytor analyze rozdzielnica.jpg
  audytor analyze rozdzielnica.jpg --format json --output audyt.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "yaml" && format != "json" {
				return fmt.Errorf("unsupported format %q (use yaml or json)", format)
			}

			cfg := config.Load()
			if model != "" {
				cfg.GeminiModel = model
			}

			path := args[0]
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("failed to open image: %w", err)
			}
			defer f.Close()

			img, err := intake.Select(intake.NewPreviews(), filepath.Base(path), mime.TypeByExtension(filepath.Ext(path)), f)
			if err != nil {
				return err
			}
			defer img.Release()

			client := analysis.NewClient(analysis.Options{
				APIKey:  cfg.GeminiAPIKey,
				Model:   cfg.GeminiModel,
				BaseURL: cfg.GeminiBaseURL,
			})
			result, err := audit.NewService(client).AnalyzeImage(cmd.Context(), img)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if output != "" {
				file, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create output file: %w", err)
				}
				defer file.Close()
				out = file
			}
			return writeResult(out, format, result)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "Output format (yaml or json)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the result to this file instead of stdout")
	cmd.Flags().StringVar(&model, "model", "", "Gemini model (defaults to GEMINI_MODEL)")

	return cmd
}

func writeResult(w io.Writer, format string, result *analysis.Result) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(result)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(result); err != nil {
			return fmt.Errorf("failed to marshal YAML: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}
