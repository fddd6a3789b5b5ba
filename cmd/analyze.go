package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/csvlens/internal/analysis"
	"github.com/KaramelBytes/csvlens/internal/apperrors"
	"github.com/KaramelBytes/csvlens/internal/ingest"
	"github.com/KaramelBytes/csvlens/internal/utils"
)

var (
	anaFormat     string
	anaOutputPath string
	anaSave       bool
	anaDelimiter  string
	anaEncoding   string
	anaDecimal    string
	anaThousands  string
	anaWorkers    int
)

// fileReport is the rendered unit for one input file.
type fileReport struct {
	File     string           `json:"file" yaml:"file"`
	Ingest   *ingest.Report   `json:"ingest" yaml:"ingest"`
	Analysis *analysis.Result `json:"analysis" yaml:"analysis"`
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Analyze a CSV/TSV and print its profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		if _, err := formatExt(anaFormat); err != nil {
			return err
		}
		iopt, err := ingestOptions(anaDelimiter, anaEncoding, anaDecimal, anaThousands)
		if err != nil {
			return err
		}
		rep, err := analyzeFile(cmd.Context(), path, iopt, analysisOptions(anaWorkers))
		if err != nil {
			return err
		}
		out, err := render(rep, anaFormat)
		if err != nil {
			return err
		}

		if anaSave {
			id, err := saveReport(cmd.Context(), rep)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "✓ Saved dataset %s\n", id)
		}
		if anaOutputPath != "" {
			if err := utils.SafeWriteFile(anaOutputPath, out); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote analysis to %s\n", anaOutputPath)
			return nil
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVar(&anaFormat, "format", "markdown", "output format: markdown | json | yaml")
	analyzeCmd.Flags().StringVarP(&anaOutputPath, "output", "o", "", "optional path to write the analysis")
	analyzeCmd.Flags().BoolVar(&anaSave, "save", false, "persist the analysis in the configured store")
	analyzeCmd.Flags().StringVar(&anaDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' | '|' (sniffed if omitted)")
	analyzeCmd.Flags().StringVar(&anaEncoding, "encoding", "", "input encoding, e.g. utf-8, windows-1252 (detected if omitted)")
	analyzeCmd.Flags().StringVar(&anaDecimal, "decimal", "", "decimal separator for numbers: '.'|'comma'")
	analyzeCmd.Flags().StringVar(&anaThousands, "thousands", "", "thousands separator for numbers: ','|'.'|'space'")
	analyzeCmd.Flags().IntVar(&anaWorkers, "workers", 0, "column profiling workers (0 = config default)")
}

// ingestOptions maps the shared parsing flags onto ingest.Options.
func ingestOptions(delimiter, encoding, decimal, thousands string) (ingest.Options, error) {
	opt := ingest.DefaultOptions()
	if cfg != nil && cfg.SniffBytes > 0 {
		opt.SniffBytes = cfg.SniffBytes
	}
	opt.Encoding = strings.TrimSpace(encoding)
	switch delimiter {
	case "":
	case ",":
		opt.Delimiter = ','
	case "\t", "tab":
		opt.Delimiter = '\t'
	case ";":
		opt.Delimiter = ';'
	case "|", "pipe":
		opt.Delimiter = '|'
	default:
		return opt, fmt.Errorf("unsupported --delimiter: %s", delimiter)
	}
	switch strings.ToLower(strings.TrimSpace(decimal)) {
	case ",", "comma":
		opt.DecimalSeparator = ','
	case ".", "dot":
		opt.DecimalSeparator = '.'
	case "":
	default:
		return opt, fmt.Errorf("unsupported --decimal: %s (use '.'|'comma')", decimal)
	}
	switch strings.ToLower(strings.TrimSpace(thousands)) {
	case ",":
		opt.ThousandsSeparator = ','
	case ".":
		opt.ThousandsSeparator = '.'
	case "space", " ":
		opt.ThousandsSeparator = ' '
	case "":
	default:
		return opt, fmt.Errorf("unsupported --thousands: %s (use ','|'.'|'space')", thousands)
	}
	if opt.DecimalSeparator != 0 && opt.DecimalSeparator == opt.ThousandsSeparator {
		return opt, fmt.Errorf("--decimal and --thousands must differ")
	}
	return opt, nil
}

func analysisOptions(workers int) analysis.Options {
	opt := analysis.DefaultOptions()
	if cfg != nil && cfg.Workers > 0 {
		opt.Workers = cfg.Workers
	}
	if workers > 0 {
		opt.Workers = workers
	}
	return opt
}

// analyzeFile reads and profiles one file.
func analyzeFile(ctx context.Context, path string, iopt ingest.Options, aopt analysis.Options) (*fileReport, error) {
	if !ingest.Supported(path) {
		return nil, fmt.Errorf("%s: %w", path, apperrors.ErrUnsupportedFormat)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	ds, rep, err := ingest.Read(ctx, f, iopt)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	logger.Debug("Ingested file",
		zap.String("file", path),
		zap.String("encoding", rep.Encoding),
		zap.String("delimiter", rep.Delimiter),
		zap.String("strategy", rep.Strategy),
		zap.Int("skipped_rows", rep.SkippedRows),
	)
	res, err := analysis.Analyze(ctx, ds, aopt)
	if err != nil {
		return nil, fmt.Errorf("analyze %s: %w", path, err)
	}
	return &fileReport{File: filepath.Base(path), Ingest: rep, Analysis: res}, nil
}

// formatExt validates an output format and returns its file extension.
func formatExt(format string) (string, error) {
	switch format {
	case "markdown", "md":
		return ".md", nil
	case "json":
		return ".json", nil
	case "yaml", "yml":
		return ".yaml", nil
	}
	return "", fmt.Errorf("unsupported --format: %s (use markdown|json|yaml)", format)
}

func render(rep *fileReport, format string) ([]byte, error) {
	switch format {
	case "markdown", "md":
		return []byte(rep.Analysis.Markdown(rep.File)), nil
	case "json":
		b, err := utils.PrettyJSON(rep)
		if err != nil {
			return nil, err
		}
		return append(b, '\n'), nil
	case "yaml", "yml":
		b, err := yaml.Marshal(rep)
		if err != nil {
			return nil, fmt.Errorf("marshal yaml: %w", err)
		}
		return b, nil
	}
	return nil, fmt.Errorf("unsupported --format: %s (use markdown|json|yaml)", format)
}

func saveReport(ctx context.Context, rep *fileReport) (string, error) {
	st, err := openStore(ctx)
	if err != nil {
		return "", err
	}
	defer st.Close()
	return st.Save(ctx, rep.File, rep.Analysis)
}
