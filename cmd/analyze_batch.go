package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/KaramelBytes/csvlens/internal/store"
	"github.com/KaramelBytes/csvlens/internal/utils"
)

var (
	abOutDir    string
	abFormat    string
	abSave      bool
	abJobs      int
	abDelimiter string
	abEncoding  string
	abDecimal   string
	abThousands string
	abQuiet     bool
)

var analyzeBatchCmd = &cobra.Command{
	Use:   "analyze-batch <files...>",
	Short: "Analyze multiple CSV/TSV files concurrently",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := expandInputs(args)
		if err != nil {
			return err
		}
		ext, err := formatExt(abFormat)
		if err != nil {
			return err
		}
		iopt, err := ingestOptions(abDelimiter, abEncoding, abDecimal, abThousands)
		if err != nil {
			return err
		}
		var outPaths []string
		if abOutDir != "" {
			if err := utils.EnsureDir(abOutDir); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}
			outPaths = outputPaths(abOutDir, files, ext)
		}
		// one worker per file; each file's columns are profiled serially
		aopt := analysisOptions(1)

		// one store shared by all workers
		var st store.Store
		if abSave {
			if st, err = openStore(cmd.Context()); err != nil {
				return err
			}
			defer st.Close()
		}

		out := cmd.OutOrStdout()
		rendered := make([][]byte, len(files))
		progress := newBatchProgress(cmd.ErrOrStderr(), len(files), abQuiet)
		g, ctx := errgroup.WithContext(cmd.Context())
		g.SetLimit(max(abJobs, 1))
		for i, path := range files {
			g.Go(func() error {
				rep, err := analyzeFile(ctx, path, iopt, aopt)
				if err != nil {
					return err
				}
				b, err := render(rep, abFormat)
				if err != nil {
					return err
				}
				if st != nil {
					id, err := st.Save(ctx, rep.File, rep.Analysis)
					if err != nil {
						return fmt.Errorf("save %s: %w", path, err)
					}
					progress.printf("✓ Saved %s as dataset %s\n", rep.File, id)
				}
				if outPaths != nil {
					if err := utils.SafeWriteFile(outPaths[i], b); err != nil {
						return fmt.Errorf("write %s: %w", outPaths[i], err)
					}
				} else {
					rendered[i] = b
				}
				progress.done(path)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		if outPaths != nil {
			fmt.Fprintf(out, "✓ Wrote %d reports to %s\n", len(files), abOutDir)
			return nil
		}
		for _, b := range rendered {
			if _, err := out.Write(b); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeBatchCmd)
	analyzeBatchCmd.Flags().StringVar(&abOutDir, "out-dir", "", "directory for one report per input (stdout if omitted)")
	analyzeBatchCmd.Flags().StringVar(&abFormat, "format", "markdown", "output format: markdown | json | yaml")
	analyzeBatchCmd.Flags().BoolVar(&abSave, "save", false, "persist each analysis in the configured store")
	analyzeBatchCmd.Flags().IntVar(&abJobs, "jobs", 4, "files analyzed concurrently")
	analyzeBatchCmd.Flags().StringVar(&abDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' | '|' (sniffed if omitted)")
	analyzeBatchCmd.Flags().StringVar(&abEncoding, "encoding", "", "input encoding (detected if omitted)")
	analyzeBatchCmd.Flags().StringVar(&abDecimal, "decimal", "", "decimal separator for numbers: '.'|'comma'")
	analyzeBatchCmd.Flags().StringVar(&abThousands, "thousands", "", "thousands separator for numbers: ','|'.'|'space'")
	analyzeBatchCmd.Flags().BoolVar(&abQuiet, "quiet", false, "suppress progress and non-essential output")
}

// batchProgress reports finished files: a bar on terminals, plain lines
// otherwise.
type batchProgress struct {
	mu    sync.Mutex
	w     io.Writer
	total int
	n     int
	bar   *progressbar.ProgressBar
}

func newBatchProgress(w io.Writer, total int, quiet bool) *batchProgress {
	p := &batchProgress{w: w, total: total}
	if quiet {
		p.w = io.Discard
		return p
	}
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		p.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(w),
			progressbar.OptionSetDescription("Analyzing files..."),
			progressbar.OptionShowCount(),
			progressbar.OptionOnCompletion(func() {
				fmt.Fprintln(w)
			}),
		)
	}
	return p
}

// printf writes a status line without tearing the bar or other workers'
// lines.
func (p *batchProgress) printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		_ = p.bar.Clear()
	}
	fmt.Fprintf(p.w, format, args...)
}

func (p *batchProgress) done(path string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.n++
	if p.bar != nil {
		_ = p.bar.Add(1)
		return
	}
	fmt.Fprintf(p.w, "[%d/%d] Processed %s\n", p.n, p.total, path)
}

// expandInputs resolves globs and literal paths, dropping duplicates, in
// sorted order.
func expandInputs(args []string) ([]string, error) {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			// treat as literal path if exists
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no input files matched")
	}
	sort.Strings(files)
	return files, nil
}

// outputPaths assigns each input a report path under dir. Inputs sharing a
// base name get "__2", "__3" suffixes in input order, and existing files are
// never overwritten.
func outputPaths(dir string, files []string, ext string) []string {
	taken := map[string]struct{}{}
	out := make([]string, len(files))
	for i, f := range files {
		name := utils.OutputName(f, ext)
		base := strings.TrimSuffix(name, ext)
		cand := filepath.Join(dir, name)
		for idx := 2; ; idx++ {
			_, used := taken[cand]
			_, statErr := os.Stat(cand)
			if !used && os.IsNotExist(statErr) {
				break
			}
			cand = filepath.Join(dir, fmt.Sprintf("%s__%d%s", base, idx, ext))
		}
		taken[cand] = struct{}{}
		out[i] = cand
	}
	return out
}
