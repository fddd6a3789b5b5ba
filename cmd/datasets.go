package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/csvlens/internal/utils"
)

var dsShowFormat string

var datasetsCmd = &cobra.Command{
	Use:     "datasets",
	Aliases: []string{"ds"},
	Short:   "Manage saved dataset analyses",
}

var datasetsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved datasets, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()
		list, err := st.List(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(list) == 0 {
			fmt.Fprintln(out, "No saved datasets")
			return nil
		}
		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tFILE\tROWS\tCOLUMNS\tSAVED")
		for _, s := range list {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
				s.ID, s.Filename, humanize.Comma(int64(s.RowCount)), s.ColumnCount, humanize.Time(s.CreatedAt))
		}
		return w.Flush()
	},
}

var datasetsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a saved analysis",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()
		rec, err := st.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		var b []byte
		switch dsShowFormat {
		case "markdown", "md":
			b = []byte(rec.Result.Markdown(rec.Filename))
		case "json":
			if b, err = utils.PrettyJSON(rec); err != nil {
				return err
			}
			b = append(b, '\n')
		case "yaml", "yml":
			if b, err = yaml.Marshal(rec); err != nil {
				return fmt.Errorf("marshal yaml: %w", err)
			}
		default:
			return fmt.Errorf("unsupported --format: %s (use markdown|json|yaml)", dsShowFormat)
		}
		_, err = cmd.OutOrStdout().Write(b)
		return err
	},
}

var datasetsDeleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Delete a saved analysis",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted dataset %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(datasetsCmd)
	datasetsCmd.AddCommand(datasetsListCmd)
	datasetsCmd.AddCommand(datasetsShowCmd)
	datasetsCmd.AddCommand(datasetsDeleteCmd)
	datasetsShowCmd.Flags().StringVar(&dsShowFormat, "format", "markdown", "output format: markdown | json | yaml")
}
