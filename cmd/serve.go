package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	cfgpkg "github.com/KaramelBytes/csvlens/internal/config"
	"github.com/KaramelBytes/csvlens/internal/logging"
	"github.com/KaramelBytes/csvlens/internal/server"
	"github.com/KaramelBytes/csvlens/internal/store"
)

var (
	serveAddr      string
	serveNoMigrate bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the upload API over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		addr := c.ListenAddr
		if serveAddr != "" {
			addr = serveAddr
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if c.Store == cfgpkg.StorePostgres && !serveNoMigrate {
			if err := store.RunMigrations(c.DatabaseURL, logger); err != nil {
				return err
			}
		}
		iopt, err := ingestOptions("", "", "", "")
		if err != nil {
			return err
		}
		st, err := store.Open(ctx, c, logger)
		if err != nil {
			return err
		}
		opts := []server.Option{
			server.WithMaxUploadBytes(c.MaxUploadMB << 20),
			server.WithIngestOptions(iopt),
			server.WithAnalysisOptions(analysisOptions(0)),
		}
		if st != nil {
			defer st.Close()
			opts = append(opts, server.WithStore(st))
		}
		logger.Info("Store configured",
			zap.String("store", c.Store),
			zap.String("database_url", logging.SanitizeConnectionString(c.DatabaseURL)),
		)
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Listening on %s\n", addr)
		return server.New(logger, addr, opts...).ListenAndServe(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config listen_addr)")
	serveCmd.Flags().BoolVar(&serveNoMigrate, "no-migrate", false, "skip applying database migrations on startup")
}
