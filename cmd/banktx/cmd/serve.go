package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"golang-bank-transaction-service/internal/api"
	"golang-bank-transaction-service/internal/ingest"
	"golang-bank-transaction-service/internal/query"
	"golang-bank-transaction-service/internal/storage"
	"golang-bank-transaction-service/pkg/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the REST service",
	Long: `Serve exposes the bank transaction REST API:

  GET  {base}/bank-transactions/by-user?transaction_date=&transaction_type=&page=&size=
  GET  {base}/bank-transactions/by-bank?transaction_date=&transaction_type=&bank_code=&page=&size=
  POST {base}/bank-transactions/persist-csv   (multipart field "file", text/csv)
  GET  /healthz

The server stops gracefully on SIGINT or SIGTERM.

Examples:
  banktx serve
  banktx serve --addr :9090 --chunk-size 1000
  BANKTX_DATABASE_DRIVER=postgres BANKTX_DATABASE_DSN=postgres://... banktx serve`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (default from http.addr)")
	serveCmd.Flags().Int("chunk-size", 0, "rows per committed chunk (default from ingest.chunk_size)")
	serveCmd.Flags().String("commit-mode", "", "chunked or atomic (default from ingest.commit_mode)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, ingestEngine, queryEngine, err := openServices(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	server, err := api.NewServer(&appConfig.HTTP, ingestEngine, queryEngine, store, logger.GetGlobalLogger())
	if err != nil {
		return err
	}

	return server.ListenAndServe(ctx)
}

// openServices opens the store and builds both engines on top of it
func openServices(ctx context.Context) (*storage.Store, *ingest.Engine, *query.Engine, error) {
	log := logger.GetGlobalLogger()

	store, err := storage.Open(ctx, &appConfig.Database, log)
	if err != nil {
		return nil, nil, nil, err
	}

	ingestEngine, err := ingest.NewEngine(store, &appConfig.Ingest, log)
	if err != nil {
		_ = store.Close()
		return nil, nil, nil, err
	}

	return store, ingestEngine, query.NewEngine(store, log), nil
}
