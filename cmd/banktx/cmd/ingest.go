package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"golang-bank-transaction-service/pkg/errors"
)

var ingestFile string

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load a CSV file of bank transactions into the database",
	Long: `Ingest reads a CSV file line by line and stores every row, committing
chunk-size rows per write. Ingestion stops at the first malformed row and
reports its 1-based line number.

Examples:
  banktx ingest --file transactions.csv
  banktx ingest --file transactions.csv --chunk-size 1000 --commit-mode atomic`,
	PreRunE: validateIngestFlags,
	RunE:    runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().StringVarP(&ingestFile, "file", "f", "", "path to the CSV file (required)")
	ingestCmd.Flags().Int("chunk-size", 0, "rows per committed chunk (default from ingest.chunk_size)")
	ingestCmd.Flags().String("commit-mode", "", "chunked or atomic (default from ingest.commit_mode)")
	ingestCmd.Flags().String("read-failure", "", "fail or partial (default from ingest.read_failure)")

	ingestCmd.MarkFlagRequired("file")
}

func validateIngestFlags(cmd *cobra.Command, args []string) error {
	return validateFileExists(ingestFile)
}

func validateFileExists(filePath string) error {
	if filePath == "" {
		return errors.FileError(errors.CodeFileNotFound, filePath, nil).
			WithSuggestion("pass the CSV file with --file")
	}

	info, err := os.Stat(filePath)
	if err != nil {
		return errors.FileError(errors.CodeFileNotFound, filePath, err)
	}
	if info.IsDir() {
		return errors.FileError(errors.CodeFileNotFound, filePath, nil).
			WithSuggestion("expected a file, got a directory")
	}
	return nil
}

func runIngest(cmd *cobra.Command, args []string) error {
	file, err := os.Open(ingestFile)
	if err != nil {
		return errors.FileError(errors.CodeFileNotFound, ingestFile, err)
	}
	defer file.Close()

	store, ingestEngine, _, err := openServices(cmd.Context())
	if err != nil {
		return err
	}
	defer store.Close()

	summary, err := ingestEngine.Ingest(cmd.Context(), file)
	if err != nil {
		if summary != nil && summary.Inserted > 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "%d rows were committed before the failure\n", summary.Inserted)
		}
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Inserted %d rows in %d chunks in %s (run %s)\n",
		summary.Inserted, summary.Chunks, summary.Duration.Round(time.Millisecond), summary.RunID)
	if summary.Degraded {
		fmt.Fprintf(out, "Warning: reading stopped early: %v\n", summary.ReadError)
	}
	return nil
}
