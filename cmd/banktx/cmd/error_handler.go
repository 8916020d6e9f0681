package cmd

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/viper"

	"golang-bank-transaction-service/pkg/errors"
	"golang-bank-transaction-service/pkg/logger"
)

// CLIErrorHandler provides user-friendly error handling for CLI operations
type CLIErrorHandler struct {
	logger  logger.Logger
	out     io.Writer
	verbose bool
}

// NewCLIErrorHandler creates a new CLI error handler writing to stderr
func NewCLIErrorHandler() *CLIErrorHandler {
	return &CLIErrorHandler{
		logger:  logger.GetGlobalLogger().WithComponent("cli"),
		out:     os.Stderr,
		verbose: viper.GetBool("verbose"),
	}
}

// HandleError prints err and returns the process exit code
func (h *CLIErrorHandler) HandleError(err error) int {
	if err == nil {
		return 0
	}

	h.logger.WithError(err).Debug("Command failed")

	if serviceErr, ok := errors.AsServiceError(err); ok {
		return h.handleServiceError(serviceErr)
	}

	return h.handleGenericError(err)
}

func (h *CLIErrorHandler) handleServiceError(err *errors.ServiceError) int {
	fmt.Fprintf(h.out, "Error: %s\n", err.Message)

	if len(err.Context) > 0 {
		keys := make([]string, 0, len(err.Context))
		for key := range err.Context {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		fmt.Fprintf(h.out, "\nContext:\n")
		for _, key := range keys {
			fmt.Fprintf(h.out, "  %s: %v\n", key, err.Context[key])
		}
	}

	if err.Suggestion != "" {
		fmt.Fprintf(h.out, "\nSuggestion: %s\n", err.Suggestion)
	}

	if help := getCategoryHelp(err.Category); help != "" {
		fmt.Fprintf(h.out, "\n%s\n", help)
	}

	if h.verbose && err.Cause != nil {
		fmt.Fprintf(h.out, "\nUnderlying error: %v\n", err.Cause)
	}

	return err.GetExitCode()
}

func (h *CLIErrorHandler) handleGenericError(err error) int {
	switch {
	case os.IsNotExist(err) || strings.Contains(err.Error(), "no such file or directory"):
		fmt.Fprintf(h.out, "Error: File not found\n")
		fmt.Fprintf(h.out, "Suggestion: Check if the file path is correct and the file exists\n")
		return 2
	case os.IsPermission(err) || strings.Contains(err.Error(), "permission denied"):
		fmt.Fprintf(h.out, "Error: Permission denied\n")
		fmt.Fprintf(h.out, "Suggestion: Check file permissions and ensure you have read access\n")
		return 2
	}

	// flag and argument errors from cobra land here
	fmt.Fprintf(h.out, "Error: %v\n", err)
	fmt.Fprintf(h.out, "Run 'banktx --help' for usage.\n")
	return 1
}

func getCategoryHelp(category errors.ErrorCategory) string {
	switch category {
	case errors.CategoryFile:
		return `File error help:
• Check that the file exists and is readable
• Uploads and --file inputs must be plain CSV (text/csv)`

	case errors.CategoryParse:
		return `Parse error help:
• Every line needs exactly 8 fields: id,year,month,day,userId,bankCode,amount,TYPE
• Fields are split on bare commas; quoting is not supported
• Rows before the reported one may already be stored, depending on ingest.commit_mode`

	case errors.CategoryValidation:
		return `Validation error help:
• Dates use yyyy-MM-dd
• Bank codes are one of 004, 011, 020, 088, 090
• Transaction types are WITHDRAW or DEPOSIT
• Pages start at 0 and sizes must be greater than 0
• Transaction ids must be unique across all uploads`

	case errors.CategoryConfiguration:
		return `Configuration error help:
• Run 'banktx config' to print the effective configuration
• Environment variables use the BANKTX_ prefix, e.g. BANKTX_INGEST_CHUNK_SIZE`

	case errors.CategoryStorage:
		return `Storage error help:
• Check database.driver and database.dsn
• Rows committed before the failure are kept unless ingest.commit_mode is atomic`

	default:
		return ""
	}
}
