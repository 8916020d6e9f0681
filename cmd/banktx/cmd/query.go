package cmd

import (
	"io"

	"github.com/spf13/cobra"

	"golang-bank-transaction-service/internal/models"
	"golang-bank-transaction-service/internal/query"
	"golang-bank-transaction-service/internal/reporter"
	"golang-bank-transaction-service/pkg/errors"
)

// Flags for the query commands
var (
	queryDate     string
	queryType     string
	queryBankCode string
	queryPage     int
	querySize     int
	queryOutput   string
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query stored bank transactions",
	Long: `Query runs the same filtered, paginated lookups as the REST API.
Omitted filters do not constrain the result.

Examples:
  banktx query by-user --date 2021-01-01 --type DEPOSIT
  banktx query by-bank --bank-code 011 --page 1 --size 50
  banktx query by-bank --type WITHDRAW --output json
  banktx query by-user --size 2000 --output csv > export.csv`,
}

var queryByUserCmd = &cobra.Command{
	Use:     "by-user",
	Short:   "Transactions ordered by date, then user",
	PreRunE: validateQueryFlags,
	RunE:    runQueryByUser,
}

var queryByBankCmd = &cobra.Command{
	Use:     "by-bank",
	Short:   "Transactions ordered by date, then bank code",
	PreRunE: validateQueryFlags,
	RunE:    runQueryByBank,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.AddCommand(queryByUserCmd, queryByBankCmd)

	queryCmd.PersistentFlags().StringVar(&queryDate, "date", "", "transaction date filter (yyyy-MM-dd)")
	queryCmd.PersistentFlags().StringVar(&queryType, "type", "", "transaction type filter: WITHDRAW, DEPOSIT")
	queryCmd.PersistentFlags().IntVar(&queryPage, "page", 0, "zero-based page number")
	queryCmd.PersistentFlags().IntVar(&querySize, "size", 20, "page size")
	queryCmd.PersistentFlags().StringVarP(&queryOutput, "output", "o", "table", "output format: table, json, csv")

	queryByBankCmd.Flags().StringVar(&queryBankCode, "bank-code", "", "bank code filter: 004, 011, 020, 088, 090")
}

func validateQueryFlags(cmd *cobra.Command, args []string) error {
	if !reporter.OutputFormat(queryOutput).IsValid() {
		return errors.InvalidParameter("output", queryOutput, nil).
			WithSuggestion("use table, json or csv")
	}
	_, err := models.NewPageRequest(queryPage, querySize)
	return err
}

type queryFilters struct {
	date     *models.Date
	txType   *models.TransactionType
	bankCode *models.BankCode
}

func parseQueryFilters() (queryFilters, error) {
	var f queryFilters

	if queryDate != "" {
		d, err := models.ParseDate(queryDate)
		if err != nil {
			return f, errors.InvalidParameter("date", queryDate, err)
		}
		f.date = &d
	}
	if queryType != "" {
		t, err := models.ParseTransactionType(queryType)
		if err != nil {
			return f, errors.InvalidParameter("type", queryType, err)
		}
		f.txType = &t
	}
	if queryBankCode != "" {
		c, err := models.ResolveBankCode(queryBankCode)
		if err != nil {
			return f, err
		}
		f.bankCode = &c
	}
	return f, nil
}

func runQueryByUser(cmd *cobra.Command, args []string) error {
	filters, err := parseQueryFilters()
	if err != nil {
		return err
	}

	store, _, queryEngine, err := openServices(cmd.Context())
	if err != nil {
		return err
	}
	defer store.Close()

	page, err := queryEngine.FindByUser(cmd.Context(), query.UserFilter{
		TransactionDate: filters.date,
		TransactionType: filters.txType,
	}, models.PageRequest{Number: queryPage, Size: querySize})
	if err != nil {
		return err
	}

	return writePage(cmd.OutOrStdout(), page, queryOutput)
}

func runQueryByBank(cmd *cobra.Command, args []string) error {
	filters, err := parseQueryFilters()
	if err != nil {
		return err
	}

	store, _, queryEngine, err := openServices(cmd.Context())
	if err != nil {
		return err
	}
	defer store.Close()

	page, err := queryEngine.FindByBank(cmd.Context(), query.BankFilter{
		TransactionDate: filters.date,
		TransactionType: filters.txType,
		BankCode:        filters.bankCode,
	}, models.PageRequest{Number: queryPage, Size: querySize})
	if err != nil {
		return err
	}

	return writePage(cmd.OutOrStdout(), page, queryOutput)
}

func writePage(w io.Writer, page *models.PageResult[*models.BankTransaction], format string) error {
	generator, err := reporter.NewReportGenerator(&reporter.ReportConfig{
		Format:     reporter.OutputFormat(format),
		ShowTotals: true,
	})
	if err != nil {
		return err
	}
	return generator.WritePage(page, w)
}
