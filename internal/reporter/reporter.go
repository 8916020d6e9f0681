// Package reporter renders pages of stored bank transactions for the command
// line.
//
// Supported output formats:
//   - table: human-readable table with page totals for terminal display
//   - json: the same page document the REST API returns
//   - csv: rows in the ingestion wire format, so an export can be re-ingested
//
// Example usage:
//
//	generator, err := reporter.NewReportGenerator(&reporter.ReportConfig{Format: reporter.FormatTable})
//	err = generator.WritePage(page, os.Stdout)
package reporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"

	"golang-bank-transaction-service/internal/models"
	"golang-bank-transaction-service/internal/parsers"
	"golang-bank-transaction-service/pkg/errors"
)

// OutputFormat represents the supported report output formats
type OutputFormat string

const (
	FormatTable OutputFormat = "table"
	FormatJSON  OutputFormat = "json"
	FormatCSV   OutputFormat = "csv"
)

// IsValid checks if the output format is supported
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatTable, FormatJSON, FormatCSV:
		return true
	default:
		return false
	}
}

// ReportConfig holds configuration options for report generation
type ReportConfig struct {
	Format OutputFormat `json:"format"`

	// CSVHeaders prepends a column header line. Off by default since the
	// ingestion format has no header.
	CSVHeaders bool `json:"csv_headers"`

	// ShowTotals prints deposit and withdrawal totals under the table
	ShowTotals bool `json:"show_totals"`
}

// DefaultReportConfig returns a default report configuration
func DefaultReportConfig() *ReportConfig {
	return &ReportConfig{
		Format:     FormatTable,
		CSVHeaders: false,
		ShowTotals: true,
	}
}

// Validate validates the report configuration
func (c *ReportConfig) Validate() error {
	if !c.Format.IsValid() {
		return errors.InvalidParameter("output", string(c.Format), nil).
			WithSuggestion("use table, json or csv")
	}
	return nil
}

// Totals sums the amounts on one page by transaction type
type Totals struct {
	Rows        int
	Deposits    decimal.Decimal
	Withdrawals decimal.Decimal
}

// Net returns deposits minus withdrawals
func (t Totals) Net() decimal.Decimal {
	return t.Deposits.Sub(t.Withdrawals)
}

// PageTotals computes the totals of rows
func PageTotals(rows []*models.BankTransaction) Totals {
	totals := Totals{Rows: len(rows)}
	for _, tx := range rows {
		amount := decimal.NewFromInt(tx.TransactionAmount)
		if tx.IsDeposit() {
			totals.Deposits = totals.Deposits.Add(amount)
		} else {
			totals.Withdrawals = totals.Withdrawals.Add(amount)
		}
	}
	return totals
}

// ReportGenerator writes transaction pages in the configured format
type ReportGenerator struct {
	config *ReportConfig
}

// NewReportGenerator creates a new report generator with the specified configuration
func NewReportGenerator(config *ReportConfig) (*ReportGenerator, error) {
	if config == nil {
		config = DefaultReportConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &ReportGenerator{config: config}, nil
}

// WritePage renders page to writer
func (rg *ReportGenerator) WritePage(page *models.PageResult[*models.BankTransaction], writer io.Writer) error {
	if page == nil {
		return errors.InternalError("write report", fmt.Errorf("page cannot be nil"))
	}

	switch rg.config.Format {
	case FormatJSON:
		return rg.writeJSON(page, writer)
	case FormatCSV:
		return rg.writeCSV(page, writer)
	default:
		return rg.writeTable(page, writer)
	}
}

func (rg *ReportGenerator) writeJSON(page *models.PageResult[*models.BankTransaction], writer io.Writer) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(models.MapPage(page, (*models.BankTransaction).View))
}

func (rg *ReportGenerator) writeCSV(page *models.PageResult[*models.BankTransaction], writer io.Writer) error {
	csvWriter := csv.NewWriter(writer)

	if rg.config.CSVHeaders {
		if err := csvWriter.Write(parsers.ColumnNames()); err != nil {
			return err
		}
	}

	for _, tx := range page.Contents {
		if err := csvWriter.Write(parsers.FormatRecord(tx)); err != nil {
			return err
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

func (rg *ReportGenerator) writeTable(page *models.PageResult[*models.BankTransaction], writer io.Writer) error {
	table := tablewriter.NewWriter(writer)
	table.SetHeader([]string{"ID", "Date", "User", "Bank", "Type", "Amount"})
	table.SetAutoWrapText(false)
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT,
	})

	for _, tx := range page.Contents {
		table.Append([]string{
			strconv.FormatInt(tx.ID, 10),
			tx.TransactionDate.String(),
			strconv.FormatInt(tx.UserID, 10),
			fmt.Sprintf("%s %s", tx.BankCode.Code(), tx.BankCode.ShortName()),
			tx.TransactionType.String(),
			strconv.FormatInt(tx.TransactionAmount, 10),
		})
	}

	totals := PageTotals(page.Contents)
	if rg.config.ShowTotals {
		table.SetFooter([]string{"", "", "", "", "Net", totals.Net().String()})
	}
	table.Render()

	fmt.Fprintf(writer, "Page %d of %d (%d of %d rows, offset %d)\n",
		page.PageNumber, page.TotalPages, page.ContentsSize, page.TotalElements, page.Offset)
	if rg.config.ShowTotals {
		fmt.Fprintf(writer, "Deposits: %s  Withdrawals: %s\n", totals.Deposits, totals.Withdrawals)
	}
	return nil
}
