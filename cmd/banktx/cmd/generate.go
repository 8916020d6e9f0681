package cmd

import (
	"bufio"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"golang-bank-transaction-service/internal/generator"
	"golang-bank-transaction-service/internal/models"
	"golang-bank-transaction-service/pkg/errors"
)

var generateOpts = struct {
	output         string
	count          int
	firstID        int64
	startDate      string
	endDate        string
	users          int64
	minAmount      int64
	maxAmount      int64
	depositRatio   float64
	pattern        string
	seed           int64
	malformedEvery int
}{}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write a synthetic transaction CSV file",
	Long: `Generate writes random bank transactions in the ingestion CSV format.
The same seed always produces the same file.

Examples:
  banktx generate --count 100000 --output large.csv --seed 42
  banktx generate --pattern month-end --start-date 2022-01-01 --end-date 2022-06-30
  banktx generate --count 20 --malformed-every 10 > broken.csv`,
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	f := generateCmd.Flags()
	f.StringVarP(&generateOpts.output, "output", "o", "", "output file (default stdout)")
	f.IntVar(&generateOpts.count, "count", 1000, "number of rows")
	f.Int64Var(&generateOpts.firstID, "first-id", 1, "id of the first row")
	f.StringVar(&generateOpts.startDate, "start-date", "2021-01-01", "first transaction date (yyyy-MM-dd)")
	f.StringVar(&generateOpts.endDate, "end-date", "2021-12-31", "last transaction date (yyyy-MM-dd)")
	f.Int64Var(&generateOpts.users, "users", 100, "number of distinct user ids")
	f.Int64Var(&generateOpts.minAmount, "min-amount", 1000, "minimum amount")
	f.Int64Var(&generateOpts.maxAmount, "max-amount", 1000000, "maximum amount")
	f.Float64Var(&generateOpts.depositRatio, "deposit-ratio", 0.6, "share of DEPOSIT rows")
	f.StringVar(&generateOpts.pattern, "pattern", string(generator.PatternRandom), "date pattern: random, month-end")
	f.Int64Var(&generateOpts.seed, "seed", time.Now().UnixNano(), "random seed")
	f.IntVar(&generateOpts.malformedEvery, "malformed-every", 0, "truncate every n-th row (0 disables)")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	start, err := models.ParseDate(generateOpts.startDate)
	if err != nil {
		return errors.InvalidParameter("start-date", generateOpts.startDate, err)
	}
	end, err := models.ParseDate(generateOpts.endDate)
	if err != nil {
		return errors.InvalidParameter("end-date", generateOpts.endDate, err)
	}

	g, err := generator.NewTransactionGenerator(generator.Options{
		Count:          generateOpts.count,
		FirstID:        generateOpts.firstID,
		StartDate:      start,
		EndDate:        end,
		Users:          generateOpts.users,
		MinAmount:      generateOpts.minAmount,
		MaxAmount:      generateOpts.maxAmount,
		DepositRatio:   generateOpts.depositRatio,
		Pattern:        generator.Pattern(generateOpts.pattern),
		Seed:           generateOpts.seed,
		MalformedEvery: generateOpts.malformedEvery,
	})
	if err != nil {
		return errors.Wrap(err, errors.CategoryValidation, errors.CodeInvalidParameter, "invalid generator options")
	}

	if generateOpts.output == "" {
		_, err := g.Write(cmd.OutOrStdout())
		return err
	}

	file, err := os.Create(generateOpts.output)
	if err != nil {
		return errors.FileError(errors.CodeFileNotFound, generateOpts.output, err)
	}
	defer file.Close()

	buffered := bufio.NewWriter(file)
	valid, err := g.Write(buffered)
	if err == nil {
		err = buffered.Flush()
	}
	if err != nil {
		return errors.FileError(errors.CodeFileNotFound, generateOpts.output, err)
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Generated %d rows (%d valid) in %s, seed %d\n",
		generateOpts.count, valid, generateOpts.output, generateOpts.seed)
	return nil
}
