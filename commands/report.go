package commands

import (
	"github.com/spf13/cobra"

	"autovalor/services"
	"autovalor/storage"
)

func init() {
	rootCmd.AddCommand(reportCmd)
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Prints the last run stored in PostgreSQL with its insights.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		pw, err := storage.NewPostgresWriter(cmd.Context(), a.cfg.DSN())
		if err != nil {
			return err
		}
		defer pw.Close()

		cars, err := pw.FetchAll(cmd.Context())
		if err != nil {
			return err
		}
		a.logger.Info("[report] Loaded %d stored cars", len(cars))

		out := cmd.OutOrStdout()
		printTable(out, cars)
		insights := services.NewInsightService(a.logger)
		insights.Print(out, insights.Generate(cars, a.rates.Resolve(cmd.Context())))
		return nil
	},
}
