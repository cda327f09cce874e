package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"autovalor/models"
	"autovalor/services"
	"autovalor/storage"
)

type searchFlags struct {
	pages     int
	noML      bool
	kavak     bool
	kavakWeb  bool
	minUSD    int64
	maxUSD    int64
	jsonOut   bool
	csv       bool
	postgres  bool
	noSummary bool
}

var searchOpts searchFlags

func init() {
	f := searchCmd.Flags()
	f.IntVar(&searchOpts.pages, "pages", 0, "Result pages per source (default PAGES_TO_SCRAPE).")
	f.BoolVar(&searchOpts.noML, "no-ml", false, "Skip MercadoLibre.")
	f.BoolVar(&searchOpts.kavak, "kavak", false, "Include the Kavak catalog API.")
	f.BoolVar(&searchOpts.kavakWeb, "kavak-web", false, "Include Kavak web listings (needs Chrome).")
	f.Int64Var(&searchOpts.minUSD, "min-usd", 0, "Hide cars cheaper than this many dollars.")
	f.Int64Var(&searchOpts.maxUSD, "max-usd", 0, "Hide cars dearer than this many dollars.")
	f.BoolVar(&searchOpts.jsonOut, "json", false, "Print cars as JSON instead of a table.")
	f.BoolVar(&searchOpts.csv, "csv", false, "Also write cars to CSV_OUTPUT_PATH.")
	f.BoolVar(&searchOpts.postgres, "postgres", false, "Also store cars in PostgreSQL.")
	f.BoolVar(&searchOpts.noSummary, "no-insights", false, "Skip the insights report.")
	rootCmd.AddCommand(searchCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Searches every enabled source and prints graded listings.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		opts := models.SearchOptions{
			Query:           strings.Join(args, " "),
			Pages:           a.cfg.PagesToScrape,
			IncludeML:       a.cfg.IncludeML && !searchOpts.noML,
			IncludeKavak:    a.cfg.IncludeKavak || searchOpts.kavak,
			IncludeKavakWeb: a.cfg.IncludeKavakWeb || searchOpts.kavakWeb,
		}
		if searchOpts.pages > 0 {
			opts.Pages = searchOpts.pages
		}

		res := a.searcher.Search(cmd.Context(), opts)
		cars := services.FilterByUSD(res.Cars, searchOpts.minUSD, searchOpts.maxUSD)

		if searchOpts.csv {
			if err := writeCars(cars, func() (storage.CarWriter, error) {
				return storage.NewCSVWriter(a.cfg.CSVOutputPath)
			}); err != nil {
				return err
			}
			a.logger.Info("[search] Cars saved to %s", a.cfg.CSVOutputPath)
		}
		if searchOpts.postgres || a.cfg.PostgresEnabled {
			if err := writeCars(cars, func() (storage.CarWriter, error) {
				return storage.NewPostgresWriter(cmd.Context(), a.cfg.DSN())
			}); err != nil {
				return err
			}
			a.logger.Info("[search] Cars stored in PostgreSQL (table: cars)")
		}

		out := cmd.OutOrStdout()
		if searchOpts.jsonOut {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(cars)
		}

		printTable(out, cars)
		if !searchOpts.noSummary {
			insights := services.NewInsightService(a.logger)
			insights.Print(out, insights.Generate(res.Cars, res.DollarRate))
		}
		return nil
	},
}

func writeCars(cars []*models.Car, open func() (storage.CarWriter, error)) error {
	w, err := open()
	if err != nil {
		return err
	}
	if err := w.Write(cars); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

func printTable(out io.Writer, cars []*models.Car) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.AppendHeader(table.Row{"ID", "Source", "Title", "Year", "Km", "Price ARS", "Price USD", "Score"})
	for _, c := range cars {
		t.AppendRow(table.Row{
			c.ID, c.Source, shorten(c.Title, 48), orDash(c.Year), orDash(c.Km), c.Price, c.PriceUSD, c.PriceScore,
		})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}

func orDash(v *int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprint(*v)
}

func shorten(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
