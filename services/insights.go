package services

import (
	"fmt"
	"io"
	"strings"

	"autovalor/models"
	"autovalor/utils"
)

type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

// Generate summarises a scored run. Cars without a price are counted but
// left out of the price statistics.
func (s *InsightService) Generate(cars []*models.Car, dollarRate float64) *models.InsightReport {
	report := &models.InsightReport{
		ListingsBySource:  make(map[models.Source]int),
		ScoreDistribution: make(map[models.PriceScore]int),
		DollarRate:        dollarRate,
	}

	if len(cars) == 0 {
		return report
	}

	report.TotalListings = len(cars)

	var priced []*models.Car
	counts := make(map[Bucket]int)
	for _, c := range cars {
		report.ListingsBySource[c.Source]++
		report.ScoreDistribution[c.PriceScore]++
		counts[BucketFor(c.Km)]++
		if c.PriceUSD > 0 {
			priced = append(priced, c)
		}
	}

	means := Means(cars)
	for _, b := range Buckets {
		if counts[b] == 0 {
			continue
		}
		report.Buckets = append(report.Buckets, models.BucketStat{
			Bucket:    b.String(),
			Count:     counts[b],
			MeanPrice: round2(means[b]),
		})
	}

	// USD stats (only cars with a price)
	if len(priced) > 0 {
		report.MinPriceUSD = priced[0].PriceUSD
		report.MaxPriceUSD = priced[0].PriceUSD
		report.MostExpensive = priced[0]
		var total float64
		bestRatio := 0.0
		for _, c := range priced {
			total += float64(c.PriceUSD)
			if c.PriceUSD < report.MinPriceUSD {
				report.MinPriceUSD = c.PriceUSD
			}
			if c.PriceUSD > report.MaxPriceUSD {
				report.MaxPriceUSD = c.PriceUSD
				report.MostExpensive = c
			}
			mean := means[BucketFor(c.Km)]
			if mean <= 0 {
				continue
			}
			if ratio := float64(c.Price) / mean; report.BestDeal == nil || ratio < bestRatio {
				report.BestDeal = c
				bestRatio = ratio
			}
		}
		report.AveragePriceUSD = round2(total / float64(len(priced)))
	}

	s.logger.Debug("[insights] %d cars, %d priced, %d buckets", report.TotalListings, len(priced), len(report.Buckets))
	return report
}

func (s *InsightService) Print(w io.Writer, r *models.InsightReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;35m  📊 VEHICLE PRICE INSIGHTS\033[0m\n")
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)

	// Overview
	fmt.Fprintf(w, "\033[1;33m  Overview\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Total listings : \033[1m%d\033[0m\n", r.TotalListings)
	for _, src := range []models.Source{models.SourceMercadoLibre, models.SourceKavak, models.SourceKavakWeb} {
		if n := r.ListingsBySource[src]; n > 0 {
			fmt.Fprintf(w, "  %-14s : \033[1m%d\033[0m\n", src, n)
		}
	}
	fmt.Fprintf(w, "  Dollar rate    : \033[1m%.2f ARS\033[0m\n", r.DollarRate)
	fmt.Fprintln(w)

	// Price Stats
	fmt.Fprintf(w, "\033[1;33m  Price Statistics (USD)\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if r.AveragePriceUSD > 0 {
		fmt.Fprintf(w, "  Average price : \033[1;32mUS$%.2f\033[0m\n", r.AveragePriceUSD)
		fmt.Fprintf(w, "  Minimum price : \033[1;32mUS$%d\033[0m\n", r.MinPriceUSD)
		fmt.Fprintf(w, "  Maximum price : \033[1;32mUS$%d\033[0m\n", r.MaxPriceUSD)
	} else {
		fmt.Fprintf(w, "  No price data available\n")
	}
	fmt.Fprintln(w)

	if r.BestDeal != nil {
		fmt.Fprintf(w, "\033[1;33m  Best Deal\033[0m\n")
		fmt.Fprintf(w, "  %s\n", thin)
		fmt.Fprintf(w, "  %s\n", truncate(r.BestDeal.Title, 50))
		fmt.Fprintf(w, "  Price : \033[1;32mUS$%d\033[0m (%s)\n", r.BestDeal.PriceUSD, r.BestDeal.PriceScore)
		fmt.Fprintf(w, "  URL   : %s\n", r.BestDeal.URL)
		fmt.Fprintln(w)
	}

	// Buckets
	fmt.Fprintf(w, "\033[1;33m  Mean Price by Mileage (ARS)\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if len(r.Buckets) == 0 {
		fmt.Fprintf(w, "  No listings\n")
	}
	for _, b := range r.Buckets {
		fmt.Fprintf(w, "  %-12s %14.0f (%d)\n", b.Bucket, b.MeanPrice, b.Count)
	}
	fmt.Fprintln(w)

	// Score Distribution
	fmt.Fprintf(w, "\033[1;33m  Score Distribution\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	for _, score := range models.Scores {
		n := r.ScoreDistribution[score]
		fmt.Fprintf(w, "  %-10s %s (%d)\n", score, strings.Repeat("█", n), n)
	}

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n\n", sep)
}

func round2(f float64) float64 {
	return float64(int64(f*100+0.5)) / 100
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
