package models

// BucketStat summarises one mileage bucket of a run.
type BucketStat struct {
	Bucket    string
	Count     int
	MeanPrice float64
}

// InsightReport holds the computed analytics over one scored run.
type InsightReport struct {
	TotalListings     int
	ListingsBySource  map[Source]int
	DollarRate        float64
	AveragePriceUSD   float64
	MinPriceUSD       int64
	MaxPriceUSD       int64
	BestDeal          *Car
	MostExpensive     *Car
	Buckets           []BucketStat
	ScoreDistribution map[PriceScore]int
}
