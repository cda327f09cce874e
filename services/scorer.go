package services

import "autovalor/models"

// Bucket is a mileage partition used to compare listings with their peers.
type Bucket string

const (
	BucketUnknown   Bucket = "desconocido"
	Bucket0To70k    Bucket = "0-70k"
	Bucket70To140k  Bucket = "70k-140k"
	Bucket140To200k Bucket = "140k-200k"
	BucketOver200k  Bucket = "+200k"
)

// Buckets lists every partition, unknown first then by ascending mileage.
var Buckets = []Bucket{BucketUnknown, Bucket0To70k, Bucket70To140k, Bucket140To200k, BucketOver200k}

func (b Bucket) String() string { return string(b) }

// Price ratio thresholds against the bucket mean. A price strictly below a
// threshold earns the matching label.
const (
	muyBuenoBelow = 0.90
	buenoBelow    = 0.97
	regularBelow  = 1.03
	maloBelow     = 1.10
)

// BucketFor maps a mileage to its partition. Ranges are lower-inclusive.
func BucketFor(km *int) Bucket {
	switch {
	case km == nil:
		return BucketUnknown
	case *km < 70_000:
		return Bucket0To70k
	case *km < 140_000:
		return Bucket70To140k
	case *km < 200_000:
		return Bucket140To200k
	default:
		return BucketOver200k
	}
}

// Means returns the arithmetic mean local price of every non-empty bucket.
func Means(cars []*models.Car) map[Bucket]float64 {
	sums := make(map[Bucket]float64)
	counts := make(map[Bucket]int)
	for _, c := range cars {
		b := BucketFor(c.Km)
		sums[b] += float64(c.Price)
		counts[b]++
	}

	means := make(map[Bucket]float64, len(sums))
	for b, sum := range sums {
		means[b] = sum / float64(counts[b])
	}
	return means
}

// Label grades price against mean. A missing or non-positive mean is regular.
func Label(price int64, mean float64) models.PriceScore {
	if mean <= 0 {
		return models.ScoreRegular
	}
	p := float64(price)
	switch {
	case p < mean*muyBuenoBelow:
		return models.ScoreMuyBueno
	case p < mean*buenoBelow:
		return models.ScoreBueno
	case p < mean*regularBelow:
		return models.ScoreRegular
	case p < mean*maloBelow:
		return models.ScoreMalo
	default:
		return models.ScoreMuyMalo
	}
}

// Score labels every car against its bucket mean over the whole collection.
// Running it again on the same collection yields the same labels.
func Score(cars []*models.Car) {
	means := Means(cars)
	for _, c := range cars {
		c.PriceScore = Label(c.Price, means[BucketFor(c.Km)])
	}
}
