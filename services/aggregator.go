package services

import (
	"strings"

	"autovalor/models"
)

// Aggregator builds canonical Cars in arrival order and numbers them from 1.
// It belongs to a single run and is not safe for concurrent use.
type Aggregator struct {
	next int
	cars []*models.Car
}

func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Append converts raw into a Car carrying the next id and the normalized
// prices, and adds it to the collection.
func (a *Aggregator) Append(source models.Source, raw *models.RawCar, local, usd int64) *models.Car {
	a.next++

	car := &models.Car{
		ID:          a.next,
		Title:       strings.TrimSpace(raw.Title),
		Price:       max(local, 0),
		PriceUSD:    max(usd, 0),
		Currency:    models.CurrencyARS,
		Year:        raw.Year,
		Km:          raw.Km,
		Location:    raw.Location,
		Image:       raw.Image,
		URL:         raw.URL,
		PublishDate: models.UnknownPublishDate,
		Source:      source,
		PriceScore:  models.ScoreRegular,
	}
	if raw.IsUSD {
		car.Currency = models.CurrencyUSD
	}
	if car.Title == "" {
		car.Title = models.UnknownTitle
	}
	if car.Image == "" {
		car.Image = models.PlaceholderImage
	}
	if raw.PublishDate != nil && *raw.PublishDate != "" {
		car.PublishDate = *raw.PublishDate
	}

	a.cars = append(a.cars, car)
	return car
}

// Cars returns the collection built so far, never nil.
func (a *Aggregator) Cars() []*models.Car {
	if a.cars == nil {
		return []*models.Car{}
	}
	return a.cars
}

func (a *Aggregator) Len() int { return len(a.cars) }
