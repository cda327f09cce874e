package scraper

import (
	"errors"
	"fmt"

	"autovalor/models"
)

var (
	// ErrSourceUnavailable indicates a source or one of its pages could not be fetched.
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrItemExtraction indicates a single item was too malformed to extract.
	ErrItemExtraction = errors.New("item extraction failed")
	// ErrFieldParse indicates a single field could not be parsed and took its default.
	ErrFieldParse = errors.New("field parse failed")
)

// SafeExtract runs extract and turns a panic into an ErrItemExtraction result,
// so one broken item never takes the batch down with it.
func SafeExtract(index int, extract func() (*models.RawCar, error)) (res models.ItemResult) {
	res.Index = index
	defer func() {
		if r := recover(); r != nil {
			res.Car = nil
			res.Err = fmt.Errorf("%w: item %d: %v", ErrItemExtraction, index, r)
		}
	}()

	car, err := extract()
	if err != nil {
		res.Err = err
		return res
	}
	res.Car = car
	return res
}
