package storage

import "autovalor/models"

// CarWriter is the interface any storage backend must satisfy.
type CarWriter interface {
	Write(cars []*models.Car) error
	Close() error
}
