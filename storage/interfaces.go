package storage

import "property-trawler/models"

// PropertyWriter is the interface any ranked-collection sink must satisfy.
// Writers receive the final scored collection; they serialize, never mutate.
type PropertyWriter interface {
	Write(props []*models.Property) error
	Close() error
}
