package storage

import (
	"context"
	"errors"

	"vastai-scraper/models"
)

// OfferWriter is the interface any storage backend must satisfy.
type OfferWriter interface {
	Write(ctx context.Context, listingType models.ListingType, rows []models.Row) error
}

// MultiWriter writes the same rows to every backend. All backends are tried;
// their errors are joined.
type MultiWriter []OfferWriter

func (m MultiWriter) Write(ctx context.Context, listingType models.ListingType, rows []models.Row) error {
	var errs []error
	for _, w := range m {
		if err := w.Write(ctx, listingType, rows); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
