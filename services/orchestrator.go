package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"vastai-scraper/models"
	"vastai-scraper/storage"
	"vastai-scraper/utils"
)

// TimestampLayout is the ISO-8601 form written into the timestamp column.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// OfferFetcher returns the current offers of one listing type.
type OfferFetcher interface {
	FetchOffers(ctx context.Context, listingType models.ListingType) ([]models.Offer, error)
}

// Pinger is notified after every fully successful cycle.
type Pinger interface {
	Ping(ctx context.Context) bool
}

// Orchestrator runs one scrape cycle across all listing types.
// It keeps no state between cycles.
type Orchestrator struct {
	fetcher   OfferFetcher
	writer    storage.OfferWriter
	pinger    Pinger
	types     []models.ListingType
	rateLimit time.Duration
	now       func() time.Time
	logger    utils.Logger
}

// OrchestratorOptions wires an Orchestrator. Pinger may be nil.
type OrchestratorOptions struct {
	Fetcher      OfferFetcher
	Writer       storage.OfferWriter
	Pinger       Pinger
	ListingTypes []models.ListingType
	// RateLimit is the minimum spacing between per-type scrapes starting.
	RateLimit time.Duration
	Now       func() time.Time
}

func NewOrchestrator(opts OrchestratorOptions, logger utils.Logger) *Orchestrator {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	o := &Orchestrator{
		fetcher:   opts.Fetcher,
		writer:    opts.Writer,
		types:     opts.ListingTypes,
		rateLimit: opts.RateLimit,
		pinger:    opts.Pinger,
		now:       now,
		logger:    logger.With(utils.Fields{"component": "orchestrator"}),
	}
	return o
}

// RunCycle scrapes every listing type concurrently and waits for all of them.
// It returns true only when every type succeeded; only then is the pinger
// notified.
func (o *Orchestrator) RunCycle(ctx context.Context) bool {
	started := o.now()
	timestamp := started.UTC().Format(TimestampLayout)
	log := o.logger.With(utils.Fields{"cycle": uuid.NewString()})
	log.With(utils.Fields{"timestamp": timestamp, "types": o.types}).Info("Starting scrape")

	results := make([]models.ScrapeResult, len(o.types))
	pool := utils.NewWorkerPool(len(o.types), o.rateLimit)
	for i, t := range o.types {
		i, t := i, t
		pool.Submit(ctx, func(ctx context.Context) {
			results[i] = o.ScrapeType(ctx, log, timestamp, t)
		})
	}
	pool.Wait()

	ok := true
	for _, r := range results {
		if !r.OK() {
			ok = false
		}
	}

	log.With(utils.Fields{
		"success":  ok,
		"duration": time.Since(started).String(),
	}).Info("Scrape cycle finished")

	if ok && o.pinger != nil {
		o.pinger.Ping(ctx)
	}
	return ok
}

// ScrapeType fetches, transforms and stores the offers of one listing type.
// Failures, including panics, are logged and returned in the result.
func (o *Orchestrator) ScrapeType(ctx context.Context, log utils.Logger, timestamp string, t models.ListingType) (res models.ScrapeResult) {
	res.Type = t
	log = log.With(utils.Fields{"type": t})

	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("scrape %s: panic: %v", t, r)
		}
		if res.Err != nil {
			log.With(utils.Fields{"error": res.Err.Error()}).Error("Scrape failed")
		}
	}()

	offers, err := o.fetcher.FetchOffers(ctx, t)
	if err != nil {
		res.Err = err
		return res
	}

	if len(offers) == 0 {
		log.Info("No offers found")
		return res
	}

	rows := TransformAll(timestamp, offers)
	if err := o.writer.Write(ctx, t, rows); err != nil {
		res.Err = err
		return res
	}

	res.Offers = len(offers)
	res.Written = true
	log.With(utils.Fields{"count": len(offers)}).Info("Fetched offers")
	return res
}
