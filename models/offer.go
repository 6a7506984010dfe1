package models

// ListingType partitions both the marketplace query and the output files.
type ListingType string

const (
	ListingAsk ListingType = "ask"
	ListingBid ListingType = "bid"
)

// Offer is one rentable listing exactly as returned by the marketplace.
// Numbers are kept as json.Number so their literal text survives decoding.
type Offer map[string]any

// Cell is one formatted column value of a Row.
type Cell struct {
	Key   string
	Value string
}

// Row is a normalized Offer ready to be written to CSV.
// It holds exactly the schema keys, in schema order.
type Row []Cell

// Get returns the value stored under key, or "" when the row has no such cell.
func (r Row) Get(key string) string {
	for _, c := range r {
		if c.Key == key {
			return c.Value
		}
	}
	return ""
}

// Keys returns the row's keys in their stored order.
func (r Row) Keys() []string {
	keys := make([]string, len(r))
	for i, c := range r {
		keys[i] = c.Key
	}
	return keys
}

// ScrapeResult is the outcome of scraping a single listing type in one cycle.
type ScrapeResult struct {
	Type    ListingType
	Offers  int
	Err     error
	Written bool
}

// OK reports whether the scrape of this listing type succeeded.
func (r ScrapeResult) OK() bool { return r.Err == nil }
