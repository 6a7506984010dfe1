package vastai

import (
	"encoding/json"
	"fmt"

	"vastai-scraper/config"
	"vastai-scraper/models"
)

type inFilter struct {
	In []string `json:"in"`
}

type gteFilter[T any] struct {
	Gte T `json:"gte"`
}

type eqFilter struct {
	Eq bool `json:"eq"`
}

// Query is the wire form of the "q" search parameter. Field order matches
// what the web console sends.
type Query struct {
	GPUName          inFilter           `json:"gpu_name"`
	DiskSpace        gteFilter[float64] `json:"disk_space"`
	AllocatedStorage float64            `json:"allocated_storage"`
	Duration         gteFilter[int]     `json:"duration"`
	Rentable         eqFilter           `json:"rentable"`
	Verified         eqFilter           `json:"verified"`
	Reliability2     gteFilter[float64] `json:"reliability2"`
	Order            [][2]string        `json:"order"`
	// SortOption repeats Order keyed by position; the API accepts both and
	// the console always sends the pair.
	SortOption   map[string][2]string `json:"sort_option"`
	Limit        int                  `json:"limit"`
	ResourceType string               `json:"resource_type"`
	Type         models.ListingType   `json:"type"`
}

var defaultOrder = [][2]string{
	{"dph_total", "asc"},
	{"total_flops", "asc"},
}

// BuildQuery merges the base filter with a listing type.
func BuildQuery(f config.Query, listingType models.ListingType) Query {
	sortOption := make(map[string][2]string, len(defaultOrder))
	for i, o := range defaultOrder {
		sortOption[fmt.Sprint(i)] = o
	}

	return Query{
		GPUName:          inFilter{In: f.GPUNames},
		DiskSpace:        gteFilter[float64]{Gte: f.MinDiskSpace},
		AllocatedStorage: f.AllocatedStorage,
		Duration:         gteFilter[int]{Gte: f.MinDuration},
		Rentable:         eqFilter{Eq: f.Rentable},
		Verified:         eqFilter{Eq: f.Verified},
		Reliability2:     gteFilter[float64]{Gte: f.MinReliability},
		Order:            defaultOrder,
		SortOption:       sortOption,
		Limit:            f.Limit,
		ResourceType:     f.ResourceType,
		Type:             listingType,
	}
}

// Encode renders the query as the JSON string sent in the q parameter.
func (q Query) Encode() (string, error) {
	b, err := json.Marshal(q)
	if err != nil {
		return "", fmt.Errorf("vastai: encode query: %w", err)
	}
	return string(b), nil
}
