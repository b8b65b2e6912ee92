package search

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

// MinAttractionReviews filters out obscure places.
const MinAttractionReviews = 900

var attractionCategories = []string{
	"tourist attractions",
	"point of interest",
	"museums",
	"viewpoints",
	"historical sites",
	"landmarks",
	"establishments",
}

var excludedPlaceTypes = map[string]bool{
	"restaurant": true,
	"lodging":    true,
}

// Attraction is a place worth visiting at the destination.
type Attraction struct {
	Name    string   `json:"name"`
	Rating  *float64 `json:"rating,omitempty"`
	Reviews int      `json:"reviews"`
	Types   []string `json:"types"`
	Lat     float64  `json:"lat"`
	Lng     float64  `json:"lng"`
}

type placeResult struct {
	Name             string   `json:"name"`
	Rating           *float64 `json:"rating"`
	UserRatingsTotal int      `json:"user_ratings_total"`
	Types            []string `json:"types"`
	Geometry         struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
}

type placesResponse struct {
	Status        string        `json:"status"`
	ErrorMessage  string        `json:"error_message"`
	Results       []placeResult `json:"results"`
	NextPageToken string        `json:"next_page_token"`
}

// SearchAttractions runs one text search per category, follows the
// pagination token of the last category, dedupes by name and keeps
// well-reviewed places that are neither restaurants nor lodging.
func (c *Client) SearchAttractions(ctx context.Context, destination string) ([]Attraction, error) {
	var all []placeResult
	var token string

	for _, category := range attractionCategories {
		params := url.Values{}
		params.Set("query", fmt.Sprintf("%s in %s", category, destination))
		params.Set("key", c.mapsKey)

		page, err := c.placesPage(ctx, params)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Results...)
		token = page.NextPageToken
	}

	for token != "" {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pageDelay):
		}

		params := url.Values{}
		params.Set("pagetoken", token)
		params.Set("key", c.mapsKey)

		page, err := c.placesPage(ctx, params)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Results...)
		token = page.NextPageToken
	}

	return filterAttractions(all), nil
}

func (c *Client) placesPage(ctx context.Context, params url.Values) (*placesResponse, error) {
	var resp placesResponse
	if err := c.getJSON(ctx, c.placesURL, params, &resp); err != nil {
		return nil, fmt.Errorf("places search: %w", err)
	}
	switch resp.Status {
	case "", "OK", "ZERO_RESULTS":
		return &resp, nil
	default:
		return nil, fmt.Errorf("places search: %s %s", resp.Status, resp.ErrorMessage)
	}
}

func filterAttractions(results []placeResult) []Attraction {
	seen := map[string]bool{}
	var out []Attraction

	for _, r := range results {
		if r.Name == "" || seen[r.Name] {
			continue
		}
		seen[r.Name] = true

		if r.UserRatingsTotal < MinAttractionReviews || hasExcludedType(r.Types) {
			continue
		}

		out = append(out, Attraction{
			Name:    r.Name,
			Rating:  r.Rating,
			Reviews: r.UserRatingsTotal,
			Types:   r.Types,
			Lat:     r.Geometry.Location.Lat,
			Lng:     r.Geometry.Location.Lng,
		})
	}
	return out
}

func hasExcludedType(types []string) bool {
	for _, t := range types {
		if excludedPlaceTypes[t] {
			return true
		}
	}
	return false
}
