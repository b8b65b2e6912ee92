package search

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"ai-travel-planner/internal/trip"
)

// MaxHotelListings caps how many listings a hotel search returns.
const MaxHotelListings = 10

// HotelListing is one property returned by the hotel search.
type HotelListing struct {
	Name          string   `json:"name"`
	PriceDisplay  string   `json:"price_per_night"`
	PricePerNight float64  `json:"price_per_night_num"`
	TotalPrice    float64  `json:"total_price_num"`
	Rating        *float64 `json:"rating,omitempty"`
	Reviews       int      `json:"reviews,omitempty"`
	Class         int      `json:"class,omitempty"`
	Lat           *float64 `json:"lat,omitempty"`
	Lng           *float64 `json:"lng,omitempty"`
}

type serpHotelsResponse struct {
	Error      string `json:"error"`
	Properties []struct {
		Name         string `json:"name"`
		RatePerNight struct {
			Lowest any `json:"lowest"`
		} `json:"rate_per_night"`
		OverallRating *float64 `json:"overall_rating"`
		Reviews       int      `json:"reviews"`
		HotelClass    int      `json:"extracted_hotel_class"`
		GPS           *struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"gps_coordinates"`
	} `json:"properties"`
}

// SearchHotels finds hotels in the destination for the stay. Listings whose
// nightly rate cannot be parsed, or whose stay total exceeds budget, are
// dropped. At most MaxHotelListings are returned.
func (c *Client) SearchHotels(ctx context.Context, destination string, checkIn, checkOut trip.Date, adults int, budget float64) ([]HotelListing, error) {
	nights := int(checkOut.Sub(checkIn.Time).Hours() / 24)

	params := url.Values{}
	params.Set("engine", "google_hotels")
	params.Set("q", destination)
	params.Set("check_in_date", checkIn.String())
	params.Set("check_out_date", checkOut.String())
	params.Set("adults", strconv.Itoa(adults))
	params.Set("currency", "USD")
	params.Set("api_key", c.serpKey)

	var resp serpHotelsResponse
	if err := c.getJSON(ctx, c.serpURL, params, &resp); err != nil {
		return nil, fmt.Errorf("hotel search for %s: %w", destination, err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("hotel search for %s: %s", destination, resp.Error)
	}

	var listings []HotelListing
	for _, p := range resp.Properties {
		price, ok := ParsePrice(p.RatePerNight.Lowest)
		if !ok {
			continue
		}
		total := price * float64(nights)
		if total > budget {
			continue
		}

		l := HotelListing{
			Name:          p.Name,
			PriceDisplay:  fmt.Sprint(p.RatePerNight.Lowest),
			PricePerNight: price,
			TotalPrice:    total,
			Rating:        p.OverallRating,
			Reviews:       p.Reviews,
			Class:         p.HotelClass,
		}
		if p.GPS != nil {
			lat, lng := p.GPS.Latitude, p.GPS.Longitude
			l.Lat, l.Lng = &lat, &lng
		}
		listings = append(listings, l)
		if len(listings) == MaxHotelListings {
			break
		}
	}
	return listings, nil
}
