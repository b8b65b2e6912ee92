package trip

import "ai-travel-planner/internal/geo"

// Activity is one scheduled attraction.
type Activity struct {
	Name        string `json:"name"`
	Lat         Degree `json:"lat,omitzero"`
	Lng         Degree `json:"lng,omitzero"`
	Description string `json:"description,omitempty"`
}

// Coordinate returns the activity location when both components parse.
func (a Activity) Coordinate() (geo.Coordinate, bool) {
	lat, ok := a.Lat.Float()
	if !ok {
		return geo.Coordinate{}, false
	}
	lng, ok := a.Lng.Float()
	if !ok {
		return geo.Coordinate{}, false
	}
	return geo.Coordinate{Lat: lat, Lng: lng}, true
}

// Day is one itinerary day split into three ordered slots.
type Day struct {
	Index     int        `json:"day_index"`
	Date      string     `json:"date,omitempty"`
	Morning   []Activity `json:"morning"`
	Afternoon []Activity `json:"afternoon"`
	Evening   []Activity `json:"evening"`
}

// Slots returns morning, afternoon and evening in order.
func (d Day) Slots() [][]Activity {
	return [][]Activity{d.Morning, d.Afternoon, d.Evening}
}

// ActivityCount is the number of activities across all slots.
func (d Day) ActivityCount() int {
	return len(d.Morning) + len(d.Afternoon) + len(d.Evening)
}

// Itinerary is the day-by-day plan produced by the planner agent.
type Itinerary struct {
	Destination string `json:"destination"`
	Days        []Day  `json:"days"`
}

// Coordinates collects every parsable activity location. Activities without a
// usable coordinate are skipped.
func (it *Itinerary) Coordinates() []geo.Coordinate {
	if it == nil {
		return nil
	}

	var coords []geo.Coordinate
	for _, day := range it.Days {
		for _, slot := range day.Slots() {
			for _, a := range slot {
				if c, ok := a.Coordinate(); ok {
					coords = append(coords, c)
				}
			}
		}
	}
	return coords
}

// Centroid is the mean location of the itinerary's activities. ok is false
// when no activity carries a usable coordinate.
func (it *Itinerary) Centroid() (geo.Coordinate, bool) {
	return geo.Centroid(it.Coordinates())
}
