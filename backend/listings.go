package main

import (
	"database/sql"
	"math"
	"net/http"
	"strconv"
)

// listingTable is the read-only in-memory apartment dataset, loaded once at
// startup by initListings. Nothing mutates it after that.
var listingTable []Listing

func loadListingTable(db *sql.DB) ([]Listing, error) {
	rows, err := db.Query(`
		SELECT id, cost, bedrooms, pets_allowed, parking, gym, lat, lon
		FROM listings
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var table []Listing
	for rows.Next() {
		var l Listing
		var lat, lon sql.NullFloat64
		if err := rows.Scan(&l.ID, &l.Cost, &l.Bedrooms, &l.PetsAllowed, &l.Parking, &l.Gym, &lat, &lon); err != nil {
			return nil, err
		}
		if lat.Valid {
			v := lat.Float64
			l.Lat = &v
		}
		if lon.Valid {
			v := lon.Float64
			l.Lon = &v
		}
		table = append(table, l)
	}
	return table, rows.Err()
}

// ListingQuery holds one apartment search. An amenity requirement that is not
// set imposes no constraint at all; only a set requirement can exclude rows.
type ListingQuery struct {
	CostMin     float64
	CostMax     float64
	BedroomsMin int
	BedroomsMax int

	RequirePets    bool
	RequireParking bool
	RequireGym     bool
}

// filterListings returns the subset of listings satisfying every constraint
// of q, in the input table's order. Pure: no side effects, identical inputs
// give identical, identically-ordered output.
func filterListings(listings []Listing, q ListingQuery) []Listing {
	matched := make([]Listing, 0, len(listings))
	for _, l := range listings {
		if l.Cost < q.CostMin || l.Cost > q.CostMax {
			continue
		}
		if l.Bedrooms < q.BedroomsMin || l.Bedrooms > q.BedroomsMax {
			continue
		}
		if q.RequirePets && !l.PetsAllowed {
			continue
		}
		if q.RequireParking && !l.Parking {
			continue
		}
		if q.RequireGym && !l.Gym {
			continue
		}
		matched = append(matched, l)
	}
	return matched
}

// mapCenter derives a map center from the listings that carry both
// coordinates: the arithmetic mean of latitudes and of longitudes,
// independently. ok is false when no listing has coordinates, which callers
// must report instead of rendering an empty map.
func mapCenter(listings []Listing) (lat, lon float64, ok bool) {
	n := 0
	for _, l := range listings {
		if l.Lat == nil || l.Lon == nil {
			continue
		}
		lat += *l.Lat
		lon += *l.Lon
		n++
	}
	if n == 0 {
		return 0, 0, false
	}
	return lat / float64(n), lon / float64(n), true
}

// GET /apartments?cost_min=&cost_max=&bedrooms_min=&bedrooms_max=&pets=&parking=&gym=
func apartmentsHandler(db *sql.DB) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "invalid_method")
			return
		}

		q, err := parseListingQuery(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_query")
			return
		}

		matched := filterListings(listingTable, q)

		resp := map[string]interface{}{
			"searched": true,
			"count":    len(matched),
			"listings": matched,
		}
		if lat, lon, ok := mapCenter(matched); ok {
			resp["map_center"] = map[string]float64{"lat": lat, "lon": lon}
		} else {
			resp["map_center"] = nil
			resp["map_center_reason"] = "no_coordinates"
		}
		writeJSON(w, http.StatusOK, resp)
	})
}

func parseListingQuery(r *http.Request) (ListingQuery, error) {
	q := ListingQuery{
		CostMin:     0,
		CostMax:     math.MaxFloat64,
		BedroomsMin: 0,
		BedroomsMax: math.MaxInt32,
	}
	vals := r.URL.Query()

	if s := vals.Get("cost_min"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return q, err
		}
		q.CostMin = v
	}
	if s := vals.Get("cost_max"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return q, err
		}
		q.CostMax = v
	}
	if s := vals.Get("bedrooms_min"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return q, err
		}
		q.BedroomsMin = v
	}
	if s := vals.Get("bedrooms_max"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return q, err
		}
		q.BedroomsMax = v
	}

	// Amenity params are on/off requirements: absent or "false" means the
	// caller does not care, never "must be false".
	q.RequirePets = vals.Get("pets") == "true" || vals.Get("pets") == "1"
	q.RequireParking = vals.Get("parking") == "true" || vals.Get("parking") == "1"
	q.RequireGym = vals.Get("gym") == "true" || vals.Get("gym") == "1"
	return q, nil
}
