package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"

	"github.com/atlas-express/service-delivery/internal/apperr"
)

// DefaultNominatimBaseURL is the public Nominatim instance.
const DefaultNominatimBaseURL = "https://nominatim.openstreetmap.org"

const geocoderUserAgent = "AtlasExpress-Delivery/1.0 (+https://atlasexpress.dz)"

// Geocoder resolves a free-text address to geographic coordinates.
type Geocoder interface {
	// Geocode resolves the address to coordinates, taking the first result.
	Geocode(ctx context.Context, address string) (Coordinates, error)
}

// NominatimGeocoder is a Geocoder backed by the Nominatim search API.
// It performs exactly one outbound call per invocation, no retry, no cache.
type NominatimGeocoder struct {
	baseURL string
	client  *http.Client
}

// NewNominatimGeocoder creates a geocoder for the given Nominatim base URL.
// An empty baseURL selects the public instance; a nil client selects
// http.DefaultClient.
func NewNominatimGeocoder(baseURL string, client *http.Client) *NominatimGeocoder {
	if baseURL == "" {
		baseURL = DefaultNominatimBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &NominatimGeocoder{baseURL: baseURL, client: client}
}

// nominatimResult is the subset of a Nominatim search result we consume.
// Nominatim returns coordinates as strings.
type nominatimResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Geocode resolves address via Nominatim. Failures are hard: an unreachable
// service, an empty result set, or non-finite coordinates all return an error.
func (g *NominatimGeocoder) Geocode(ctx context.Context, address string) (Coordinates, error) {
	endpoint := fmt.Sprintf("%s/search?format=json&q=%s&limit=1", g.baseURL, url.QueryEscape(address))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Coordinates{}, apperr.Wrap(apperr.KindUpstream, "failed to build geocoding request", err)
	}
	req.Header.Set("User-Agent", geocoderUserAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		return Coordinates{}, apperr.Wrap(apperr.KindUpstream, fmt.Sprintf("unable to geocode address: %s", address), err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return Coordinates{}, apperr.Newf(apperr.KindUpstream, "unable to geocode address: %s (status %d)", address, resp.StatusCode)
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return Coordinates{}, apperr.Wrap(apperr.KindUpstream, fmt.Sprintf("invalid geocoding response for address: %s", address), err)
	}

	if len(results) == 0 {
		return Coordinates{}, apperr.Newf(apperr.KindUpstream, "no geocoding results for address: %s", address)
	}

	lat, latErr := strconv.ParseFloat(results[0].Lat, 64)
	lon, lonErr := strconv.ParseFloat(results[0].Lon, 64)
	if latErr != nil || lonErr != nil || !isFinite(lat) || !isFinite(lon) {
		return Coordinates{}, apperr.Newf(apperr.KindUpstream, "invalid coordinates returned for address: %s", address)
	}

	return Coordinates{Lat: lat, Lon: lon}, nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
