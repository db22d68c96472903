package geo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"
)

// Default provider endpoints.
const (
	DefaultORSBaseURL  = "https://api.openrouteservice.org"
	DefaultOSRMBaseURL = "https://router.project-osrm.org"
)

// fallbackSpeedKmh is the assumed average driving speed for the
// great-circle duration estimate.
const fallbackSpeedKmh = 50.0

// RouteSummary is the distance/duration estimate for a single route.
type RouteSummary struct {
	DistanceKm   float64
	DurationMin  float64
	UsedFallback bool
}

// RouteResolver returns a distance/duration estimate between two coordinates.
type RouteResolver interface {
	// Resolve never fails: the terminal great-circle tier always produces
	// an estimate when the routing providers do not.
	Resolve(ctx context.Context, a, b Coordinates) RouteSummary
}

// FallbackRouteResolver tries OpenRouteService, then OSRM, then a local
// great-circle estimate. Provider errors are logged and absorbed by the
// next tier.
type FallbackRouteResolver struct {
	orsBaseURL  string
	orsAPIKey   string
	osrmBaseURL string
	client      *http.Client
	logger      *zap.Logger
}

// NewFallbackRouteResolver creates a resolver. An empty orsAPIKey disables
// the OpenRouteService tier entirely. Empty base URLs select the public
// instances; a nil client selects http.DefaultClient.
func NewFallbackRouteResolver(orsBaseURL, orsAPIKey, osrmBaseURL string, client *http.Client, logger *zap.Logger) *FallbackRouteResolver {
	if orsBaseURL == "" {
		orsBaseURL = DefaultORSBaseURL
	}
	if osrmBaseURL == "" {
		osrmBaseURL = DefaultOSRMBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &FallbackRouteResolver{
		orsBaseURL:  orsBaseURL,
		orsAPIKey:   orsAPIKey,
		osrmBaseURL: osrmBaseURL,
		client:      client,
		logger:      logger,
	}
}

// Resolve walks the provider tiers in order. An unconfigured tier is skipped,
// a failing tier logs and falls through; the great-circle tier is terminal.
func (r *FallbackRouteResolver) Resolve(ctx context.Context, a, b Coordinates) RouteSummary {
	if r.orsAPIKey != "" {
		summary, err := r.resolveORS(ctx, a, b)
		if err == nil {
			return summary
		}
		r.logger.Warn("openrouteservice routing failed, trying next tier", zap.Error(err))
	}

	summary, err := r.resolveOSRM(ctx, a, b)
	if err == nil {
		return summary
	}
	r.logger.Warn("osrm routing failed, using great-circle fallback", zap.Error(err))

	return r.greatCircle(a, b)
}

// orsResponse is the subset of the ORS directions payload we consume.
type orsResponse struct {
	Routes []struct {
		Summary struct {
			Distance float64 `json:"distance"` // meters
			Duration float64 `json:"duration"` // seconds
		} `json:"summary"`
	} `json:"routes"`
}

func (r *FallbackRouteResolver) resolveORS(ctx context.Context, a, b Coordinates) (RouteSummary, error) {
	body, err := json.Marshal(map[string]any{
		"coordinates": [][]float64{{a.Lon, a.Lat}, {b.Lon, b.Lat}},
	})
	if err != nil {
		return RouteSummary{}, err
	}

	endpoint := r.orsBaseURL + "/v2/directions/driving-car"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return RouteSummary{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", r.orsAPIKey)

	resp, err := r.client.Do(req)
	if err != nil {
		return RouteSummary{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return RouteSummary{}, fmt.Errorf("openrouteservice returned status %d: %s", resp.StatusCode, detail)
	}

	var payload orsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return RouteSummary{}, fmt.Errorf("invalid openrouteservice payload: %w", err)
	}
	if len(payload.Routes) == 0 {
		return RouteSummary{}, fmt.Errorf("openrouteservice returned no routes")
	}

	summary := payload.Routes[0].Summary
	return RouteSummary{
		DistanceKm:  summary.Distance / 1000,
		DurationMin: summary.Duration / 60,
	}, nil
}

// osrmResponse is the subset of the OSRM route payload we consume.
type osrmResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64 `json:"distance"` // meters
		Duration float64 `json:"duration"` // seconds
	} `json:"routes"`
}

func (r *FallbackRouteResolver) resolveOSRM(ctx context.Context, a, b Coordinates) (RouteSummary, error) {
	endpoint := fmt.Sprintf("%s/route/v1/driving/%f,%f;%f,%f?overview=false",
		r.osrmBaseURL, a.Lon, a.Lat, b.Lon, b.Lat)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return RouteSummary{}, err
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return RouteSummary{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return RouteSummary{}, fmt.Errorf("osrm returned status %d", resp.StatusCode)
	}

	var payload osrmResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return RouteSummary{}, fmt.Errorf("invalid osrm payload: %w", err)
	}
	if payload.Code != "Ok" || len(payload.Routes) == 0 {
		return RouteSummary{}, fmt.Errorf("osrm returned no usable route (code %q)", payload.Code)
	}

	route := payload.Routes[0]
	return RouteSummary{
		DistanceKm:  route.Distance / 1000,
		DurationMin: route.Duration / 60,
	}, nil
}

func (r *FallbackRouteResolver) greatCircle(a, b Coordinates) RouteSummary {
	distance := HaversineDistanceKm(a, b)
	return RouteSummary{
		DistanceKm:   distance,
		DurationMin:  distance / fallbackSpeedKmh * 60,
		UsedFallback: true,
	}
}
