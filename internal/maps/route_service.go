// README: Google Maps road travel time used to refine pickup ETAs.
package maps

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"googlemaps.github.io/maps"

	"kwenda/internal/types"
)

var ErrNoRoute = errors.New("no route found")

// directionsClient is the subset of *maps.Client used here.
type directionsClient interface {
	Directions(ctx context.Context, r *maps.DirectionsRequest) ([]maps.Route, []maps.GeocodedWaypoint, error)
}

// RouteService handles interactions with Google Maps API.
type RouteService struct {
	client directionsClient
}

// NewRouteService creates a new RouteService with the given API Key.
func NewRouteService(apiKey string) (*RouteService, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &RouteService{client: client}, nil
}

func latLng(p types.Point) string {
	return strconv.FormatFloat(p.Lat, 'f', 6, 64) + "," + strconv.FormatFloat(p.Lng, 'f', 6, 64)
}

// DrivingMinutes returns the driving time between two points, using live
// traffic when Google reports it.
func (s *RouteService) DrivingMinutes(ctx context.Context, from, to types.Point) (float64, error) {
	d, err := s.travelTime(ctx, from, to)
	if err != nil {
		return 0, err
	}
	return d.Minutes(), nil
}

func (s *RouteService) travelTime(ctx context.Context, from, to types.Point) (time.Duration, error) {
	r := &maps.DirectionsRequest{
		Origin:        latLng(from),
		Destination:   latLng(to),
		Mode:          maps.TravelModeDriving,
		DepartureTime: "now",
		Language:      "fr",
		Region:        "cd",
	}

	routes, _, err := s.client.Directions(ctx, r)
	if err != nil {
		if isNoResults(err) {
			return 0, ErrNoRoute
		}
		return 0, fmt.Errorf("maps api error: %w", err)
	}
	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return 0, ErrNoRoute
	}

	leg := routes[0].Legs[0]
	if leg.DurationInTraffic > 0 {
		return leg.DurationInTraffic, nil
	}
	return leg.Duration, nil
}

// isNoResults matches the API statuses meaning no route exists. The client
// reports them only as formatted errors.
func isNoResults(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "ZERO_RESULTS") || strings.Contains(msg, "NOT_FOUND")
}
