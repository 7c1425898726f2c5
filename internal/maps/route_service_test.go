package maps

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"googlemaps.github.io/maps"

	"kwenda/internal/types"
)

type fakeDirections struct {
	routes []maps.Route
	err    error
	req    *maps.DirectionsRequest
}

func (f *fakeDirections) Directions(_ context.Context, r *maps.DirectionsRequest) ([]maps.Route, []maps.GeocodedWaypoint, error) {
	f.req = r
	return f.routes, nil, f.err
}

var (
	gombe  = types.Point{Lat: -4.305, Lng: 15.3}
	ndjili = types.Point{Lat: -4.3858, Lng: 15.4446}
)

func TestDrivingMinutes_PrefersTraffic(t *testing.T) {
	fake := &fakeDirections{routes: []maps.Route{{Legs: []*maps.Leg{{
		Duration:          20 * time.Minute,
		DurationInTraffic: 35 * time.Minute,
	}}}}}
	s := &RouteService{client: fake}

	got, err := s.DrivingMinutes(context.Background(), gombe, ndjili)
	require.NoError(t, err)
	assert.Equal(t, 35.0, got)
	assert.Equal(t, "-4.305000,15.300000", fake.req.Origin)
	assert.Equal(t, maps.TravelModeDriving, fake.req.Mode)
}

func TestDrivingMinutes_FallsBackToDuration(t *testing.T) {
	fake := &fakeDirections{routes: []maps.Route{{Legs: []*maps.Leg{{Duration: 12 * time.Minute}}}}}
	s := &RouteService{client: fake}

	got, err := s.DrivingMinutes(context.Background(), gombe, ndjili)
	require.NoError(t, err)
	assert.Equal(t, 12.0, got)
}

func TestDrivingMinutes_NoRoute(t *testing.T) {
	s := &RouteService{client: &fakeDirections{}}
	_, err := s.DrivingMinutes(context.Background(), gombe, ndjili)
	assert.ErrorIs(t, err, ErrNoRoute)

	s = &RouteService{client: &fakeDirections{err: errors.New("maps: ZERO_RESULTS - ")}}
	_, err = s.DrivingMinutes(context.Background(), gombe, ndjili)
	assert.ErrorIs(t, err, ErrNoRoute)
}

func TestDrivingMinutes_APIError(t *testing.T) {
	s := &RouteService{client: &fakeDirections{err: errors.New("maps: OVER_QUERY_LIMIT - ")}}
	_, err := s.DrivingMinutes(context.Background(), gombe, ndjili)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoRoute)
}
