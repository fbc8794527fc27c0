package location

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/users-api/internal/lib/geo"
	"github.com/magabrotheeeer/users-api/internal/models"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) CountUsers(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *RepoMock) CountUsersByState(ctx context.Context, state string) (int, error) {
	args := m.Called(ctx, state)
	return args.Int(0), args.Error(1)
}

func (m *RepoMock) CountUsersByZips(ctx context.Context, zips []string) (int, error) {
	args := m.Called(ctx, zips)
	return args.Int(0), args.Error(1)
}

func (m *RepoMock) ListLocationsInBox(ctx context.Context, box geo.BoundingBox) ([]models.UserLocation, error) {
	args := m.Called(ctx, box)
	locs, _ := args.Get(0).([]models.UserLocation)
	return locs, args.Error(1)
}

type MetricsMock struct{ kinds []string }

func (m *MetricsMock) LocationQuery(kind string) { m.kinds = append(m.kinds, kind) }

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func ptr(f float64) *float64 { return &f }

// Два пользователя в Остине примерно в 3 км друг от друга.
var austin = []models.UserLocation{
	{UID: "tom", Latitude: 30.285648, Longitude: -97.742052},
	{UID: "sam", Latitude: 30.312601, Longitude: -97.738591},
}

func TestService_CountByLocation(t *testing.T) {
	tomPoint := &models.Point{Latitude: 30.285648, Longitude: -97.742052}

	tests := []struct {
		name      string
		filter    models.LocationFilter
		setupMock func(r *RepoMock)
		want      int
		wantKind  string
		wantErr   error
	}{
		{
			name:   "empty filter counts everyone",
			filter: models.LocationFilter{},
			setupMock: func(r *RepoMock) {
				r.On("CountUsers", mock.Anything).Return(3, nil).Once()
			},
			want:     3,
			wantKind: "all",
		},
		{
			name:   "state",
			filter: models.LocationFilter{State: "TX"},
			setupMock: func(r *RepoMock) {
				r.On("CountUsersByState", mock.Anything, "TX").Return(2, nil).Once()
			},
			want:     2,
			wantKind: "state",
		},
		{
			name:   "state wins over zip and lat_long",
			filter: models.LocationFilter{State: "TX", Zips: []string{"78705"}, Point: tomPoint},
			setupMock: func(r *RepoMock) {
				r.On("CountUsersByState", mock.Anything, "TX").Return(2, nil).Once()
			},
			want:     2,
			wantKind: "state",
		},
		{
			name:   "zip list",
			filter: models.LocationFilter{Zips: []string{"78705", "78756"}},
			setupMock: func(r *RepoMock) {
				r.On("CountUsersByZips", mock.Anything, []string{"78705", "78756"}).Return(2, nil).Once()
			},
			want:     2,
			wantKind: "zip",
		},
		{
			name:   "zip wins over lat_long",
			filter: models.LocationFilter{Zips: []string{"78705"}, Point: tomPoint},
			setupMock: func(r *RepoMock) {
				r.On("CountUsersByZips", mock.Anything, []string{"78705"}).Return(1, nil).Once()
			},
			want:     1,
			wantKind: "zip",
		},
		{
			name:   "lat_long default radius",
			filter: models.LocationFilter{Point: tomPoint},
			setupMock: func(r *RepoMock) {
				r.On("ListLocationsInBox", mock.Anything, geo.BoundingBoxFor(tomPoint.Latitude, tomPoint.Longitude, 20)).
					Return(austin, nil).Once()
			},
			want:     2,
			wantKind: "lat_long",
		},
		{
			name:   "lat_long radius 1 km",
			filter: models.LocationFilter{Point: tomPoint, RadiusKm: ptr(1)},
			setupMock: func(r *RepoMock) {
				r.On("ListLocationsInBox", mock.Anything, mock.Anything).Return(austin, nil).Once()
			},
			want:     1,
			wantKind: "lat_long",
		},
		{
			name:   "lat_long duplicates counted once",
			filter: models.LocationFilter{Point: tomPoint},
			setupMock: func(r *RepoMock) {
				r.On("ListLocationsInBox", mock.Anything, mock.Anything).
					Return(append(austin, austin[0]), nil).Once()
			},
			want:     2,
			wantKind: "lat_long",
		},
		{
			name:   "box corner outside circle is not counted",
			filter: models.LocationFilter{Point: &models.Point{Latitude: 0, Longitude: 0}, RadiusKm: ptr(10)},
			setupMock: func(r *RepoMock) {
				box := geo.BoundingBoxFor(0, 0, 10)
				r.On("ListLocationsInBox", mock.Anything, box).Return([]models.UserLocation{
					{UID: "corner", Latitude: box.MaxLat * 0.99, Longitude: box.MaxLon * 0.99},
					{UID: "center", Latitude: 0, Longitude: 0},
				}, nil).Once()
			},
			want:     1,
			wantKind: "lat_long",
		},
		{
			name:   "high latitude point inside large radius reaches the candidates",
			filter: models.LocationFilter{Point: &models.Point{Latitude: 60, Longitude: 0}, RadiusKm: ptr(3000)},
			setupMock: func(r *RepoMock) {
				inBox := mock.MatchedBy(func(b geo.BoundingBox) bool { return b.Contains(76, 60) })
				r.On("ListLocationsInBox", mock.Anything, inBox).Return([]models.UserLocation{
					{UID: "north", Latitude: 76, Longitude: 60},
				}, nil).Once()
			},
			want:     1,
			wantKind: "lat_long",
		},
		{
			name:      "zero radius",
			filter:    models.LocationFilter{Point: tomPoint, RadiusKm: ptr(0)},
			setupMock: func(_ *RepoMock) {},
			wantErr:   models.ErrInvalidFilter,
		},
		{
			name:      "NaN radius",
			filter:    models.LocationFilter{Point: tomPoint, RadiusKm: ptr(math.NaN())},
			setupMock: func(_ *RepoMock) {},
			wantErr:   models.ErrInvalidFilter,
		},
		{
			name:      "latitude out of range",
			filter:    models.LocationFilter{Point: &models.Point{Latitude: 91, Longitude: 0}},
			setupMock: func(_ *RepoMock) {},
			wantErr:   geo.ErrInvalidCoordinates,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			metrics := &MetricsMock{}
			tt.setupMock(repo)

			svc := NewService(repo, metrics, 20, newNoopLogger())
			got, err := svc.CountByLocation(context.Background(), tt.filter)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, metrics.kinds)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
				assert.Equal(t, []string{tt.wantKind}, metrics.kinds)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestService_CountByLocationRepoError(t *testing.T) {
	repo := new(RepoMock)
	repo.On("CountUsersByState", mock.Anything, "TX").Return(0, errors.New("db down")).Once()

	svc := NewService(repo, nil, 20, newNoopLogger())
	_, err := svc.CountByLocation(context.Background(), models.LocationFilter{State: "TX"})

	assert.ErrorContains(t, err, "db down")
	assert.NotErrorIs(t, err, models.ErrInvalidFilter)
}

func TestService_CountByLocationResultWithinBoundsOfCandidates(t *testing.T) {
	repo := new(RepoMock)
	repo.On("ListLocationsInBox", mock.Anything, mock.Anything).Return(austin, nil)

	svc := NewService(repo, nil, 20, newNoopLogger())
	for _, radius := range []float64{0.001, 0.5, 1, 3, 5, 50, 20000} {
		got, err := svc.CountByLocation(context.Background(), models.LocationFilter{
			Point:    &models.Point{Latitude: 30.285648, Longitude: -97.742052},
			RadiusKm: ptr(radius),
		})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, got, 1, "radius %g", radius)
		assert.LessOrEqual(t, got, len(austin), "radius %g", radius)
	}
}
