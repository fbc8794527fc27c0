package bylocation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/users-api/internal/lib/geo"
	"github.com/magabrotheeeer/users-api/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) CountByLocation(ctx context.Context, filter models.LocationFilter) (int, error) {
	args := m.Called(ctx, filter)
	return args.Int(0), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func ptr(f float64) *float64 { return &f }

func TestParseFilter(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		want    models.LocationFilter
		wantErr error
	}{
		{
			name:  "empty",
			query: "",
			want:  models.LocationFilter{},
		},
		{
			name:  "state",
			query: "state=TX",
			want:  models.LocationFilter{State: "TX"},
		},
		{
			name:  "single zip",
			query: "zip=78705",
			want:  models.LocationFilter{Zips: []string{"78705"}},
		},
		{
			name:  "zip list with spaces",
			query: "zip=" + url.QueryEscape("78705, 78756"),
			want:  models.LocationFilter{Zips: []string{"78705", "78756"}},
		},
		{
			name:    "zip list without codes",
			query:   "zip=" + url.QueryEscape(" , "),
			wantErr: geo.ErrEmptyZipList,
		},
		{
			name:  "blank zip ignored",
			query: "zip=&lat_long=30.28,-97.74",
			want:  models.LocationFilter{Point: &models.Point{Latitude: 30.28, Longitude: -97.74}},
		},
		{
			name:  "lat_long array",
			query: "lat_long[]=30.285648&lat_long[]=-97.742052",
			want:  models.LocationFilter{Point: &models.Point{Latitude: 30.285648, Longitude: -97.742052}},
		},
		{
			name:  "lat_long with radius",
			query: "lat_long=30.285648,-97.742052&radius=1",
			want: models.LocationFilter{
				Point:    &models.Point{Latitude: 30.285648, Longitude: -97.742052},
				RadiusKm: ptr(1),
			},
		},
		{
			name:  "state takes precedence over invalid lat_long",
			query: "state=TX&lat_long=abc&radius=-1",
			want:  models.LocationFilter{State: "TX"},
		},
		{
			name:  "zip takes precedence over lat_long",
			query: "zip=78705&lat_long=30.28,-97.74",
			want:  models.LocationFilter{Zips: []string{"78705"}},
		},
		{
			name:    "single lat_long value",
			query:   "lat_long[]=30.28",
			wantErr: geo.ErrInvalidCoordinates,
		},
		{
			name:    "three lat_long values",
			query:   "lat_long[]=1&lat_long[]=2&lat_long[]=3",
			wantErr: geo.ErrInvalidCoordinates,
		},
		{
			name:    "latitude out of range",
			query:   "lat_long=95,-97.74",
			wantErr: geo.ErrInvalidCoordinates,
		},
		{
			name:    "not a number",
			query:   "lat_long=abc,-97.74",
			wantErr: geo.ErrInvalidCoordinates,
		},
		{
			name:    "negative radius",
			query:   "lat_long=30.28,-97.74&radius=-1",
			wantErr: geo.ErrInvalidRadius,
		},
		{
			name:    "radius not a number",
			query:   "lat_long=30.28,-97.74&radius=far",
			wantErr: geo.ErrInvalidRadius,
		},
		{
			name:  "radius without lat_long is ignored",
			query: "radius=5",
			want:  models.LocationFilter{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			require.NoError(t, err)

			got, err := ParseFilter(q)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestByLocationHandler(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:  "state",
			query: "state=TX",
			setupMock: func(m *MockService) {
				m.On("CountByLocation", mock.Anything, models.LocationFilter{State: "TX"}).Return(2, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"user_count":2}`,
		},
		{
			name:           "bad lat_long",
			query:          "lat_long[]=30.28",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   fmt.Sprintf(`{"status":"Error","error":%q}`, geo.ErrInvalidCoordinates.Error()),
		},
		{
			name:  "service rejects filter",
			query: "lat_long=30.28,-97.74",
			setupMock: func(m *MockService) {
				m.On("CountByLocation", mock.Anything, mock.Anything).
					Return(0, fmt.Errorf("location.CountByLocation: %w", models.ErrInvalidFilter)).Once()
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"status":"Error","error":"location.CountByLocation: invalid location filter"}`,
		},
		{
			name:  "service error",
			query: "zip=78705",
			setupMock: func(m *MockService) {
				m.On("CountByLocation", mock.Anything, mock.Anything).Return(0, errors.New("db down")).Once()
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"status":"Error","error":"could not count users"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/users/by_location?"+tt.query, nil)
			New(newNoopLogger(), svc).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
			svc.AssertExpectations(t)
		})
	}
}
