package platforms_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/nightfeed/horror-aggregator/internal/api/platforms"
	"github.com/nightfeed/horror-aggregator/internal/games"
	"github.com/nightfeed/horror-aggregator/internal/service"
	"github.com/nightfeed/horror-aggregator/internal/service/mocks"
)

const wantCacheControl = "public, max-age=300, stale-while-revalidate=600"

var fetchedAt = time.Date(2026, time.October, 31, 20, 0, 0, 0, time.UTC)

func steamResult() *games.SourceResult {
	return games.NewResult("steam", []games.GameRecord{
		{ID: "steam-0", Title: "Phasmophobia", Rating: 4.8, ReviewCount: 402115},
		{ID: "steam-1", Title: "Dead by Daylight", Rating: 3.9, ReviewCount: 600000},
	}, fetchedAt, 850*time.Millisecond)
}

func newRouter(t *testing.T) (http.Handler, *mocks.MockPlatformService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockPlatformService(ctrl)
	return platforms.Router(svc, 10*time.Minute), svc
}

func TestGetPlatform(t *testing.T) {
	t.Parallel()

	router, svc := newRouter(t)
	svc.EXPECT().Platform(gomock.Any(), "steam").Return(steamResult(), nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/steam", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, wantCacheControl, rr.Header().Get("Cache-Control"))

	var got games.SourceResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, "steam", got.SourceName)
	assert.Equal(t, 2, got.TotalCount)
	assert.Equal(t, int64(850), got.FetchDurationMs)
	assert.Equal(t, "Phasmophobia", got.Games[0].Title)
}

func TestGetPlatform_FailedResultIsData(t *testing.T) {
	t.Parallel()

	router, svc := newRouter(t)
	failed := games.NewFailedResult("xbox", errors.New("giving up after 3 attempts: i/o timeout"), fetchedAt, time.Second)
	svc.EXPECT().Platform(gomock.Any(), "xbox").Return(failed, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/xbox", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var got map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, "giving up after 3 attempts: i/o timeout", got["error"])
	assert.Equal(t, []any{}, got["games"])
	assert.InDelta(t, 0, got["totalCount"], 0)
}

func TestGetPlatform_Invalid(t *testing.T) {
	t.Parallel()

	router, svc := newRouter(t)
	svc.EXPECT().Platform(gomock.Any(), "unknown").Return(nil, &service.InvalidPlatformError{Name: "unknown"})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/unknown", nil))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"error":"Invalid platform: unknown"}`, rr.Body.String())
	assert.Empty(t, rr.Header().Get("Cache-Control"))
}

func TestGetPlatform_UnexpectedError(t *testing.T) {
	t.Parallel()

	router, svc := newRouter(t)
	svc.EXPECT().Platform(gomock.Any(), "steam").Return(nil, errors.New("boom"))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/steam", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error":"Failed to load platform"}`, rr.Body.String())
}

func TestGetPlatform_Filtered(t *testing.T) {
	t.Parallel()

	router, svc := newRouter(t)
	svc.EXPECT().Platform(gomock.Any(), "steam").Return(steamResult(), nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/steam?minRating=4&title=phasmo*", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, wantCacheControl, rr.Header().Get("Cache-Control"))

	var got games.SourceResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Len(t, got.Games, 1)
	assert.Equal(t, 1, got.TotalCount)
	assert.Equal(t, "Phasmophobia", got.Games[0].Title)
}

func TestGetPlatform_InvalidFilter(t *testing.T) {
	t.Parallel()

	// the query is rejected before the service is consulted
	router, _ := newRouter(t)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/steam?limit=-1", nil))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "invalid filter")
}

func TestBatch(t *testing.T) {
	t.Parallel()

	router, svc := newRouter(t)
	svc.EXPECT().Batch(gomock.Any(), []string{"steam", "itch"}).Return(map[string]*games.SourceResult{
		"steam": steamResult(),
		"itch":  games.NewFailedResult("itch", &service.InvalidPlatformError{Name: "itch"}, fetchedAt, 0),
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/",
		strings.NewReader(`{"platforms":["steam","itch"]}`)))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, wantCacheControl, rr.Header().Get("Cache-Control"))

	var got map[string]games.SourceResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, 2, got["steam"].TotalCount)
	assert.Equal(t, "Invalid platform: itch", got["itch"].Error)
}

func TestBatch_BadRequests(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{name: "malformed", body: `{"platforms": [`, wantErr: "malformed JSON body"},
		{name: "empty body", body: ``, wantErr: "request body is empty"},
		{name: "empty list", body: `{"platforms": []}`, wantErr: "platforms must be a non-empty list"},
		{name: "missing field", body: `{}`, wantErr: "platforms must be a non-empty list"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// no Batch expectation: the service must not be called
			router, _ := newRouter(t)

			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body)))

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			var got map[string]string
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
			assert.Contains(t, got["error"], tt.wantErr)
		})
	}
}
