package metadata_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/nightfeed/horror-aggregator/internal/api/x/metadata"
	meta "github.com/nightfeed/horror-aggregator/internal/metadata"
	"github.com/nightfeed/horror-aggregator/internal/metadata/mocks"
)

func TestRouter_NotConfigured(t *testing.T) {
	t.Parallel()

	for _, path := range []string{"/search?q=silent", "/games/igdb:1"} {
		rr := httptest.NewRecorder()
		metadata.Router(nil).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))

		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
		assert.JSONEq(t, `{"error":"metadata provider not configured"}`, rr.Body.String())
	}
}

func TestSearch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		query      string
		setup      func(p *mocks.MockProvider)
		wantStatus int
	}{
		{
			name:  "results",
			query: "silent%20hill",
			setup: func(p *mocks.MockProvider) {
				p.EXPECT().Search(gomock.Any(), "silent hill").Return([]meta.Record{
					{ID: "igdb:1", Title: "Silent Hill 2", Rating: 4.5, Provider: "igdb"},
				}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing query",
			query:      "%20",
			setup:      func(*mocks.MockProvider) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:  "upstream failure",
			query: "silent",
			setup: func(p *mocks.MockProvider) {
				p.EXPECT().Search(gomock.Any(), "silent").Return(nil, errors.New("rate limited"))
			},
			wantStatus: http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctrl := gomock.NewController(t)

			provider := mocks.NewMockProvider(ctrl)
			provider.EXPECT().Name().Return("igdb").AnyTimes()
			tt.setup(provider)

			rr := httptest.NewRecorder()
			metadata.Router(provider).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/search?q="+tt.query, nil))

			require.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantStatus == http.StatusOK {
				var got metadata.SearchResponse
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
				assert.Equal(t, "igdb", got.Provider)
				assert.Equal(t, "silent hill", got.Query)
				require.Len(t, got.Results, 1)
				assert.Equal(t, "Silent Hill 2", got.Results[0].Title)
			}
		})
	}
}

func TestDetail(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "found", wantStatus: http.StatusOK},
		{name: "invalid id", err: fmt.Errorf("%w: x", meta.ErrInvalidID), wantStatus: http.StatusBadRequest},
		{name: "not found", err: fmt.Errorf("%w: igdb:7", meta.ErrNotFound), wantStatus: http.StatusNotFound},
		{name: "upstream failure", err: errors.New("connection reset"), wantStatus: http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctrl := gomock.NewController(t)

			provider := mocks.NewMockProvider(ctrl)
			provider.EXPECT().Name().Return("igdb").AnyTimes()
			var record *meta.Record
			if tt.err == nil {
				record = &meta.Record{ID: "igdb:7", Title: "Fatal Frame"}
			}
			provider.EXPECT().Detail(gomock.Any(), "igdb:7").Return(record, tt.err)

			rr := httptest.NewRecorder()
			metadata.Router(provider).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/games/igdb:7", nil))

			assert.Equal(t, tt.wantStatus, rr.Code)
		})
	}
}
