package common

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetAndValidateURLParam(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		path       string
		wantValue  string
		wantErrMsg string
	}{
		{name: "plain", path: "/platforms/steam", wantValue: "steam"},
		{name: "encoded space", path: "/platforms/%20PS%20", wantValue: " PS "},
		{name: "encoded slash", path: "/platforms/a%2Fb", wantValue: "a/b"},
		{name: "only spaces", path: "/platforms/%20%20", wantErrMsg: "name cannot be empty"},
		{name: "bad escape", path: "/platforms/%zz", wantErrMsg: "invalid URL encoding in name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var gotValue string
			var gotErr error
			r := chi.NewRouter()
			r.Get("/platforms/{name}", func(w http.ResponseWriter, req *http.Request) {
				gotValue, gotErr = GetAndValidateURLParam(req, "name")
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.URL.RawPath = tt.path
			req.URL.Path = strings.ReplaceAll(tt.path, "%2F", "/")
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			if tt.wantErrMsg != "" {
				require.EqualError(t, gotErr, tt.wantErrMsg)
				return
			}
			require.NoError(t, gotErr)
			assert.Equal(t, tt.wantValue, gotValue)
		})
	}
}
