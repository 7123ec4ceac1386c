package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// serve routes path through an httprouter so params land in the context.
func serve(t *testing.T, pattern, path string, handler func(r *http.Request)) {
	t.Helper()
	router := httprouter.New()
	called := false
	router.HandlerFunc(http.MethodGet, pattern, func(w http.ResponseWriter, r *http.Request) {
		called = true
		handler(r)
	})
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	require.True(t, called, "route %s did not match %s", pattern, path)
}

func TestExtractIDFromParams(t *testing.T) {
	testCases := []struct {
		name string
		id   string
		want string
	}{
		{name: "Basic ID", id: "123", want: "123"},
		{name: "ID with JSON extension", id: "456.json", want: "456"},
		{name: "ID with multiple dots", id: "789.data.json", want: "789.data"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var result string
			serve(t, "/places/:id", "/places/"+tc.id, func(r *http.Request) {
				result = ExtractIDFromParams(r, "id")
			})
			assert.Equal(t, tc.want, result)
		})
	}
}

func TestParseIDParam(t *testing.T) {
	tests := []struct {
		path    string
		want    int64
		wantErr bool
	}{
		{"/places/42", 42, false},
		{"/places/42.json", 42, false},
		{"/places/0", 0, true},
		{"/places/-3", 0, true},
		{"/places/abc", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			serve(t, "/places/:id", tt.path, func(r *http.Request) {
				id, err := ParseIDParam(r, "id")
				if tt.wantErr {
					assert.Error(t, err)
					return
				}
				require.NoError(t, err)
				assert.Equal(t, tt.want, id)
			})
		})
	}
}
