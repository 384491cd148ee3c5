package trace

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMiddlewareAssignsRequestIDs(t *testing.T) {
	m := NewMiddleware(nil)

	var ids []string
	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ids = append(ids, GetRequestID(r.Context()))
		w.WriteHeader(http.StatusNoContent)
	}))

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/expenses", nil))
		require.Equal(t, http.StatusNoContent, rec.Code)
	}

	require.Len(t, ids, 2)
	for _, id := range ids {
		require.True(t, strings.HasPrefix(id, "req_"))
	}
	require.NotEqual(t, ids[0], ids[1])
}

func TestMiddlewareAveragesResponseTimes(t *testing.T) {
	m := NewMiddleware(nil)

	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 3; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	}

	metrics := m.GetMetrics()
	require.EqualValues(t, 3, metrics.TotalRequests)
	require.GreaterOrEqual(t, metrics.AverageResponseTime, int64(0))
}

func TestGetRequestIDOutsideMiddleware(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	require.Empty(t, GetRequestID(req.Context()))
}
