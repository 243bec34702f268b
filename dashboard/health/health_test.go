package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckAllServices(t *testing.T) {
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ok.Close()
	badRequest := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer badRequest.Close()

	h := NewHealthChecker("supply-dashboard",
		Target{Name: "backend", URL: ok.URL},
		Target{Name: "identity", URL: badRequest.URL, Reachable: true},
	)
	got := h.CheckAllServices(context.Background())
	assert.Equal(t, "healthy", got.Status)
	assert.Len(t, got.Services, 2)

	h = NewHealthChecker("supply-dashboard",
		Target{Name: "backend", URL: badRequest.URL},
		Target{Name: "redis", Ping: func(context.Context) error { return nil }},
	)
	got = h.CheckAllServices(context.Background())
	assert.Equal(t, "degraded", got.Status)
	assert.Contains(t, got.Services["backend"].Error, "400")

	h = NewHealthChecker("supply-dashboard",
		Target{Name: "redis", Ping: func(context.Context) error { return errors.New("refused") }},
	)
	assert.Equal(t, "unhealthy", h.CheckAllServices(context.Background()).Status)
}
