package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func limitedApp(limiter fiber.Handler) *fiber.App {
	app := fiber.New()
	ok := func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) }
	app.Post("/auth/login", limiter, ok)
	app.Post("/auth/forgot-password", limiter, ok)
	return app
}

func post(t *testing.T, app *fiber.App, path string) *http.Response {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodPost, path, nil), -1)
	require.NoError(t, err)
	return resp
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestAuthRateLimiterWithoutRedisAllowsEverything(t *testing.T) {
	app := limitedApp(AuthRateLimiter(nil, 1, time.Minute))

	for i := 0; i < 5; i++ {
		resp := post(t, app, "/auth/login")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Empty(t, resp.Header.Get("X-RateLimit-Limit"))
	}
}

func TestAuthRateLimiterDisabledByZeroLimit(t *testing.T) {
	_, client := newRedis(t)
	app := limitedApp(AuthRateLimiter(client, 0, time.Minute))

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, post(t, app, "/auth/login").StatusCode)
	}
}

func TestAuthRateLimiterRejectsOverLimit(t *testing.T) {
	_, client := newRedis(t)
	app := limitedApp(AuthRateLimiter(client, 2, time.Minute))

	first := post(t, app, "/auth/login")
	assert.Equal(t, http.StatusOK, first.StatusCode)
	assert.Equal(t, "2", first.Header.Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", first.Header.Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusOK, post(t, app, "/auth/login").StatusCode)

	resp := post(t, app, "/auth/login")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "0", resp.Header.Get("X-RateLimit-Remaining"))

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Too many attempts. Please try again later", body["error"])

	// Paths are counted separately.
	assert.Equal(t, http.StatusOK, post(t, app, "/auth/forgot-password").StatusCode)
}

func TestAuthRateLimiterFailsOpenOnRedisError(t *testing.T) {
	mr, client := newRedis(t)
	app := limitedApp(AuthRateLimiter(client, 1, time.Minute))

	assert.Equal(t, http.StatusOK, post(t, app, "/auth/login").StatusCode)
	assert.Equal(t, http.StatusTooManyRequests, post(t, app, "/auth/login").StatusCode)

	mr.Close()

	resp := post(t, app, "/auth/login")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("X-RateLimit-Limit"))
}
