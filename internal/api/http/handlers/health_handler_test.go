package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/reclamos-service/internal/config"
	"github.com/spec-kit/reclamos-service/internal/observability"
	"github.com/spec-kit/reclamos-service/internal/persistence"
)

func TestReadyStaysUpWhenRedisIsUnreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	h := NewHealthHandler("reclamos", "test", config.StorageDriverMemory, nil, &persistence.Redis{Client: client}, observability.NewMetrics())
	app := fiber.New()
	app.Get("/health/ready", h.Ready)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health/ready", nil), -1)
	if err != nil {
		t.Fatalf("ready: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("ready status %d", resp.StatusCode)
	}
	var body struct {
		Status       string            `json:"status"`
		Dependencies map[string]string `json:"dependencies"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "ready" || !strings.HasPrefix(body.Dependencies["redis"], "degraded") {
		t.Fatalf("ready body = %+v", body)
	}
	if body.Dependencies["postgres"] != "disabled" {
		t.Fatalf("postgres = %q", body.Dependencies["postgres"])
	}
}

func TestMetricsEndpointServesPrometheusText(t *testing.T) {
	metrics := observability.NewMetrics()
	metrics.RecordRequest("/claims", "GET", 200, time.Millisecond)
	h := NewHealthHandler("reclamos", "test", config.StorageDriverMemory, nil, nil, metrics)
	app := fiber.New()
	app.Get("/metrics", h.Metrics())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	if resp.StatusCode != http.StatusOK || !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/plain") {
		t.Fatalf("metrics status %d content type %q", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
}
