package db

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

// testPool builds a pool that never dials out. With MinConns at zero pgxpool
// opens nothing until first acquire, and port 1 refuses immediately when it
// does.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	cfg, err := pgxpool.ParseConfig("postgres://clinic@127.0.0.1:1/clinic")
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	cfg.MinConns = 0
	pool, err := pgxpool.NewWithConfig(context.Background(), cfg)
	if err != nil {
		t.Fatalf("new pool: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

func TestPoolUsage_FreshPool(t *testing.T) {
	usage := poolUsage(testPool(t))
	if usage.TotalConns != 0 || usage.AcquiredConns != 0 {
		t.Errorf("fresh pool must report no connections, got %+v", usage)
	}
	if usage.MaxConns == 0 {
		t.Error("max_conns should reflect the pool limit")
	}
}

func TestHealthHandler_UnreachableDatabase(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/health/db", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := HealthHandler(testPool(t))(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d: %s", rec.Code, rec.Body.String())
	}

	var body healthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "unhealthy" || body.Error == "" {
		t.Errorf("expected an unhealthy body with an error, got %+v", body)
	}
}
