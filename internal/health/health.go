package health

import (
	"context"
	"time"

	"fieldserve-backend/internal/cache"

	"github.com/jackc/pgx/v5/pgxpool"
)

type HealthChecker struct {
	db *pgxpool.Pool
}

type HealthStatus struct {
	Status   string          `json:"status"`
	Database ComponentHealth `json:"database"`
	Cache    ComponentHealth `json:"cache"`
}

type ComponentHealth struct {
	Status       string `json:"status"`
	ResponseTime int64  `json:"response_time_ms"`
}

func NewHealthChecker(db *pgxpool.Pool) *HealthChecker {
	return &HealthChecker{db: db}
}

// CheckBasic pings the database and redis. Only the database decides
// readiness; the cache is optional.
func (h *HealthChecker) CheckBasic() HealthStatus {
	dbHealth := h.checkDatabase()
	cacheHealth := h.checkCache()

	status := "healthy"
	if dbHealth.Status != "healthy" {
		status = "unhealthy"
	}

	return HealthStatus{
		Status:   status,
		Database: dbHealth,
		Cache:    cacheHealth,
	}
}

// DetailedStatus adds connection pool gauges to the component checks
type DetailedStatus struct {
	HealthStatus
	Pool PoolStats `json:"pool"`
}

type PoolStats struct {
	TotalConns    int32 `json:"total_conns"`
	IdleConns     int32 `json:"idle_conns"`
	AcquiredConns int32 `json:"acquired_conns"`
	MaxConns      int32 `json:"max_conns"`
}

// CheckDetailed runs the component checks and snapshots the pgx pool
func (h *HealthChecker) CheckDetailed() DetailedStatus {
	stats := h.db.Stat()
	return DetailedStatus{
		HealthStatus: h.CheckBasic(),
		Pool: PoolStats{
			TotalConns:    stats.TotalConns(),
			IdleConns:     stats.IdleConns(),
			AcquiredConns: stats.AcquiredConns(),
			MaxConns:      stats.MaxConns(),
		},
	}
}

func (h *HealthChecker) checkDatabase() ComponentHealth {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	start := time.Now()
	err := h.db.Ping(ctx)
	responseTime := time.Since(start).Milliseconds()

	if err != nil {
		return ComponentHealth{Status: "unhealthy", ResponseTime: responseTime}
	}
	return ComponentHealth{Status: "healthy", ResponseTime: responseTime}
}

func (h *HealthChecker) checkCache() ComponentHealth {
	client := cache.GetClient()
	if client == nil {
		return ComponentHealth{Status: "disabled"}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	start := time.Now()
	err := client.Ping(ctx).Err()
	responseTime := time.Since(start).Milliseconds()

	if err != nil {
		return ComponentHealth{Status: "unhealthy", ResponseTime: responseTime}
	}
	return ComponentHealth{Status: "healthy", ResponseTime: responseTime}
}
