package services

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/localnerve/recordsdb/internal/changefeed"
	"github.com/localnerve/recordsdb/internal/config"
	"github.com/localnerve/recordsdb/internal/utils"
)

// HealthCheckResult represents the result of a health check
type HealthCheckResult struct {
	Status       string            `json:"status"`
	Database     string            `json:"database"`
	Feed         string            `json:"feed"`
	Authorizer   string            `json:"authorizer"`
	Details      map[string]string `json:"details,omitempty"`
	ErrorMessage string            `json:"error,omitempty"`
}

// Healthy reports whether every dependency answered.
func (r HealthCheckResult) Healthy() bool {
	return r.Status == "healthy"
}

func (r *HealthCheckResult) fail(detailKey string, err error, format string) {
	r.Status = "unhealthy"
	r.Details[detailKey] = err.Error()
	msg := fmt.Sprintf(format, err)
	if r.ErrorMessage == "" {
		r.ErrorMessage = msg
	} else {
		r.ErrorMessage += "; " + msg
	}
}

// connectedFeed is implemented by feeds backed by a network connection.
type connectedFeed interface {
	Connected() bool
}

// HealthCheck performs a comprehensive health check of the service
func HealthCheck(ctx context.Context, cfg *config.Config, db *gorm.DB, feed changefeed.Feed, logger *zap.Logger) HealthCheckResult {
	if logger == nil {
		logger = zap.NewNop()
	}
	result := HealthCheckResult{
		Status:  "healthy",
		Details: make(map[string]string),
	}

	// Check database connectivity
	sqlDB, err := db.DB()
	if err != nil {
		result.Database = "error"
		result.fail("database_error", err, "Database connection error: %v")
		logger.Warn("health check failed - database connection", zap.Error(err))
	} else if err := sqlDB.PingContext(ctx); err != nil {
		result.Database = "unreachable"
		result.fail("database_ping_error", err, "Database ping failed: %v")
		logger.Warn("health check failed - database ping", zap.Error(err))
	} else {
		result.Database = "ok"
		result.Details["database_type"] = cfg.DBType
		result.Details["database_name"] = cfg.DBDatabase
	}

	// Check change feed
	switch f := feed.(type) {
	case nil:
		if cfg.NATSURL == "" {
			result.Feed = "none"
			break
		}
		// A NATS feed was configured but never connected
		if err := utils.PingServiceContext(ctx, cfg.NATSURL); err != nil {
			result.Feed = "unreachable"
			result.fail("feed_error", err, "Change feed ping failed: %v")
			logger.Warn("health check failed - nats ping", zap.Error(err))
		} else {
			result.Feed = "disconnected"
			result.fail("feed_error", fmt.Errorf("not connected"), "Change feed unavailable: %v")
			logger.Warn("health check failed - nats reachable but not connected")
		}
	case connectedFeed:
		if f.Connected() {
			result.Feed = "ok"
		} else {
			result.Feed = "disconnected"
			result.fail("feed_error", fmt.Errorf("not connected"), "Change feed unavailable: %v")
			logger.Warn("health check failed - change feed disconnected")
		}
	default:
		result.Feed = "local"
	}
	if counter, ok := feed.(changefeed.Counter); ok {
		result.Details["feed_subscriptions"] = strconv.Itoa(counter.Open())
	}

	// Check Authorizer connectivity
	if cfg.AuthDisabled {
		result.Authorizer = "disabled"
	} else if err := utils.PingAuthorizer(cfg.AuthzURL); err != nil {
		result.Authorizer = "unreachable"
		result.fail("authorizer_error", err, "Authorizer ping failed: %v")
		logger.Warn("health check failed - authorizer ping", zap.Error(err))
	} else {
		result.Authorizer = "ok"
		result.Details["authorizer_url"] = cfg.AuthzURL
	}

	if result.Healthy() {
		logger.Debug("health check passed - all systems operational")
	}

	return result
}
