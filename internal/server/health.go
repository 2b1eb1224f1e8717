package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"

	"github.com/mantonx/mediacat/internal/assets"
	"github.com/mantonx/mediacat/internal/database"
	"github.com/mantonx/mediacat/internal/logger"
)

var startedAt = time.Now()

// healthHandler reports catalog liveness plus storage and host stats.
func healthHandler(files *assets.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "ok"

		dbStatus := "ok"
		if db := database.GetDB(); db != nil {
			if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
				dbStatus = "unreachable"
				status = "degraded"
			}
		} else {
			dbStatus = "uninitialized"
			status = "degraded"
		}

		payload := gin.H{
			"status":   status,
			"uptime":   time.Since(startedAt).Round(time.Second).String(),
			"database": dbStatus,
		}

		if usage, err := files.Usage(); err == nil {
			payload["storage"] = usage
		} else {
			logger.Warn("failed to read storage stats", "error", err)
		}
		if vm, err := mem.VirtualMemory(); err == nil {
			payload["memory"] = gin.H{
				"total_bytes":  vm.Total,
				"used_percent": vm.UsedPercent,
			}
		}
		if uptime, err := host.Uptime(); err == nil {
			payload["host_uptime_seconds"] = uptime
		}

		code := http.StatusOK
		if status != "ok" {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, payload)
	}
}
