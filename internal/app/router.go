// internal/app/router.go
package app

import (
	vehicleHandler "carlog-service/internal/handlers/vehicle"
	wsHandler "carlog-service/internal/handlers/websocket"
	"carlog-service/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handlers struct {
	VehicleHandler *vehicleHandler.VehicleHandler
	WSHandler      *wsHandler.WebSocketHandler
	AuthMiddleware *middleware.AuthMiddleware
}

func SetupRouter(r *gin.Engine, logger *zap.Logger, h *Handlers) {
	api := r.Group("/api/v1")

	// ==================== Health Check ====================
	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "version": "1.0.0"})
	})

	// ==================== WebSocket ====================
	r.GET("/ws", h.WSHandler.HandleConnection)

	// ==================== Vehicles (read) ====================
	vehicles := api.Group("/vehicles")
	{
		vehicles.GET("", h.VehicleHandler.ListVehicles)
		vehicles.GET("/:car_id", h.VehicleHandler.GetVehicle)
		vehicles.GET("/:car_id/stats", h.VehicleHandler.GetStats)
		vehicles.GET("/:car_id/maintenance/due", h.VehicleHandler.GetMaintenanceDue)
		vehicles.GET("/:car_id/status", h.VehicleHandler.GetStatus)
		vehicles.GET("/:car_id/inspection", h.VehicleHandler.GetInspectionExpiry)
	}

	// ==================== Vehicles (mutations) ====================
	mutations := api.Group("/vehicles")
	mutations.Use(h.AuthMiddleware.Auth())
	{
		mutations.POST("", h.VehicleHandler.RegisterVehicle)
		mutations.PUT("/:car_id/tank-capacity", h.VehicleHandler.SetTankCapacity)
		mutations.PUT("/:car_id/ui", h.VehicleHandler.Stage)

		// Fuel log
		mutations.POST("/:car_id/fuel", h.VehicleHandler.LogFuel)
		mutations.PUT("/:car_id/fuel", h.VehicleHandler.UpdateFuel)
		mutations.DELETE("/:car_id/fuel", h.VehicleHandler.DeleteFuel) // ?ts=
		mutations.POST("/:car_id/fuel/submit", h.VehicleHandler.SubmitFuel)

		// Maintenance log
		mutations.POST("/:car_id/maintenance", h.VehicleHandler.LogMaintenance)
		mutations.PUT("/:car_id/maintenance", h.VehicleHandler.UpdateMaintenance)
		mutations.DELETE("/:car_id/maintenance/:type", h.VehicleHandler.DeleteMaintenance) // ?ts=
		mutations.POST("/:car_id/maintenance/submit", h.VehicleHandler.SubmitMaintenance)
	}
}
