// internal/handlers/vehicle/vehicle_handler.go
package vehicle

import (
	"net/http"

	"carlog-service/internal/domain/vehicle"
	xerrors "carlog-service/internal/pkg/errors"
	"carlog-service/internal/pkg/response"
	"carlog-service/internal/service/carlog"
	"carlog-service/internal/service/registry"
	"carlog-service/internal/status"

	"github.com/gin-gonic/gin"
)

type VehicleHandler struct {
	carlogService *carlog.Service
	submitter     *carlog.Submitter
	statusTracker *status.Tracker
	registry      *registry.Service
}

func NewVehicleHandler(
	carlogService *carlog.Service,
	submitter *carlog.Submitter,
	statusTracker *status.Tracker,
	registryService *registry.Service,
) *VehicleHandler {
	return &VehicleHandler{
		carlogService: carlogService,
		submitter:     submitter,
		statusTracker: statusTracker,
		registry:      registryService,
	}
}

// fail maps service errors onto HTTP status codes.
func fail(c *gin.Context, message string, err error) {
	switch {
	case xerrors.Is(err, xerrors.ErrNotFound):
		response.NotFound(c, message)
	case xerrors.Is(err, xerrors.ErrInvalidInput):
		response.Error(c, http.StatusBadRequest, message, err)
	case xerrors.Is(err, xerrors.ErrUnauthorized):
		response.Unauthorized(c, message)
	default:
		response.Error(c, http.StatusInternalServerError, message, err)
	}
}

// ========== Vehicle Endpoints ==========

// RegisterVehicle creates or reconfigures a vehicle
func (h *VehicleHandler) RegisterVehicle(c *gin.Context) {
	var req vehicle.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	if err := h.carlogService.RegisterVehicle(c.Request.Context(), req); err != nil {
		fail(c, "failed to register vehicle", err)
		return
	}
	h.statusTracker.Reset(req.CarID)

	response.Success(c, http.StatusCreated, "vehicle registered", gin.H{"car_id": req.CarID})
}

// ListVehicles returns a summary per known vehicle
func (h *VehicleHandler) ListVehicles(c *gin.Context) {
	response.Success(c, http.StatusOK, "vehicles retrieved", h.carlogService.List())
}

// GetVehicle returns the full record for one vehicle
func (h *VehicleHandler) GetVehicle(c *gin.Context) {
	rec, err := h.carlogService.Vehicle(c.Param("car_id"))
	if err != nil {
		fail(c, "vehicle not found", err)
		return
	}
	response.Success(c, http.StatusOK, "vehicle retrieved", rec)
}

// GetStats returns consumption average, last fill and estimated range
func (h *VehicleHandler) GetStats(c *gin.Context) {
	stats, err := h.carlogService.Stats(c.Param("car_id"))
	if err != nil {
		fail(c, "vehicle not found", err)
		return
	}
	response.Success(c, http.StatusOK, "stats retrieved", stats)
}

// GetMaintenanceDue evaluates the due rules for every maintenance type
func (h *VehicleHandler) GetMaintenanceDue(c *gin.Context) {
	due, err := h.carlogService.MaintenanceDue(c.Param("car_id"))
	if err != nil {
		fail(c, "vehicle not found", err)
		return
	}
	response.Success(c, http.StatusOK, "maintenance due retrieved", due)
}

// GetStatus returns the runtime save-status of one vehicle
func (h *VehicleHandler) GetStatus(c *gin.Context) {
	response.Success(c, http.StatusOK, "status retrieved", h.statusTracker.Get(c.Param("car_id")))
}

// GetInspectionExpiry looks up the inspection expiry for the vehicle's plate
func (h *VehicleHandler) GetInspectionExpiry(c *gin.Context) {
	rec, err := h.carlogService.Vehicle(c.Param("car_id"))
	if err != nil {
		fail(c, "vehicle not found", err)
		return
	}

	plate := ""
	if rec.Meta.LicensePlate != nil {
		plate = *rec.Meta.LicensePlate
	}
	response.Success(c, http.StatusOK, "registry lookup complete", h.registry.Expiry(c.Request.Context(), plate))
}

// SetTankCapacity updates the configured tank capacity
func (h *VehicleHandler) SetTankCapacity(c *gin.Context) {
	var req vehicle.TankCapacityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	if err := h.carlogService.SetTankCapacity(c.Request.Context(), c.Param("car_id"), *req.TankCapacityL); err != nil {
		fail(c, "failed to set tank capacity", err)
		return
	}
	response.Success(c, http.StatusOK, "tank capacity updated", nil)
}

// ========== Fuel Endpoints ==========

// LogFuel appends a fill-up
func (h *VehicleHandler) LogFuel(c *gin.Context) {
	var req vehicle.LogFuelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	if err := h.carlogService.LogFuel(c.Request.Context(), c.Param("car_id"), req); err != nil {
		fail(c, "failed to log fuel", err)
		return
	}
	response.Success(c, http.StatusCreated, "fuel entry logged", nil)
}

// UpdateFuel patches the fuel entry identified by timestamp
func (h *VehicleHandler) UpdateFuel(c *gin.Context) {
	var req vehicle.UpdateFuelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	if err := h.carlogService.UpdateFuelEntry(c.Request.Context(), c.Param("car_id"), req); err != nil {
		fail(c, "failed to update fuel entry", err)
		return
	}
	response.Success(c, http.StatusOK, "fuel entry updated", nil)
}

// DeleteFuel removes the entry matching ?ts=, or the latest one without it
func (h *VehicleHandler) DeleteFuel(c *gin.Context) {
	var ts *string
	if v := c.Query("ts"); v != "" {
		ts = &v
	}

	if err := h.carlogService.DeleteFuelEntry(c.Request.Context(), c.Param("car_id"), ts); err != nil {
		fail(c, "failed to delete fuel entry", err)
		return
	}
	response.Success(c, http.StatusOK, "fuel entry deleted", nil)
}

// ========== Maintenance Endpoints ==========

// LogMaintenance appends a service event
func (h *VehicleHandler) LogMaintenance(c *gin.Context) {
	var req vehicle.LogMaintenanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	if err := h.carlogService.LogMaintenance(c.Request.Context(), c.Param("car_id"), req); err != nil {
		fail(c, "failed to log maintenance", err)
		return
	}
	response.Success(c, http.StatusCreated, "maintenance entry logged", nil)
}

// UpdateMaintenance patches the entry identified by type + timestamp
func (h *VehicleHandler) UpdateMaintenance(c *gin.Context) {
	var req vehicle.UpdateMaintenanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	if err := h.carlogService.UpdateMaintenanceEntry(c.Request.Context(), c.Param("car_id"), req); err != nil {
		fail(c, "failed to update maintenance entry", err)
		return
	}
	response.Success(c, http.StatusOK, "maintenance entry updated", nil)
}

// DeleteMaintenance removes the entry of one type matching ?ts=, or the latest
func (h *VehicleHandler) DeleteMaintenance(c *gin.Context) {
	maintType := c.Param("type")
	if maintType == "" {
		response.Error(c, http.StatusBadRequest, "maintenance type is required", nil)
		return
	}

	var ts *string
	if v := c.Query("ts"); v != "" {
		ts = &v
	}

	if err := h.carlogService.DeleteMaintenanceEntry(c.Request.Context(), c.Param("car_id"), maintType, ts); err != nil {
		fail(c, "failed to delete maintenance entry", err)
		return
	}
	response.Success(c, http.StatusOK, "maintenance entry deleted", nil)
}

// ========== Staging and Submit Endpoints ==========

// Stage patches the UI staging fields
func (h *VehicleHandler) Stage(c *gin.Context) {
	var req vehicle.StageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	if err := h.carlogService.Stage(c.Request.Context(), c.Param("car_id"), req); err != nil {
		fail(c, "failed to stage fields", err)
		return
	}
	response.Success(c, http.StatusOK, "fields staged", nil)
}

// SubmitFuel validates the staged fuel fields and logs a fill-up
func (h *VehicleHandler) SubmitFuel(c *gin.Context) {
	carID := c.Param("car_id")
	if err := h.submitter.SubmitFuel(c.Request.Context(), carID); err != nil {
		fail(c, "fuel submit rejected", err)
		return
	}
	response.Success(c, http.StatusCreated, "fuel entry saved", h.statusTracker.Get(carID))
}

// SubmitMaintenance validates the staged maintenance fields and logs an event
func (h *VehicleHandler) SubmitMaintenance(c *gin.Context) {
	carID := c.Param("car_id")
	if err := h.submitter.SubmitMaintenance(c.Request.Context(), carID); err != nil {
		fail(c, "maintenance submit rejected", err)
		return
	}
	response.Success(c, http.StatusCreated, "maintenance entry saved", h.statusTracker.Get(carID))
}
