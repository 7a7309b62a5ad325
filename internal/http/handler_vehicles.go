package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"dispatch-service/internal/http/middleware"
	"dispatch-service/internal/model"
	"dispatch-service/internal/service"
)

func (h *Handler) listVehicles(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	var filter service.VehicleFilter
	if statusParam := c.Query("status"); statusParam != "" {
		for _, val := range splitCSV(statusParam) {
			filter.Statuses = append(filter.Statuses, model.VehicleStatus(strings.ToUpper(val)))
		}
	}
	filter.Type = model.VehicleType(strings.ToUpper(strings.TrimSpace(c.Query("type"))))
	filter.Search = strings.TrimSpace(c.Query("search"))

	vehicles, err := h.vehicleService.List(c.Request.Context(), principal, filter)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{"items": vehicles}))
}

type vehiclePayload struct {
	PlateNumber          string     `json:"plate_number" binding:"required"`
	Make                 string     `json:"make"`
	Model                string     `json:"model"`
	Type                 string     `json:"type" binding:"required"`
	Ownership            string     `json:"ownership"`
	Odometer             int64      `json:"odometer"`
	NextServiceOdometer  int64      `json:"next_service_odometer"`
	MonthlyMileageLimit  int64      `json:"monthly_mileage_limit"`
	ContractEndAt        *time.Time `json:"contract_end_at"`
	InsuranceExpiresAt   *time.Time `json:"insurance_expires_at"`
	InsuranceDocumentURL string     `json:"insurance_document_url"`
}

func (h *Handler) createVehicle(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	var req vehiclePayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, errorResponse(err.Error()))
		return
	}

	input := service.VehicleInput{
		PlateNumber:          req.PlateNumber,
		Make:                 req.Make,
		Model:                req.Model,
		Type:                 model.VehicleType(strings.ToUpper(strings.TrimSpace(req.Type))),
		Ownership:            model.VehicleOwnership(strings.ToUpper(strings.TrimSpace(req.Ownership))),
		Odometer:             req.Odometer,
		NextServiceOdometer:  req.NextServiceOdometer,
		MonthlyMileageLimit:  req.MonthlyMileageLimit,
		ContractEndAt:        req.ContractEndAt,
		InsuranceExpiresAt:   req.InsuranceExpiresAt,
		InsuranceDocumentURL: req.InsuranceDocumentURL,
	}

	vehicle, err := h.vehicleService.Create(c.Request.Context(), principal, input)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse(vehicle))
}

func (h *Handler) updateVehicle(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Status              *string    `json:"status"`
		Odometer            *int64     `json:"odometer"`
		NextServiceOdometer *int64     `json:"next_service_odometer"`
		MonthlyMileageLimit *int64     `json:"monthly_mileage_limit"`
		ContractEndAt       *time.Time `json:"contract_end_at"`
		InsuranceExpiresAt  *time.Time `json:"insurance_expires_at"`
		Retired             *bool      `json:"retired"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, errorResponse(err.Error()))
		return
	}

	update := service.VehicleUpdate{
		Odometer:            req.Odometer,
		NextServiceOdometer: req.NextServiceOdometer,
		MonthlyMileageLimit: req.MonthlyMileageLimit,
		ContractEndAt:       req.ContractEndAt,
		InsuranceExpiresAt:  req.InsuranceExpiresAt,
		Retired:             req.Retired,
	}
	if req.Status != nil {
		status := model.VehicleStatus(strings.ToUpper(strings.TrimSpace(*req.Status)))
		update.Status = &status
	}

	vehicle, err := h.vehicleService.Update(c.Request.Context(), principal, id, update)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(vehicle))
}

func (h *Handler) assignDriver(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req struct {
		DriverID uuid.UUID `json:"driver_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, errorResponse(err.Error()))
		return
	}

	vehicle, err := h.vehicleService.AssignDriver(c.Request.Context(), principal, id, req.DriverID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(vehicle))
}

func (h *Handler) listMaintenanceRecords(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	records, err := h.vehicleService.ListMaintenanceRecords(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{"items": records}))
}

func (h *Handler) addMaintenanceRecord(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Description string    `json:"description" binding:"required"`
		Cost        float64   `json:"cost"`
		Odometer    int64     `json:"odometer"`
		ServicedAt  time.Time `json:"serviced_at" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, errorResponse(err.Error()))
		return
	}

	record, err := h.vehicleService.AddMaintenanceRecord(c.Request.Context(), principal, id, service.MaintenanceInput{
		Description: req.Description,
		Cost:        req.Cost,
		Odometer:    req.Odometer,
		ServicedAt:  req.ServicedAt,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse(record))
}

func (h *Handler) listInvoices(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	invoices, err := h.vehicleService.ListInvoices(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{"items": invoices}))
}

func (h *Handler) addInvoice(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req struct {
		InvoiceNumber string    `json:"invoice_number" binding:"required"`
		Vendor        string    `json:"vendor"`
		Amount        float64   `json:"amount" binding:"required"`
		IssuedAt      time.Time `json:"issued_at" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, errorResponse(err.Error()))
		return
	}

	invoice, err := h.vehicleService.AddInvoice(c.Request.Context(), principal, id, service.InvoiceInput{
		InvoiceNumber: req.InvoiceNumber,
		Vendor:        req.Vendor,
		Amount:        req.Amount,
		IssuedAt:      req.IssuedAt,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse(invoice))
}
