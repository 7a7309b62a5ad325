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

func (h *Handler) listRequests(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	opts, err := parseRequestQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	records, err := h.dispatchService.List(c.Request.Context(), principal, opts)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{"items": records}))
}

func (h *Handler) getRequest(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	record, err := h.dispatchService.Get(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(record))
}

func (h *Handler) createRequest(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	var req struct {
		Purpose            string     `json:"purpose" binding:"required"`
		Origin             string     `json:"origin" binding:"required"`
		Destination        string     `json:"destination" binding:"required"`
		RequestedStartAt   time.Time  `json:"requested_start_at" binding:"required"`
		VehicleType        string     `json:"vehicle_type"`
		PreferredVehicleID *uuid.UUID `json:"preferred_vehicle_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, errorResponse(err.Error()))
		return
	}

	input := service.CreateRequestInput{
		Purpose:            req.Purpose,
		Origin:             req.Origin,
		Destination:        req.Destination,
		RequestedStartAt:   req.RequestedStartAt,
		VehicleType:        model.VehicleType(strings.ToUpper(strings.TrimSpace(req.VehicleType))),
		PreferredVehicleID: req.PreferredVehicleID,
	}

	record, err := h.dispatchService.CreateRequest(c.Request.Context(), principal, input)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse(record))
}

type decisionPayload struct {
	Decision string `json:"decision" binding:"required"`
	Note     string `json:"note"`
}

func parseDecision(c *gin.Context) (approve bool, note string, ok bool) {
	var req decisionPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, errorResponse(err.Error()))
		return false, "", false
	}
	switch strings.ToLower(strings.TrimSpace(req.Decision)) {
	case "approve":
		return true, req.Note, true
	case "reject":
		return false, req.Note, true
	default:
		c.JSON(http.StatusUnprocessableEntity, errorResponse("decision must be approve or reject"))
		return false, "", false
	}
}

func (h *Handler) supervisorDecide(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	approve, note, ok := parseDecision(c)
	if !ok {
		return
	}

	record, err := h.dispatchService.SupervisorDecide(c.Request.Context(), principal, id, approve, note)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(record))
}

func (h *Handler) fleetDecide(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	approve, note, ok := parseDecision(c)
	if !ok {
		return
	}

	record, err := h.dispatchService.FleetDecide(c.Request.Context(), principal, id, approve, note)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(record))
}
