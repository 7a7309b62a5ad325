package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dispatch-service/internal/http/middleware"
	"dispatch-service/internal/service"
)

func (h *Handler) getTrip(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	record, err := h.tripService.Get(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(record))
}

func (h *Handler) startTrip(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	trip, err := h.tripService.Start(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(trip))
}

func (h *Handler) endTrip(c *gin.Context) {
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
		EndOdometer int64 `json:"end_odometer" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, errorResponse(err.Error()))
		return
	}

	trip, err := h.tripService.End(c.Request.Context(), principal, id, req.EndOdometer)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(trip))
}

func (h *Handler) addFuel(c *gin.Context) {
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
		Liters   float64 `json:"liters" binding:"required"`
		Cost     float64 `json:"cost"`
		Odometer int64   `json:"odometer"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, errorResponse(err.Error()))
		return
	}

	entry, err := h.tripService.AddFuel(c.Request.Context(), principal, id, service.FuelInput{
		Liters:   req.Liters,
		Cost:     req.Cost,
		Odometer: req.Odometer,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse(entry))
}

func (h *Handler) reviewTrip(c *gin.Context) {
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
		Rating  int    `json:"rating" binding:"required"`
		Comment string `json:"comment"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, errorResponse(err.Error()))
		return
	}

	review, err := h.tripService.Review(c.Request.Context(), principal, id, req.Rating, req.Comment)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse(review))
}
