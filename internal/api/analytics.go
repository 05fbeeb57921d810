package api

import (
	"net/http"

	"github.com/Abdu216/Ecommerce-API/internal/service"

	"github.com/gin-gonic/gin"
)

func periodQuery(c *gin.Context) (service.Period, bool) {
	period, err := service.ParsePeriod(c.Query("period"))
	if err != nil {
		respondError(c, err)
		return "", false
	}
	return period, true
}

func (h *Handler) revenue(c *gin.Context) {
	period, ok := periodQuery(c)
	if !ok {
		return
	}
	date, ok := timeQuery(c, "date")
	if !ok {
		return
	}

	report, err := h.analyticsService.Revenue(c.Request.Context(), period, date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handler) compareRevenue(c *gin.Context) {
	period, ok := periodQuery(c)
	if !ok {
		return
	}
	date1, ok := timeQuery(c, "date1")
	if !ok {
		return
	}
	date2, ok := timeQuery(c, "date2")
	if !ok {
		return
	}

	comparison, err := h.analyticsService.Compare(c.Request.Context(), period, date1, date2)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comparison)
}

func (h *Handler) categoryRevenue(c *gin.Context) {
	start, ok := timeQuery(c, "start_date")
	if !ok {
		return
	}
	end, ok := timeQuery(c, "end_date")
	if !ok {
		return
	}

	categories, err := h.analyticsService.Categories(c.Request.Context(), start, end)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}
