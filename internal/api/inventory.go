package api

import (
	"net/http"

	"github.com/Abdu216/Ecommerce-API/internal/service"
	"github.com/Abdu216/Ecommerce-API/internal/store"

	"github.com/gin-gonic/gin"
)

func (h *Handler) createInventory(c *gin.Context) {
	var req service.CreateInventoryRequest
	if !bindJSON(c, &req) {
		return
	}

	inv, err := h.inventoryService.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, inv)
}

func (h *Handler) listInventory(c *gin.Context) {
	page, ok := h.page(c)
	if !ok {
		return
	}
	lowStock, ok := boolQuery(c, "low_stock")
	if !ok {
		return
	}

	items, err := h.inventoryService.List(c.Request.Context(), store.InventoryFilter{LowStock: lowStock, Page: page})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) getInventory(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	detail, err := h.inventoryService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// adjustInventory takes the reason from the body or the reason query param
func (h *Handler) adjustInventory(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req service.AdjustInventoryRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Reason == "" {
		req.Reason = c.Query("reason")
	}

	inv, err := h.inventoryService.Adjust(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

func (h *Handler) inventoryHistory(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	page, ok := h.page(c)
	if !ok {
		return
	}

	history, err := h.inventoryService.History(c.Request.Context(), id, page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}

func (h *Handler) verifyLedger(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	check, err := h.inventoryService.VerifyLedger(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, check)
}
