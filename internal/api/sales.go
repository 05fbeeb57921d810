package api

import (
	"net/http"

	"github.com/Abdu216/Ecommerce-API/internal/service"
	"github.com/Abdu216/Ecommerce-API/internal/store"

	"github.com/gin-gonic/gin"
)

// recordSale answers 201 for a new sale and 200 when an earlier request
// with the same Idempotency-Key already created it.
func (h *Handler) recordSale(c *gin.Context) {
	var req service.RecordSaleRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.salesService.RecordSale(c.Request.Context(), &req, c.GetHeader("Idempotency-Key"))
	if err != nil {
		respondError(c, err)
		return
	}

	if result.Replayed {
		c.Header("Idempotent-Replayed", "true")
		c.JSON(http.StatusOK, result.Sale)
		return
	}
	c.JSON(http.StatusCreated, result.Sale)
}

// listSales filters by an inclusive start_date..end_date range and ids
func (h *Handler) listSales(c *gin.Context) {
	page, ok := h.page(c)
	if !ok {
		return
	}
	filter := store.SaleFilter{Page: page}
	if filter.StartDate, ok = timeQuery(c, "start_date"); !ok {
		return
	}
	if filter.EndDate, ok = timeQuery(c, "end_date"); !ok {
		return
	}
	if filter.ProductID, ok = int64Query(c, "product_id"); !ok {
		return
	}
	if filter.CategoryID, ok = int64Query(c, "category_id"); !ok {
		return
	}
	if filter.CustomerID, ok = int64Query(c, "customer_id"); !ok {
		return
	}
	if filter.OrderID, ok = int64Query(c, "order_id"); !ok {
		return
	}

	sales, err := h.salesService.ListSales(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sales)
}

func (h *Handler) getSale(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	sale, err := h.salesService.GetSale(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sale)
}

func (h *Handler) updateSale(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req service.UpdateSaleRequest
	if !bindJSON(c, &req) {
		return
	}

	sale, err := h.salesService.UpdateSale(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sale)
}
