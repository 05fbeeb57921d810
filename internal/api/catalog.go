package api

import (
	"net/http"

	"github.com/Abdu216/Ecommerce-API/internal/service"
	"github.com/Abdu216/Ecommerce-API/internal/store"

	"github.com/gin-gonic/gin"
)

func (h *Handler) createCategory(c *gin.Context) {
	var req service.CreateCategoryRequest
	if !bindJSON(c, &req) {
		return
	}

	category, err := h.catalogService.CreateCategory(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

func (h *Handler) listCategories(c *gin.Context) {
	page, ok := h.page(c)
	if !ok {
		return
	}

	categories, err := h.catalogService.ListCategories(c.Request.Context(), store.CategoryFilter{
		Search: c.Query("search"),
		Page:   page,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

func (h *Handler) getCategory(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	category, err := h.catalogService.GetCategory(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

func (h *Handler) updateCategory(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req service.UpdateCategoryRequest
	if !bindJSON(c, &req) {
		return
	}

	category, err := h.catalogService.UpdateCategory(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

func (h *Handler) createProduct(c *gin.Context) {
	var req service.CreateProductRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.catalogService.CreateProduct(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

// listProducts supports category_id, search and active_only filters
func (h *Handler) listProducts(c *gin.Context) {
	page, ok := h.page(c)
	if !ok {
		return
	}
	categoryID, ok := int64Query(c, "category_id")
	if !ok {
		return
	}
	activeOnly, ok := boolQuery(c, "active_only")
	if !ok {
		return
	}

	products, err := h.catalogService.ListProducts(c.Request.Context(), store.ProductFilter{
		CategoryID: categoryID,
		Search:     c.Query("search"),
		ActiveOnly: activeOnly,
		Page:       page,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *Handler) getProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	product, err := h.catalogService.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *Handler) updateProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req service.UpdateProductRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.catalogService.UpdateProduct(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// deleteProduct hard-deletes unreferenced products and deactivates the rest
func (h *Handler) deleteProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	result, err := h.catalogService.DeleteProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) getProductInventory(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	inv, err := h.inventoryService.GetByProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

func (h *Handler) createReview(c *gin.Context) {
	productID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req service.CreateReviewRequest
	if !bindJSON(c, &req) {
		return
	}

	review, err := h.reviewService.Create(c.Request.Context(), callerFrom(c), productID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, review)
}

func (h *Handler) listReviews(c *gin.Context) {
	productID, ok := idParam(c, "id")
	if !ok {
		return
	}
	page, ok := h.page(c)
	if !ok {
		return
	}

	reviews, err := h.reviewService.List(c.Request.Context(), productID, page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reviews)
}

func (h *Handler) reviewStats(c *gin.Context) {
	productID, ok := idParam(c, "id")
	if !ok {
		return
	}

	stats, err := h.reviewService.Stats(c.Request.Context(), productID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) deleteReview(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.reviewService.Delete(c.Request.Context(), callerFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Review deleted successfully"})
}
