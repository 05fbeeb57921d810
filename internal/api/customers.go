package api

import (
	"net/http"

	"github.com/Abdu216/Ecommerce-API/internal/service"
	"github.com/Abdu216/Ecommerce-API/internal/store"

	"github.com/gin-gonic/gin"
)

func (h *Handler) createCustomer(c *gin.Context) {
	var req service.CreateCustomerRequest
	if !bindJSON(c, &req) {
		return
	}

	detail, err := h.customerService.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, detail)
}

// registerCustomer is public self-registration; the account always gets
// the customer role.
func (h *Handler) registerCustomer(c *gin.Context) {
	h.createCustomer(c)
}

func (h *Handler) registerStaff(c *gin.Context) {
	var req service.RegisterStaffRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.accountService.RegisterStaff(c.Request.Context(), callerFrom(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *Handler) listCustomers(c *gin.Context) {
	page, ok := h.page(c)
	if !ok {
		return
	}

	customers, err := h.customerService.List(c.Request.Context(), store.CustomerFilter{
		Search: c.Query("search"),
		Page:   page,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, customers)
}

func (h *Handler) me(c *gin.Context) {
	detail, err := h.customerService.Me(c.Request.Context(), callerFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *Handler) getCustomer(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	detail, err := h.customerService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *Handler) updateCustomer(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req service.UpdateCustomerRequest
	if !bindJSON(c, &req) {
		return
	}

	detail, err := h.customerService.Update(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *Handler) deleteCustomer(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.customerService.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Customer deleted successfully"})
}

func (h *Handler) createAddress(c *gin.Context) {
	var req service.CreateAddressRequest
	if !bindJSON(c, &req) {
		return
	}

	address, err := h.addressService.Create(c.Request.Context(), callerFrom(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, address)
}

func (h *Handler) listAddresses(c *gin.Context) {
	addresses, err := h.addressService.List(c.Request.Context(), callerFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, addresses)
}

func (h *Handler) getAddress(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	address, err := h.addressService.Get(c.Request.Context(), callerFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, address)
}

func (h *Handler) updateAddress(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req service.UpdateAddressRequest
	if !bindJSON(c, &req) {
		return
	}

	address, err := h.addressService.Update(c.Request.Context(), callerFrom(c), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, address)
}

func (h *Handler) deleteAddress(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.addressService.Delete(c.Request.Context(), callerFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Address deleted successfully"})
}
