package server

import (
	"net/http"

	"github.com/example/storefront/pkg/apperrors"
	"github.com/example/storefront/pkg/models"
	"github.com/example/storefront/pkg/service"
	"github.com/gin-gonic/gin"
)

func (s *Server) checkout(c *gin.Context) {
	var req struct {
		ShippingAddress string `json:"shipping_address"`
	}
	// Body is optional for checkout
	if c.Request.ContentLength > 0 {
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	in := service.CheckoutInput{
		SessionID:       cartSessionFrom(c),
		ShippingAddress: req.ShippingAddress,
	}

	if claims := claimsFrom(c); claims != nil {
		customer, err := s.customers.CustomerByEmail(c.Request.Context(), claims.Email)
		if err == nil {
			in.CustomerID = customer.ID
		} else if !apperrors.IsNotFound(err) {
			s.respondError(c, err)
			return
		}
	}

	order, err := s.orders.Checkout(c.Request.Context(), in)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (s *Server) getOrder(c *gin.Context) {
	order, err := s.orders.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}

	// Customers may only read their own orders
	claims := claimsFrom(c)
	if claims.Role != models.RoleAdmin {
		customer, err := s.customers.CustomerByEmail(c.Request.Context(), claims.Email)
		if err != nil || order.CustomerID != customer.ID {
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			return
		}
	}
	c.JSON(http.StatusOK, order)
}

func (s *Server) listOrders(c *gin.Context) {
	claims := claimsFrom(c)
	customer, err := s.customers.CustomerByEmail(c.Request.Context(), claims.Email)
	if err != nil {
		s.respondError(c, err)
		return
	}

	page, pageSize := pagination(c)
	orders, total, err := s.orders.ListOrders(c.Request.Context(), customer.ID, page, pageSize)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders, "total": total})
}
