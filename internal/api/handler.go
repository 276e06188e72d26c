package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"order-core/internal/models"
	"order-core/internal/service"
	"order-core/internal/store"
	"order-core/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const ownerHeader = "X-User-Email"

// Handler contains HTTP handlers
type Handler struct {
	cartSession *service.CartSessionService
	checkout    *service.CheckoutService
	orders      *service.OrderService
	cartStore   *store.Store
}

// NewHandler creates a new HTTP handler
func NewHandler(
	cartSession *service.CartSessionService,
	checkout *service.CheckoutService,
	orders *service.OrderService,
	cartStore *store.Store,
) *Handler {
	return &Handler{
		cartSession: cartSession,
		checkout:    checkout,
		orders:      orders,
		cartStore:   cartStore,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		cart := v1.Group("/cart", requireOwner())
		{
			cart.GET("", h.getCart)
			cart.POST("/add", h.addToCart)
			cart.PUT("/update", h.updateQuantity)
			cart.DELETE("/remove/:entryCode", h.removeFromCart)
			cart.PUT("/address/:addressRef", h.updateAddress)
			cart.PUT("/payment/:method", h.updatePaymentMethod)
			cart.DELETE("/session", h.clearSession)
		}

		v1.POST("/orders/checkout", requireOwner(), h.placeOrder)
		v1.POST("/payment/transfer/:cartCode", h.placeWireTransferOrder)

		orders := v1.Group("/orders")
		{
			orders.GET("/:code", h.getOrder)
			orders.GET("", h.listOrders)
			orders.PUT("/:code/status", h.updateOrderStatus)
		}

		admin := v1.Group("/admin")
		{
			admin.DELETE("/carts/:cartCode", h.deleteCart)
			admin.DELETE("/carts/:cartCode/entries/:entryCode", h.deleteCartEntry)
		}
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// getCart returns the owner's cart and keeps the session warm.
func (h *Handler) getCart(c *gin.Context) {
	owner := c.GetString("owner")

	view, err := h.cartSession.GetCart(c.Request.Context(), owner)
	if err != nil {
		respondError(c, err)
		return
	}
	h.cartSession.ExtendSessionTTL(c.Request.Context(), owner)

	c.JSON(http.StatusOK, view)
}

type addToCartRequest struct {
	ProductRef string `json:"product_ref" binding:"required"`
	Quantity   int    `json:"quantity" binding:"required,min=1"`
}

func (h *Handler) addToCart(c *gin.Context) {
	var req addToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	view, err := h.cartSession.AddItem(c.Request.Context(), c.GetString("owner"), req.ProductRef, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

type updateQuantityRequest struct {
	EntryCode string `json:"entry_code" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

func (h *Handler) updateQuantity(c *gin.Context) {
	var req updateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	view, err := h.cartSession.UpdateQuantity(c.Request.Context(), c.GetString("owner"), req.EntryCode, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) removeFromCart(c *gin.Context) {
	view, err := h.cartSession.RemoveItem(c.Request.Context(), c.GetString("owner"), c.Param("entryCode"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) updateAddress(c *gin.Context) {
	addressRef, err := strconv.ParseInt(c.Param("addressRef"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid address reference"})
		return
	}

	view, err := h.cartSession.UpdateAddress(c.Request.Context(), c.GetString("owner"), addressRef)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) updatePaymentMethod(c *gin.Context) {
	method, ok := models.ParsePaymentMethod(c.Param("method"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payment method"})
		return
	}

	view, err := h.cartSession.UpdatePaymentMethod(c.Request.Context(), c.GetString("owner"), method)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) clearSession(c *gin.Context) {
	if err := h.cartSession.Clear(c.Request.Context(), c.GetString("owner")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) placeOrder(c *gin.Context) {
	view, err := h.checkout.PlaceOrder(c.Request.Context(), c.GetString("owner"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (h *Handler) placeWireTransferOrder(c *gin.Context) {
	view, err := h.checkout.PlaceOrderByCartCode(c.Request.Context(), c.Param("cartCode"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (h *Handler) getOrder(c *gin.Context) {
	view, err := h.orders.GetOrderByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// listOrders returns all orders, or one owner's when owner_email is given.
func (h *Handler) listOrders(c *gin.Context) {
	ctx := c.Request.Context()

	if email := c.Query("owner_email"); email != "" {
		views, err := h.orders.GetOrdersByOwner(ctx, email)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, views)
		return
	}

	views, err := h.orders.ListOrders(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

func (h *Handler) updateOrderStatus(c *gin.Context) {
	status, ok := models.ParseOrderStatus(c.Query("status"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order status"})
		return
	}

	view, err := h.orders.UpdateStatus(c.Request.Context(), c.Param("code"), status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) deleteCart(c *gin.Context) {
	if err := h.cartStore.DeleteCartByCode(c.Request.Context(), c.Param("cartCode")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) deleteCartEntry(c *gin.Context) {
	err := h.cartStore.DeleteCartEntry(c.Request.Context(), c.Param("cartCode"), c.Param("entryCode"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// requireOwner pulls the gateway-resolved owner identity from the request.
// The value is trusted as given; identity issuance happens upstream.
func requireOwner() gin.HandlerFunc {
	return func(c *gin.Context) {
		owner := c.GetHeader(ownerHeader)
		if owner == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Missing owner identity"})
			return
		}
		c.Set("owner", owner)
		c.Next()
	}
}

// respondError maps domain error kinds to client-visible statuses.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, models.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrEmptyCart),
		errors.Is(err, models.ErrInvalidOwnership),
		errors.Is(err, models.ErrNoPaymentMethod):
		status = http.StatusBadRequest
	case errors.Is(err, models.ErrConflict),
		errors.Is(err, models.ErrCheckoutInProgress),
		errors.Is(err, models.ErrIllegalTransition):
		status = http.StatusConflict
	case errors.Is(err, models.ErrUpstreamUnavailable):
		status = http.StatusBadGateway
	case errors.Is(err, models.ErrUnknownProcessor):
		status = http.StatusInternalServerError
	}

	c.JSON(status, gin.H{"error": err.Error()})
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
