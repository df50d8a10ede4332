package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/omnidesk/omnidesk/internal/customer"
)

// CustomerHandler handles customer profile and identifier endpoints.
type CustomerHandler struct {
	service *customer.Service
	logger  *slog.Logger
}

// NewCustomerHandler creates a CustomerHandler.
func NewCustomerHandler(log *slog.Logger, service *customer.Service) *CustomerHandler {
	if log == nil {
		log = slog.Default()
	}
	return &CustomerHandler{
		service: service,
		logger:  log.With(slog.String("handler", "customer")),
	}
}

// Register registers customer routes.
func (h *CustomerHandler) Register(e *echo.Echo) {
	group := e.Group("/customers/:id")
	group.GET("", h.Get)
	group.GET("/identifiers", h.ListIdentifiers)
	group.POST("/identifiers", h.AddIdentifier)
	group.POST("/tags", h.AddTag)
	group.PUT("/vip", h.SetVip)
}

// Get returns a customer with their identifiers.
func (h *CustomerHandler) Get(c echo.Context) error {
	customerID, err := h.requireCustomerID(c)
	if err != nil {
		return err
	}
	cust, err := h.service.Get(c.Request().Context(), customerID)
	if err != nil {
		if errors.Is(err, customer.ErrCustomerNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "customer not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, cust)
}

// ListIdentifiers returns all identifiers attached to a customer.
func (h *CustomerHandler) ListIdentifiers(c echo.Context) error {
	customerID, err := h.requireCustomerID(c)
	if err != nil {
		return err
	}
	items, err := h.service.ListIdentifiers(c.Request().Context(), customerID)
	if err != nil {
		if errors.Is(err, customer.ErrCustomerNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "customer not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// AddIdentifier attaches an identifier to a customer. Attaching the same
// identifier twice is a no-op; an identifier owned by another customer is a
// conflict.
func (h *CustomerHandler) AddIdentifier(c echo.Context) error {
	customerID, err := h.requireCustomerID(c)
	if err != nil {
		return err
	}

	var req customer.AddIdentifierRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ident, err := h.service.AddIdentifier(c.Request().Context(), customerID, req)
	if err != nil {
		switch {
		case errors.Is(err, customer.ErrCustomerNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "customer not found")
		case errors.Is(err, customer.ErrIdentifierConflict):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, ident)
}

// AddTag appends a tag to the customer's tag set.
func (h *CustomerHandler) AddTag(c echo.Context) error {
	customerID, err := h.requireCustomerID(c)
	if err != nil {
		return err
	}

	var req customer.AddTagRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.service.AddTag(c.Request().Context(), customerID, req.Tag); err != nil {
		if errors.Is(err, customer.ErrCustomerNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "customer not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// SetVip sets or clears the customer's VIP flag.
func (h *CustomerHandler) SetVip(c echo.Context) error {
	customerID, err := h.requireCustomerID(c)
	if err != nil {
		return err
	}

	var req customer.SetVipRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.service.SetVip(c.Request().Context(), customerID, req.IsVip); err != nil {
		if errors.Is(err, customer.ErrCustomerNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "customer not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *CustomerHandler) requireCustomerID(c echo.Context) (string, error) {
	if h.service == nil {
		return "", echo.NewHTTPError(http.StatusServiceUnavailable, "customer service not available")
	}
	customerID := strings.TrimSpace(c.Param("id"))
	if customerID == "" {
		return "", echo.NewHTTPError(http.StatusBadRequest, "customer id is required")
	}
	return customerID, nil
}
