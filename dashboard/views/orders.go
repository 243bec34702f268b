package views

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/tair/supply-dashboard/dashboard/middleware"
	"github.com/tair/supply-dashboard/internal/order/domain"
	"github.com/tair/supply-dashboard/internal/order/usecase/command"
	"github.com/tair/supply-dashboard/pkg/logger"
)

const (
	viewOrders      = "orders"
	viewOrderDetail = "order-detail"

	msgOrderUpdated      = "Order status updated successfully"
	msgOrderUpdateFailed = "Failed to update order status. Please try again."
)

type orderList struct {
	Query    string          `json:"query,omitempty"`
	Orders   []domain.Order  `json:"orders"`
	Total    int             `json:"total"`
	Shown    int             `json:"shown"`
	Statuses []domain.Status `json:"statuses"`
}

type orderDetail struct {
	Order    domain.Order    `json:"order"`
	Statuses []domain.Status `json:"statuses"`
	Warnings []string        `json:"warnings,omitempty"`
}

type createOrderRequest struct {
	ProductID   string `json:"product_id" form:"product_id"`
	WarehouseID string `json:"warehouse_id" form:"warehouse_id"`
	Quantity    int    `json:"quantity" form:"quantity"`
}

type updateOrderRequest struct {
	Status      string `json:"status" form:"status"`
	WarehouseID string `json:"warehouse_id" form:"warehouse_id"`
}

// Orders refreshes the order list and renders it filtered by ?q=.
//
// @Summary List orders
// @Description Order list filtered by q (session required)
// @Tags Orders
// @Produce json
// @Param q query string false "Filter by product, supplier, status or id"
// @Success 200 {object} Page
// @Failure 502 {object} object{view=string,error=string}
// @Router /dashboard/orders [get]
func (h *Handler) Orders(c *fiber.Ctx) error {
	ws := middleware.WorkspaceFrom(c)
	query := c.Query("q")

	_ = ws.Orders.FetchOrders(c.UserContext())

	orders := ws.Orders.Search(query)
	return render(c, fiber.StatusOK, Page{
		View: viewOrders,
		Data: orderList{
			Query:    query,
			Orders:   orders,
			Total:    ws.Orders.Total(),
			Shown:    len(orders),
			Statuses: domain.Statuses,
		},
		Error: ws.Orders.Error(),
	})
}

// Order godoc
// @Summary Get order
// @Description Order detail (session required)
// @Tags Orders
// @Produce json
// @Param orderId path string true "Order ID"
// @Success 200 {object} Page
// @Failure 404 {object} object{view=string,error=string}
// @Failure 502 {object} object{view=string,error=string}
// @Router /dashboard/orders/{orderId} [get]
func (h *Handler) Order(c *fiber.Ctx) error {
	ws := middleware.WorkspaceFrom(c)
	orderID := param(c, "orderId")

	order, err := ws.Orders.FetchOrderByID(c.UserContext(), orderID)
	if err != nil {
		msg := ws.Orders.OrderError(orderID)
		status := fiber.StatusOK
		if backendStatus(err) == fiber.StatusNotFound {
			status = fiber.StatusNotFound
			msg = "Order not found"
		}
		if msg == "" {
			msg = errorMessage(err, "Failed to fetch order details")
		}
		return render(c, status, Page{View: viewOrderDetail, Error: msg})
	}

	return render(c, fiber.StatusOK, Page{
		View: viewOrderDetail,
		Data: orderDetail{Order: *order, Statuses: domain.Statuses},
	})
}

// CreateOrder places an order for a product in the loaded list.
//
// @Summary Place order
// @Description Place an order for a loaded product (session required)
// @Tags Orders
// @Accept json
// @Produce json
// @Param request body object{product_id=string,warehouse_id=string,quantity=int} true "Form fields"
// @Success 201 {object} Page
// @Failure 400 {object} object{view=string,error=string}
// @Failure 502 {object} object{view=string,error=string}
// @Router /dashboard/orders [post]
func (h *Handler) CreateOrder(c *fiber.Ctx) error {
	var req createOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, viewOrders, "Invalid request body")
	}

	ws := middleware.WorkspaceFrom(c)
	order, err := ws.CreateOrder.Handle(c.UserContext(), command.CreateOrderCommand{
		ProductID:   strings.TrimSpace(req.ProductID),
		WarehouseID: strings.TrimSpace(req.WarehouseID),
		Quantity:    req.Quantity,
	})
	if err != nil {
		if errors.Is(err, domain.ErrMissingProduct) || errors.Is(err, domain.ErrInvalidQuantity) {
			return fail(c, fiber.StatusBadRequest, Page{View: viewOrders}, unwrapValidation(err), "")
		}
		ws.Flash.Error("Failed to create order")
		return fail(c, backendStatus(err), Page{View: viewOrders}, err, "Failed to create order")
	}

	ws.Flash.Success("Order created successfully")
	return render(c, fiber.StatusCreated, Page{
		View:     viewOrderDetail,
		Data:     orderDetail{Order: *order, Statuses: domain.Statuses},
		Redirect: "/dashboard/orders/" + order.OrderID,
	})
}

// UpdateOrder changes an order's status. Choosing the status the order
// already has does nothing.
//
// @Summary Change order status
// @Description Completing an order adds its quantity to the product stock (session required)
// @Tags Orders
// @Accept json
// @Produce json
// @Param orderId path string true "Order ID"
// @Param request body object{status=string,warehouse_id=string} true "Form fields"
// @Success 200 {object} Page
// @Failure 400 {object} object{view=string,error=string}
// @Failure 404 {object} object{view=string,error=string}
// @Failure 502 {object} object{view=string,error=string}
// @Router /dashboard/orders/{orderId} [put]
func (h *Handler) UpdateOrder(c *fiber.Ctx) error {
	var req updateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, viewOrderDetail, "Invalid request body")
	}
	status, err := domain.ParseStatus(req.Status)
	if err != nil {
		return badRequest(c, viewOrderDetail, "Invalid order status")
	}

	ws := middleware.WorkspaceFrom(c)
	orderID := param(c, "orderId")

	if current, ok := ws.Orders.Cached(orderID); ok && current.Status == status {
		return render(c, fiber.StatusOK, Page{
			View: viewOrderDetail,
			Data: orderDetail{Order: current, Statuses: domain.Statuses},
		})
	}

	var requestedBy string
	if user := middleware.UserFrom(c); user != nil {
		requestedBy = user.Username
	}

	result, err := ws.UpdateOrder.Handle(c.UserContext(), command.UpdateOrderCommand{
		OrderID:     orderID,
		Status:      status,
		WarehouseID: strings.TrimSpace(req.WarehouseID),
		RequestedBy: requestedBy,
	})
	if err != nil {
		ws.Flash.Error(msgOrderUpdateFailed)
		logger.Warn(c.UserContext()).Err(err).Str("order_id", orderID).Msg("Order status update failed")
		page := Page{View: viewOrderDetail, Error: ws.Orders.OrderError(orderID)}
		if current, ok := ws.Orders.Cached(orderID); ok {
			page.Data = orderDetail{Order: current, Statuses: domain.Statuses}
		}
		if page.Error == "" {
			page.Error = msgOrderUpdateFailed
		}
		return render(c, backendStatus(err), page)
	}

	ws.Flash.Success(msgOrderUpdated)
	warnings := result.Warnings()
	for _, w := range warnings {
		ws.Flash.Warning(w)
	}
	return render(c, fiber.StatusOK, Page{
		View: viewOrderDetail,
		Data: orderDetail{Order: result.Order, Statuses: domain.Statuses, Warnings: warnings},
	})
}

// DeleteOrder godoc
// @Summary Delete order
// @Description Delete an order (session required)
// @Tags Orders
// @Produce json
// @Param orderId path string true "Order ID"
// @Success 200 {object} Page
// @Failure 404 {object} object{view=string,error=string}
// @Failure 502 {object} object{view=string,error=string}
// @Router /dashboard/orders/{orderId} [delete]
func (h *Handler) DeleteOrder(c *fiber.Ctx) error {
	ws := middleware.WorkspaceFrom(c)
	orderID := param(c, "orderId")

	if err := ws.Orders.DeleteOrder(c.UserContext(), orderID); err != nil {
		ws.Flash.Error("Failed to delete order. Please try again.")
		return fail(c, backendStatus(err), Page{View: viewOrderDetail}, err, "Failed to delete order")
	}

	ws.Flash.Success("Order deleted successfully")
	return render(c, fiber.StatusOK, Page{View: viewOrders, Redirect: "/dashboard/orders"})
}

// unwrapValidation returns the innermost validation sentinel so its message
// reaches the user without the wrapping context.
func unwrapValidation(err error) error {
	for _, target := range []error{domain.ErrMissingProduct, domain.ErrInvalidQuantity} {
		if errors.Is(err, target) {
			return target
		}
	}
	return err
}
