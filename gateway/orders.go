package gateway

import (
	"errors"
	"net/http"

	"github.com/example/eshop/pkg/ordering"
	"github.com/gin-gonic/gin"
)

type orderItemRequest struct {
	Product  string `json:"product" binding:"required"`
	Quantity int    `json:"quantity" binding:"required,gt=0"`
}

type createOrderRequest struct {
	OrderItems       []orderItemRequest `json:"orderItems" binding:"required,min=1,dive"`
	ShippingAddress1 string             `json:"shippingAddress1" binding:"required,min=3,max=64"`
	ShippingAddress2 string             `json:"shippingAddress2" binding:"omitempty,max=64"`
	City             string             `json:"city" binding:"required,min=3,max=64"`
	Zip              string             `json:"zip" binding:"required,min=3,max=32"`
	Country          string             `json:"country" binding:"required,min=3,max=64"`
	Phone            string             `json:"phone" binding:"required,min=10,max=16"`
	Status           string             `json:"status" binding:"omitempty,max=32"`
	User             string             `json:"user"`
}

type orderStatusRequest struct {
	Status string `json:"status" binding:"required,max=32"`
}

func (g *Gateway) createOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		g.observeOrder("create", &ordering.Error{Kind: ordering.KindValidation})
		bindFailed(c, err)
		return
	}

	// Only admins may place an order on behalf of another user.
	claims := claimsFrom(c)
	user := req.User
	if user == "" {
		user = claims.UserID
	}
	if user != claims.UserID && !claims.IsAdmin {
		abort(c, http.StatusForbidden, "Orders can only be placed for the signed-in user")
		return
	}

	in := ordering.CreateInput{
		UserID: user,
		Shipping: ordering.Shipping{
			Address1: req.ShippingAddress1,
			Address2: req.ShippingAddress2,
			City:     req.City,
			Zip:      req.Zip,
			Country:  req.Country,
			Phone:    req.Phone,
		},
		Status: req.Status,
		Lines:  make([]ordering.Line, len(req.OrderItems)),
	}
	for i, item := range req.OrderItems {
		in.Lines[i] = ordering.Line{ProductID: item.Product, Quantity: item.Quantity}
	}

	order, err := g.svc.Workflow.CreateOrder(c.Request.Context(), in)
	g.observeOrder("create", err)
	if err != nil {
		g.fail(c, err, "Failed to create order")
		return
	}
	c.JSON(http.StatusOK, order)
}

func (g *Gateway) deleteOrder(c *gin.Context) {
	_, err := g.svc.Workflow.DeleteOrder(c.Request.Context(), c.Param("id"))
	g.observeOrder("delete", err)

	// The order itself is gone, so a partial cascade still answers 200 but
	// reports the leftover line items as a failure.
	var oe *ordering.Error
	if errors.As(err, &oe) && oe.Kind == ordering.KindCascade {
		c.JSON(http.StatusOK, response{Success: false, Message: oe.Msg, Failed: oe.Failed})
		return
	}
	if err != nil {
		g.fail(c, err, "Failed to delete order "+c.Param("id"))
		return
	}
	c.JSON(http.StatusOK, sendResponse(true, "The order is deleted"))
}

func (g *Gateway) listOrders(c *gin.Context) {
	orders, err := g.svc.Orders.ListOrders(c.Request.Context())
	if err != nil {
		g.fail(c, err, "Failed to get all orders")
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (g *Gateway) getOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	order, err := g.svc.Orders.GetOrderDetail(c.Request.Context(), id)
	if err != nil {
		g.fail(c, err, "Failed to get order "+id.Hex())
		return
	}
	c.JSON(http.StatusOK, order)
}

func (g *Gateway) userOrders(c *gin.Context) {
	id, ok := pathID(c, "userid")
	if !ok {
		return
	}
	orders, err := g.svc.Orders.UserOrders(c.Request.Context(), id)
	if err != nil {
		g.fail(c, err, "Failed to get orders of user "+id.Hex())
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (g *Gateway) orderHistory(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	logs, err := g.svc.Audit.GetAuditLogs(c.Request.Context(), id.Hex(), queryInt(c, "limit", 50))
	if err != nil {
		g.fail(c, err, "Failed to get history of order "+id.Hex())
		return
	}
	c.JSON(http.StatusOK, logs)
}

func (g *Gateway) updateOrderStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req orderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	order, err := g.svc.Orders.UpdateOrderStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		g.fail(c, err, "Failed to update order status")
		return
	}
	c.JSON(http.StatusOK, order)
}

func (g *Gateway) countOrders(c *gin.Context) {
	n, err := g.svc.Orders.CountOrders(c.Request.Context())
	if err != nil {
		g.fail(c, err, "Failed to count orders")
		return
	}
	c.JSON(http.StatusOK, gin.H{"orderCount": n})
}

func (g *Gateway) totalSales(c *gin.Context) {
	total, err := g.svc.Workflow.TotalSales(c.Request.Context())
	if err != nil {
		g.fail(c, err, "The order sales cannot be generated")
		return
	}
	c.JSON(http.StatusOK, gin.H{"totalsales": total})
}

func (g *Gateway) observeOrder(operation string, err error) {
	if g.svc.Metrics == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = ordering.KindOf(err).String()
	}
	g.svc.Metrics.ObserveOrder(operation, result)
}
