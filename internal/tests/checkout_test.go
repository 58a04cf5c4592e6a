// internal/tests/checkout_test.go
package tests

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/javajoker/b2b-marketplace/internal/events"
	"github.com/javajoker/b2b-marketplace/internal/models"
	"github.com/javajoker/b2b-marketplace/internal/testutil"
)

var testAddress = gin.H{
	"street":     "1 Dock Road",
	"city":       "Taipei",
	"postalCode": "100",
	"country":    "TW",
}

type marketplace struct {
	buyerToken    string
	supplierToken string
	buyer         *models.User
	supplier      *models.User
}

func (suite *APITestSuite) marketplace() marketplace {
	supplierToken, supplier := suite.register("supplier@example.com", models.RoleSupplier)
	buyerToken, buyer := suite.register("buyer@example.com", models.RoleBuyer)
	return marketplace{
		buyerToken:    buyerToken,
		supplierToken: supplierToken,
		buyer:         buyer,
		supplier:      supplier,
	}
}

func (suite *APITestSuite) createProduct(token, name, price string, stock int) models.Product {
	w, resp := suite.request(http.MethodPost, "/api/products", gin.H{
		"name":     name,
		"category": "industrial",
		"price":    price,
		"stock":    stock,
	}, token)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var out struct {
		Product models.Product `json:"product"`
	}
	suite.decode(resp.Data, &out)
	return out.Product
}

func (suite *APITestSuite) productStock(id uuid.UUID) int {
	product, err := suite.store.Products().Get(suite.T().Context(), id)
	suite.Require().NoError(err)
	return product.Stock
}

func (suite *APITestSuite) checkout(token string, headers ...string) (int, envelope) {
	w, resp := suite.request(http.MethodPost, "/api/cart/checkout", gin.H{
		"paymentMethod":   "bank_transfer",
		"shippingAddress": testAddress,
	}, token, headers...)
	return w.Code, resp
}

func (suite *APITestSuite) TestCheckoutPlacesOrder() {
	m := suite.marketplace()
	p1 := suite.createProduct(m.supplierToken, "Steel Bolt", "100", 5)

	w, _ := suite.request(http.MethodPost, "/api/cart/add", gin.H{"productId": p1.ID, "quantity": 2}, m.buyerToken)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	code, resp := suite.checkout(m.buyerToken)
	suite.Require().Equal(http.StatusCreated, code)

	var out struct {
		Order models.Order `json:"order"`
	}
	suite.decode(resp.Data, &out)
	order := out.Order
	suite.True(decimal.RequireFromString("200").Equal(order.TotalAmount))
	suite.Equal(models.OrderStatusPending, order.Status)
	suite.Equal(models.PaymentStatusPending, order.Payment.Status)
	suite.Require().Len(order.Items, 1)
	suite.Equal(p1.ID, order.Items[0].ProductID)
	suite.Equal(2, order.Items[0].Quantity)
	suite.True(decimal.RequireFromString("100").Equal(order.Items[0].Price))

	suite.Equal(3, suite.productStock(p1.ID))

	w, resp = suite.request(http.MethodGet, "/api/cart", nil, m.buyerToken)
	suite.Require().Equal(http.StatusOK, w.Code)
	var cart struct {
		Cart models.CartView `json:"cart"`
	}
	suite.decode(resp.Data, &cart)
	suite.Empty(cart.Cart.Items)

	suite.Contains(suite.publisher.Types(), events.EventOrderCreated)

	w, resp = suite.request(http.MethodGet, "/api/notifications/unread-count", nil, m.supplierToken)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.JSONEq(`{"count":1}`, string(resp.Data))
}

func (suite *APITestSuite) TestCheckoutInsufficientStockChangesNothing() {
	m := suite.marketplace()
	p1 := suite.createProduct(m.supplierToken, "Copper Wire", "100", 5)
	testutil.AddToCart(suite.T(), suite.store, m.buyer.ID, p1.ID, 10)

	code, resp := suite.checkout(m.buyerToken)
	suite.Equal(http.StatusBadRequest, code)
	suite.Equal("INSUFFICIENT_STOCK", resp.code())
	suite.Contains(string(resp.Error.Details), p1.ID.String())

	suite.Equal(5, suite.productStock(p1.ID))

	var orders int64
	suite.Require().NoError(suite.db.Model(&models.Order{}).Count(&orders).Error)
	suite.Zero(orders)

	lines, err := suite.store.Carts().ListByUser(suite.T().Context(), m.buyer.ID)
	suite.Require().NoError(err)
	suite.Len(lines, 1)
}

func (suite *APITestSuite) TestCheckoutEmptyCart() {
	m := suite.marketplace()

	code, resp := suite.checkout(m.buyerToken)
	suite.Equal(http.StatusBadRequest, code)
	suite.Equal("EMPTY_CART", resp.code())
}

func (suite *APITestSuite) TestCheckoutValidation() {
	m := suite.marketplace()

	w, resp := suite.request(http.MethodPost, "/api/cart/checkout", gin.H{
		"paymentMethod": "bitcoin",
	}, m.buyerToken)
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal("VALIDATION_ERROR", resp.code())
}

func (suite *APITestSuite) TestCartAddRejectsOverStock() {
	m := suite.marketplace()
	p1 := suite.createProduct(m.supplierToken, "Rivet", "2.50", 3)

	w, resp := suite.request(http.MethodPost, "/api/cart/add", gin.H{"productId": p1.ID, "quantity": 4}, m.buyerToken)
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal("INSUFFICIENT_STOCK", resp.code())

	w, _ = suite.request(http.MethodPost, "/api/cart/add", gin.H{"productId": uuid.New(), "quantity": 1}, m.buyerToken)
	suite.Equal(http.StatusNotFound, w.Code)

	w, _ = suite.request(http.MethodPut, "/api/cart/update/"+uuid.NewString(), gin.H{"quantity": 1}, m.buyerToken)
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *APITestSuite) TestCartAddRejectsBelowMinimum() {
	m := suite.marketplace()
	w, resp := suite.request(http.MethodPost, "/api/products", gin.H{
		"name":             "Cement bag",
		"category":         "industrial",
		"price":            "6.00",
		"stock":            200,
		"minOrderQuantity": 20,
	}, m.supplierToken)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var out struct {
		Product models.Product `json:"product"`
	}
	suite.decode(resp.Data, &out)

	w, resp = suite.request(http.MethodPost, "/api/cart/add", gin.H{"productId": out.Product.ID, "quantity": 5}, m.buyerToken)
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal("BELOW_MIN_ORDER_QUANTITY", resp.code())
	suite.Contains(resp.Message, "20")
}

func (suite *APITestSuite) TestCartLifecycle() {
	m := suite.marketplace()
	p1 := suite.createProduct(m.supplierToken, "Washer", "1.25", 100)
	p2 := suite.createProduct(m.supplierToken, "Nut", "0.75", 100)

	suite.request(http.MethodPost, "/api/cart/add", gin.H{"productId": p1.ID, "quantity": 4}, m.buyerToken)
	suite.request(http.MethodPost, "/api/cart/add", gin.H{"productId": p2.ID, "quantity": 2}, m.buyerToken)

	w, resp := suite.request(http.MethodPut, "/api/cart/update/"+p1.ID.String(), gin.H{"quantity": 8}, m.buyerToken)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var cart struct {
		Cart models.CartView `json:"cart"`
	}
	suite.decode(resp.Data, &cart)
	suite.Equal(10, cart.Cart.TotalItems)
	suite.True(decimal.RequireFromString("11.50").Equal(cart.Cart.Total))

	w, resp = suite.request(http.MethodDelete, "/api/cart/remove/"+p2.ID.String(), nil, m.buyerToken)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.decode(resp.Data, &cart)
	suite.Len(cart.Cart.Items, 1)

	w, _ = suite.request(http.MethodDelete, "/api/cart", nil, m.buyerToken)
	suite.Require().Equal(http.StatusOK, w.Code)

	w, resp = suite.request(http.MethodGet, "/api/cart", nil, m.buyerToken)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.decode(resp.Data, &cart)
	suite.Empty(cart.Cart.Items)
}

func (suite *APITestSuite) TestOrderLifecycle() {
	m := suite.marketplace()
	p1 := suite.createProduct(m.supplierToken, "Gear", "10", 10)
	testutil.AddToCart(suite.T(), suite.store, m.buyer.ID, p1.ID, 4)

	code, resp := suite.checkout(m.buyerToken)
	suite.Require().Equal(http.StatusCreated, code)
	var out struct {
		Order models.Order `json:"order"`
	}
	suite.decode(resp.Data, &out)
	orderPath := "/api/orders/" + out.Order.ID.String()

	w, _ := suite.request(http.MethodGet, orderPath, nil, m.supplierToken)
	suite.Equal(http.StatusOK, w.Code)

	stranger := testutil.CreateUser(suite.T(), suite.store, models.RoleBuyer, "stranger@example.com")
	w, resp = suite.request(http.MethodGet, orderPath, nil, suite.tokenFor(stranger))
	suite.Equal(http.StatusForbidden, w.Code)
	suite.Equal("FORBIDDEN", resp.code())

	w, resp = suite.request(http.MethodPut, orderPath+"/status", gin.H{"status": "processing"}, m.buyerToken)
	suite.Equal(http.StatusForbidden, w.Code)

	w, _ = suite.request(http.MethodPut, orderPath+"/status", gin.H{"status": "processing"}, m.supplierToken)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w, resp = suite.request(http.MethodPost, orderPath+"/cancel", nil, m.buyerToken)
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal("INVALID_STATUS_TRANSITION", resp.code())

	w, _ = suite.request(http.MethodPut, orderPath+"/status", gin.H{"status": "completed"}, m.supplierToken)
	suite.Require().Equal(http.StatusOK, w.Code)

	w, resp = suite.request(http.MethodPut, orderPath+"/status", gin.H{"status": "pending"}, m.supplierToken)
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal("INVALID_STATUS_TRANSITION", resp.code())

	suite.Contains(suite.publisher.Types(), events.EventOrderStatusChanged)

	w, resp = suite.request(http.MethodGet, "/api/orders?status=completed", nil, m.buyerToken)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Equal("1", w.Header().Get("X-Total-Count"))

	w, _ = suite.request(http.MethodGet, "/api/orders/supplier", nil, m.supplierToken)
	suite.Equal(http.StatusOK, w.Code)
	suite.Equal("1", w.Header().Get("X-Total-Count"))

	w, _ = suite.request(http.MethodGet, "/api/orders/supplier", nil, m.buyerToken)
	suite.Equal(http.StatusForbidden, w.Code)
}

func (suite *APITestSuite) TestBuyerCancelRestocks() {
	m := suite.marketplace()
	p1 := suite.createProduct(m.supplierToken, "Pulley", "7", 6)
	testutil.AddToCart(suite.T(), suite.store, m.buyer.ID, p1.ID, 5)

	code, resp := suite.checkout(m.buyerToken)
	suite.Require().Equal(http.StatusCreated, code)
	var out struct {
		Order models.Order `json:"order"`
	}
	suite.decode(resp.Data, &out)
	suite.Equal(1, suite.productStock(p1.ID))

	w, resp := suite.request(http.MethodPost, "/api/orders/"+out.Order.ID.String()+"/cancel", nil, m.buyerToken)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	suite.decode(resp.Data, &out)
	suite.Equal(models.OrderStatusCancelled, out.Order.Status)
	suite.Equal(6, suite.productStock(p1.ID))
}

func (suite *APITestSuite) TestIdempotentCheckout() {
	m := suite.marketplace()
	p1 := suite.createProduct(m.supplierToken, "Hinge", "3", 10)
	testutil.AddToCart(suite.T(), suite.store, m.buyer.ID, p1.ID, 2)

	// Without Redis the key is accepted but not enforced.
	code, _ := suite.checkout(m.buyerToken, "Idempotency-Key", "abc-123")
	suite.Require().Equal(http.StatusCreated, code)

	code, resp := suite.checkout(m.buyerToken, "Idempotency-Key", "abc-123")
	suite.Equal(http.StatusBadRequest, code)
	suite.Equal("EMPTY_CART", resp.code())
}

func (suite *APITestSuite) TestProductPermissionsAndVisibility() {
	m := suite.marketplace()

	w, resp := suite.request(http.MethodPost, "/api/products", gin.H{
		"name": "Nope", "category": "x", "price": "1", "stock": 1,
	}, m.buyerToken)
	suite.Equal(http.StatusForbidden, w.Code)
	suite.Equal("FORBIDDEN", resp.code())

	p1 := suite.createProduct(m.supplierToken, "Bearing", "12.5", 4)

	w, _ = suite.request(http.MethodPut, "/api/products/"+p1.ID.String(), gin.H{"status": "inactive"}, m.supplierToken)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w, _ = suite.request(http.MethodGet, "/api/products/"+p1.ID.String(), nil, "")
	suite.Equal(http.StatusNotFound, w.Code)
	w, _ = suite.request(http.MethodGet, "/api/products/"+p1.ID.String(), nil, m.supplierToken)
	suite.Equal(http.StatusOK, w.Code)

	w, _ = suite.request(http.MethodGet, "/api/products", nil, "")
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Equal("0", w.Header().Get("X-Total-Count"))

	w, _ = suite.request(http.MethodGet, "/api/products/mine", nil, m.supplierToken)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Equal("1", w.Header().Get("X-Total-Count"))

	w, resp = suite.request(http.MethodPut, "/api/products/"+p1.ID.String(), gin.H{"stock": 9, "version": 0}, m.supplierToken)
	suite.Equal(http.StatusConflict, w.Code)
	suite.Equal("CONFLICT", resp.code())

	w, _ = suite.request(http.MethodGet, "/api/products?minPrice=abc", nil, "")
	suite.Equal(http.StatusBadRequest, w.Code)

	w, _ = suite.request(http.MethodDelete, "/api/products/"+p1.ID.String(), nil, m.supplierToken)
	suite.Equal(http.StatusOK, w.Code)
	w, _ = suite.request(http.MethodGet, "/api/products/"+p1.ID.String(), nil, m.supplierToken)
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *APITestSuite) TestMessagingAndNotifications() {
	m := suite.marketplace()

	w, resp := suite.request(http.MethodPost, "/api/messages", gin.H{
		"recipientId": m.supplier.ID,
		"body":        "Can you ship 500 units by Friday?",
	}, m.buyerToken)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var sent struct {
		Message models.Message `json:"message"`
	}
	suite.decode(resp.Data, &sent)

	w, _ = suite.request(http.MethodPost, "/api/messages", gin.H{
		"recipientId": m.buyer.ID,
		"body":        "talking to myself",
	}, m.buyerToken)
	suite.Equal(http.StatusBadRequest, w.Code)

	w, resp = suite.request(http.MethodGet, "/api/messages/unread-count", nil, m.supplierToken)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.JSONEq(`{"count":1}`, string(resp.Data))

	w, resp = suite.request(http.MethodGet, "/api/messages/conversations", nil, m.supplierToken)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Contains(string(resp.Data), m.buyer.ID.String())

	w, _ = suite.request(http.MethodGet, "/api/messages?with="+m.buyer.ID.String(), nil, m.supplierToken)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Equal("1", w.Header().Get("X-Total-Count"))

	w, _ = suite.request(http.MethodGet, "/api/messages?since=yesterday", nil, m.supplierToken)
	suite.Equal(http.StatusBadRequest, w.Code)

	messagePath := "/api/messages/" + sent.Message.ID.String() + "/read"
	w, _ = suite.request(http.MethodPut, messagePath, nil, m.buyerToken)
	suite.Equal(http.StatusForbidden, w.Code)
	w, _ = suite.request(http.MethodPut, messagePath, nil, m.supplierToken)
	suite.Equal(http.StatusOK, w.Code)

	w, resp = suite.request(http.MethodGet, "/api/notifications?unread=true", nil, m.supplierToken)
	suite.Require().Equal(http.StatusOK, w.Code)
	var notifications []models.Notification
	suite.decode(resp.Data, &notifications)
	suite.Require().Len(notifications, 1)

	w, _ = suite.request(http.MethodPut, "/api/notifications/"+notifications[0].ID.String()+"/read", nil, m.buyerToken)
	suite.Equal(http.StatusNotFound, w.Code)

	w, _ = suite.request(http.MethodPut, "/api/notifications/read-all", nil, m.supplierToken)
	suite.Require().Equal(http.StatusOK, w.Code)

	w, resp = suite.request(http.MethodGet, "/api/notifications/unread-count", nil, m.supplierToken)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.JSONEq(`{"count":0}`, string(resp.Data))
}
