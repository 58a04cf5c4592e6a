// internal/services/checkout_service_test.go
package services

import (
	"context"
	"errors"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/javajoker/b2b-marketplace/internal/cache"
	"github.com/javajoker/b2b-marketplace/internal/events"
	"github.com/javajoker/b2b-marketplace/internal/models"
	"github.com/javajoker/b2b-marketplace/internal/repository"
	"github.com/javajoker/b2b-marketplace/internal/testutil"
)

func checkoutRequest() *CheckoutRequest {
	return &CheckoutRequest{
		PaymentMethod: models.PaymentMethodBankTransfer,
		ShippingAddress: models.ShippingAddress{
			Street:     "1 Harbour Road",
			City:       "Taipei",
			PostalCode: "100",
			Country:    "TW",
		},
	}
}

func (suite *ServicesTestSuite) TestCheckoutPlacesOrder() {
	p1 := testutil.CreateProduct(suite.T(), suite.store, suite.supplier.ID, "P1", "100", 5)
	testutil.AddToCart(suite.T(), suite.store, suite.buyer.ID, p1.ID, 2)

	order, err := suite.checkout.Checkout(suite.ctx, suite.buyer.ID, checkoutRequest(), "")
	suite.Require().NoError(err)

	suite.True(decimal.NewFromInt(200).Equal(order.TotalAmount))
	suite.Equal(models.OrderStatusPending, order.Status)
	suite.Equal(models.PaymentStatusPending, order.Payment.Status)
	suite.Require().Len(order.Items, 1)
	suite.Equal(p1.ID, order.Items[0].ProductID)
	suite.Equal(suite.supplier.ID, order.Items[0].SupplierID)
	suite.Equal(2, order.Items[0].Quantity)
	suite.True(decimal.NewFromInt(100).Equal(order.Items[0].Price))

	suite.Equal(3, suite.stockOf(p1))

	lines, err := suite.store.Carts().ListByUser(suite.ctx, suite.buyer.ID)
	suite.Require().NoError(err)
	suite.Empty(lines)

	suite.Equal([]string{events.EventOrderCreated}, suite.publisher.Types())

	notes, total, err := suite.store.Notifications().List(suite.ctx, repository.NotificationFilter{UserID: &suite.supplier.ID})
	suite.Require().NoError(err)
	suite.Equal(int64(1), total)
	suite.Equal(models.NotificationOrderPlaced, notes[0].Type)
	suite.Equal(order.ID, *notes[0].ResourceID)
}

func (suite *ServicesTestSuite) TestCheckoutInsufficientStockChangesNothing() {
	p1 := testutil.CreateProduct(suite.T(), suite.store, suite.supplier.ID, "P1", "100", 5)
	p2 := testutil.CreateProduct(suite.T(), suite.store, suite.supplier.ID, "P2", "10", 50)
	testutil.AddToCart(suite.T(), suite.store, suite.buyer.ID, p2.ID, 3)
	testutil.AddToCart(suite.T(), suite.store, suite.buyer.ID, p1.ID, 10)

	_, err := suite.checkout.Checkout(suite.ctx, suite.buyer.ID, checkoutRequest(), "")

	var stockErr *InsufficientStockError
	suite.Require().True(errors.As(err, &stockErr))
	suite.Equal(p1.ID, stockErr.ProductID)
	suite.Equal(10, stockErr.Requested)
	suite.Equal(5, stockErr.Available)

	// The earlier line's decrement rolled back with the rest.
	suite.Equal(5, suite.stockOf(p1))
	suite.Equal(50, suite.stockOf(p2))
	suite.Equal(int64(0), suite.countOrders())

	lines, err := suite.store.Carts().ListByUser(suite.ctx, suite.buyer.ID)
	suite.Require().NoError(err)
	suite.Len(lines, 2)
	suite.Empty(suite.publisher.Types())
}

func (suite *ServicesTestSuite) TestCheckoutEmptyCart() {
	_, err := suite.checkout.Checkout(suite.ctx, suite.buyer.ID, checkoutRequest(), "")
	suite.ErrorIs(err, ErrEmptyCart)
}

func (suite *ServicesTestSuite) TestCheckoutInactiveProduct() {
	p1 := testutil.CreateProduct(suite.T(), suite.store, suite.supplier.ID, "P1", "100", 5)
	testutil.AddToCart(suite.T(), suite.store, suite.buyer.ID, p1.ID, 1)

	inactive := models.ProductStatusInactive
	_, err := suite.store.Products().Update(suite.ctx, p1.ID, repository.ProductPatch{Status: &inactive})
	suite.Require().NoError(err)

	_, err = suite.checkout.Checkout(suite.ctx, suite.buyer.ID, checkoutRequest(), "")
	suite.ErrorIs(err, ErrProductNotFound)
	suite.Equal(int64(0), suite.countOrders())
}

func (suite *ServicesTestSuite) TestCheckoutValidation() {
	req := checkoutRequest()
	req.PaymentMethod = "barter"
	req.ShippingAddress.City = ""

	_, err := suite.checkout.Checkout(suite.ctx, suite.buyer.ID, req, "")
	var verr *ValidationError
	suite.True(errors.As(err, &verr))
}

func (suite *ServicesTestSuite) TestOrderTotalUnaffectedByLaterPriceChange() {
	p1 := testutil.CreateProduct(suite.T(), suite.store, suite.supplier.ID, "P1", "100", 5)
	testutil.AddToCart(suite.T(), suite.store, suite.buyer.ID, p1.ID, 2)

	order, err := suite.checkout.Checkout(suite.ctx, suite.buyer.ID, checkoutRequest(), "")
	suite.Require().NoError(err)

	newPrice := decimal.NewFromInt(150)
	_, err = suite.products.UpdateProduct(suite.ctx, suite.actor(suite.supplier), p1.ID, &UpdateProductRequest{Price: &newPrice})
	suite.Require().NoError(err)

	reloaded, err := suite.orders.GetOrder(suite.ctx, suite.actor(suite.buyer), order.ID)
	suite.Require().NoError(err)
	suite.True(decimal.NewFromInt(200).Equal(reloaded.TotalAmount))
	suite.True(decimal.NewFromInt(100).Equal(reloaded.Items[0].Price))
}

func (suite *ServicesTestSuite) TestCheckoutMultipleSuppliers() {
	other := testutil.CreateUser(suite.T(), suite.store, models.RoleSupplier, "other@example.com")
	p1 := testutil.CreateProduct(suite.T(), suite.store, suite.supplier.ID, "P1", "12.50", 10)
	p2 := testutil.CreateProduct(suite.T(), suite.store, other.ID, "P2", "3.25", 10)
	testutil.AddToCart(suite.T(), suite.store, suite.buyer.ID, p1.ID, 2)
	testutil.AddToCart(suite.T(), suite.store, suite.buyer.ID, p2.ID, 4)

	order, err := suite.checkout.Checkout(suite.ctx, suite.buyer.ID, checkoutRequest(), "")
	suite.Require().NoError(err)
	suite.Equal("38.00", order.TotalAmount.StringFixed(2))
	suite.ElementsMatch(order.SupplierIDs(), []uuid.UUID{suite.supplier.ID, other.ID})

	for _, supplierID := range order.SupplierIDs() {
		count, err := suite.store.Notifications().CountUnread(suite.ctx, supplierID)
		suite.Require().NoError(err)
		suite.Equal(int64(1), count)
	}
}

func (suite *ServicesTestSuite) TestCheckoutIdempotencyKeyReplaysOrder() {
	mr := miniredis.RunT(suite.T())
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	checkout := NewCheckoutService(suite.store, suite.notifications, suite.publisher, cache.NewRedisIdempotencyStore(client))

	p1 := testutil.CreateProduct(suite.T(), suite.store, suite.supplier.ID, "P1", "100", 5)
	testutil.AddToCart(suite.T(), suite.store, suite.buyer.ID, p1.ID, 2)

	first, err := checkout.Checkout(context.Background(), suite.buyer.ID, checkoutRequest(), "key-1")
	suite.Require().NoError(err)

	testutil.AddToCart(suite.T(), suite.store, suite.buyer.ID, p1.ID, 1)
	again, err := checkout.Checkout(context.Background(), suite.buyer.ID, checkoutRequest(), "key-1")
	suite.Require().NoError(err)

	suite.Equal(first.ID, again.ID)
	suite.Equal(int64(1), suite.countOrders())
	suite.Equal(3, suite.stockOf(p1))
}

// replayingPublisher re-submits the checkout once while the first order's
// event is being published.
type replayingPublisher struct {
	events.MemoryPublisher
	onPublish func()
}

func (p *replayingPublisher) Publish(ctx context.Context, key string, envelope *events.Envelope) error {
	if fn := p.onPublish; fn != nil {
		p.onPublish = nil
		fn()
	}
	return p.MemoryPublisher.Publish(ctx, key, envelope)
}

func (suite *ServicesTestSuite) TestCheckoutRetryDuringSideEffectsReplaysOrder() {
	mr := miniredis.RunT(suite.T())
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	publisher := &replayingPublisher{}
	checkout := NewCheckoutService(suite.store, suite.notifications, publisher, cache.NewRedisIdempotencyStore(client))

	p1 := testutil.CreateProduct(suite.T(), suite.store, suite.supplier.ID, "P1", "100", 5)
	testutil.AddToCart(suite.T(), suite.store, suite.buyer.ID, p1.ID, 2)

	var retried *models.Order
	var retryErr error
	publisher.onPublish = func() {
		retried, retryErr = checkout.Checkout(context.Background(), suite.buyer.ID, checkoutRequest(), "key-1")
	}

	first, err := checkout.Checkout(context.Background(), suite.buyer.ID, checkoutRequest(), "key-1")
	suite.Require().NoError(err)

	suite.Require().NoError(retryErr)
	suite.Require().NotNil(retried)
	suite.Equal(first.ID, retried.ID)
	suite.Equal(int64(1), suite.countOrders())
	suite.Equal(3, suite.stockOf(p1))
}

func (suite *ServicesTestSuite) TestCheckoutBelowMinimumOrderQuantity() {
	p1 := testutil.CreateProduct(suite.T(), suite.store, suite.supplier.ID, "Bulk bolts", "2.50", 100)
	testutil.AddToCart(suite.T(), suite.store, suite.buyer.ID, p1.ID, 3)

	minimum := 10
	_, err := suite.store.Products().Update(suite.ctx, p1.ID, repository.ProductPatch{MinOrderQuantity: &minimum})
	suite.Require().NoError(err)

	_, err = suite.checkout.Checkout(suite.ctx, suite.buyer.ID, checkoutRequest(), "")
	var minErr *BelowMinimumError
	suite.Require().True(errors.As(err, &minErr))
	suite.Equal(3, minErr.Requested)
	suite.Equal(10, minErr.Minimum)

	suite.Equal(100, suite.stockOf(p1))
	suite.Equal(int64(0), suite.countOrders())
}
