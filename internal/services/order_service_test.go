// internal/services/order_service_test.go
package services

import (
	"errors"

	"github.com/javajoker/b2b-marketplace/internal/events"
	"github.com/javajoker/b2b-marketplace/internal/models"
	"github.com/javajoker/b2b-marketplace/internal/testutil"
	"github.com/javajoker/b2b-marketplace/internal/utils"
)

func (suite *ServicesTestSuite) placeOrder(qty int) (*models.Order, *models.Product) {
	p1 := testutil.CreateProduct(suite.T(), suite.store, suite.supplier.ID, "P1", "100", 5)
	testutil.AddToCart(suite.T(), suite.store, suite.buyer.ID, p1.ID, qty)

	order, err := suite.checkout.Checkout(suite.ctx, suite.buyer.ID, checkoutRequest(), "")
	suite.Require().NoError(err)
	return order, p1
}

func (suite *ServicesTestSuite) TestCanTransition() {
	suite.True(CanTransition(models.OrderStatusPending, models.OrderStatusProcessing))
	suite.True(CanTransition(models.OrderStatusPending, models.OrderStatusCancelled))
	suite.True(CanTransition(models.OrderStatusProcessing, models.OrderStatusCompleted))
	suite.True(CanTransition(models.OrderStatusProcessing, models.OrderStatusCancelled))

	suite.False(CanTransition(models.OrderStatusPending, models.OrderStatusCompleted))
	suite.False(CanTransition(models.OrderStatusPending, models.OrderStatusPending))
	suite.False(CanTransition(models.OrderStatusCompleted, models.OrderStatusCancelled))
	suite.False(CanTransition(models.OrderStatusCancelled, models.OrderStatusProcessing))
}

func (suite *ServicesTestSuite) TestSupplierAdvancesOrder() {
	order, _ := suite.placeOrder(2)
	supplier := suite.actor(suite.supplier)

	updated, err := suite.orders.UpdateStatus(suite.ctx, supplier, order.ID, &UpdateOrderStatusRequest{Status: models.OrderStatusProcessing})
	suite.Require().NoError(err)
	suite.Equal(models.OrderStatusProcessing, updated.Status)

	updated, err = suite.orders.UpdateStatus(suite.ctx, supplier, order.ID, &UpdateOrderStatusRequest{Status: models.OrderStatusCompleted})
	suite.Require().NoError(err)
	suite.Equal(models.OrderStatusCompleted, updated.Status)
	suite.NotNil(updated.CompletedAt)

	_, err = suite.orders.UpdateStatus(suite.ctx, supplier, order.ID, &UpdateOrderStatusRequest{Status: models.OrderStatusCancelled})
	var terr *InvalidTransitionError
	suite.Require().True(errors.As(err, &terr))
	suite.Equal(models.OrderStatusCompleted, terr.From)

	suite.Equal([]string{
		events.EventOrderCreated,
		events.EventOrderStatusChanged,
		events.EventOrderStatusChanged,
	}, suite.publisher.Types())

	count, err := suite.store.Notifications().CountUnread(suite.ctx, suite.buyer.ID)
	suite.Require().NoError(err)
	suite.Equal(int64(2), count)
}

func (suite *ServicesTestSuite) TestIllegalTransitionRejected() {
	order, _ := suite.placeOrder(1)

	_, err := suite.orders.UpdateStatus(suite.ctx, suite.actor(suite.admin), order.ID, &UpdateOrderStatusRequest{Status: models.OrderStatusCompleted})
	var terr *InvalidTransitionError
	suite.True(errors.As(err, &terr))

	_, err = suite.orders.UpdateStatus(suite.ctx, suite.actor(suite.admin), order.ID, &UpdateOrderStatusRequest{Status: "shipped"})
	var verr *ValidationError
	suite.True(errors.As(err, &verr))
}

func (suite *ServicesTestSuite) TestBuyerCancelRestocks() {
	order, p1 := suite.placeOrder(2)
	suite.Equal(3, suite.stockOf(p1))

	cancelled, err := suite.orders.Cancel(suite.ctx, suite.actor(suite.buyer), order.ID)
	suite.Require().NoError(err)
	suite.Equal(models.OrderStatusCancelled, cancelled.Status)
	suite.NotNil(cancelled.CancelledAt)
	suite.Equal(5, suite.stockOf(p1))
}

func (suite *ServicesTestSuite) TestBuyerPermissions() {
	order, _ := suite.placeOrder(1)
	buyer := suite.actor(suite.buyer)

	_, err := suite.orders.UpdateStatus(suite.ctx, buyer, order.ID, &UpdateOrderStatusRequest{Status: models.OrderStatusProcessing})
	suite.ErrorIs(err, ErrForbidden)

	_, err = suite.orders.UpdateStatus(suite.ctx, suite.actor(suite.supplier), order.ID, &UpdateOrderStatusRequest{Status: models.OrderStatusProcessing})
	suite.Require().NoError(err)

	// Only pending orders can be cancelled by the buyer.
	_, err = suite.orders.Cancel(suite.ctx, buyer, order.ID)
	var terr *InvalidTransitionError
	suite.True(errors.As(err, &terr))

	stranger := testutil.CreateUser(suite.T(), suite.store, models.RoleBuyer, "stranger@example.com")
	_, err = suite.orders.Cancel(suite.ctx, suite.actor(stranger), order.ID)
	suite.ErrorIs(err, ErrForbidden)
}

func (suite *ServicesTestSuite) TestGetOrderVisibility() {
	order, _ := suite.placeOrder(1)

	for _, user := range []*models.User{suite.buyer, suite.supplier, suite.admin} {
		got, err := suite.orders.GetOrder(suite.ctx, suite.actor(user), order.ID)
		suite.Require().NoError(err)
		suite.Equal(order.ID, got.ID)
	}

	other := testutil.CreateUser(suite.T(), suite.store, models.RoleSupplier, "other@example.com")
	_, err := suite.orders.GetOrder(suite.ctx, suite.actor(other), order.ID)
	suite.ErrorIs(err, ErrForbidden)
}

func (suite *ServicesTestSuite) TestListOrders() {
	order, _ := suite.placeOrder(1)
	params := utils.NewPaginationParams(1, 10, "", "")

	mine, err := suite.orders.ListMine(suite.ctx, suite.actor(suite.buyer), OrderListRequest{Pagination: params})
	suite.Require().NoError(err)
	suite.Equal(int64(1), mine.Total)

	forSupplier, err := suite.orders.ListForSupplier(suite.ctx, suite.actor(suite.supplier), OrderListRequest{Pagination: params})
	suite.Require().NoError(err)
	suite.Require().Equal(int64(1), forSupplier.Total)
	suite.Equal(order.ID, forSupplier.Data.([]models.Order)[0].ID)

	_, err = suite.orders.ListForSupplier(suite.ctx, suite.actor(suite.buyer), OrderListRequest{Pagination: params})
	suite.ErrorIs(err, ErrForbidden)

	pending, err := suite.orders.ListMine(suite.ctx, suite.actor(suite.buyer), OrderListRequest{Status: models.OrderStatusCompleted, Pagination: params})
	suite.Require().NoError(err)
	suite.Equal(int64(0), pending.Total)
}
