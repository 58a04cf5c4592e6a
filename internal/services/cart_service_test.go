// internal/services/cart_service_test.go
package services

import (
	"errors"

	"github.com/google/uuid"

	"github.com/javajoker/b2b-marketplace/internal/repository"
	"github.com/javajoker/b2b-marketplace/internal/testutil"
)

func (suite *ServicesTestSuite) TestAddItemMergesLines() {
	p1 := testutil.CreateProduct(suite.T(), suite.store, suite.supplier.ID, "P1", "19.99", 10)

	_, err := suite.carts.AddItem(suite.ctx, suite.buyer.ID, &AddToCartRequest{ProductID: p1.ID, Quantity: 2})
	suite.Require().NoError(err)
	view, err := suite.carts.AddItem(suite.ctx, suite.buyer.ID, &AddToCartRequest{ProductID: p1.ID, Quantity: 3})
	suite.Require().NoError(err)

	suite.Require().Len(view.Items, 1)
	suite.Equal(5, view.Items[0].Quantity)
	suite.Equal(5, view.TotalItems)
	suite.Equal("99.95", view.Total.StringFixed(2))
	suite.True(view.Items[0].Available)
	suite.Equal("P1", view.Items[0].Product.Name)
}

func (suite *ServicesTestSuite) TestAddItemRejectsOverStock() {
	p1 := testutil.CreateProduct(suite.T(), suite.store, suite.supplier.ID, "P1", "10", 4)
	testutil.AddToCart(suite.T(), suite.store, suite.buyer.ID, p1.ID, 3)

	_, err := suite.carts.AddItem(suite.ctx, suite.buyer.ID, &AddToCartRequest{ProductID: p1.ID, Quantity: 2})
	var stockErr *InsufficientStockError
	suite.Require().True(errors.As(err, &stockErr))
	suite.Equal(5, stockErr.Requested)
	suite.Equal(4, stockErr.Available)

	line, err := suite.store.Carts().GetLine(suite.ctx, suite.buyer.ID, p1.ID)
	suite.Require().NoError(err)
	suite.Equal(3, line.Quantity)
}

func (suite *ServicesTestSuite) TestCartEnforcesMinimumOrderQuantity() {
	p1 := testutil.CreateProduct(suite.T(), suite.store, suite.supplier.ID, "Pallet wrap", "8.00", 50)
	minimum := 5
	_, err := suite.store.Products().Update(suite.ctx, p1.ID, repository.ProductPatch{MinOrderQuantity: &minimum})
	suite.Require().NoError(err)

	_, err = suite.carts.AddItem(suite.ctx, suite.buyer.ID, &AddToCartRequest{ProductID: p1.ID, Quantity: 4})
	var minErr *BelowMinimumError
	suite.Require().True(errors.As(err, &minErr))
	suite.Equal(4, minErr.Requested)
	suite.Equal(5, minErr.Minimum)

	view, err := suite.carts.AddItem(suite.ctx, suite.buyer.ID, &AddToCartRequest{ProductID: p1.ID, Quantity: 5})
	suite.Require().NoError(err)
	suite.Equal(5, view.TotalItems)

	_, err = suite.carts.UpdateItem(suite.ctx, suite.buyer.ID, p1.ID, &UpdateCartItemRequest{Quantity: 2})
	suite.Require().True(errors.As(err, &minErr))

	line, err := suite.store.Carts().GetLine(suite.ctx, suite.buyer.ID, p1.ID)
	suite.Require().NoError(err)
	suite.Equal(5, line.Quantity)
}

func (suite *ServicesTestSuite) TestAddItemUnknownProduct() {
	_, err := suite.carts.AddItem(suite.ctx, suite.buyer.ID, &AddToCartRequest{ProductID: uuid.New(), Quantity: 1})
	suite.ErrorIs(err, ErrProductNotFound)

	_, err = suite.carts.AddItem(suite.ctx, suite.buyer.ID, &AddToCartRequest{ProductID: uuid.New(), Quantity: 0})
	var verr *ValidationError
	suite.True(errors.As(err, &verr))
}

func (suite *ServicesTestSuite) TestUpdateAndRemoveItem() {
	p1 := testutil.CreateProduct(suite.T(), suite.store, suite.supplier.ID, "P1", "10", 4)
	testutil.AddToCart(suite.T(), suite.store, suite.buyer.ID, p1.ID, 1)

	view, err := suite.carts.UpdateItem(suite.ctx, suite.buyer.ID, p1.ID, &UpdateCartItemRequest{Quantity: 4})
	suite.Require().NoError(err)
	suite.Equal(4, view.Items[0].Quantity)

	_, err = suite.carts.UpdateItem(suite.ctx, suite.buyer.ID, p1.ID, &UpdateCartItemRequest{Quantity: 5})
	var stockErr *InsufficientStockError
	suite.True(errors.As(err, &stockErr))

	_, err = suite.carts.UpdateItem(suite.ctx, suite.buyer.ID, uuid.New(), &UpdateCartItemRequest{Quantity: 1})
	suite.ErrorIs(err, ErrCartLineNotFound)

	view, err = suite.carts.RemoveItem(suite.ctx, suite.buyer.ID, p1.ID)
	suite.Require().NoError(err)
	suite.Empty(view.Items)

	_, err = suite.carts.RemoveItem(suite.ctx, suite.buyer.ID, p1.ID)
	suite.ErrorIs(err, ErrCartLineNotFound)
}

func (suite *ServicesTestSuite) TestGetCartMarksVanishedProducts() {
	p1 := testutil.CreateProduct(suite.T(), suite.store, suite.supplier.ID, "P1", "10", 4)
	p2 := testutil.CreateProduct(suite.T(), suite.store, suite.supplier.ID, "P2", "7", 4)
	testutil.AddToCart(suite.T(), suite.store, suite.buyer.ID, p1.ID, 1)
	testutil.AddToCart(suite.T(), suite.store, suite.buyer.ID, p2.ID, 2)

	suite.Require().NoError(suite.store.Products().Delete(suite.ctx, p1.ID))

	view, err := suite.carts.GetCart(suite.ctx, suite.buyer.ID)
	suite.Require().NoError(err)
	suite.Len(view.Items, 2)
	suite.Equal(2, view.TotalItems)
	suite.Equal("14.00", view.Total.StringFixed(2))

	for _, item := range view.Items {
		if item.ProductID == p1.ID {
			suite.False(item.Available)
			suite.Nil(item.Product)
		} else {
			suite.True(item.Available)
		}
	}
}

func (suite *ServicesTestSuite) TestClearCart() {
	p1 := testutil.CreateProduct(suite.T(), suite.store, suite.supplier.ID, "P1", "10", 4)
	testutil.AddToCart(suite.T(), suite.store, suite.buyer.ID, p1.ID, 1)

	suite.Require().NoError(suite.carts.Clear(suite.ctx, suite.buyer.ID))
	view, err := suite.carts.GetCart(suite.ctx, suite.buyer.ID)
	suite.Require().NoError(err)
	suite.Empty(view.Items)
	suite.True(view.Total.IsZero())
}
