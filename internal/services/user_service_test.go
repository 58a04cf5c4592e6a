// internal/services/user_service_test.go
package services

import (
	"github.com/google/uuid"

	"github.com/javajoker/b2b-marketplace/internal/models"
)

func (suite *ServicesTestSuite) TestUpdateProfile() {
	name := "  Renamed Buyer "
	updated, err := suite.users.UpdateProfile(suite.ctx, suite.buyer.ID, &UpdateUserProfileRequest{
		Name:    &name,
		Company: &models.Company{Name: "Renamed Co", TaxID: "12345678"},
	})
	suite.Require().NoError(err)
	suite.Equal("Renamed Buyer", updated.Name)
	suite.Equal("12345678", updated.Company.TaxID)
	suite.Equal(suite.buyer.PasswordHash, updated.PasswordHash)
}

func (suite *ServicesTestSuite) TestUpdateProfilePassword() {
	_, err := suite.users.UpdateProfile(suite.ctx, suite.buyer.ID, &UpdateUserProfileRequest{
		CurrentPassword: "wrong",
		NewPassword:     "N3w!Password",
	})
	suite.ErrorIs(err, ErrCurrentPassword)

	updated, err := suite.users.UpdateProfile(suite.ctx, suite.buyer.ID, &UpdateUserProfileRequest{
		CurrentPassword: "Password1!",
		NewPassword:     "N3w!Password",
	})
	suite.Require().NoError(err)
	suite.NoError(updated.CheckPassword("N3w!Password"))
}

func (suite *ServicesTestSuite) TestUpdateProfileSamePasswordIsNoop() {
	updated, err := suite.users.UpdateProfile(suite.ctx, suite.buyer.ID, &UpdateUserProfileRequest{
		NewPassword: "Password1!",
	})
	suite.Require().NoError(err)
	suite.Equal(suite.buyer.PasswordHash, updated.PasswordHash)
}

func (suite *ServicesTestSuite) TestGetPublicProfile() {
	profile, err := suite.users.GetPublicProfile(suite.ctx, suite.supplier.ID)
	suite.Require().NoError(err)
	suite.Equal(suite.supplier.Name, profile.Name)
	suite.Equal(models.RoleSupplier, profile.Role)

	_, err = suite.users.GetPublicProfile(suite.ctx, uuid.New())
	suite.ErrorIs(err, ErrUserNotFound)
}
