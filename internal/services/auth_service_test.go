// internal/services/auth_service_test.go
package services

import (
	"errors"
	"regexp"
	"time"

	"github.com/javajoker/b2b-marketplace/internal/models"
	"github.com/javajoker/b2b-marketplace/internal/repository"
	"github.com/javajoker/b2b-marketplace/internal/utils"
)

func (suite *ServicesTestSuite) register(email string) (*AuthResponse, error) {
	return suite.auth.Register(suite.ctx, &RegisterRequest{
		Name:     "New Buyer",
		Email:    email,
		Password: "Str0ng!Pass",
		Role:     models.RoleBuyer,
		Company:  models.Company{Name: "Buyer Co"},
	})
}

func (suite *ServicesTestSuite) TestRegisterIssuesTokens() {
	resp, err := suite.register("  New.Buyer@Example.COM ")
	suite.Require().NoError(err)

	suite.Equal("new.buyer@example.com", resp.User.Email)
	suite.Equal("Bearer", resp.TokenType)
	suite.Equal(24*3600, resp.ExpiresIn)

	claims, err := utils.ValidateToken(resp.AccessToken, utils.PurposeAccess)
	suite.Require().NoError(err)
	suite.Equal(resp.User.ID.String(), claims.UserID)
	suite.Equal("buyer", claims.Role)

	_, err = utils.ValidateToken(resp.RefreshToken, utils.PurposeRefresh)
	suite.NoError(err)
}

func (suite *ServicesTestSuite) TestRegisterDuplicateEmailIsCaseInsensitive() {
	_, err := suite.register("dup@example.com")
	suite.Require().NoError(err)

	_, err = suite.register("DUP@Example.com")
	suite.ErrorIs(err, ErrEmailTaken)

	users, total, err := suite.store.Users().List(suite.ctx, repository.UserFilter{Search: "dup@"})
	suite.Require().NoError(err)
	suite.Equal(int64(1), total)
	suite.Len(users, 1)
}

func (suite *ServicesTestSuite) TestRegisterValidation() {
	_, err := suite.auth.Register(suite.ctx, &RegisterRequest{
		Name:     "X",
		Email:    "not-an-email",
		Password: "weak",
		Role:     models.RoleAdmin,
	})

	var verr *ValidationError
	suite.Require().True(errors.As(err, &verr))
	fields := map[string]bool{}
	for _, e := range utils.GetValidationErrors(verr.Err) {
		fields[e.Field] = true
	}
	suite.True(fields["email"])
	suite.True(fields["password"])
	suite.True(fields["role"])
}

func (suite *ServicesTestSuite) TestLogin() {
	resp, err := suite.auth.Login(suite.ctx, &LoginRequest{Email: "BUYER@example.com", Password: "Password1!"})
	suite.Require().NoError(err)
	suite.Equal(suite.buyer.ID, resp.User.ID)
	suite.NotNil(resp.User.LastLoginAt)

	_, err = suite.auth.Login(suite.ctx, &LoginRequest{Email: "buyer@example.com", Password: "wrong"})
	suite.ErrorIs(err, ErrInvalidCredentials)

	_, err = suite.auth.Login(suite.ctx, &LoginRequest{Email: "nobody@example.com", Password: "Password1!"})
	suite.ErrorIs(err, ErrInvalidCredentials)
}

func (suite *ServicesTestSuite) TestLoginSuspended() {
	suspended := models.UserStatusSuspended
	_, err := suite.store.Users().Update(suite.ctx, suite.buyer.ID, repository.UserPatch{Status: &suspended})
	suite.Require().NoError(err)

	_, err = suite.auth.Login(suite.ctx, &LoginRequest{Email: "buyer@example.com", Password: "Password1!"})
	suite.ErrorIs(err, ErrAccountSuspended)
}

func (suite *ServicesTestSuite) TestRefreshToken() {
	login, err := suite.auth.Login(suite.ctx, &LoginRequest{Email: "buyer@example.com", Password: "Password1!"})
	suite.Require().NoError(err)

	resp, err := suite.auth.RefreshToken(suite.ctx, &RefreshRequest{RefreshToken: login.RefreshToken})
	suite.Require().NoError(err)
	suite.Equal(suite.buyer.ID, resp.User.ID)

	// An access token is not a refresh token.
	_, err = suite.auth.RefreshToken(suite.ctx, &RefreshRequest{RefreshToken: login.AccessToken})
	suite.ErrorIs(err, ErrInvalidRefreshToken)
}

var resetTokenPattern = regexp.MustCompile(`token=([A-Za-z0-9\-_.]+)`)

func (suite *ServicesTestSuite) TestForgotAndResetPassword() {
	suite.Require().NoError(suite.auth.ForgotPassword(suite.ctx, &ForgotPasswordRequest{Email: "Buyer@Example.com"}))

	mail, ok := suite.mailer.Last()
	suite.Require().True(ok)
	suite.Equal("buyer@example.com", mail.To)
	match := resetTokenPattern.FindStringSubmatch(mail.Body)
	suite.Require().Len(match, 2)
	token := match[1]

	suite.Require().NoError(suite.auth.ResetPassword(suite.ctx, &ResetPasswordRequest{Token: token, NewPassword: "N3w!Password"}))

	_, err := suite.auth.Login(suite.ctx, &LoginRequest{Email: "buyer@example.com", Password: "N3w!Password"})
	suite.NoError(err)

	// Single use.
	err = suite.auth.ResetPassword(suite.ctx, &ResetPasswordRequest{Token: token, NewPassword: "An0ther!Pass"})
	suite.ErrorIs(err, ErrInvalidResetToken)
}

func (suite *ServicesTestSuite) TestForgotPasswordUnknownEmail() {
	suite.NoError(suite.auth.ForgotPassword(suite.ctx, &ForgotPasswordRequest{Email: "ghost@example.com"}))
	_, sent := suite.mailer.Last()
	suite.False(sent)
}

func (suite *ServicesTestSuite) TestResetPasswordRejectsWrongPurpose() {
	access, err := utils.GenerateJWT(suite.buyer.ID, suite.buyer.Email, "buyer", 1)
	suite.Require().NoError(err)

	err = suite.auth.ResetPassword(suite.ctx, &ResetPasswordRequest{Token: access, NewPassword: "N3w!Password"})
	suite.ErrorIs(err, ErrInvalidResetToken)
}

func (suite *ServicesTestSuite) TestResetPasswordRejectsExpiredToken() {
	expired, err := utils.GenerateToken(suite.buyer.ID, suite.buyer.Email, "", utils.PurposeReset, -time.Minute)
	suite.Require().NoError(err)

	err = suite.auth.ResetPassword(suite.ctx, &ResetPasswordRequest{Token: expired, NewPassword: "N3w!Password"})
	suite.ErrorIs(err, ErrResetTokenExpired)
}

func (suite *ServicesTestSuite) TestResetPasswordRejectsExpiredRecord() {
	token, err := suite.auth.issueResetToken(suite.ctx, suite.buyer)
	suite.Require().NoError(err)

	past := time.Now().Add(-time.Minute)
	_, err = suite.store.Users().Update(suite.ctx, suite.buyer.ID, repository.UserPatch{
		ResetToken: &models.ResetToken{TokenHash: utils.HashString(token), ExpiresAt: &past},
	})
	suite.Require().NoError(err)

	err = suite.auth.ResetPassword(suite.ctx, &ResetPasswordRequest{Token: token, NewPassword: "N3w!Password"})
	suite.ErrorIs(err, ErrResetTokenExpired)
}

func (suite *ServicesTestSuite) TestResetPasswordOnlyLatestTokenValid() {
	first, err := suite.auth.issueResetToken(suite.ctx, suite.buyer)
	suite.Require().NoError(err)
	_, err = suite.auth.issueResetToken(suite.ctx, suite.buyer)
	suite.Require().NoError(err)

	err = suite.auth.ResetPassword(suite.ctx, &ResetPasswordRequest{Token: first, NewPassword: "N3w!Password"})
	suite.ErrorIs(err, ErrInvalidResetToken)
}
