// internal/services/message_service_test.go
package services

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/javajoker/b2b-marketplace/internal/models"
	"github.com/javajoker/b2b-marketplace/internal/repository"
	"github.com/javajoker/b2b-marketplace/internal/testutil"
	"github.com/javajoker/b2b-marketplace/internal/utils"
)

func (suite *ServicesTestSuite) send(from, to *models.User, body string) *models.Message {
	message, err := suite.messages.Send(suite.ctx, suite.actor(from), &SendMessageRequest{RecipientID: to.ID, Body: body})
	suite.Require().NoError(err)
	return message
}

func (suite *ServicesTestSuite) TestSendMessageNotifiesRecipient() {
	message := suite.send(suite.buyer, suite.supplier, "Can you ship 10k units by May?")
	suite.Equal(suite.supplier.ID, message.RecipientID)

	notes, _, err := suite.store.Notifications().List(suite.ctx, repository.NotificationFilter{UserID: &suite.supplier.ID})
	suite.Require().NoError(err)
	suite.Require().Len(notes, 1)
	suite.Equal(models.NotificationNewMessage, notes[0].Type)
	suite.Contains(notes[0].Title, suite.buyer.Name)
}

func (suite *ServicesTestSuite) TestSendMessageInvalidRecipient() {
	_, err := suite.messages.Send(suite.ctx, suite.actor(suite.buyer), &SendMessageRequest{RecipientID: suite.buyer.ID, Body: "hi me"})
	suite.ErrorIs(err, ErrInvalidRecipient)

	_, err = suite.messages.Send(suite.ctx, suite.actor(suite.buyer), &SendMessageRequest{RecipientID: uuid.New(), Body: "hello?"})
	suite.ErrorIs(err, ErrInvalidRecipient)

	productID := uuid.New()
	_, err = suite.messages.Send(suite.ctx, suite.actor(suite.buyer), &SendMessageRequest{
		RecipientID: suite.supplier.ID, Body: "about this", ProductID: &productID,
	})
	suite.ErrorIs(err, ErrProductNotFound)
}

func (suite *ServicesTestSuite) TestLongMessageNotificationIsTruncated() {
	suite.send(suite.buyer, suite.supplier, strings.Repeat("é", 200))

	notes, _, err := suite.store.Notifications().List(suite.ctx, repository.NotificationFilter{UserID: &suite.supplier.ID})
	suite.Require().NoError(err)
	suite.Equal(143, len([]rune(notes[0].Message)))
}

func (suite *ServicesTestSuite) TestConversations() {
	other := testutil.CreateUser(suite.T(), suite.store, models.RoleSupplier, "other@example.com")

	suite.send(suite.supplier, suite.buyer, "first")
	time.Sleep(5 * time.Millisecond)
	suite.send(other, suite.buyer, "second")
	time.Sleep(5 * time.Millisecond)
	last := suite.send(suite.buyer, suite.supplier, "third")

	conversations, err := suite.messages.Conversations(suite.ctx, suite.actor(suite.buyer))
	suite.Require().NoError(err)
	suite.Require().Len(conversations, 2)

	suite.Equal(suite.supplier.ID, conversations[0].CounterpartID)
	suite.Equal(last.ID, conversations[0].LastMessage.ID)
	suite.Equal(int64(1), conversations[0].Unread)
	suite.Equal(other.ID, conversations[1].CounterpartID)
	suite.Equal(int64(1), conversations[1].Unread)

	with := suite.supplier.ID
	thread, err := suite.messages.List(suite.ctx, suite.actor(suite.buyer), MessageListRequest{
		With:       &with,
		Pagination: utils.NewPaginationParams(1, 20, "", ""),
	})
	suite.Require().NoError(err)
	suite.Equal(int64(2), thread.Total)
}

func (suite *ServicesTestSuite) TestMarkMessageRead() {
	message := suite.send(suite.supplier, suite.buyer, "quote attached")

	count, err := suite.messages.UnreadCount(suite.ctx, suite.actor(suite.buyer))
	suite.Require().NoError(err)
	suite.Equal(int64(1), count)

	_, err = suite.messages.MarkRead(suite.ctx, suite.actor(suite.supplier), message.ID)
	suite.ErrorIs(err, ErrForbidden)

	_, err = suite.messages.MarkRead(suite.ctx, suite.actor(suite.admin), message.ID)
	suite.ErrorIs(err, ErrMessageNotFound)

	read, err := suite.messages.MarkRead(suite.ctx, suite.actor(suite.buyer), message.ID)
	suite.Require().NoError(err)
	suite.NotNil(read.ReadAt)

	count, err = suite.messages.UnreadCount(suite.ctx, suite.actor(suite.buyer))
	suite.Require().NoError(err)
	suite.Equal(int64(0), count)
}

func (suite *ServicesTestSuite) TestNotificationsReadFlow() {
	suite.send(suite.supplier, suite.buyer, "one")
	suite.send(suite.supplier, suite.buyer, "two")
	buyer := suite.actor(suite.buyer)

	page, err := suite.notifications.List(suite.ctx, buyer, NotificationListRequest{
		UnreadOnly: true,
		Pagination: utils.NewPaginationParams(1, 20, "", ""),
	})
	suite.Require().NoError(err)
	suite.Require().Equal(int64(2), page.Total)
	first := page.Data.([]models.Notification)[0]

	_, err = suite.notifications.MarkRead(suite.ctx, suite.actor(suite.supplier), first.ID)
	suite.ErrorIs(err, ErrNotificationNotFound)

	read, err := suite.notifications.MarkRead(suite.ctx, buyer, first.ID)
	suite.Require().NoError(err)
	suite.NotNil(read.ReadAt)

	count, err := suite.notifications.UnreadCount(suite.ctx, buyer)
	suite.Require().NoError(err)
	suite.Equal(int64(1), count)

	marked, err := suite.notifications.MarkAllRead(suite.ctx, buyer)
	suite.Require().NoError(err)
	suite.Equal(int64(1), marked)

	count, err = suite.notifications.UnreadCount(suite.ctx, buyer)
	suite.Require().NoError(err)
	suite.Equal(int64(0), count)
}
