package notification

import (
	"context"
	"fmt"

	providerRepo "limora/database/repository/provider"
	"limora/models"
	"limora/utils"

	"firebase.google.com/go/v4/messaging"
)

// PushService defines methods for sending FCM pushes to the two parties of
// a booking.
type PushService interface {
	SendProviderPush(ctx context.Context, providerID, title, body string, data map[string]string) error
	SendCustomerPush(ctx context.Context, customer models.Customer, title, body string, data map[string]string) error
}

// DefaultPushService is the production implementation.
type DefaultPushService struct {
	Providers providerRepo.ProviderRepository
}

// SendProviderPush looks up the provider's FCM token and sends a push.
func (s *DefaultPushService) SendProviderPush(ctx context.Context, providerID, title, body string, data map[string]string) error {
	p, err := s.Providers.GetByID(ctx, providerID)
	if err != nil {
		return fmt.Errorf("SendProviderPush: could not find provider %s: %w", providerID, err)
	}
	if p.FCMToken == "" {
		return fmt.Errorf("SendProviderPush: provider %s has no FCM token", providerID)
	}
	if _, ok := data["role"]; !ok {
		data["role"] = "provider"
	}

	msg := &messaging.Message{
		Token: p.FCMToken,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID: "high_priority",
				Sound:     "default",
			},
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{
				"apns-priority":  "10",
				"apns-push-type": "alert",
			},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Sound: "default",
				},
			},
		},
	}

	if _, err := utils.FCMClient.Send(ctx, msg); err != nil {
		return fmt.Errorf("SendProviderPush: failed to send FCM message: %w", err)
	}
	return nil
}

// SendCustomerPush sends a push to the customer's registered device token.
func (s *DefaultPushService) SendCustomerPush(ctx context.Context, customer models.Customer, title, body string, data map[string]string) error {
	if customer.FCMToken == "" {
		return fmt.Errorf("SendCustomerPush: customer %s has no FCM token", customer.ID)
	}
	if _, ok := data["role"]; !ok {
		data["role"] = "customer"
	}

	msg := &messaging.Message{
		Token: customer.FCMToken,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
	}

	if _, err := utils.FCMClient.Send(ctx, msg); err != nil {
		return fmt.Errorf("SendCustomerPush: failed to send FCM message: %w", err)
	}
	return nil
}
