package model

import "time"

// NotificationCategory groups notifications for filtering on the client.
type NotificationCategory string

const (
    CategoryReservation NotificationCategory = "RESERVATION"
    CategoryPayment     NotificationCategory = "PAYMENT"
    CategoryRefund      NotificationCategory = "REFUND"
    CategoryReview      NotificationCategory = "REVIEW"
)

// Notification is an in-app message stored for a user.
type Notification struct {
    ID        string               `json:"id"`
    UserID    string               `json:"user_id"`
    Category  NotificationCategory `json:"category"`
    Title     string               `json:"title"`
    Body      string               `json:"body"`
    Read      bool                 `json:"read"`
    CreatedAt time.Time            `json:"created_at"`
}
