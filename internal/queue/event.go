// Package queue defines message payloads exchanged over the message broker.
package queue

// NotificationsQueue is the durable queue carrying user notifications.
const NotificationsQueue = "notifications"

// NotificationEvent is published whenever a user should be told about a
// change to one of their reservations, payments, refunds or reviews.  It
// carries everything the consumer needs to write the in-app row and send
// the email without reading the triggering entity back.
type NotificationEvent struct {
    ID        string `json:"id"`
    UserID    string `json:"user_id"`
    Category  string `json:"category"`
    Title     string `json:"title"`
    Body      string `json:"body"`
    CreatedAt string `json:"created_at"` // RFC 3339, UTC
}
