package model

import "time"

// PaymentStatus is the state of a payment attempt.
type PaymentStatus string

const (
    PaymentPending  PaymentStatus = "PENDING"
    PaymentApproved PaymentStatus = "APPROVED"
    PaymentRejected PaymentStatus = "REJECTED"
    PaymentRefunded PaymentStatus = "REFUNDED"
)

// Payment belongs to exactly one reservation.  AmountCents is a snapshot
// of the reservation cost and does not change once the payment is
// APPROVED.
type Payment struct {
    ID            string        `json:"id"`             // payments.id
    ReservationID string        `json:"reservation_id"` // payments.reservation_id (unique)
    AmountCents   int64         `json:"amount_cents"`   // payments.amount_cents
    Method        string        `json:"method"`         // payments.method
    Status        PaymentStatus `json:"status"`         // payments.status
    GatewayRef    string        `json:"gateway_ref"`    // payments.gateway_ref
    FailureReason *string       `json:"failure_reason,omitempty"` // payments.failure_reason (nullable)
    CreatedAt     time.Time     `json:"created_at"`     // payments.created_at
    UpdatedAt     time.Time     `json:"updated_at"`     // payments.updated_at
}
