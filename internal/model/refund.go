package model

import "time"

// RefundStatus is the resolution state of a refund request.
type RefundStatus string

const (
    RefundRequested RefundStatus = "REQUESTED"
    RefundApproved  RefundStatus = "APPROVED"
    RefundRejected  RefundStatus = "REJECTED"
)

// RefundRequest is created when a client cancels a paid reservation.
// AmountCents is computed once by the refund policy and never changes.
type RefundRequest struct {
    ID            string       `json:"id"`             // refund_requests.id
    ReservationID string       `json:"reservation_id"` // refund_requests.reservation_id (unique)
    ClientID      string       `json:"client_id"`      // refund_requests.client_id
    PaymentID     string       `json:"payment_id"`     // refund_requests.payment_id
    AmountCents   int64        `json:"amount_cents"`   // refund_requests.amount_cents
    Percentage    int          `json:"percentage"`     // refund_requests.percentage
    Reason        string       `json:"reason"`         // refund_requests.reason
    Status        RefundStatus `json:"status"`         // refund_requests.status
    AdminNotes    *string      `json:"admin_notes,omitempty"` // refund_requests.admin_notes (nullable)
    ResolvedAt    *time.Time   `json:"resolved_at,omitempty"` // refund_requests.resolved_at (nullable)
    CreatedAt     time.Time    `json:"created_at"`     // refund_requests.created_at
}
