package model

import "time"

// KPIReport is a periodic snapshot of marketplace activity for admins.
type KPIReport struct {
    ID                    string                      `json:"id"`
    ReservationsByStatus  map[ReservationStatus]int   `json:"reservations_by_status"`
    TotalReservations     int                         `json:"total_reservations"`
    ApprovedRevenueCents  int64                       `json:"approved_revenue_cents"`
    RefundedAmountCents   int64                       `json:"refunded_amount_cents"`
    OpenRefundRequests    int                         `json:"open_refund_requests"`
    PublishedServices     int                         `json:"published_services"`
    Providers             int                         `json:"providers"`
    AverageServiceRating  float64                     `json:"average_service_rating"`
    GeneratedAt           time.Time                   `json:"generated_at"`
}
