package model

import "time"

// ReservationStatus is the lifecycle state of a reservation.
type ReservationStatus string

const (
    ReservationPending   ReservationStatus = "PENDING"
    ReservationConfirmed ReservationStatus = "CONFIRMED"
    ReservationFinalized ReservationStatus = "FINALIZED"
    ReservationRejected  ReservationStatus = "REJECTED"
    ReservationCancelled ReservationStatus = "CANCELLED"
)

// Terminal reports whether no further transition is allowed from s.
func (s ReservationStatus) Terminal() bool {
    switch s {
    case ReservationFinalized, ReservationRejected, ReservationCancelled:
        return true
    }
    return false
}

// Valid reports whether s is one of the known states.
func (s ReservationStatus) Valid() bool {
    switch s {
    case ReservationPending, ReservationConfirmed, ReservationFinalized, ReservationRejected, ReservationCancelled:
        return true
    }
    return false
}

// Reservation records a client's booking of a service for a given date
// and time.  ProviderID is denormalized from the service at creation so
// provider-side queries do not need a join.  TotalCostCents is a snapshot
// of the service price when the reservation was created.
//
// Fields:
//  ID              – primary key (UUID string).
//  ClientID        – user who booked.
//  ServiceID       – booked service.
//  ProviderID      – owner of the service.
//  SlotID          – availability slot consumed by the booking.
//  Date            – requested day (UTC midnight).
//  Time            – requested time of day, "HH:MM".
//  Status          – lifecycle state.
//  TotalCostCents  – price snapshot in cents.
//  Notes           – optional client notes.
//  CancelReason    – reason given on cancellation or rejection.
//  CreatedAt       – creation timestamp.
//  UpdatedAt       – last update timestamp.
type Reservation struct {
    ID             string            `json:"id"`              // reservations.id
    ClientID       string            `json:"client_id"`       // reservations.client_id
    ServiceID      string            `json:"service_id"`      // reservations.service_id
    ProviderID     string            `json:"provider_id"`     // reservations.provider_id
    SlotID         string            `json:"slot_id"`         // reservations.slot_id
    Date           time.Time         `json:"date"`            // reservations.reservation_date
    Time           string            `json:"time"`            // reservations.reservation_time
    Status         ReservationStatus `json:"status"`          // reservations.status
    TotalCostCents int64             `json:"total_cost_cents"` // reservations.total_cost_cents
    Notes          *string           `json:"notes,omitempty"` // reservations.notes (nullable)
    CancelReason   *string           `json:"cancel_reason,omitempty"` // reservations.cancel_reason (nullable)
    CreatedAt      time.Time         `json:"created_at"`      // reservations.created_at
    UpdatedAt      time.Time         `json:"updated_at"`      // reservations.updated_at
}
