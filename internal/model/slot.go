package model

import "time"

// AvailabilitySlot is a bounded-capacity time window during which a
// service can be booked.  Remaining never goes below zero; a slot is open
// while Remaining > 0.
type AvailabilitySlot struct {
    ID        string    `json:"id"`         // availability_slots.id
    ServiceID string    `json:"service_id"` // availability_slots.service_id
    Date      time.Time `json:"date"`       // availability_slots.slot_date
    StartTime string    `json:"start_time"` // availability_slots.start_time ("HH:MM")
    EndTime   string    `json:"end_time"`   // availability_slots.end_time ("HH:MM")
    Capacity  int       `json:"capacity"`   // availability_slots.capacity
    Remaining int       `json:"remaining"`  // availability_slots.remaining
    CreatedAt time.Time `json:"created_at"` // availability_slots.created_at
}

// Open reports whether the slot can still accept a booking.
func (s AvailabilitySlot) Open() bool { return s.Remaining > 0 }

// Contains reports whether the clock time t ("HH:MM") falls inside the
// slot window.  The start is inclusive and the end exclusive.
func (s AvailabilitySlot) Contains(t string) bool {
    return t >= s.StartTime && t < s.EndTime
}
