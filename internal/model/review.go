package model

import "time"

// ReviewState is the moderation state of a review.  Only PUBLISHED
// reviews count towards aggregate ratings.
type ReviewState string

const (
    ReviewPublished   ReviewState = "PUBLISHED"
    ReviewUnderReview ReviewState = "UNDER_REVIEW"
)

// Review is left by a client on a finalized reservation, one per
// reservation.
type Review struct {
    ID            string      `json:"id"`             // reviews.id
    ReservationID string      `json:"reservation_id"` // reviews.reservation_id (unique)
    ServiceID     string      `json:"service_id"`     // reviews.service_id
    ProviderID    string      `json:"provider_id"`    // reviews.provider_id
    ClientID      string      `json:"client_id"`      // reviews.client_id
    Rating        int         `json:"rating"`         // reviews.rating (1..5)
    Comment       string      `json:"comment"`        // reviews.comment
    Reply         *string     `json:"reply,omitempty"`      // reviews.reply (nullable)
    RepliedAt     *time.Time  `json:"replied_at,omitempty"` // reviews.replied_at (nullable)
    State         ReviewState `json:"state"`          // reviews.state
    Flagged       bool        `json:"flagged"`        // reviews.flagged
    CreatedAt     time.Time   `json:"created_at"`     // reviews.created_at
}
