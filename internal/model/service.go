package model

import "time"

// ServiceStatus is the catalog lifecycle of a service.
type ServiceStatus string

const (
    ServicePublished ServiceStatus = "PUBLISHED"
    ServicePaused    ServiceStatus = "PAUSED"
    ServiceDeleted   ServiceStatus = "DELETED"
)

// Service is a bookable offering (court, class, event) owned by a
// provider.  Rating and ReviewCount are derived from published reviews
// and are only written by the rating recompute.
type Service struct {
    ID          string        `json:"id"`           // services.id
    ProviderID  string        `json:"provider_id"`  // services.provider_id
    Name        string        `json:"name"`         // services.name
    Description string        `json:"description"`  // services.description
    Category    string        `json:"category"`     // services.category
    PriceCents  int64         `json:"price_cents"`  // services.price_cents
    Status      ServiceStatus `json:"status"`       // services.status
    Rating      float64       `json:"rating"`       // services.rating
    ReviewCount int           `json:"review_count"` // services.review_count
    CreatedAt   time.Time     `json:"created_at"`   // services.created_at
    UpdatedAt   time.Time     `json:"updated_at"`   // services.updated_at
}

// Provider is the business profile of a user with the PROVIDER role.  Its
// ID equals the owning user's ID.
type Provider struct {
    ID                    string    `json:"id"`                     // providers.id
    DisplayName           string    `json:"display_name"`           // providers.display_name
    Rating                float64   `json:"rating"`                 // providers.rating
    PublishedServices     int       `json:"published_services"`     // providers.published_services
    CompletedReservations int       `json:"completed_reservations"` // providers.completed_reservations
    CreatedAt             time.Time `json:"created_at"`             // providers.created_at
    UpdatedAt             time.Time `json:"updated_at"`             // providers.updated_at
}
