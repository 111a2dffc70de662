package merchant

import (
	"time"

	"github.com/paisaback/paisaback/internal/geo"
)

const (
	// StatusActive merchants appear in discovery and accept payments.
	StatusActive = "active"
	// StatusSuspended merchants are hidden and rejected at payment time.
	StatusSuspended = "suspended"
)

// Merchant represents a business account accepting QR payments.
type Merchant struct {
	ID            string
	BusinessName  string
	ContactPerson string
	Mobile        string
	Email         string
	CategoryID    string
	Location      geo.Point
	District      string
	State         string
	Address       string
	QRCode        string
	Status        string
	CreatedAt     time.Time
}

// ProfileInput captures editable merchant profile fields.
type ProfileInput struct {
	BusinessName  string
	ContactPerson string
	Email         string
	CategoryID    string
	Location      geo.Point
	District      string
	State         string
	Address       string
}

// NearbyMerchant pairs a merchant with its distance from the query origin.
type NearbyMerchant struct {
	Merchant
	DistanceKm float64
}

// NearbyQuery describes a merchant discovery request.
type NearbyQuery struct {
	Origin       geo.Point
	RadiusMeters int
	Search       string
}
