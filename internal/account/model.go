package account

import "time"

// Customer represents an end-user account that pays merchants and earns cashback.
type Customer struct {
	ID        string
	Mobile    string
	Name      string
	Email     string
	Address   string
	CreatedAt time.Time
}

// ProfileInput captures editable profile fields.
type ProfileInput struct {
	Name    string
	Email   string
	Address string
}
