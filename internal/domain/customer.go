package domain

import "time"

// Customer owns tickets. Deleting a customer removes its tickets.
type Customer struct {
	ID        int64
	Name      string
	Email     string
	Company   *string
	CreatedAt time.Time
}
