package model

import "time"

// Company represents an organization prospects work for.
type Company struct {
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Name           string
	NameNormalized string
	Domain         string
	State          string
	Timezone       string
	Notes          string
	ID             int64
}
