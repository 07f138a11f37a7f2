package model

import "github.com/google/uuid"

// Principal is the caller of the HTTP export service.
type Principal struct {
	UserID uuid.UUID
	OrgID  uuid.UUID
	Role   string
}
