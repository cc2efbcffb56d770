package models

import "time"

// GuardianRelationship is a directed guardian -> minor edge between two
// NormalUser accounts.
type GuardianRelationship struct {
	ID               int64      `json:"id"`
	GuardianUserID   int64      `json:"guardianUserId"`
	MinorUserID      int64      `json:"minorUserId"`
	RelationshipType string     `json:"relationshipType"`
	EstablishedAt    time.Time  `json:"establishedDate"`
	ExpiresAt        *time.Time `json:"expiryDate,omitempty"`
	Active           bool       `json:"isActive"`
}

// InEffect reports whether the relationship is active and unexpired at now.
func (g GuardianRelationship) InEffect(now time.Time) bool {
	if !g.Active {
		return false
	}
	return g.ExpiresAt == nil || now.Before(*g.ExpiresAt)
}
