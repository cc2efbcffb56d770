package models

import (
	"strings"
	"time"
)

// UserKind discriminates the user variants stored in the users table.
type UserKind int

const (
	KindNormal UserKind = iota
	KindViewOnly
	KindAdmin
	KindSysAdmin
)

var kindNames = map[UserKind]string{
	KindNormal:   "NormalUser",
	KindViewOnly: "ViewOnlyUser",
	KindAdmin:    "Admin",
	KindSysAdmin: "SYSAdmin",
}

// String returns the wire name used in tokens and API payloads.
func (k UserKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// MarshalText encodes the kind by its wire name.
func (k UserKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText accepts any spelling ParseUserKind understands.
func (k *UserKind) UnmarshalText(text []byte) error {
	*k = ParseUserKind(string(text))
	return nil
}

// IsAdministrative reports whether the kind carries an AdminProfile.
func (k UserKind) IsAdministrative() bool {
	return k == KindAdmin || k == KindSysAdmin
}

// ParseUserKind maps a requested kind to a UserKind. Empty or unknown input
// falls back to KindNormal.
func ParseUserKind(s string) UserKind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "viewonly", "viewonlyuser":
		return KindViewOnly
	case "admin":
		return KindAdmin
	case "sysadmin":
		return KindSysAdmin
	default:
		return KindNormal
	}
}

// AdminLevel is the tier of a SYSAdmin user.
type AdminLevel string

const (
	AdminLevelSuper  AdminLevel = "Super"
	AdminLevelSenior AdminLevel = "Senior"
	AdminLevelJunior AdminLevel = "Junior"
)

// ParseAdminLevel normalises the requested level, defaulting to Junior.
func ParseAdminLevel(s string) (AdminLevel, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return AdminLevelJunior, true
	case "super":
		return AdminLevelSuper, true
	case "senior":
		return AdminLevelSenior, true
	case "junior":
		return AdminLevelJunior, true
	default:
		return "", false
	}
}

// AdminProfile holds the fields only Admin and SYSAdmin users carry.
type AdminProfile struct {
	Department        string     `json:"department,omitempty"`
	Position          string     `json:"position,omitempty"`
	YearsOfExperience *int       `json:"yearsOfExperience,omitempty"`
	LastActionAt      *time.Time `json:"lastActionAt,omitempty"`
	Level             AdminLevel `json:"adminLevel,omitempty"`
}

// User captures a bank customer or staff identity. Kind selects the variant;
// Admin is set only for administrative kinds.
type User struct {
	ID                   int64         `json:"id"`
	Kind                 UserKind      `json:"kind"`
	FirstName            string        `json:"firstName"`
	LastName             string        `json:"lastName"`
	Email                string        `json:"email"`
	PhoneNumber          string        `json:"phoneNumber"`
	DateOfBirth          time.Time     `json:"dateOfBirth"`
	Address              string        `json:"address"`
	IdentificationNumber string        `json:"identificationNumber"`
	Active               bool          `json:"isActive"`
	Admin                *AdminProfile `json:"admin,omitempty"`
	CreatedAt            time.Time     `json:"createdAt"`
	UpdatedAt            time.Time     `json:"updatedAt"`
}

// DisplayName is the name embedded in issued tokens.
func (u User) DisplayName() string {
	return u.FirstName + " " + u.LastName
}

// IsMinor compares calendar years only, so users close to their birthday may
// be classified a year early.
func (u User) IsMinor(now time.Time) bool {
	return u.Kind == KindNormal && now.Year()-u.DateOfBirth.Year() < 18
}

// UserSummary is the compact user view returned by login and register.
type UserSummary struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Kind      string `json:"kind"`
	IsMinor   bool   `json:"isMinor"`
}

// Summary projects the user into a UserSummary as of now.
func (u User) Summary(now time.Time) UserSummary {
	return UserSummary{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Kind:      u.Kind.String(),
		IsMinor:   u.IsMinor(now),
	}
}

// ProfileUpdate carries the self-service profile fields a write-capable caller
// may change.
type ProfileUpdate struct {
	FirstName   string
	LastName    string
	PhoneNumber string
	Address     string
}
