package dto

import (
	"errors"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/nyaruka/phonenumbers"

	"github.com/hongminglow/bank-customer-api/internal/models"
)

// PhoneRegion is the default region used to parse phone numbers without a
// country prefix.
const PhoneRegion = "IN"

// Date accepts either a calendar date (2006-01-02) or an RFC3339 timestamp.
type Date struct {
	time.Time
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		d.Time = time.Time{}
		return nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t.UTC()
			return nil
		}
	}
	return errors.New("dateOfBirth must be a date in YYYY-MM-DD format")
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(6, 100)),
	)
}

type RegisterRequest struct {
	FirstName            string `json:"firstName"`
	LastName             string `json:"lastName"`
	Email                string `json:"email"`
	PhoneNumber          string `json:"phoneNumber"`
	DateOfBirth          Date   `json:"dateOfBirth"`
	Address              string `json:"address"`
	IdentificationNumber string `json:"identificationNumber"`
	Password             string `json:"password"`
	ConfirmPassword      string `json:"confirmPassword"`
	UserKind             string `json:"userKind"`
	UserType             string `json:"userType"`
	Department           string `json:"department"`
	Position             string `json:"position"`
	YearsOfExperience    *int   `json:"yearsOfExperience"`
	AdminLevel           string `json:"adminLevel"`
}

// Kind returns the requested user kind; userType is accepted as an older alias.
func (r RegisterRequest) Kind() string {
	if k := strings.TrimSpace(r.UserKind); k != "" {
		return k
	}
	return strings.TrimSpace(r.UserType)
}

// Validate will validate the payload
func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Required, validation.Length(2, 100)),
		validation.Field(&r.LastName, validation.Required, validation.Length(2, 100)),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.PhoneNumber, validation.Required, validation.By(ValidatePhone(PhoneRegion))),
		validation.Field(&r.DateOfBirth, validation.By(requiredDate)),
		validation.Field(&r.Address, validation.Required, validation.Length(10, 500)),
		validation.Field(&r.IdentificationNumber, validation.Required, validation.Length(5, 20)),
		validation.Field(&r.Password, validation.Required, validation.Length(6, 100)),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.By(ValidateStringEquals(r.Password)),
		),
	)
}

// UpdateUserRequest carries the editable profile fields.
type UpdateUserRequest struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	PhoneNumber string `json:"phoneNumber"`
	Address     string `json:"address"`
}

func (r UpdateUserRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Required, validation.Length(2, 100)),
		validation.Field(&r.LastName, validation.Required, validation.Length(2, 100)),
		validation.Field(&r.PhoneNumber, validation.Required, validation.By(ValidatePhone(PhoneRegion))),
		validation.Field(&r.Address, validation.Required, validation.Length(10, 500)),
	)
}

// Profile returns the trimmed update.
func (r UpdateUserRequest) Profile() models.ProfileUpdate {
	return models.ProfileUpdate{
		FirstName:   strings.TrimSpace(r.FirstName),
		LastName:    strings.TrimSpace(r.LastName),
		PhoneNumber: strings.TrimSpace(r.PhoneNumber),
		Address:     strings.TrimSpace(r.Address),
	}
}

// ValidateStringEquals will check that both values match
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return errors.New("values must match")
		}
		return nil
	}
}

// ValidatePhone checks that the value parses as a valid number for region.
func ValidatePhone(region string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if strings.TrimSpace(s) == "" {
			return nil
		}
		num, err := phonenumbers.Parse(s, region)
		if err != nil || !phonenumbers.IsValidNumberForRegion(num, region) {
			return errors.New("must be a valid phone number")
		}
		return nil
	}
}

func requiredDate(value any) error {
	d, _ := value.(Date)
	if d.IsZero() {
		return errors.New("cannot be blank")
	}
	return nil
}

// LoginResponse is the successful login payload.
type LoginResponse struct {
	Success     bool                  `json:"success"`
	Message     string                `json:"message"`
	Token       string                `json:"token"`
	TokenExpiry time.Time             `json:"tokenExpiry"`
	User        models.UserSummary    `json:"user"`
	Roles       []models.ResolvedRole `json:"roles"`
}

type RegisterResponse struct {
	Success bool               `json:"success"`
	Message string             `json:"message"`
	User    models.UserSummary `json:"user"`
}

// FailureResponse is returned by login and register when the request is
// rejected. LockedUntil is set only for locked accounts.
type FailureResponse struct {
	Success     bool       `json:"success"`
	Message     string     `json:"message"`
	LockedUntil *time.Time `json:"lockedUntil,omitempty"`
}
