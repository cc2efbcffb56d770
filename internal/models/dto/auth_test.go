package dto

import (
	"encoding/json"
	"testing"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRegister() RegisterRequest {
	return RegisterRequest{
		FirstName:            "Kiran",
		LastName:             "Shah",
		Email:                "kiran@example.com",
		PhoneNumber:          "+918123456789",
		DateOfBirth:          Date{time.Date(1995, 7, 1, 0, 0, 0, 0, time.UTC)},
		Address:              "221 Station Road, Mumbai",
		IdentificationNumber: "AADH1234",
		Password:             "secret1",
		ConfirmPassword:      "secret1",
	}
}

func fieldErrors(t *testing.T, err error) validation.Errors {
	t.Helper()
	require.Error(t, err)
	errs, ok := err.(validation.Errors)
	require.True(t, ok, "expected validation.Errors, got %T", err)
	return errs
}

func TestRegisterRequestValid(t *testing.T) {
	assert.NoError(t, validRegister().Validate())
}

func TestRegisterRequestRules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RegisterRequest)
		field  string
	}{
		{"short first name", func(r *RegisterRequest) { r.FirstName = "K" }, "firstName"},
		{"bad email", func(r *RegisterRequest) { r.Email = "kiran.example.com" }, "email"},
		{"foreign phone", func(r *RegisterRequest) { r.PhoneNumber = "+14155550123" }, "phoneNumber"},
		{"missing phone", func(r *RegisterRequest) { r.PhoneNumber = "" }, "phoneNumber"},
		{"missing birth date", func(r *RegisterRequest) { r.DateOfBirth = Date{} }, "dateOfBirth"},
		{"short id", func(r *RegisterRequest) { r.IdentificationNumber = "1234" }, "identificationNumber"},
		{"short password", func(r *RegisterRequest) { r.Password, r.ConfirmPassword = "abc", "abc" }, "password"},
		{"confirm mismatch", func(r *RegisterRequest) { r.ConfirmPassword = "secret2" }, "confirmPassword"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := validRegister()
			tc.mutate(&r)
			assert.Contains(t, fieldErrors(t, r.Validate()), tc.field)
		})
	}
}

func TestRegisterRequestKind(t *testing.T) {
	assert.Equal(t, "Admin", RegisterRequest{UserKind: "Admin", UserType: "ViewOnlyUser"}.Kind())
	assert.Equal(t, "ViewOnlyUser", RegisterRequest{UserType: " ViewOnlyUser "}.Kind())
	assert.Empty(t, RegisterRequest{}.Kind())
}

func TestDateUnmarshal(t *testing.T) {
	for _, raw := range []string{`"1995-07-01"`, `"1995-07-01T00:00:00Z"`, `"1995-07-01T00:00:00"`} {
		var d Date
		require.NoError(t, json.Unmarshal([]byte(raw), &d), raw)
		assert.Equal(t, time.Date(1995, 7, 1, 0, 0, 0, 0, time.UTC), d.Time, raw)
	}

	var d Date
	assert.Error(t, json.Unmarshal([]byte(`"01/07/1995"`), &d))
	require.NoError(t, json.Unmarshal([]byte(`null`), &d))
	assert.True(t, d.IsZero())
}

func TestLoginRequestValidate(t *testing.T) {
	assert.NoError(t, LoginRequest{Email: "a@example.com", Password: "secret1"}.Validate())

	errs := fieldErrors(t, LoginRequest{Email: "a@example.com"}.Validate())
	assert.Contains(t, errs, "password")
}

func TestValidatePhoneAcceptsLocalForms(t *testing.T) {
	rule := ValidatePhone(PhoneRegion)
	for _, number := range []string{"8123456789", "08123456789", "+91 81234 56789"} {
		assert.NoError(t, rule(number), number)
	}
	assert.Error(t, rule("12345"))
}
