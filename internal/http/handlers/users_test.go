package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/bank-customer-api/internal/models"
)

func profileUpdate() map[string]any {
	return map[string]any{
		"firstName":   "Kavya",
		"lastName":    "Iyer",
		"phoneNumber": "+91 8123456789",
		"address":     "7 Residency Road, Chennai",
	}
}

func TestListUsers(t *testing.T) {
	f := newAPIFixture(t)
	f.register(t, "one@example.com", "")
	f.register(t, "two@example.com", "ViewOnlyUser")

	rec := f.do(t, http.MethodGet, "/api/users", f.login(t, "two@example.com"), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeMap(t, rec)
	assert.Equal(t, true, body["success"])
	assert.EqualValues(t, 2, body["count"])

	data, ok := body["data"].([]any)
	require.True(t, ok)
	require.Len(t, data, 2)
	first := data[0].(map[string]any)
	assert.Equal(t, "one@example.com", first["email"])
	assert.Equal(t, "NormalUser", first["kind"])
	assert.NotContains(t, first, "identificationNumber")
}

func TestListUsersRequiresReadPermission(t *testing.T) {
	f := newAPIFixture(t)
	user := f.register(t, "norole@example.com", "")
	for _, g := range f.store.Grants(user.ID) {
		g.Active = false
		f.store.PutGrant(g)
	}
	token := f.login(t, "norole@example.com")

	rec := f.do(t, http.MethodGet, "/api/users", token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, []any{"READ_USER"}, decodeMap(t, rec)["requiredPermissions"])

	rec = f.do(t, http.MethodGet, "/api/users", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestUpdateUser(t *testing.T) {
	f := newAPIFixture(t)
	user := f.register(t, "edit@example.com", "")
	token := f.login(t, "edit@example.com")

	rec := f.do(t, http.MethodPut, fmt.Sprintf("/api/users/%d", user.ID), token, profileUpdate())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeMap(t, rec)
	assert.Equal(t, "User updated successfully", body["message"])
	assert.EqualValues(t, user.ID, body["userId"])

	stored, err := f.store.GetUser(t.Context(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Kavya", stored.FirstName)
	assert.Equal(t, "7 Residency Road, Chennai", stored.Address)

	rec = f.do(t, http.MethodPut, "/api/users/9999", token, profileUpdate())
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateUserValidation(t *testing.T) {
	f := newAPIFixture(t)
	user := f.register(t, "edit@example.com", "")
	payload := profileUpdate()
	payload["address"] = "short"

	rec := f.do(t, http.MethodPut, fmt.Sprintf("/api/users/%d", user.ID), f.login(t, "edit@example.com"), payload)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeMap(t, rec)
	errs, ok := body["errors"].(map[string]any)
	require.True(t, ok, rec.Body.String())
	assert.Contains(t, errs, "address")
}

func TestUpdateUserRejectsViewOnly(t *testing.T) {
	f := newAPIFixture(t)
	target := f.register(t, "target@example.com", "")
	f.register(t, "viewer@example.com", "ViewOnlyUser")

	rec := f.do(t, http.MethodPut, fmt.Sprintf("/api/users/%d", target.ID), f.login(t, "viewer@example.com"), profileUpdate())
	assert.Equal(t, http.StatusForbidden, rec.Code)
	body := decodeMap(t, rec)
	assert.Equal(t, "Access Denied: ViewOnly users cannot perform write operations", body["message"])
	assert.Equal(t, "ViewOnlyUser", body["userKind"])

	stored, err := f.store.GetUser(t.Context(), target.ID)
	require.NoError(t, err)
	assert.Equal(t, "Asha", stored.FirstName)
}

func TestDeleteUser(t *testing.T) {
	f := newAPIFixture(t)
	target := f.register(t, "target@example.com", "")
	admin := f.register(t, "boss@example.com", "Admin")
	grantRole(t, f.store, admin.ID, models.RoleAdmin)
	token := f.login(t, "boss@example.com")
	path := fmt.Sprintf("/api/users/%d", target.ID)

	rec := f.do(t, http.MethodDelete, path, token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "User must be inactive before deletion. Please deactivate the user first.", decodeMap(t, rec)["message"])

	rec = f.do(t, http.MethodPut, path+"/deactivate", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodDelete, path, token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeMap(t, rec)
	assert.Equal(t, "User deleted successfully", body["message"])
	assert.EqualValues(t, target.ID, body["userId"])

	rec = f.do(t, http.MethodDelete, path, token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteUserRequiresAdministrativeKind(t *testing.T) {
	f := newAPIFixture(t)
	target := f.register(t, "target@example.com", "")
	manager := f.register(t, "manager@example.com", "")
	grantRole(t, f.store, manager.ID, models.RoleBankManager)
	require.NoError(t, f.store.SetUserActive(t.Context(), target.ID, false))

	rec := f.do(t, http.MethodDelete, fmt.Sprintf("/api/users/%d", target.ID), f.login(t, "manager@example.com"), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	body := decodeMap(t, rec)
	assert.Equal(t, "NormalUser", body["userKind"])
	assert.Equal(t, []any{"Admin", "SYSAdmin"}, body["allowedUserKinds"])

	_, err := f.store.GetUser(t.Context(), target.ID)
	assert.NoError(t, err)
}

func TestWriteInvalidOmitsNonFieldErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	writeInvalid(rec, errors.New("boom"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeMap(t, rec)
	assert.Equal(t, "Invalid request data", body["message"])
	assert.NotContains(t, body, "errors")

	rec = httptest.NewRecorder()
	writeInvalid(rec, validation.Errors{"email": errors.New("must be a valid email address")})
	body = decodeMap(t, rec)
	assert.Equal(t, map[string]any{"email": "must be a valid email address"}, body["errors"])
}
