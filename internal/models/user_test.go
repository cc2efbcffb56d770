package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUserKind(t *testing.T) {
	cases := map[string]UserKind{
		"":             KindNormal,
		"NormalUser":   KindNormal,
		"viewonly":     KindViewOnly,
		"ViewOnlyUser": KindViewOnly,
		" Admin ":      KindAdmin,
		"SYSAdmin":     KindSysAdmin,
		"sysadmin":     KindSysAdmin,
		"superuser":    KindNormal,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseUserKind(in), in)
	}
}

func TestUserKindWireNames(t *testing.T) {
	assert.Equal(t, "NormalUser", KindNormal.String())
	assert.Equal(t, "ViewOnlyUser", KindViewOnly.String())
	assert.Equal(t, "Admin", KindAdmin.String())
	assert.Equal(t, "SYSAdmin", KindSysAdmin.String())
	assert.True(t, KindSysAdmin.IsAdministrative())
	assert.False(t, KindViewOnly.IsAdministrative())

	b, err := json.Marshal(struct {
		Kind UserKind `json:"kind"`
	}{KindViewOnly})
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"ViewOnlyUser"}`, string(b))

	var decoded struct {
		Kind UserKind `json:"kind"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"kind":"SYSAdmin"}`), &decoded))
	assert.Equal(t, KindSysAdmin, decoded.Kind)
}

func TestParseAdminLevel(t *testing.T) {
	level, ok := ParseAdminLevel("")
	assert.True(t, ok)
	assert.Equal(t, AdminLevelJunior, level)

	level, ok = ParseAdminLevel("SENIOR")
	assert.True(t, ok)
	assert.Equal(t, AdminLevelSenior, level)

	_, ok = ParseAdminLevel("chief")
	assert.False(t, ok)
}

func TestIsMinorUsesCalendarYears(t *testing.T) {
	now := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	// Turns 18 in December 2024 but already counts as adult in January.
	u := User{Kind: KindNormal, DateOfBirth: time.Date(2006, 12, 31, 0, 0, 0, 0, time.UTC)}
	assert.False(t, u.IsMinor(now))

	u.DateOfBirth = time.Date(2007, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.True(t, u.IsMinor(now))

	u.Kind = KindViewOnly
	assert.False(t, u.IsMinor(now), "only normal users can be minors")
}

func TestSummary(t *testing.T) {
	u := User{ID: 3, FirstName: "Neha", LastName: "Rao", Email: "neha@example.com", Kind: KindAdmin}
	s := u.Summary(time.Now())
	assert.Equal(t, UserSummary{ID: 3, FirstName: "Neha", LastName: "Rao", Email: "neha@example.com", Kind: "Admin"}, s)
	assert.Equal(t, "Neha Rao", u.DisplayName())
}

func TestGuardianRelationshipInEffect(t *testing.T) {
	now := time.Now()
	past, future := now.Add(-time.Hour), now.Add(time.Hour)

	assert.True(t, GuardianRelationship{Active: true}.InEffect(now))
	assert.True(t, GuardianRelationship{Active: true, ExpiresAt: &future}.InEffect(now))
	assert.False(t, GuardianRelationship{Active: true, ExpiresAt: &past}.InEffect(now))
	assert.False(t, GuardianRelationship{Active: false}.InEffect(now))
}
