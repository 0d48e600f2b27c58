package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	assert.Equal(t, RoleAdmin, ParseRole("admin"))
	assert.Equal(t, RoleUser, ParseRole("user"))
	assert.Equal(t, RoleUser, ParseRole(""))
	assert.Equal(t, RoleUser, ParseRole("superuser"))
	assert.Equal(t, RoleUser, ParseRole("Admin"))
}

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleAdmin.Valid())
	assert.True(t, RoleUser.Valid())
	assert.False(t, Role("manager").Valid())
}

func TestHealthStatusValid(t *testing.T) {
	assert.True(t, HealthHealthy.Valid())
	assert.True(t, HealthSick.Valid())
	assert.True(t, HealthQuarantined.Valid())
	assert.False(t, HealthStatus("Dead").Valid())
	assert.False(t, HealthStatus("healthy").Valid())
}

func TestDayOf(t *testing.T) {
	in := time.Date(2026, 8, 15, 23, 59, 59, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC), DayOf(in))

	// Non-UTC inputs normalize to the UTC day.
	loc := time.FixedZone("UTC+5", 5*3600)
	early := time.Date(2026, 8, 15, 2, 0, 0, 0, loc)
	assert.Equal(t, time.Date(2026, 8, 14, 0, 0, 0, 0, time.UTC), DayOf(early))
}

func TestUserPublicStripsCredentials(t *testing.T) {
	user := User{Username: "moussa", Email: "m@example.com", PasswordHash: "hash", Role: RoleUser}
	public := user.Public()
	assert.Equal(t, "moussa", public.Username)
	assert.Equal(t, "m@example.com", public.Email)
}
