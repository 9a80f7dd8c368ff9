package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type sample struct {
	Email string `validate:"required,email"`
	Name  string `validate:"required"`
}

func TestValidate(t *testing.T) {
	assert.Nil(t, Validate(&sample{Email: "a@b.fr", Name: "x"}))

	errs := Validate(&sample{Email: "nope"})
	assert.Equal(t, "email", errs["Email"])
	assert.Equal(t, "required", errs["Name"])
}

func TestIsEmail(t *testing.T) {
	assert.True(t, IsEmail("jean.dupont@example.fr"))
	assert.False(t, IsEmail("jean.dupont"))
	assert.False(t, IsEmail(""))
}

func TestIsUUID(t *testing.T) {
	assert.True(t, IsUUID("3f1c2b9e-6a1d-4c3e-9f7a-2b8d5e4c1a00"))
	assert.False(t, IsUUID("../etc/passwd"))
}
