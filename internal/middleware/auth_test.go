package middleware_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"backoffice/internal/middleware"
)

func TestJWTSecret_ConfiguredValueWins(t *testing.T) {
	t.Setenv("JWT_SECRET", "from-environment")

	middleware.SetJWTSecret("from-config")
	t.Cleanup(func() { middleware.SetJWTSecret("") })

	assert.Equal(t, []byte("from-config"), middleware.GetJWTSecret())
}

func TestJWTSecret_FallsBackToEnvironment(t *testing.T) {
	middleware.SetJWTSecret("")
	t.Setenv("JWT_SECRET", "from-environment")

	assert.Equal(t, []byte("from-environment"), middleware.GetJWTSecret())
}
