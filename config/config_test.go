package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("BCRYPT_COST", "not-a-number")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, 12, cfg.BcryptCost)
}

func TestValidate(t *testing.T) {
	cfg := &Config{DBDriver: "sqlite"}
	assert.Error(t, cfg.Validate())

	cfg.SessionSecret = "s3cret"
	assert.NoError(t, cfg.Validate())

	cfg.DBDriver = "postgres"
	assert.Error(t, cfg.Validate())
}
