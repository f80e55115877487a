package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("JWT_SECRET", "dev-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "medbook", cfg.MongoDatabase)
	assert.Equal(t, 7*24*time.Hour, cfg.JWTExpiresIn)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORSOrigins)
	assert.Equal(t, "https://textbelt.com/text", cfg.TextbeltURL)
	assert.Error(t, cfg.DotEnvErr)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_DotEnvFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("TEXTBELT_URL=http://sms.local/text\n"), 0o600))
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	// Registers a restore of the original value, then leaves the variable
	// unset so the file is the only source.
	t.Setenv("TEXTBELT_URL", "")
	require.NoError(t, os.Unsetenv("TEXTBELT_URL"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.NoError(t, cfg.DotEnvErr)
	assert.Equal(t, "http://sms.local/text", cfg.TextbeltURL)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("API_PORT", "8081")
	t.Setenv("MONGO_URI", "mongodb://db:27017")
	t.Setenv("MONGO_DATABASE", "clinic")
	t.Setenv("JWT_SECRET", "dev-secret")
	t.Setenv("JWT_EXPIRES_IN", "30m")
	t.Setenv("BCRYPT_COST", "12")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("TEXTBELT_API_KEY", "key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8081", cfg.Port)
	assert.Equal(t, "clinic", cfg.MongoDatabase)
	assert.Equal(t, 30*time.Minute, cfg.JWTExpiresIn)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, "key", cfg.TextbeltKey)
}

func TestValidate(t *testing.T) {
	valid := Config{MongoURI: "mongodb://x", JWTSecret: "s", JWTExpiresIn: time.Hour, Env: "development"}
	assert.NoError(t, valid.Validate())

	noURI := valid
	noURI.MongoURI = ""
	assert.EqualError(t, noURI.Validate(), "MONGO_URI is required")

	noSecret := valid
	noSecret.JWTSecret = ""
	assert.EqualError(t, noSecret.Validate(), "JWT_SECRET is required")

	noExpiry := valid
	noExpiry.JWTExpiresIn = 0
	assert.Error(t, noExpiry.Validate())

	prod := valid
	prod.Env = "production"
	assert.Error(t, prod.Validate())
	prod.JWTSecret = "0123456789abcdef0123456789abcdef"
	assert.NoError(t, prod.Validate())
}
