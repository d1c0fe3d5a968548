package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	c := &Config{}
	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHOPIFY_STORE")
	assert.Contains(t, err.Error(), "SHOPIFY_API_KEY")
	assert.Contains(t, err.Error(), "SHOPIFY_PASSWORD")

	c = &Config{
		ShopifyStore:    "example-store",
		ShopifyAPIKey:   "key",
		ShopifyPassword: "secret",
	}
	assert.NoError(t, c.Validate())
}

func TestUpdateFromFlags(t *testing.T) {
	c := &Config{LogLevel: "info"}

	c.UpdateFromFlags(true, false, true, "")
	assert.True(t, c.Verbose)
	assert.True(t, c.NoColor)
	assert.Equal(t, "info", c.LogLevel, "empty flag must not clobber the configured level")

	c.UpdateFromFlags(false, true, false, "debug")
	assert.True(t, c.Quiet)
	assert.Equal(t, "debug", c.LogLevel)
}
