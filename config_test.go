package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigFromEnvironment(t *testing.T) {

	t.Run("Defaults", func(t *testing.T) {
		t.Setenv("PORT", "")
		t.Setenv("RECEIPT_CURRENCY_SYMBOL", "")
		t.Setenv("STRIPE_CURRENCY", "")

		config := configFromEnvironment()

		assert.Equal(t, "8080", config.Port)
		assert.Equal(t, "€", config.CurrencySymbol)
		assert.Equal(t, "eur", config.StripeCurrency)
	})

	t.Run("Overrides", func(t *testing.T) {
		t.Setenv("PORT", "9090")
		t.Setenv("RECEIPT_CURRENCY_SYMBOL", "$")
		t.Setenv("WHATSAPP_TOKEN", "secret")

		config := configFromEnvironment()

		assert.Equal(t, "9090", config.Port)
		assert.Equal(t, "$", config.CurrencySymbol)
		assert.Equal(t, "secret", config.WhatsappToken)
	})
}
