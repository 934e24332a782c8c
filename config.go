package main

import (
	"os"
)

type Config struct {
	Port                  string
	StripeAPIKey          string
	StripeCurrency        string
	CurrencySymbol        string
	WhatsappToken         string
	WhatsappPhoneNumberID string
}

// configFromEnvironment reads the application settings. Storage, logging, pubsub and queue pick
// their backend from GOOGLE_CLOUD_PROJECT and SQLITE_DSN themselves.
func configFromEnvironment() Config {
	return Config{
		Port:                  getenvOrDefault("PORT", "8080"),
		StripeAPIKey:          os.Getenv("STRIPE_API_KEY"),
		StripeCurrency:        getenvOrDefault("STRIPE_CURRENCY", "eur"),
		CurrencySymbol:        getenvOrDefault("RECEIPT_CURRENCY_SYMBOL", "€"),
		WhatsappToken:         os.Getenv("WHATSAPP_TOKEN"),
		WhatsappPhoneNumberID: os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
	}
}

func getenvOrDefault(name string, defaultValue string) string {
	value := os.Getenv(name)
	if value == "" {
		return defaultValue
	}
	return value
}
