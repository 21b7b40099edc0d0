package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         "8080",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Host:   "localhost",
			Port:   3306,
			User:   "propmate",
			DBName: "propmate",
		},
		Gmail: GmailConfig{
			ClientID:     "id",
			ClientSecret: "secret",
			RefreshToken: "token",
		},
		InvoiceNinja: InvoiceNinjaConfig{
			BaseURL:    "http://invoiceninja:80",
			Timeout:    30 * time.Second,
			MaxRetries: 3,
		},
		Notifications: NotificationConfig{
			LandlordEmail: "landlord@example.com",
		},
		Scheduler: SchedulerConfig{
			IntervalMinutes: 5,
			LookbackHours:   24,
		},
	}
}

func TestConfigValidation(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestConfigValidationFailures(t *testing.T) {
	c := validConfig()
	c.Server.Port = ""
	assert.Error(t, c.Validate())

	c = validConfig()
	c.Database.DBName = ""
	assert.Error(t, c.Validate())

	c = validConfig()
	c.Gmail.RefreshToken = ""
	assert.Error(t, c.Validate())

	// IMAP mode swaps the credential requirement.
	c = validConfig()
	c.Gmail = GmailConfig{UseIMAP: true, IMAPUser: "user", IMAPPassword: "pass"}
	assert.NoError(t, c.Validate())

	c = validConfig()
	c.Gmail = GmailConfig{UseIMAP: true}
	assert.Error(t, c.Validate())

	c = validConfig()
	c.InvoiceNinja.BaseURL = ""
	assert.Error(t, c.Validate())

	c = validConfig()
	c.Notifications.LandlordEmail = ""
	assert.Error(t, c.Validate())

	c = validConfig()
	c.Scheduler.IntervalMinutes = 0
	assert.Error(t, c.Validate())

	c = validConfig()
	c.Scheduler.LookbackHours = -1
	assert.Error(t, c.Validate())
}

func TestDatabaseDSN(t *testing.T) {
	c := DatabaseConfig{
		Host:     "localhost",
		Port:     3306,
		User:     "testuser",
		Password: "testpass",
		DBName:   "testdb",
	}

	dsn := c.GetDSN()
	expected := "testuser:testpass@tcp(localhost:3306)/testdb?charset=utf8mb4&parseTime=True&loc=Local"
	assert.Equal(t, expected, dsn)
}
