package config

import (
	"fmt"
)

func (c *Config) Validate() error {
	if err := c.Database.Validate(); err != nil {
		return fmt.Errorf("database config: %w", err)
	}
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}
	if err := c.Rights.Validate(); err != nil {
		return fmt.Errorf("rights config: %w", err)
	}
	if err := c.Wallet.Validate(); err != nil {
		return fmt.Errorf("wallet config: %w", err)
	}
	return nil
}

func (c *DatabaseConfig) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("host is required")
	}
	if c.Port == 0 {
		return fmt.Errorf("port is required")
	}
	if c.User == "" {
		return fmt.Errorf("user is required")
	}
	if c.DBName == "" {
		return fmt.Errorf("dbname is required")
	}
	return nil
}

func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("port is required")
	}
	return nil
}

func (c *RightsConfig) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}
	return nil
}

func (c *WalletConfig) Validate() error {
	switch c.Backend {
	case "ledger":
		if c.BaseURL == "" {
			return fmt.Errorf("base_url is required for the ledger backend")
		}
	case "stripe":
		// Stripe secret is validated at boot when the backend is selected.
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	return nil
}
