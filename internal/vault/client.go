// Package vault loads runtime secrets from HashiCorp Vault. When Vault is
// disabled the client is a no-op and secrets come from the environment.
package vault

import (
	"context"
	"fmt"
	"sync"

	"github.com/hashicorp/vault/api"

	"smart-stock-trader/config"
)

// Secret keys recognized in the application secret bundle
const (
	SecretJWT           = "jwt_secret"
	SecretStripeKey     = "stripe_secret_key"
	SecretStripeWebhook = "stripe_webhook_secret"
	SecretSMTPPassword  = "smtp_password"
	SecretDatabaseURL   = "database_url"
	SecretAdminPassword = "admin_password"
)

// Client wraps the HashiCorp Vault client as an application secret source
type Client struct {
	client *api.Client
	config config.VaultConfig
	mu     sync.RWMutex
	cache  map[string]string
}

// NewClient creates a new Vault client
func NewClient(cfg config.VaultConfig) (*Client, error) {
	if !cfg.Enabled {
		return &Client{
			config: cfg,
			cache:  make(map[string]string),
		}, nil
	}

	vaultConfig := api.DefaultConfig()
	vaultConfig.Address = cfg.Address

	if cfg.TLSEnabled && cfg.CACert != "" {
		tlsConfig := &api.TLSConfig{
			CACert: cfg.CACert,
		}
		if err := vaultConfig.ConfigureTLS(tlsConfig); err != nil {
			return nil, fmt.Errorf("failed to configure TLS: %w", err)
		}
	}

	client, err := api.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}

	client.SetToken(cfg.Token)

	return &Client{
		client: client,
		config: cfg,
		cache:  make(map[string]string),
	}, nil
}

// IsEnabled returns whether Vault is enabled
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}

// LoadAppSecrets reads the application secret bundle from the KV v2 store.
// Returns an empty map when Vault is disabled.
func (c *Client) LoadAppSecrets(ctx context.Context) (map[string]string, error) {
	if !c.config.Enabled {
		return map[string]string{}, nil
	}

	path := fmt.Sprintf("%s/data/%s/app", c.config.MountPath, c.config.SecretPath)

	secret, err := c.client.Logical().ReadWithContext(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read app secrets from vault: %w", err)
	}

	if secret == nil || secret.Data == nil {
		return map[string]string{}, nil
	}

	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("invalid secret format at %s", path)
	}

	secrets := make(map[string]string, len(data))
	for key, val := range data {
		if str, ok := val.(string); ok {
			secrets[key] = str
		}
	}

	c.mu.Lock()
	c.cache = secrets
	c.mu.Unlock()

	return secrets, nil
}

// GetSecret returns a cached secret value, or empty string when absent
func (c *Client) GetSecret(key string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cache[key]
}

// StoreAppSecret writes one key of the application bundle back to Vault
func (c *Client) StoreAppSecret(ctx context.Context, key, value string) error {
	if !c.config.Enabled {
		c.mu.Lock()
		c.cache[key] = value
		c.mu.Unlock()
		return nil
	}

	c.mu.RLock()
	merged := make(map[string]interface{}, len(c.cache)+1)
	for k, v := range c.cache {
		merged[k] = v
	}
	c.mu.RUnlock()
	merged[key] = value

	path := fmt.Sprintf("%s/data/%s/app", c.config.MountPath, c.config.SecretPath)
	payload := map[string]interface{}{"data": merged}

	if _, err := c.client.Logical().WriteWithContext(ctx, path, payload); err != nil {
		return fmt.Errorf("failed to store secret in vault: %w", err)
	}

	c.mu.Lock()
	c.cache[key] = value
	c.mu.Unlock()

	return nil
}

// ApplyTo overrides config fields with secrets loaded from Vault. Only
// non-empty values replace what the environment provided.
func (c *Client) ApplyTo(cfg *config.Config) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if v := c.cache[SecretJWT]; v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := c.cache[SecretStripeKey]; v != "" {
		cfg.Stripe.SecretKey = v
	}
	if v := c.cache[SecretStripeWebhook]; v != "" {
		cfg.Stripe.WebhookSecret = v
	}
	if v := c.cache[SecretSMTPPassword]; v != "" {
		cfg.SMTP.Password = v
	}
	if v := c.cache[SecretDatabaseURL]; v != "" {
		cfg.Database.URL = v
	}
	if v := c.cache[SecretAdminPassword]; v != "" {
		cfg.Admin.Password = v
	}
}

// Health checks the Vault connection
func (c *Client) Health(ctx context.Context) error {
	if !c.config.Enabled {
		return nil
	}

	health, err := c.client.Sys().Health()
	if err != nil {
		return fmt.Errorf("vault health check failed: %w", err)
	}

	if health.Sealed {
		return fmt.Errorf("vault is sealed")
	}

	return nil
}
