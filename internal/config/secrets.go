package config

// RedactedConfig returns a shallow copy of cfg with sensitive fields
// replaced by "***". Use this when logging the active configuration so
// secrets are never accidentally exposed.
func RedactedConfig(cfg *Config) Config {
	out := *cfg

	redact(&out.Server.AuthToken)
	redact(&out.Signer.PrivateKey)
	redact(&out.Postgres.DSN)
	redact(&out.Postgres.Password)
	redact(&out.Redis.Password)
	redact(&out.Notify.TelegramToken)
	redact(&out.Notify.DiscordWebhookURL)

	return out
}

func redact(s *string) {
	if *s != "" {
		*s = "***"
	}
}
