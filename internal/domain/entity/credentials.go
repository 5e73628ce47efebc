package entity

import "log/slog"

// Credentials identify the MT5 account a command runs against.
type Credentials struct {
	Account  string
	Password string
	Server   string
}

// WithFallback fills every empty field from defaults.
func (c Credentials) WithFallback(defaults Credentials) Credentials {
	if c.Account == "" {
		c.Account = defaults.Account
	}
	if c.Password == "" {
		c.Password = defaults.Password
	}
	if c.Server == "" {
		c.Server = defaults.Server
	}
	return c
}

// Complete reports whether all three fields are set.
func (c Credentials) Complete() bool {
	return c.Account != "" && c.Password != "" && c.Server != ""
}

// LogValue keeps the password out of structured logs.
func (c Credentials) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("account", c.Account),
		slog.String("server", c.Server),
	)
}
