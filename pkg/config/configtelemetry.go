package config

type Telemetry struct {
	DSN            string `toml:"dsn,omitempty"`
	ErrorReporting bool   `toml:"error_reporting,omitempty"`
}

// ErrorReporting is off unless the user turns it on and gives a DSN for
// their own Sentry project.
func (c *Instance) ErrorReporting() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Telemetry.ErrorReporting
}

func (c *Instance) SetErrorReporting(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Telemetry.ErrorReporting = enabled
}

func (c *Instance) TelemetryDSN() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Telemetry.DSN
}

func (c *Instance) SetTelemetryDSN(dsn string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Telemetry.DSN = dsn
}
