package bridge

// Option configures a driver constructed by this package.
type Option func(*Config)

// WithFlushInterval overrides the default flush interval, in seconds.
func WithFlushInterval(seconds uint) Option {
	return func(c *Config) { c.FlushInterval = seconds }
}

// WithLogger attaches a Logger that receives structured scheduling events.
func WithLogger(l Logger) Option {
	return func(c *Config) { c.Logger = l }
}

func buildConfig(opts []Option) (Config, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	if err := validateConfig(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.Logger == nil {
		cfg.Logger = noopLogger{}
	}
	return cfg, nil
}
