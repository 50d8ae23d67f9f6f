package config

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Timeout:         30000, // 30 seconds
		FollowRedirects: boolPtr(false),
		MaxRedirects:    30,
		Verify:          "true",
		Proxy:           "",
		Pretty:          "",
		TestMode:        boolPtr(false),
		NoColor:         boolPtr(false),
		Debug:           boolPtr(false),
	}
}

// Load returns the defaults overlaid with the environment.
func Load(lookup LookupFunc) (*Config, error) {
	env, err := FromEnv(lookup)
	if err != nil {
		return nil, err
	}
	return DefaultConfig().Merge(env), nil
}
