package config

import "time"

// TestConfig returns a config suitable for testing
func TestConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:           "http://127.0.0.1/api/v2/",
			SpriteBaseURL:     "http://127.0.0.1/sprites/",
			HTTPTimeout:       5 * time.Second,
			UserAgent:         "dex-test/1.0",
			PageSize:          50,
			IndexLimit:        1302,
			DefaultRetryAfter: time.Second,
			AllowPrivateHosts: true,
		},
		Search: SearchConfig{
			Debounce:       400 * time.Millisecond,
			Engine:         EngineLinear,
			MaxQueryLength: 256,
		},
		UI:    defaultConfig().UI,
		Media: defaultConfig().Media,
		Keys:  defaultConfig().Keys,
		Log:   LogConfig{Level: "off"},
	}
}
