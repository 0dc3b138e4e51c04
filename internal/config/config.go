package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server struct {
		Port           int           `yaml:"port"`
		Host           string        `yaml:"host"`
		ReadTimeout    time.Duration `yaml:"read_timeout"`
		WriteTimeout   time.Duration `yaml:"write_timeout"`
		IdleTimeout    time.Duration `yaml:"idle_timeout"`
		RequestTimeout time.Duration `yaml:"request_timeout"`
	} `yaml:"server"`

	Scraper struct {
		SearchURL         string        `yaml:"search_url"`
		UserAgent         string        `yaml:"user_agent"`
		HeadlessMode      bool          `yaml:"headless_mode"`
		LaunchTimeout     time.Duration `yaml:"launch_timeout"`
		NavigationTimeout time.Duration `yaml:"navigation_timeout"`
		SettleDelay       time.Duration `yaml:"settle_delay"`
		ScrapeTimeout     time.Duration `yaml:"scrape_timeout"`
		MaxJobs           int           `yaml:"max_jobs"`
	} `yaml:"scraper"`

	Proxy struct {
		Host     string `yaml:"host"`
		Port     string `yaml:"port"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
	} `yaml:"proxy"`

	Cache struct {
		Backend          string        `yaml:"backend"`
		FreshTTL         time.Duration `yaml:"fresh_ttl"`
		StaleTTL         time.Duration `yaml:"stale_ttl"`
		EvictionSchedule string        `yaml:"eviction_schedule"`
		KeyPrefix        string        `yaml:"key_prefix"`
	} `yaml:"cache"`

	Enrichment struct {
		Enabled           bool          `yaml:"enabled"`
		Concurrency       int           `yaml:"concurrency"`
		FetchTimeout      time.Duration `yaml:"fetch_timeout"`
		RequestsPerSecond float64       `yaml:"requests_per_second"`
		Burst             int           `yaml:"burst"`
	} `yaml:"enrichment"`

	Analysis struct {
		InternshipThreshold float64 `yaml:"internship_threshold"`
	} `yaml:"analysis"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`

		Adapters []struct {
			Name    string                 `yaml:"name"`
			Type    string                 `yaml:"type"`
			Enabled bool                   `yaml:"enabled"`
			Options map[string]interface{} `yaml:"options"`
		} `yaml:"adapters"`
	} `yaml:"logging"`

	Redis struct {
		URL      string        `yaml:"url"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db"`
		Timeout  time.Duration `yaml:"timeout"`
	} `yaml:"redis"`
}

var (
	bracedEnvPattern = regexp.MustCompile(`\$\{([^}]+)\}`)
	bareEnvPattern   = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)
)

// expandEnvVars expands environment variables in a string using ${VAR} or $VAR syntax.
// Unknown variables are left untouched.
func expandEnvVars(s string) string {
	s = bracedEnvPattern.ReplaceAllStringFunc(s, func(match string) string {
		if val := os.Getenv(match[2 : len(match)-1]); val != "" {
			return val
		}
		return match
	})

	return bareEnvPattern.ReplaceAllStringFunc(s, func(match string) string {
		if val := os.Getenv(match[1:]); val != "" {
			return val
		}
		return match
	})
}

// Default returns a configuration populated with the built-in defaults
func Default() *Config {
	config := &Config{}

	config.Server.Port = 8080
	config.Server.Host = "0.0.0.0"
	config.Server.ReadTimeout = 30 * time.Second
	config.Server.WriteTimeout = 60 * time.Second
	config.Server.IdleTimeout = 60 * time.Second
	config.Server.RequestTimeout = 45 * time.Second

	config.Scraper.HeadlessMode = true
	config.Scraper.LaunchTimeout = 30 * time.Second
	config.Scraper.NavigationTimeout = 30 * time.Second
	config.Scraper.SettleDelay = 5 * time.Second
	config.Scraper.ScrapeTimeout = 2 * time.Minute
	config.Scraper.MaxJobs = 25
	config.Scraper.UserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	config.Cache.Backend = "memory"
	config.Cache.FreshTTL = 10 * time.Minute
	config.Cache.StaleTTL = 24 * time.Hour
	config.Cache.EvictionSchedule = "@every 5m"
	config.Cache.KeyPrefix = "jobscout"

	config.Enrichment.Enabled = true
	config.Enrichment.Concurrency = 5
	config.Enrichment.FetchTimeout = 15 * time.Second
	config.Enrichment.RequestsPerSecond = 4
	config.Enrichment.Burst = 5

	config.Analysis.InternshipThreshold = 0.5

	config.Logging.Level = "info"
	config.Logging.Format = "json"

	config.Redis.URL = "redis://localhost:6379"
	config.Redis.Timeout = 5 * time.Second

	return config
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	// Load .env file if it exists (ignore errors if file doesn't exist)
	_ = godotenv.Load()

	config := Default()

	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			yamlContent := expandEnvVars(string(data))

			if err := yaml.Unmarshal([]byte(yamlContent), config); err != nil {
				return nil, fmt.Errorf("failed to parse %s: %w", configPath, err)
			}
		}
	}

	config.loadFromEnv()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate rejects configurations the pipeline cannot honour
func (c *Config) Validate() error {
	if c.Cache.FreshTTL <= 0 {
		return fmt.Errorf("cache.fresh_ttl must be positive, got %s", c.Cache.FreshTTL)
	}
	if c.Cache.StaleTTL <= c.Cache.FreshTTL {
		return fmt.Errorf("cache.stale_ttl (%s) must exceed cache.fresh_ttl (%s)", c.Cache.StaleTTL, c.Cache.FreshTTL)
	}
	if c.Cache.Backend != "memory" && c.Cache.Backend != "redis" {
		return fmt.Errorf("unsupported cache backend: %s", c.Cache.Backend)
	}
	if c.Enrichment.Concurrency < 1 {
		return fmt.Errorf("enrichment.concurrency must be at least 1, got %d", c.Enrichment.Concurrency)
	}
	if c.Scraper.MaxJobs < 1 {
		return fmt.Errorf("scraper.max_jobs must be at least 1, got %d", c.Scraper.MaxJobs)
	}
	if c.Analysis.InternshipThreshold <= 0 || c.Analysis.InternshipThreshold >= 1 {
		return fmt.Errorf("analysis.internship_threshold must be within (0, 1), got %v", c.Analysis.InternshipThreshold)
	}
	return nil
}

// loadFromEnv loads configuration from environment variables
func (c *Config) loadFromEnv() {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	if host := os.Getenv("HOST"); host != "" {
		c.Server.Host = host
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	if logFormat := os.Getenv("LOG_FORMAT"); logFormat != "" {
		c.Logging.Format = logFormat
	}

	// Proxy configuration; absence disables the proxy entirely
	if proxyHost := os.Getenv("PROXY_HOST"); proxyHost != "" {
		c.Proxy.Host = proxyHost
	}

	if proxyPort := os.Getenv("PROXY_PORT"); proxyPort != "" {
		c.Proxy.Port = proxyPort
	}

	if proxyUser := os.Getenv("PROXY_USER"); proxyUser != "" {
		c.Proxy.Username = proxyUser
	}

	if proxyPass := os.Getenv("PROXY_PASS"); proxyPass != "" {
		c.Proxy.Password = proxyPass
	}

	if searchURL := os.Getenv("SEARCH_URL"); searchURL != "" {
		c.Scraper.SearchURL = searchURL
	}

	if headless := os.Getenv("HEADLESS_MODE"); headless != "" {
		c.Scraper.HeadlessMode = headless == "true" || headless == "1"
	}

	if settle := os.Getenv("SETTLE_DELAY"); settle != "" {
		if d, err := time.ParseDuration(settle); err == nil {
			c.Scraper.SettleDelay = d
		}
	}

	if backend := os.Getenv("CACHE_BACKEND"); backend != "" {
		c.Cache.Backend = backend
	}

	if freshTTL := os.Getenv("CACHE_FRESH_TTL"); freshTTL != "" {
		if d, err := time.ParseDuration(freshTTL); err == nil {
			c.Cache.FreshTTL = d
		}
	}

	if staleTTL := os.Getenv("CACHE_STALE_TTL"); staleTTL != "" {
		if d, err := time.ParseDuration(staleTTL); err == nil {
			c.Cache.StaleTTL = d
		}
	}

	if concurrency := os.Getenv("ENRICHMENT_CONCURRENCY"); concurrency != "" {
		if n, err := strconv.Atoi(concurrency); err == nil {
			c.Enrichment.Concurrency = n
		}
	}

	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		c.Redis.URL = redisURL
	}

	if redisPassword := os.Getenv("REDIS_PASSWORD"); redisPassword != "" {
		c.Redis.Password = redisPassword
	}

	if redisDB := os.Getenv("REDIS_DB"); redisDB != "" {
		if db, err := strconv.Atoi(redisDB); err == nil {
			c.Redis.DB = db
		}
	}

	if redisTimeout := os.Getenv("REDIS_TIMEOUT"); redisTimeout != "" {
		if timeout, err := time.ParseDuration(redisTimeout); err == nil {
			c.Redis.Timeout = timeout
		}
	}

	c.loadLoggingAdapterEnvVars()
}

// loadLoggingAdapterEnvVars loads environment variables for logging adapters
func (c *Config) loadLoggingAdapterEnvVars() {
	for i := range c.Logging.Adapters {
		adapter := &c.Logging.Adapters[i]

		if adapter.Type != "file" {
			continue
		}
		if path := os.Getenv("LOG_FILE_PATH"); path != "" {
			if adapter.Options == nil {
				adapter.Options = make(map[string]interface{})
			}
			adapter.Options["file_path"] = path
		}
	}
}
