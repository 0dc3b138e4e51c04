package scraper

import (
	"jobscout/internal/config"
	"jobscout/internal/scraper/engines/headed"
)

// NewSessionFactory returns a factory producing Rod-backed sessions
// configured from cfg
func NewSessionFactory(cfg *config.Config) SessionFactory {
	opts := headed.OptionsFromConfig(cfg)
	return func() Session {
		return headed.NewSession(opts)
	}
}
