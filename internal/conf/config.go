// Package conf loads application settings. Configuration is read from a
// YAML file discovered via viper, with sensible defaults for every knob
// so the service runs unconfigured.
package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/scoutdesk/scoutcrm/internal/errors"
)

// MainSettings holds application-wide settings.
type MainSettings struct {
	Name     string // Application instance name
	LogLevel string // trace, debug, info, warn, error
}

// WebServerSettings holds the HTTP server configuration.
type WebServerSettings struct {
	Enabled bool
	Port    string
	Debug   bool
}

// ResolverSettings configures the logo resolution chain and its cache.
type ResolverSettings struct {
	CacheTTL         time.Duration // Freshness window for cached resolutions
	MetadataTimeout  time.Duration // GET timeout for metadata API probes
	VerifyTimeout    time.Duration // HEAD timeout for verifying API-extracted URLs
	HeadTimeout      time.Duration // HEAD timeout for direct path probes
	ProxyTimeout     time.Duration // HEAD timeout for proxy-wrapped probes
	ThumbWidth       int           // Width hint for Special:FilePath candidates
	UserAgentContact string        // Contact reference required by the Wikimedia robot policy
	APIRateLimit     float64       // Metadata API requests per second
	Debug            bool
}

// MediaSettings configures the image proxy and placeholder endpoints.
type MediaSettings struct {
	ProxyAllowedHosts []string // Hostnames the proxy will fetch from
	ProxyCacheMaxAge  int      // Cache-Control max-age in seconds
	PlaceholderSize   int      // Default placeholder size in pixels
}

// Settings is the top-level configuration structure.
type Settings struct {
	Main      MainSettings
	WebServer WebServerSettings
	Resolver  ResolverSettings
	Media     MediaSettings
}

// Load reads configuration from the first config.yaml found in the
// search paths and unmarshals it over the defaults.
func Load() (*Settings, error) {
	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	settings := defaultSettings()
	if err := viper.Unmarshal(settings); err != nil {
		return nil, errors.New(err).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Context("operation", "unmarshal-config").
			Build()
	}
	return settings, nil
}

// initViper sets viper defaults and reads the configuration file if present.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := configSearchPaths()
	if err != nil {
		return err
	}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return errors.New(err).
				Component("conf").
				Category(errors.CategoryConfiguration).
				Context("operation", "read-config").
				Build()
		}
		// No config file is fine, defaults apply.
	}
	return nil
}

// configSearchPaths returns the directories searched for config.yaml:
// the working directory first, then the user's config directory.
func configSearchPaths() ([]string, error) {
	paths := []string{"."}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		// Home directory may be unavailable in containers; keep going
		// with the working directory only.
		return paths, nil
	}
	paths = append(paths, filepath.Join(homeDir, ".config", "scoutcrm"))
	return paths, nil
}

func setDefaults() {
	viper.SetDefault("main.name", "ScoutCRM")
	viper.SetDefault("main.loglevel", "info")
	viper.SetDefault("webserver.enabled", true)
	viper.SetDefault("webserver.port", "8090")
	viper.SetDefault("webserver.debug", false)
	viper.SetDefault("resolver.cachettl", time.Hour)
	viper.SetDefault("resolver.metadatatimeout", 10*time.Second)
	viper.SetDefault("resolver.verifytimeout", 5*time.Second)
	viper.SetDefault("resolver.headtimeout", 4*time.Second)
	viper.SetDefault("resolver.proxytimeout", 5*time.Second)
	viper.SetDefault("resolver.thumbwidth", 400)
	viper.SetDefault("resolver.useragentcontact", "https://github.com/scoutdesk/scoutcrm")
	viper.SetDefault("resolver.apiratelimit", 2.0)
	viper.SetDefault("resolver.debug", false)
	viper.SetDefault("media.proxyallowedhosts", []string{
		"upload.wikimedia.org",
		"commons.wikimedia.org",
		"en.wikipedia.org",
	})
	viper.SetDefault("media.proxycachemaxage", 86400)
	viper.SetDefault("media.placeholdersize", 128)
}

func defaultSettings() *Settings {
	return &Settings{
		Main: MainSettings{
			Name:     "ScoutCRM",
			LogLevel: "info",
		},
		WebServer: WebServerSettings{
			Enabled: true,
			Port:    "8090",
		},
		Resolver: ResolverSettings{
			CacheTTL:         time.Hour,
			MetadataTimeout:  10 * time.Second,
			VerifyTimeout:    5 * time.Second,
			HeadTimeout:      4 * time.Second,
			ProxyTimeout:     5 * time.Second,
			ThumbWidth:       400,
			UserAgentContact: "https://github.com/scoutdesk/scoutcrm",
			APIRateLimit:     2.0,
		},
		Media: MediaSettings{
			ProxyAllowedHosts: []string{
				"upload.wikimedia.org",
				"commons.wikimedia.org",
				"en.wikipedia.org",
			},
			ProxyCacheMaxAge: 86400,
			PlaceholderSize:  128,
		},
	}
}
