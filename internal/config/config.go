package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// NOTE: This file provides the configuration model and full YAML-based
// load/save behavior, including first-run config creation and 0600
// permissions. Secrets (API keys, SMTP credentials) are taken from the
// environment and override whatever the file says.

// McCormickConfig describes the McCormick Place calendar API source.
type McCormickConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
	// URL is the Ungerboeck calendar API endpoint.
	URL string `yaml:"url" json:"url"`
	// DetailURLBase is the public events page used to build detail links.
	DetailURLBase string `yaml:"detail_url_base" json:"detail_url_base"`
}

// TicketmasterConfig describes the United Center source via the
// Ticketmaster Discovery API.
type TicketmasterConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	URL     string `yaml:"url" json:"url"`
	VenueID string `yaml:"venue_id" json:"venue_id"`
	// APIKey comes from TICKETMASTER_API_KEY; never stored in the file.
	APIKey string `yaml:"-" json:"-"`
}

// ICSFeedConfig describes a venue that publishes its calendar as an ICS feed.
type ICSFeedConfig struct {
	// Key is the stable snapshot venue key, e.g. "navy_pier".
	Key string `yaml:"key" json:"key"`
	// Name is the human-friendly venue name shown in reports.
	Name string `yaml:"name" json:"name"`
	URL  string `yaml:"url" json:"url"`
}

// BrowserFeedConfig describes a venue whose calendar is rendered
// client-side and has to be read out of a headless browser.
type BrowserFeedConfig struct {
	Key  string `yaml:"key" json:"key"`
	Name string `yaml:"name" json:"name"`
	URL  string `yaml:"url" json:"url"`
	// WaitSelector is a CSS selector that must be visible before Expr runs.
	WaitSelector string `yaml:"wait_selector" json:"wait_selector"`
	// Expr is a JS expression evaluated on the page; it must yield an array
	// of {name, start, end, location, url} objects.
	Expr string `yaml:"expr" json:"expr"`
}

// FeedsConfig groups all event sources.
type FeedsConfig struct {
	McCormick    McCormickConfig     `yaml:"mccormick" json:"mccormick"`
	Ticketmaster TicketmasterConfig  `yaml:"ticketmaster" json:"ticketmaster"`
	ICS          []ICSFeedConfig     `yaml:"ics" json:"ics"`
	Browser      []BrowserFeedConfig `yaml:"browser" json:"browser"`
}

// FlightsConfig describes the Aviationstack flight-status source.
type FlightsConfig struct {
	URL string `yaml:"url" json:"url"`
	// Airport is the IATA code of the monitored airport.
	Airport string `yaml:"airport" json:"airport"`
	// Limit is how many recent flights to analyze per run.
	Limit int `yaml:"limit" json:"limit"`
	// APIKey comes from AVIATIONSTACK_API_KEY; empty disables the source.
	APIKey string `yaml:"-" json:"-"`
}

// EmailConfig holds SMTP transport settings. Credentials and the recipient
// come from the environment (GMAIL_ADDRESS, GMAIL_APP_PASSWORD,
// RECIPIENT_EMAIL).
type EmailConfig struct {
	Host string `yaml:"host" json:"host"`
	Port int    `yaml:"port" json:"port"`
	// AlwaysSend sends the daily summary even when there is nothing new and
	// flight demand is not HIGH.
	AlwaysSend bool   `yaml:"always_send" json:"always_send"`
	Username   string `yaml:"-" json:"-"`
	Password   string `yaml:"-" json:"-"`
	From       string `yaml:"-" json:"-"`
	Recipient  string `yaml:"-" json:"-"`
}

// Config is the top-level application configuration.
type Config struct {
	// DataFile is the JSON snapshot path.
	DataFile string `yaml:"data_file" json:"data_file"`

	// HorizonDays is the upcoming-window size; 0 means "starts today only".
	HorizonDays int `yaml:"horizon_days" json:"horizon_days"`

	// LookaheadDays bounds recurrence expansion for ICS feeds.
	LookaheadDays int `yaml:"lookahead_days" json:"lookahead_days"`

	// RequestTimeoutSec is the fixed per-call network timeout.
	RequestTimeoutSec int `yaml:"request_timeout_sec" json:"request_timeout_sec"`

	// RefreshCron is the schedule used by the daemon subcommand
	// (e.g. "0 7 * * *"). The run subcommand ignores it.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	Feeds   FeedsConfig   `yaml:"feeds" json:"feeds"`
	Flights FlightsConfig `yaml:"flights" json:"flights"`
	Email   EmailConfig   `yaml:"email" json:"email"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		DataFile:          "data/events.json",
		HorizonDays:       2,
		LookaheadDays:     90,
		RequestTimeoutSec: 15,
		RefreshCron:       "0 7 * * *",
		Feeds: FeedsConfig{
			McCormick: McCormickConfig{
				Enabled:       true,
				URL:           "https://mpea-web.ungerboeck.com/calendarWebService/api/GetEvents",
				DetailURLBase: "https://www.mccormickplace.com/events/",
			},
			Ticketmaster: TicketmasterConfig{
				Enabled: true,
				URL:     "https://app.ticketmaster.com/discovery/v2/events.json",
				VenueID: "KovZpZAJna6A", // United Center
			},
			ICS:     []ICSFeedConfig{},
			Browser: []BrowserFeedConfig{},
		},
		Flights: FlightsConfig{
			URL:     "http://api.aviationstack.com/v1/flights",
			Airport: "ORD",
			Limit:   100,
		},
		Email: EmailConfig{
			Host: "smtp.gmail.com",
			Port: 587,
		},
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	def := DefaultConfig()

	if c.DataFile == "" {
		c.DataFile = def.DataFile
	}
	if c.HorizonDays < 0 {
		c.HorizonDays = def.HorizonDays
	}
	if c.LookaheadDays <= 0 {
		c.LookaheadDays = def.LookaheadDays
	}
	if c.RequestTimeoutSec <= 0 {
		c.RequestTimeoutSec = def.RequestTimeoutSec
	}
	if c.RefreshCron == "" {
		c.RefreshCron = def.RefreshCron
	}

	if c.Feeds.McCormick.URL == "" {
		c.Feeds.McCormick.URL = def.Feeds.McCormick.URL
	}
	if c.Feeds.McCormick.DetailURLBase == "" {
		c.Feeds.McCormick.DetailURLBase = def.Feeds.McCormick.DetailURLBase
	}
	if c.Feeds.Ticketmaster.URL == "" {
		c.Feeds.Ticketmaster.URL = def.Feeds.Ticketmaster.URL
	}
	if c.Feeds.Ticketmaster.VenueID == "" {
		c.Feeds.Ticketmaster.VenueID = def.Feeds.Ticketmaster.VenueID
	}
	if c.Feeds.ICS == nil {
		c.Feeds.ICS = []ICSFeedConfig{}
	}
	if c.Feeds.Browser == nil {
		c.Feeds.Browser = []BrowserFeedConfig{}
	}

	if c.Flights.URL == "" {
		c.Flights.URL = def.Flights.URL
	}
	if c.Flights.Airport == "" {
		c.Flights.Airport = def.Flights.Airport
	}
	if c.Flights.Limit <= 0 {
		c.Flights.Limit = def.Flights.Limit
	}

	if c.Email.Host == "" {
		c.Email.Host = def.Email.Host
	}
	if c.Email.Port <= 0 {
		c.Email.Port = def.Email.Port
	}
}

// applyEnv overlays secrets from the environment onto the config.
func (c *Config) applyEnv() {
	if v := os.Getenv("TICKETMASTER_API_KEY"); v != "" {
		c.Feeds.Ticketmaster.APIKey = v
	}
	if v := os.Getenv("AVIATIONSTACK_API_KEY"); v != "" {
		c.Flights.APIKey = v
	}
	if v := os.Getenv("GMAIL_ADDRESS"); v != "" {
		c.Email.Username = v
		c.Email.From = v
	}
	if v := os.Getenv("GMAIL_APP_PASSWORD"); v != "" {
		c.Email.Password = v
	}
	if v := os.Getenv("RECIPIENT_EMAIL"); v != "" {
		c.Email.Recipient = v
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - An optional .env file next to the working directory is loaded first.
//   - If the config file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
//   - Environment secrets are overlaid in both cases.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	// Missing .env is fine; real deployments use actual environment vars.
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			cfg.applyEnv()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	cfg.applyEnv()

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML (secrets carry `yaml:"-"` and are never written).
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	// Atomic write: write to temp file in same directory then rename.
	tmp, err := os.CreateTemp(dir, ".chievents-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	if err := os.Rename(tmpName, path); err != nil {
		return err
	}

	return nil
}
