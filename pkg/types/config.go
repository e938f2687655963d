// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make
// network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// MaxRetries bounds retries on rate-limited or unavailable responses.
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// BrokerConfig holds settings for talking to the search broker.
type BrokerConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// URL is the broker endpoint, e.g. "http://localhost:9004/search.pz2".
	URL string `json:"url" yaml:"url" mapstructure:"url"`

	// ServiceProxy enables the service-proxy authentication handshake.
	ServiceProxy bool `json:"service_proxy" yaml:"service_proxy" mapstructure:"service_proxy"`

	// AuthURL is the proxy authentication endpoint, used when ServiceProxy is set.
	AuthURL string `json:"auth_url,omitempty" yaml:"auth_url,omitempty" mapstructure:"auth_url"`

	// PollInterval is the delay between show/stat/bytarget polls (default 1s).
	PollInterval time.Duration `json:"poll_interval" yaml:"poll_interval" mapstructure:"poll_interval"`
}

// FacetConfig configures one facet type.
type FacetConfig struct {
	// Type is the facet type, e.g. "medium" or "filterDate".
	Type string `json:"type" yaml:"type" mapstructure:"type"`

	// MaxFetch caps the number of terms shown; 0 means unlimited.
	MaxFetch int `json:"max_fetch" yaml:"max_fetch" mapstructure:"max_fetch"`

	// MinDisplay is the number of terms required before the facet is shown.
	MinDisplay int `json:"min_display" yaml:"min_display" mapstructure:"min_display"`
}

// ClientConfig holds settings for the result pipeline.
type ClientConfig struct {
	// MaxRecords is the number of records requested from the broker (default 100).
	MaxRecords int `json:"max_records" yaml:"max_records" mapstructure:"max_records"`

	// RecordsPerPage is the default page size (default 20).
	RecordsPerPage int `json:"records_per_page" yaml:"records_per_page" mapstructure:"records_per_page"`

	// UseBrokerFacets prefers broker term lists over self-computed facets
	// when no filter is active. When false the client computes its own
	// facets and normalizes medium and language on merge.
	UseBrokerFacets bool `json:"use_broker_facets" yaml:"use_broker_facets" mapstructure:"use_broker_facets"`

	// ServerSidePaging requests only the current page window from the broker.
	ServerSidePaging bool `json:"server_side_paging" yaml:"server_side_paging" mapstructure:"server_side_paging"`

	// DateHistogram shows the date facet as a histogram rather than a list.
	DateHistogram bool `json:"date_histogram" yaml:"date_histogram" mapstructure:"date_histogram"`

	// HistogramBucketYears is the width of one histogram bar (default 1).
	HistogramBucketYears int `json:"histogram_bucket_years" yaml:"histogram_bucket_years" mapstructure:"histogram_bucket_years"`

	// Sort is the default sort specification, e.g. "date:desc,author:asc".
	Sort string `json:"sort" yaml:"sort" mapstructure:"sort"`

	// Facets lists the facet types in evaluation order.
	Facets []FacetConfig `json:"facets" yaml:"facets" mapstructure:"facets"`

	// HistoryLimit caps the stored search history (default 50).
	HistoryLimit int `json:"history_limit" yaml:"history_limit" mapstructure:"history_limit"`
}

// StorageConfig selects the key/value backend for clipboard and history.
type StorageConfig struct {
	// Driver is "sqlite" (default) or "redis".
	Driver string `json:"driver" yaml:"driver" mapstructure:"driver"`

	// Path is the SQLite database file.
	Path string `json:"path" yaml:"path" mapstructure:"path"`

	// Addrs lists Redis/Valkey addresses.
	Addrs []string `json:"addrs,omitempty" yaml:"addrs,omitempty" mapstructure:"addrs"`

	// Password is the Redis password.
	Password string `json:"password,omitempty" yaml:"password,omitempty" mapstructure:"password"`

	// KeyPrefix namespaces keys so several clients can share a backend.
	KeyPrefix string `json:"key_prefix" yaml:"key_prefix" mapstructure:"key_prefix"`
}

// ExportConfig holds settings for record export.
type ExportConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// ConverterURL is the external format converter endpoint.
	ConverterURL string `json:"converter_url,omitempty" yaml:"converter_url,omitempty" mapstructure:"converter_url"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Env is "prod" for JSON logs or "local"/"dev" for console logs.
	Env string `json:"env" yaml:"env" mapstructure:"env"`

	// Level overrides the log level: debug, info, warn, error.
	Level string `json:"level" yaml:"level" mapstructure:"level"`
}

// Config groups all settings.
type Config struct {
	Broker  BrokerConfig  `json:"broker" yaml:"broker" mapstructure:"broker"`
	Client  ClientConfig  `json:"client" yaml:"client" mapstructure:"client"`
	Storage StorageConfig `json:"storage" yaml:"storage" mapstructure:"storage"`
	Export  ExportConfig  `json:"export" yaml:"export" mapstructure:"export"`
	Logging LoggingConfig `json:"logging" yaml:"logging" mapstructure:"logging"`
}

// DefaultFacets is the facet layout used when none is configured.
func DefaultFacets() []FacetConfig {
	return []FacetConfig{
		{Type: FacetTargets, MaxFetch: 25, MinDisplay: 1},
		{Type: FieldMedium, MaxFetch: 12, MinDisplay: 1},
		{Type: FieldLanguage, MaxFetch: 5, MinDisplay: 1},
		{Type: FieldAuthor, MaxFetch: 10, MinDisplay: 1},
		{Type: FacetDate, MaxFetch: 10, MinDisplay: 5},
	}
}

// ApplyDefaults fills zero-valued fields with default values.
func (c *Config) ApplyDefaults() {
	if c.Broker.Timeout <= 0 {
		c.Broker.Timeout = 30 * time.Second
	}
	if c.Broker.UserAgent == "" {
		c.Broker.UserAgent = "metasearch/0.1"
	}
	if c.Broker.PollInterval <= 0 {
		c.Broker.PollInterval = time.Second
	}
	if c.Client.MaxRecords <= 0 {
		c.Client.MaxRecords = 100
	}
	if c.Client.RecordsPerPage <= 0 {
		c.Client.RecordsPerPage = 20
	}
	if c.Client.HistogramBucketYears <= 0 {
		c.Client.HistogramBucketYears = 1
	}
	if c.Client.Sort == "" {
		c.Client.Sort = "date:desc,author:asc,title:asc"
	}
	if len(c.Client.Facets) == 0 {
		c.Client.Facets = DefaultFacets()
	}
	if c.Client.HistoryLimit <= 0 {
		c.Client.HistoryLimit = 50
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "sqlite"
	}
	if c.Storage.Path == "" {
		c.Storage.Path = "metasearch.db"
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "metasearch:"
	}
	if c.Export.Timeout <= 0 {
		c.Export.Timeout = 60 * time.Second
	}
	if c.Export.UserAgent == "" {
		c.Export.UserAgent = c.Broker.UserAgent
	}
	if c.Logging.Env == "" {
		c.Logging.Env = "local"
	}
}

// FacetTypes returns the configured facet types in order.
func (c ClientConfig) FacetTypes() []string {
	out := make([]string, len(c.Facets))
	for i, f := range c.Facets {
		out[i] = f.Type
	}
	return out
}
