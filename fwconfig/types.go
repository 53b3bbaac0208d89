// Package fwconfig assembles the framework's layered configuration tree:
// a default file, a profile override, an environment overlay, and an
// optional remote source, plus the custom ("cs"/"csm") sub-trees business
// code can type into its own shape.
package fwconfig

import "time"

// FamilyConfig is the per-component-family shape shared by every family:
// one default module config plus a lower-cased-code-keyed map of named
// module configs (spec §3 "Framework Config").
type FamilyConfig[T any] struct {
	Enabled bool            `mapstructure:"enabled"`
	Default T               `mapstructure:"default"`
	Modules map[string]T    `mapstructure:"modules"`
}

// DBModuleConfig configures one reldb module instance.
type DBModuleConfig struct {
	URL             string        `mapstructure:"url"`
	MaxConnections  int32         `mapstructure:"max_connections"`
	MinConnections  int32         `mapstructure:"min_connections"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	// Compatible selects a non-default SQL dialect quirk, e.g. "oracle" for
	// PL/SQL trigger syntax in the schema bootstrap (spec §4.4.4).
	Compatible string `mapstructure:"compatible"`
}

// CacheModuleConfig configures one cache module instance.
type CacheModuleConfig struct {
	URL          string        `mapstructure:"url"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// MQModuleConfig configures one MQ module instance.
type MQModuleConfig struct {
	URL string `mapstructure:"url"`
}

// MailModuleConfig configures one mail module instance.
type MailModuleConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	User        string `mapstructure:"user"`
	Password    string `mapstructure:"password"`
	DefaultFrom string `mapstructure:"default_from"`
	SSL         bool   `mapstructure:"ssl"`
}

// OSModuleConfig configures one object-store module instance (S3-compatible).
type OSModuleConfig struct {
	Region    string `mapstructure:"region"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"default_bucket"`
	PathStyle bool   `mapstructure:"path_style"`
}

// SearchModuleConfig configures one search module instance.
type SearchModuleConfig struct {
	URL      string `mapstructure:"url"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// WebClientModuleConfig configures one web-client module instance.
type WebClientModuleConfig struct {
	ConnectTimeout    time.Duration `mapstructure:"connect_timeout"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
	RateLimitPerSec   float64       `mapstructure:"rate_limit_per_sec"`
	DefaultHeaders    map[string]string `mapstructure:"default_headers"`
}

// WebServerModuleConfig configures one HTTP/gRPC web server module instance.
type WebServerModuleConfig struct {
	Host                 string        `mapstructure:"host"`
	Port                 int           `mapstructure:"port"`
	GRPCPort             int           `mapstructure:"grpc_port"`
	ContextHeaderName    string        `mapstructure:"context_header_name"`
	TokenCacheKey        string        `mapstructure:"token_cache_key"`
	AllowedOrigin        string        `mapstructure:"allowed_origin"`
	SecurityHideErrMsg   bool          `mapstructure:"security_hide_err_msg"`
	TLSKey               string        `mapstructure:"tls_key"`
	TLSCert              string        `mapstructure:"tls_cert"`
	GracefulShutdown     time.Duration `mapstructure:"graceful_shutdown_timeout"`
	DocPath              string        `mapstructure:"doc_path"`
}

// ClusterModuleConfig configures the (thin, no live backend) cluster family.
type ClusterModuleConfig struct {
	Nodes []string `mapstructure:"nodes"`
}

// LogConfig configures the Logging/Tracing builder (spec §4.3).
type LogConfig struct {
	Level             string `mapstructure:"level"`
	Format            string `mapstructure:"format"` // "json" | "text"
	OTLPEndpoint      string `mapstructure:"otlp_endpoint"`
	OTLPProtocol      string `mapstructure:"otlp_protocol"` // "grpc" | "http/protobuf"
	RollingFilePath   string `mapstructure:"rolling_file_path"`
	RollingFileMaxMB  int    `mapstructure:"rolling_file_max_mb"`
	RollingFileMaxAge int    `mapstructure:"rolling_file_max_age_days"`
	RollingBackups    int    `mapstructure:"rolling_file_max_backups"`
	Compress          bool   `mapstructure:"rolling_file_compress"`
	AsyncConsole      bool   `mapstructure:"async_console"`
}

// AppConfig is free-form application identity metadata.
type AppConfig struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
	Desc    string `mapstructure:"desc"`
}

// AdvConfig holds the "advanced" knobs spec §4.2 calls out by name.
type AdvConfig struct {
	Salt      string `mapstructure:"salt"`
	Backtrace string `mapstructure:"backtrace"`
}

// FrameworkConfig is the "fw" sub-tree (spec §3 "Framework Config").
type FrameworkConfig struct {
	DB        FamilyConfig[DBModuleConfig]        `mapstructure:"db"`
	Cache     FamilyConfig[CacheModuleConfig]     `mapstructure:"cache"`
	MQ        FamilyConfig[MQModuleConfig]        `mapstructure:"mq"`
	Mail      FamilyConfig[MailModuleConfig]      `mapstructure:"mail"`
	OS        FamilyConfig[OSModuleConfig]        `mapstructure:"os"`
	Search    FamilyConfig[SearchModuleConfig]    `mapstructure:"search"`
	WebClient FamilyConfig[WebClientModuleConfig] `mapstructure:"web_client"`
	WebServer FamilyConfig[WebServerModuleConfig] `mapstructure:"web_server"`
	Cluster   FamilyConfig[ClusterModuleConfig]   `mapstructure:"cluster"`
	Log       LogConfig                           `mapstructure:"log"`
	App       AppConfig                           `mapstructure:"app"`
	Adv       AdvConfig                           `mapstructure:"adv"`
}

// CustomConfig is the "cs"/"csm" sub-tree business code types into its own
// shape via CsConfig[T] (spec §4.1 cs_config).
type CustomConfig struct {
	CS  map[string]any            `mapstructure:"cs"`
	CSM map[string]map[string]any `mapstructure:"csm"`
}

// Tree is the fully assembled configuration: custom + framework.
type Tree struct {
	Custom CustomConfig
	FW     FrameworkConfig
}
