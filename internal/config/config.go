package config

import (
	stderrors "errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"golang.org/x/time/rate"

	"github.com/harborlight/siteshell/internal/errors"
	"github.com/harborlight/siteshell/pkg/chrome"
	"github.com/harborlight/siteshell/pkg/routes"
	"github.com/harborlight/siteshell/pkg/scroll"
	"github.com/harborlight/siteshell/pkg/server"
	"github.com/harborlight/siteshell/pkg/shell"
)

const (
	// ConfigBaseName is the configuration file name without extension.
	ConfigBaseName = "siteshell"

	// EnvPrefix prefixes environment overrides.
	EnvPrefix = "SITESHELL"

	// DefaultPort is the default listen port.
	DefaultPort = 8080

	// DefaultHost is the default listen host.
	DefaultHost = "0.0.0.0"

	// DefaultDocument is the default host document path.
	DefaultDocument = "site/index.html"

	// DefaultModulesDir is the default module directory.
	DefaultModulesDir = "site/modules"

	// DefaultFetchTimeout bounds one module fetch.
	DefaultFetchTimeout = 10 * time.Second
)

// Module sources.
const (
	SourceDir = "dir"
	SourceS3  = "s3"
)

// Config is the complete siteshell configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Document DocumentConfig `mapstructure:"document"`
	Routes   RoutesConfig   `mapstructure:"routes"`
	Modules  ModulesConfig  `mapstructure:"modules"`
	Chrome   chrome.Config  `mapstructure:"chrome"`
	Scroll   ScrollConfig   `mapstructure:"scroll"`
	Log      LogConfig      `mapstructure:"log"`
	Tracing  TracingConfig  `mapstructure:"tracing"`

	// path is the file the config was read from, empty when none was found.
	path string
}

// ServerConfig configures the HTTP listener and sessions.
type ServerConfig struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port" validate:"min=1,max=65535"`
	StaticDir         string        `mapstructure:"static_dir"`
	MaxSessions       int           `mapstructure:"max_sessions" validate:"min=0"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" validate:"min=0"`
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval" validate:"min=0"`
	NavigationRate    float64       `mapstructure:"navigation_rate" validate:"min=0"`
	NavigationBurst   int           `mapstructure:"navigation_burst" validate:"min=0"`
	AllowedOrigins    []string      `mapstructure:"allowed_origins"`
}

// DocumentConfig locates the host document and its mount point.
type DocumentConfig struct {
	Path    string `mapstructure:"path" validate:"required"`
	MountID string `mapstructure:"mount_id" validate:"required"`
}

// RouteConfig is one route table entry.
type RouteConfig struct {
	Path   string `mapstructure:"path" yaml:"path" json:"path"`
	Module string `mapstructure:"module" yaml:"module" json:"module"`
}

// RoutesConfig is the route table: specific entries plus the fallback module.
type RoutesConfig struct {
	Entries  []RouteConfig `mapstructure:"entries"`
	Fallback string        `mapstructure:"fallback"`
}

// ModulesConfig selects and configures the module source.
type ModulesConfig struct {
	Source          string        `mapstructure:"source"`
	Dir             string        `mapstructure:"dir"`
	Ext             string        `mapstructure:"ext" validate:"omitempty,startswith=."`
	MaxBytes        int64         `mapstructure:"max_bytes" validate:"min=0"`
	FetchTimeout    time.Duration `mapstructure:"fetch_timeout" validate:"min=0"`
	WarmConcurrency int           `mapstructure:"warm_concurrency" validate:"min=0"`
	S3              S3Config      `mapstructure:"s3"`
}

// S3Config configures the S3 module source.
type S3Config struct {
	Bucket   string `mapstructure:"bucket"`
	Prefix   string `mapstructure:"prefix"`
	Region   string `mapstructure:"region"`
	Endpoint string `mapstructure:"endpoint" validate:"omitempty,url"`
}

// ScrollConfig configures fragment scrolling.
type ScrollConfig struct {
	FragmentDelay time.Duration `mapstructure:"fragment_delay" validate:"min=0"`
	AmbientSmooth bool          `mapstructure:"ambient_smooth"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level      string `mapstructure:"level" validate:"omitempty,oneof=debug info warn warning error"`
	Format     string `mapstructure:"format" validate:"omitempty,oneof=text json"`
	File       string `mapstructure:"file"`
	MaxSize    int    `mapstructure:"max_size" validate:"min=0"`
	MaxBackups int    `mapstructure:"max_backups" validate:"min=0"`
	MaxAge     int    `mapstructure:"max_age" validate:"min=0"`
	Compress   bool   `mapstructure:"compress"`
}

// TracingConfig configures span export.
type TracingConfig struct {
	Enabled bool `mapstructure:"enabled"`

	// File receives exported spans. Empty means stderr.
	File string `mapstructure:"file"`
}

// DefaultRoutes is the site's route table.
func DefaultRoutes() RoutesConfig {
	return RoutesConfig{
		Entries: []RouteConfig{
			{Path: "/", Module: "home"},
			{Path: "/product", Module: "platform"},
			{Path: "/specs", Module: "specs"},
			{Path: "/manifesto", Module: "manifesto"},
			{Path: "/faith", Module: "faith"},
			{Path: "/missions", Module: "missions"},
			{Path: "/give", Module: "give"},
			{Path: "/join", Module: "join"},
			{Path: "/contact", Module: "contact"},
			{Path: "/disclosure", Module: "disclosure"},
			{Path: "/privacy", Module: "privacy"},
			{Path: "/terms", Module: "terms"},
		},
		Fallback: shell.NotFoundModuleID,
	}
}

// NewViper returns a viper instance with defaults and environment binding.
// When path is empty the config file is searched in the working directory.
func NewViper(path string) *viper.Viper {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(ConfigBaseName)
		v.AddConfigPath(".")
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.host", DefaultHost)
	v.SetDefault("server.port", DefaultPort)
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.heartbeat_interval", "30s")
	v.SetDefault("document.path", DefaultDocument)
	v.SetDefault("document.mount_id", shell.DefaultMountID)
	v.SetDefault("modules.source", SourceDir)
	v.SetDefault("modules.dir", DefaultModulesDir)
	v.SetDefault("modules.fetch_timeout", DefaultFetchTimeout.String())
	v.SetDefault("scroll.fragment_delay", scroll.DefaultFragmentDelay.String())
	v.SetDefault("scroll.ambient_smooth", true)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.max_size", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age", 28)
	v.SetDefault("log.compress", true)
	return v
}

// Load reads, defaults and validates the configuration held by v.
// A missing file is not an error unless it was named explicitly.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		explicit := v.ConfigFileUsed() != ""
		switch {
		case stderrors.As(err, &notFound) && !explicit:
		case stderrors.As(err, &notFound), stderrors.Is(err, os.ErrNotExist):
			return nil, errors.New("E121").WithSubject(v.ConfigFileUsed()).Wrap(err)
		default:
			return nil, errors.New("E120").WithSubject(v.ConfigFileUsed()).Wrap(err)
		}
	} else {
		cfg.path = v.ConfigFileUsed()
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.New("E120").WithSubject(cfg.path).Wrap(err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile is Load for a single file path ("" searches the working directory).
func LoadFile(path string) (*Config, error) {
	return Load(NewViper(path))
}

// Path returns the file the config was read from.
func (c *Config) Path() string {
	return c.path
}

// Dir returns the directory relative paths are resolved against.
func (c *Config) Dir() string {
	if c.path == "" {
		return "."
	}
	return filepath.Dir(c.path)
}

// Resolve returns p relative to the config directory.
func (c *Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Dir(), p)
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Document.MountID == "" {
		c.Document.MountID = shell.DefaultMountID
	}
	if c.Document.Path == "" {
		c.Document.Path = DefaultDocument
	}
	if len(c.Routes.Entries) == 0 {
		fallback := c.Routes.Fallback
		c.Routes = DefaultRoutes()
		if fallback != "" {
			c.Routes.Fallback = fallback
		}
	}
	if c.Routes.Fallback == "" {
		c.Routes.Fallback = shell.NotFoundModuleID
	}
	if c.Modules.Source == "" {
		c.Modules.Source = SourceDir
	}
	if c.Modules.FetchTimeout == 0 {
		c.Modules.FetchTimeout = DefaultFetchTimeout
	}
	if c.Chrome.Brand == "" && len(c.Chrome.Nav) == 0 && len(c.Chrome.Footer) == 0 {
		c.Chrome = chrome.DefaultConfig()
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if stderrors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return errors.New("E122").
				WithSubject(fe.Namespace()).
				WithDetail(fmt.Sprintf("%q fails the %q check", fmt.Sprint(fe.Value()), fe.Tag())).
				Wrap(err)
		}
		return errors.New("E122").Wrap(err)
	}

	if _, err := routes.NewTable(c.RouteEntries()); err != nil {
		return errors.New("E123").WithDetail(err.Error()).Wrap(err)
	}

	switch c.Modules.Source {
	case SourceDir:
		if c.Modules.Dir == "" {
			return errors.New("E122").
				WithSubject("modules.dir").
				WithDetail("The dir source needs a module directory.")
		}
	case SourceS3:
		if c.Modules.S3.Bucket == "" {
			return errors.New("E122").
				WithSubject("modules.s3.bucket").
				WithDetail("The s3 source needs a bucket.")
		}
	default:
		return errors.New("E124").WithSubject(c.Modules.Source)
	}
	return nil
}

// RouteEntries returns the route table entries, fallback last.
func (c *Config) RouteEntries() []routes.RouteEntry {
	entries := make([]routes.RouteEntry, 0, len(c.Routes.Entries)+1)
	for _, r := range c.Routes.Entries {
		entries = append(entries, routes.RouteEntry{Pattern: r.Path, ModuleID: r.Module})
	}
	return append(entries, routes.RouteEntry{ModuleID: c.Routes.Fallback, IsFallback: true})
}

// Address returns host:port.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// ServerConfig converts the server section for server.New.
func (c *Config) ServerConfig() server.Config {
	sc := server.Config{
		Address:           c.Address(),
		StaticDir:         c.Resolve(c.Server.StaticDir),
		MaxSessions:       c.Server.MaxSessions,
		ShutdownTimeout:   c.Server.ShutdownTimeout,
		HeartbeatInterval: c.Server.HeartbeatInterval,
		NavigationRate:    rate.Limit(c.Server.NavigationRate),
		NavigationBurst:   c.Server.NavigationBurst,
	}
	if len(c.Server.AllowedOrigins) > 0 {
		sc.CheckOrigin = server.AllowedOriginsCheck(c.Server.AllowedOrigins)
	}
	return sc
}
