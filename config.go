package goxq

import (
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/sandrolain/goxq/pkg/evaluator"
)

// Config is the file form of the evaluator options:
//
//	debug: false
//	max_depth: 1000
//	timeout: 5s
//	caching: true
//	cache_size: 512
//	timezone: Europe/Rome
//	namespaces:
//	  bk: http://example.com/books
//	resource_root: /srv/data
type Config struct {
	Debug        bool              `yaml:"debug"`
	MaxDepth     int               `yaml:"max_depth"`
	Timeout      time.Duration     `yaml:"timeout"`
	Caching      bool              `yaml:"caching"`
	CacheSize    int               `yaml:"cache_size"`
	Timezone     string            `yaml:"timezone"`
	Namespaces   map[string]string `yaml:"namespaces"`
	ResourceRoot string            `yaml:"resource_root"`

	fs afero.Fs
}

// LoadConfig reads a YAML configuration file from fs. Resources named by
// resource_root are later read from the same filesystem.
func LoadConfig(fs afero.Fs, path string) (*Config, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Wrapf(err, "goxq: read config %s", path)
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, errors.Wrapf(err, "goxq: parse config %s", path)
	}
	c.fs = fs
	return &c, nil
}

// Options turns the configuration into evaluator options. Unset fields
// keep the evaluator defaults.
func (c *Config) Options() ([]EvalOption, error) {
	opts := []EvalOption{
		evaluator.WithDebug(c.Debug),
		evaluator.WithCaching(c.Caching),
	}
	if c.MaxDepth > 0 {
		opts = append(opts, evaluator.WithMaxDepth(c.MaxDepth))
	}
	if c.Timeout > 0 {
		opts = append(opts, evaluator.WithTimeout(c.Timeout))
	}
	if c.CacheSize > 0 {
		opts = append(opts, evaluator.WithCacheSize(c.CacheSize))
	}
	if c.Timezone != "" {
		loc, err := time.LoadLocation(c.Timezone)
		if err != nil {
			return nil, errors.Wrapf(err, "goxq: timezone %q", c.Timezone)
		}
		opts = append(opts, evaluator.WithTimezone(loc))
	}
	for prefix, uri := range c.Namespaces {
		opts = append(opts, evaluator.WithNamespace(prefix, uri))
	}
	if c.ResourceRoot != "" {
		fs := c.fs
		if fs == nil {
			fs = afero.NewOsFs()
		}
		opts = append(opts, evaluator.WithResourceLoader(evaluator.NewFSLoader(afero.NewBasePathFs(fs, c.ResourceRoot))))
	}
	return opts, nil
}
