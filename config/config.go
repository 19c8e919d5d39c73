// Package config loads codec settings from an optional TOML file.
package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/dustin/go-humanize"
	"golang.org/x/net/http/httpguts"

	"github.com/ozontech/arriwire/consts"
	"github.com/ozontech/arriwire/formats/arri/wire/encoding"
	"github.com/ozontech/arriwire/formats/model"
)

type Config struct {
	ProtocolVersion string
	MaxFrameSize    int
	InternCacheSize int
	// ClientVersion and ContentType fill invocations built by the CLI.
	ClientVersion string
	ContentType   model.ContentType
}

func Default() Config {
	return Config{
		ProtocolVersion: consts.ProtocolVersion,
		MaxFrameSize:    consts.DefaultMaxFrameSize,
		InternCacheSize: consts.DefaultInternCacheSize,
		ContentType:     model.ContentTypeJSON,
	}
}

type fileConfig struct {
	ProtocolVersion string `toml:"protocol_version"`
	MaxFrameSize    string `toml:"max_frame_size"`
	InternCacheSize int    `toml:"intern_cache_size"`
	ClientVersion   string `toml:"client_version"`
	ContentType     string `toml:"content_type"`
}

// Load reads path over the defaults. Keys missing from the file keep their
// default value; unknown keys are an error.
func Load(path string) (Config, error) {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	return fromFile(raw, meta)
}

// Parse is Load for an in-memory document.
func Parse(doc string) (Config, error) {
	var raw fileConfig
	meta, err := toml.Decode(doc, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return fromFile(raw, meta)
}

func fromFile(raw fileConfig, meta toml.MetaData) (Config, error) {
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return Config{}, fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}

	cfg := Default()

	if meta.IsDefined("protocol_version") {
		cfg.ProtocolVersion = strings.TrimSpace(raw.ProtocolVersion)
	}

	if meta.IsDefined("max_frame_size") {
		n, err := humanize.ParseBytes(strings.TrimSpace(raw.MaxFrameSize))
		if err != nil {
			return Config{}, fmt.Errorf("parse max_frame_size: %w", err)
		}
		cfg.MaxFrameSize = int(n)
	}

	if meta.IsDefined("intern_cache_size") {
		cfg.InternCacheSize = raw.InternCacheSize
	}

	if meta.IsDefined("client_version") {
		cfg.ClientVersion = strings.TrimSpace(raw.ClientVersion)
	}

	if meta.IsDefined("content_type") {
		v := strings.TrimSpace(raw.ContentType)
		if v == "" {
			cfg.ContentType = model.ContentTypeUnset
		} else {
			ct, err := model.ParseContentType(v)
			if err != nil {
				return Config{}, fmt.Errorf("parse content_type: %w", err)
			}
			cfg.ContentType = ct
		}
	}

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.ProtocolVersion == "" || strings.ContainsAny(c.ProtocolVersion, " \n") {
		return fmt.Errorf("protocol_version %q must be a non-empty token", c.ProtocolVersion)
	}
	if c.MaxFrameSize < 0 {
		return fmt.Errorf("max_frame_size must not be negative")
	}
	if c.InternCacheSize < 0 {
		return fmt.Errorf("intern_cache_size must not be negative")
	}
	if !httpguts.ValidHeaderFieldValue(c.ClientVersion) {
		return fmt.Errorf("client_version must not contain line breaks or control characters")
	}
	return nil
}

func (c Config) EncoderOptions() []encoding.EncoderOption {
	return []encoding.EncoderOption{encoding.WithProtocolVersion(c.ProtocolVersion)}
}

func (c Config) DecoderOptions() []encoding.DecoderOption {
	return []encoding.DecoderOption{
		encoding.WithMaxFrameSize(c.MaxFrameSize),
		encoding.WithInternCache(c.InternCacheSize),
	}
}
