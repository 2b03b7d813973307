// Package config assembles and validates the bridge settings gathered
// from flags, environment and the config file.
package config

import (
	_ "embed"
	"encoding/json"

	"github.com/go-openapi/spec"
	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/validate"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

//go:embed config.schema.json
var schemaJSON []byte

var configSchema spec.Schema

func init() {
	if err := json.Unmarshal(schemaJSON, &configSchema); err != nil {
		panic(errors.Wrap(err, "parsing embedded config schema"))
	}
}

// Config holds the validated bridge settings.
type Config struct {
	Domain      string
	ProxyHost   string
	ProxyPort   int
	Cookie      string
	CookieFile  string
	Televisions bool
}

// FromViper reads the bridge settings from v and validates them
// against the embedded schema. Settings are rejected as a group, with
// every violation reported at once.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Domain:      v.GetString("alexa.domain"),
		ProxyHost:   v.GetString("alexa.proxy-host"),
		ProxyPort:   v.GetInt("alexa.proxy-port"),
		Cookie:      v.GetString("alexa.cookie"),
		CookieFile:  v.GetString("alexa.cookie-file"),
		Televisions: v.GetBool("bridge.televisions"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	// Mirror the shape the schema describes. Numbers go in as float64,
	// which is how they would arrive from a JSON document.
	data := map[string]interface{}{
		"domain":      c.Domain,
		"proxy-host":  c.ProxyHost,
		"proxy-port":  float64(c.ProxyPort),
		"televisions": c.Televisions,
	}
	if c.Cookie != "" {
		data["cookie"] = c.Cookie
	}
	if c.CookieFile != "" {
		data["cookie-file"] = c.CookieFile
	}

	if err := validate.AgainstSchema(&configSchema, data, strfmt.Default); err != nil {
		return errors.Wrap(err, "invalid configuration")
	}

	return nil
}
