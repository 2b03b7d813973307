package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validViper() *viper.Viper {
	v := viper.New()
	v.Set("alexa.domain", "amazon.com")
	v.Set("alexa.proxy-host", "raspberrypi.local")
	v.Set("alexa.proxy-port", 9000)
	v.Set("alexa.cookie-file", "/var/lib/bridge/cookie.json")
	return v
}

func TestFromViper(t *testing.T) {
	cfg, err := FromViper(validViper())
	require.NoError(t, err)

	assert.Equal(t, "amazon.com", cfg.Domain)
	assert.Equal(t, "raspberrypi.local", cfg.ProxyHost)
	assert.Equal(t, 9000, cfg.ProxyPort)
	assert.Equal(t, "/var/lib/bridge/cookie.json", cfg.CookieFile)
	assert.False(t, cfg.Televisions)
}

func TestFromViperRequiresDomain(t *testing.T) {
	v := validViper()
	v.Set("alexa.domain", "")

	_, err := FromViper(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "domain")
}

func TestFromViperRejectsBadPort(t *testing.T) {
	for _, port := range []int{0, -1, 70000} {
		v := validViper()
		v.Set("alexa.proxy-port", port)

		_, err := FromViper(v)
		assert.Error(t, err, "port %d", port)
	}
}

func TestFromViperReadsTelevisions(t *testing.T) {
	v := validViper()
	v.Set("bridge.televisions", true)

	cfg, err := FromViper(v)
	require.NoError(t, err)
	assert.True(t, cfg.Televisions)
}
