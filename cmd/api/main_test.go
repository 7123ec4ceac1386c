package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ubmap.app/internal/appconf"
	"ubmap.app/internal/overpass"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "ENV", "ADMIN_SECRET", "RATE_LIMIT", "DB_PATH", "OSRM_URL",
		"OSRM_PROFILE_URLS", "OSRM_TIMEOUT", "OVERPASS_URLS", "OVERPASS_URL", "BUS_STOP_BBOX", "GTFS_URL",
		"STOP_DEDUP_METERS", "INTERMEDIATE_STOP_METERS", "CLOUDINARY_CLOUD_NAME", "CLOUDINARY_API_KEY",
		"CLOUDINARY_API_SECRET", "CLOUDINARY_FOLDER", "TRUSTED_PROXIES"} {
		t.Setenv(key, "")
	}

	cfg, err := loadConfig(nil)
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Port)
	assert.Equal(t, appconf.Development, cfg.Env)
	assert.Equal(t, appconf.DefaultOSRMURL, cfg.OSRMURL)
	assert.Equal(t, map[string]string{"foot": "http://osrm_foot:5003", "car": "http://osrm:5002"}, cfg.OSRMProfileURLs)
	assert.Equal(t, 6*time.Second, cfg.OSRMTimeout)
	assert.Equal(t, overpass.DefaultEndpoints, cfg.OverpassURLs)
	assert.Equal(t, "47.84,106.76,47.99,107.20", cfg.BusStopBBox)
	assert.Equal(t, 20.0, cfg.StopDedupMeters)
	assert.Equal(t, 100.0, cfg.IntermediateStopMeters)
	assert.Equal(t, "ubmap", cfg.Cloudinary.Folder)
	assert.False(t, cfg.Cloudinary.Enabled())
	assert.Empty(t, cfg.TrustedProxies)
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("ENV", "production")
	t.Setenv("ADMIN_SECRET", "hunter2")
	t.Setenv("OSRM_PROFILE_URLS", "car=http://car:5000")
	t.Setenv("OSRM_TIMEOUT", "2.5")
	t.Setenv("OVERPASS_URLS", "")
	t.Setenv("OVERPASS_URL", "http://mirror/api/interpreter")
	t.Setenv("CLOUDINARY_CLOUD_NAME", "demo")
	t.Setenv("CLOUDINARY_API_KEY", "key")
	t.Setenv("CLOUDINARY_API_SECRET", "secret")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8")

	cfg, err := loadConfig(nil)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, appconf.Production, cfg.Env)
	assert.Equal(t, "hunter2", cfg.AdminSecret)
	assert.Equal(t, map[string]string{"car": "http://car:5000"}, cfg.OSRMProfileURLs)
	assert.Equal(t, 2500*time.Millisecond, cfg.OSRMTimeout)
	assert.Equal(t, append([]string{"http://mirror/api/interpreter"}, overpass.DefaultEndpoints...), cfg.OverpassURLs,
		"OVERPASS_URL goes in front of the public mirrors")
	assert.True(t, cfg.Cloudinary.Enabled())
	assert.Len(t, cfg.TrustedProxies, 1)
}

func TestLoadConfigFlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("PORT", "8080")

	cfg, err := loadConfig([]string{"-port", "9090", "-osrm-timeout", "3s", "-rate-limit", "0"})
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 3*time.Second, cfg.OSRMTimeout)
	assert.Zero(t, cfg.RateLimit)
}

func TestLoadConfigOverpassURLsReplaceDefaults(t *testing.T) {
	t.Setenv("OVERPASS_URL", "http://ignored/api/interpreter")
	t.Setenv("OVERPASS_URLS", "http://a/api/interpreter, http://b/api/interpreter")

	cfg, err := loadConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"http://a/api/interpreter", "http://b/api/interpreter"}, cfg.OverpassURLs)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	_, err := loadConfig([]string{"-osrm-profile-urls", "foot"})
	assert.Error(t, err)

	_, err = loadConfig([]string{"-trusted-proxies", "not-an-ip"})
	assert.Error(t, err)

	_, err = loadConfig([]string{"-port", "0"})
	assert.Error(t, err)
}
