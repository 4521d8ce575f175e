package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SCPSIGMA_"

// LoadEnvFile loads KEY=value pairs from a .env file into the process
// environment. Variables already set are kept. A missing file is not an
// error unless required is set.
func LoadEnvFile(path string, required bool) error {
	err := godotenv.Load(path)
	if err == nil {
		return nil
	}
	if !required && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to load %s: %w", path, err)
}

// ApplyEnv overrides settings from SCPSIGMA_* variables.
func (c *Config) ApplyEnv() error {
	return c.applyEnv(os.LookupEnv)
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"HOST":            &c.Host,
		"USER":            &c.Username,
		"KEY":             &c.KeyPath,
		"KEY_PASSPHRASE":  &c.KeyPassphrase,
		"KNOWN_HOSTS":     &c.KnownHosts,
		"HOST_KEY_POLICY": &c.HostKeyPolicy,
		"REPORT":          &c.Report,
		"CHART":           &c.Chart,
		"JOURNAL":         &c.Journal,
		"DB":              &c.DB,
		"CHECKPOINT":      &c.Checkpoint,
		"MQTT_BROKER":     &c.MQTT.Broker,
		"MQTT_USERNAME":   &c.MQTT.Username,
		"MQTT_PASSWORD":   &c.MQTT.Password,
		"MQTT_TOPIC":      &c.MQTT.TopicPrefix,
		"LOG_LEVEL":       &c.LogLevel,
	}
	for name, dst := range strs {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"PORT":     &c.Port,
		"BWLIMIT":  &c.BandwidthLimit,
		"RETRIES":  &c.Retry.MaxAttempts,
		"PARALLEL": &c.Parallel,
	}
	for name, dst := range ints {
		v, ok := lookup(EnvPrefix + name)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
		*dst = n
	}

	if v, ok := lookup(EnvPrefix + "TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sTIMEOUT: %w", EnvPrefix, err)
		}
		c.SocketTimeout = d
	}
	if v, ok := lookup(EnvPrefix + "SKIP_VERIFY"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sSKIP_VERIFY: %w", EnvPrefix, err)
		}
		c.SkipVerify = b
	}
	return nil
}
