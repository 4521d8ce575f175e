package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/scpsigma/scpsigma-go/pkg/config"
)

// connFlags are the flags shared by commands that open a connection.
type connFlags struct {
	configPath string
	envPath    string
	values     map[string]*string
}

// connFlagNames maps connection flag names to their usage.
var connFlagNames = []struct{ name, usage string }{
	{"host", "Remote host"},
	{"port", "SSH port (default 22)"},
	{"user", "SSH user"},
	{"key", "Private key file"},
	{"passphrase", "Private key passphrase"},
	{"known-hosts", "known_hosts file (default ~/.ssh/known_hosts)"},
	{"host-key-policy", "Host key policy (strict, accept-new, insecure)"},
	{"bwlimit", "Bandwidth limit in KB/s (0 = unlimited)"},
	{"timeout", "Connection timeout (e.g. 15s)"},
	{"retries", "Attempts per file"},
	{"log-level", "Log level (debug, info, warn, error, off)"},
}

func addConnFlags(fs *flag.FlagSet) *connFlags {
	cf := &connFlags{values: make(map[string]*string)}
	fs.StringVar(&cf.configPath, "config", "", "YAML config file")
	fs.StringVar(&cf.envPath, "env", ".env", "Environment file loaded before SCPSIGMA_* overrides")
	for _, f := range connFlagNames {
		cf.values[f.name] = fs.String(f.name, "", f.usage)
	}
	return cf
}

// load builds the configuration: defaults, config file, .env file,
// environment, then the flags given on the command line.
func (cf *connFlags) load(fs *flag.FlagSet, extra func(name, value string, cfg *config.Config) error) (*config.Config, error) {
	cfg := config.Default()
	if cf.configPath != "" {
		var err error
		if cfg, err = config.Load(cf.configPath); err != nil {
			return nil, err
		}
	}

	envRequired := isSet(fs, "env")
	if err := config.LoadEnvFile(cf.envPath, envRequired); err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	var err error
	fs.Visit(func(f *flag.Flag) {
		if err != nil {
			return
		}
		value := f.Value.String()
		if err = applyConnFlag(f.Name, value, cfg); err != nil {
			return
		}
		if extra != nil {
			err = extra(f.Name, value, cfg)
		}
	})
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyConnFlag(name, value string, cfg *config.Config) error {
	var err error
	switch name {
	case "host":
		cfg.Host = value
	case "port":
		cfg.Port, err = strconv.Atoi(value)
	case "user":
		cfg.Username = value
	case "key":
		cfg.KeyPath = value
	case "passphrase":
		cfg.KeyPassphrase = value
	case "known-hosts":
		cfg.KnownHosts = value
	case "host-key-policy":
		cfg.HostKeyPolicy = value
	case "bwlimit":
		cfg.BandwidthLimit, err = strconv.Atoi(value)
	case "timeout":
		cfg.SocketTimeout, err = time.ParseDuration(value)
	case "retries":
		cfg.Retry.MaxAttempts, err = strconv.Atoi(value)
	case "log-level":
		cfg.LogLevel = value
	}
	if err != nil {
		return fmt.Errorf("invalid -%s: %w", name, err)
	}
	return nil
}

func isSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
