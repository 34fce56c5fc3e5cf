package nuntius

import (
	"github.com/meeseeks/nuntius/internal/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// Config configures a Nuntius handle. Only Paths[0] is used at the moment.
type Config struct {
	// Paths contains data directories. Currently only Paths[0] is used.
	Paths []string
	// MinimumFreeGB is checked before the store is opened. Zero disables the check.
	MinimumFreeGB int
	// Logger is optional. If nil, logrus.New() is used.
	Logger *logrus.Logger
	// Registerer receives the store counters. Nil leaves them unregistered.
	Registerer prometheus.Registerer
}

// LoadConfig reads a YAML config file. A missing file yields a config
// pointing at the platform data directory.
func LoadConfig(path string) (Config, error) {
	f, err := config.Load(path)
	if err != nil {
		return Config{}, err
	}

	conf := Config{
		Paths:         f.Paths,
		MinimumFreeGB: f.MinimumFreeGB,
	}
	if f.Metrics {
		conf.Registerer = prometheus.DefaultRegisterer
	}
	return conf, nil
}

// DefaultConfig points at the platform data directory with no free-space
// check and no metrics.
func DefaultConfig() (Config, error) {
	p, err := config.DefaultDataPath()
	if err != nil {
		return Config{}, err
	}
	return Config{Paths: []string{p}}, nil
}

func defaultLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.InfoLevel)
	return l
}
