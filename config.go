package lldpd

import (
	"net"
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config is the externally supplied engine configuration. The engine
// reads it once at startup; it owns neither the file nor its lifetime.
type Config struct {
	// StationName overrides the advertised station name. Empty means
	// fall back to the source MAC address string.
	StationName string `yaml:"station_name"`

	// ManagementIP is the advertised IPv4 management address. Empty
	// means the source MAC is advertised instead.
	ManagementIP string `yaml:"management_ip"`

	// ManagementIfIndex is the IfTable index the management address
	// belongs to (default 1).
	ManagementIfIndex uint32 `yaml:"management_if_index"`

	// TxIntervalSeconds is the transmission interval (default 5).
	TxIntervalSeconds int `yaml:"tx_interval"`

	// TTLSeconds is the advertised time to live (default 20).
	TTLSeconds int `yaml:"ttl"`

	// Ports lists the physical ports in port-number order. The
	// management port must not be listed.
	Ports []PortConfig `yaml:"ports"`
}

// LoadConfig reads and validates a YAML configuration file.
func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, errors.Wrap(err, "parse config")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) validate() error {
	if len(c.Ports) == 0 {
		return errors.New("config: at least one port required")
	}
	for i, p := range c.Ports {
		if p.InterfaceName == "" {
			return errors.Errorf("config: port %d: interface name required", i+1)
		}
	}
	if c.ManagementIP != "" {
		ip := net.ParseIP(c.ManagementIP)
		if ip == nil || ip.To4() == nil {
			return errors.Errorf("config: invalid management_ip %q", c.ManagementIP)
		}
	}
	if c.TxIntervalSeconds < 0 || c.TTLSeconds < 0 {
		return errors.New("config: negative interval")
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.TxIntervalSeconds == 0 {
		c.TxIntervalSeconds = int(defaultTxInterval / time.Second)
	}
	if c.TTLSeconds == 0 {
		c.TTLSeconds = int(defaultTTL / time.Second)
	}
	if c.ManagementIfIndex == 0 {
		c.ManagementIfIndex = 1
	}
}

// Options translates the configuration into engine options.
func (c *Config) Options() []Option {
	opts := []Option{
		Ports(c.Ports),
		TxInterval(time.Duration(c.TxIntervalSeconds) * time.Second),
		TTL(time.Duration(c.TTLSeconds) * time.Second),
	}
	if c.StationName != "" {
		opts = append(opts, StationName(c.StationName))
	}
	if c.ManagementIP != "" {
		ip := net.ParseIP(c.ManagementIP).To4()
		opts = append(opts, ManagementAddr(ManAddrFamilyIPv4, ip, c.ManagementIfIndex))
	}
	return opts
}
