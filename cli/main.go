package main

import (
	"flag"
	"net"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/fieldbus/lldpd"
)

func main() {
	configPath := flag.String("config", "/etc/lldpd/lldpd.yml", "path to the engine configuration")
	flag.Parse()

	log := logrus.New()

	cfg, err := lldpd.LoadConfig(*configPath)
	if err != nil {
		log.WithError(err).Fatal("loading configuration")
	}

	opts := cfg.Options()
	opts = append(opts,
		lldpd.InterfaceFilter(filterFn),
		lldpd.PortLookup(portDescFn),
		lldpd.WithLogger(lldpd.Adapt(log.WithField("service", "lldpd"))),
		lldpd.AlarmHandler(func(locPort int) {
			log.WithField("port", locPort).Warn("peer topology changed")
		}),
	)
	if addr := sourceAddress(cfg); addr != nil {
		opts = append(opts, lldpd.SourceAddress(addr))
	}

	srv := lldpd.New(opts...)
	if err := srv.Listen(); err != nil {
		log.WithError(err).Error("listener stopped")
		os.Exit(1)
	}
}

// sourceAddress uses the MAC of the first configured port interface.
func sourceAddress(cfg *lldpd.Config) net.HardwareAddr {
	if len(cfg.Ports) == 0 {
		return nil
	}
	ifi, err := net.InterfaceByName(cfg.Ports[0].InterfaceName)
	if err != nil {
		return nil
	}
	return ifi.HardwareAddr
}

func filterFn(ifi *net.Interface) bool {
	if ifi == nil {
		return false
	}
	return !strings.HasPrefix(ifi.Name, "lo")
}

func portDescFn(ifi *net.Interface) string {
	return ifi.Name
}
