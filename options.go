package lldpd

import (
	"net"
	"time"
)

// InterfaceFilterFn limits which network interfaces the engine will
// bind listeners on when interfaces appear.
type InterfaceFilterFn func(*net.Interface) bool

// PortLookupFn derives a port description from a network interface when
// the port configuration does not carry one.
type PortLookupFn func(*net.Interface) string

// AlarmFn is the alarm collaborator callback, invoked with the local
// port number whenever the peer topology on that port changes.
type AlarmFn func(locPort int)

// SendFn hands a fully built Ethernet frame to the network-I/O
// collaborator for transmission on a local port. Transmission is
// unacknowledged; errors are reported but never retried.
type SendFn func(locPort int, frame []byte) error

// Option configures the engine instance created by New.
type Option func(*LLDPD)

// SetOption applies an option to the engine.
func (l *LLDPD) SetOption(opt Option) {
	opt(l)
}

// InterfaceFilter sets the interface filter function.
func InterfaceFilter(fn InterfaceFilterFn) Option {
	return func(l *LLDPD) { l.filterFn = fn }
}

// PortLookup sets the port description lookup function.
func PortLookup(fn PortLookupFn) Option {
	return func(l *LLDPD) { l.portLookupFn = fn }
}

// SourceAddress sets the MAC address used as the source of transmitted
// frames and as the chassis identity fallback.
func SourceAddress(addr net.HardwareAddr) Option {
	return func(l *LLDPD) { l.sourceAddress = addr }
}

// StationName sets the configured station name. Without it the engine
// falls back to the source MAC address string.
func StationName(name string) Option {
	return func(l *LLDPD) { l.stationName = name }
}

// ManagementAddr sets the management address advertised in the
// Management Address TLV. Without it the source MAC is advertised.
func ManagementAddr(subtype uint8, value []byte, ifIndex uint32) Option {
	return func(l *LLDPD) {
		l.manAddress = ManagementAddress{Subtype: subtype, Value: value}
		l.manPortIndex = ManagementPortIndex{Subtype: ManAddrIfSubtypeIfIndex, Index: ifIndex}
	}
}

// Ports sets the static per-port configuration. Port numbers are
// assigned densely in slice order, starting at 1.
func Ports(cfgs []PortConfig) Option {
	return func(l *LLDPD) { l.portCfgs = cfgs }
}

// TxInterval sets the periodic transmission interval.
func TxInterval(d time.Duration) Option {
	return func(l *LLDPD) { l.interval = d }
}

// TTL sets the time-to-live advertised in transmitted frames.
func TTL(d time.Duration) Option {
	return func(l *LLDPD) { l.ttl = d }
}

// AlarmHandler sets the alarm collaborator notified on peer topology
// changes.
func AlarmHandler(fn AlarmFn) Option {
	return func(l *LLDPD) { l.alarmFn = fn }
}

// SendWith replaces the default raw-socket transmit path.
func SendWith(fn SendFn) Option {
	return func(l *LLDPD) { l.sendFn = fn }
}

// WithLogger sets the logger.
func WithLogger(log Logger) Option {
	return func(l *LLDPD) { l.log = log }
}
