package lldpd

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/mdlayher/lldp"
	"github.com/mdlayher/raw"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// LLDPD is one end-station LLDP engine instance. It periodically
// transmits discovery frames on every registered physical port, parses
// frames received from directly connected peers into a per-port
// topology store, and notifies the alarm collaborator when peer
// identity changes. The management port is never part of the port set.
type LLDPD struct {
	filterFn      InterfaceFilterFn
	portLookupFn  PortLookupFn
	sourceAddress net.HardwareAddr
	stationName   string
	manAddress    ManagementAddress
	manPortIndex  ManagementPortIndex
	portCfgs      []PortConfig
	interval      time.Duration
	ttl           time.Duration

	alarmFn AlarmFn
	sendFn  SendFn

	registry *PortRegistry
	store    *topologyStore

	listenersLock sync.RWMutex
	listeners     map[int]*packetConn // keyed by local port number

	started time.Time
	now     func() time.Time

	txRestartC chan bool
	done       chan struct{}
	closeOnce  sync.Once

	log Logger
}

type packetConn struct {
	conn *raw.Conn
	ifi  *net.Interface
}

// Default transmission cadence of the field-device profile.
const (
	defaultTxInterval = 5 * time.Second
	defaultTTL        = 20 * time.Second
)

// New returns a new engine with the optional options configured. The
// port registry and the local port records are built once here and stay
// fixed for the engine lifetime; only link status changes afterwards.
func New(opts ...Option) *LLDPD {
	l := &LLDPD{
		filterFn:      defaultInterfaceFilterFn,
		portLookupFn:  defaultPortLookupFn,
		sourceAddress: []byte{0xde, 0xad, 0xbe, 0xef, 0xde, 0xad},
		interval:      defaultTxInterval,
		ttl:           defaultTTL,
		listeners:     make(map[int]*packetConn),
		now:           time.Now,
		txRestartC:    make(chan bool),
		done:          make(chan struct{}),
	}

	for _, opt := range opts {
		l.SetOption(opt)
	}

	if l.log == nil {
		l.log = Adapt(logrus.New().WithField("service", "lldpd"))
	}
	if l.sendFn == nil {
		l.sendFn = l.rawSend
	}
	l.started = l.now()

	l.registry = newPortRegistry(len(l.portCfgs))
	l.store = newTopologyStore(l.buildIdentity(), l.portRecords())

	return l
}

// buildIdentity derives the interface-level attributes. A configured
// station name becomes a locally assigned chassis ID; otherwise the
// source MAC identifies the chassis and names the station.
func (l *LLDPD) buildIdentity() localIdentity {
	id := localIdentity{
		stationName:  l.stationName,
		manAddress:   l.manAddress,
		manPortIndex: l.manPortIndex,
	}
	if l.stationName != "" {
		id.chassisID = ChassisID{
			Subtype: IDSubtypeLocallyAssigned,
			Value:   []byte(l.stationName),
		}
	} else {
		id.chassisID = ChassisID{
			Subtype: IDSubtypeMACAddress,
			Value:   append([]byte(nil), l.sourceAddress...),
		}
		id.stationName = l.sourceAddress.String()
	}
	if len(id.manAddress.Value) == 0 {
		id.manAddress = ManagementAddress{
			Subtype: ManAddrFamily802,
			Value:   append([]byte(nil), l.sourceAddress...),
		}
	}
	if id.manPortIndex.Subtype == 0 {
		id.manPortIndex = ManagementPortIndex{Subtype: ManAddrIfSubtypeIfIndex, Index: 1}
	}
	return id
}

func (l *LLDPD) portRecords() []PortRecord {
	recs := make([]PortRecord, len(l.portCfgs))
	for i, cfg := range l.portCfgs {
		rec := PortRecord{
			PortNum: i + 1,
			PortID: PortID{
				Subtype: IDSubtypeLocallyAssigned,
				Value:   []byte(cfg.PortID),
			},
			PortDescription: cfg.Description,
		}
		if len(rec.PortID.Value) == 0 {
			rec.PortID.Value = []byte(defaultPortID(i + 1))
		}
		if rec.PortDescription == "" {
			if ifi, err := net.InterfaceByName(cfg.InterfaceName); err == nil {
				rec.PortDescription = l.portLookupFn(ifi)
			}
		}
		recs[i] = rec
	}
	return recs
}

// Listen starts the engine: one raw-socket listener per configured
// interface, the link watcher, the transmission timer, and the initial
// transmission. It blocks until Close.
func (l *LLDPD) Listen() error {
	for port, cfg := range l.portCfgs {
		ifi, err := net.InterfaceByName(cfg.InterfaceName)
		if err != nil {
			l.log.Error("msg", "interface not present yet", "ifname", cfg.InterfaceName, "error", err)
			continue
		}
		l.ListenOn(port+1, ifi)
	}

	l.startNLLoop()
	go l.txLoop()
	l.sendAll()

	<-l.done
	return nil
}

// Close stops the engine and closes all listeners.
func (l *LLDPD) Close() {
	l.closeOnce.Do(func() {
		close(l.done)
		l.listenersLock.Lock()
		defer l.listenersLock.Unlock()
		for port, pconn := range l.listeners {
			pconn.conn.Close()
			delete(l.listeners, port)
		}
	})
}

// ListenOn binds a raw LLDP socket to the interface backing the given
// local port and feeds received frames into Recv.
func (l *LLDPD) ListenOn(locPort int, ifi *net.Interface) {
	if _, err := l.store.index(locPort); err != nil {
		l.log.Error("msg", "refusing listener for unknown port", "port", locPort, "error", err)
		return
	}

	l.listenersLock.Lock()
	defer l.listenersLock.Unlock()
	if _, ok := l.listeners[locPort]; ok {
		return
	}

	conn, err := raw.ListenPacket(ifi, uint16(lldp.EtherType), nil)
	if err != nil {
		l.log.Error("msg", "error listening on interface", "ifname", ifi.Name, "port", locPort, "error", err)
		return
	}
	l.listeners[locPort] = &packetConn{conn: conn, ifi: ifi}

	go func() {
		l.log.Info("msg", "started listener", "ifname", ifi.Name, "port", locPort)
		b := make([]byte, ifi.MTU)

		for {
			n, _, err := conn.ReadFrom(b)
			if err != nil {
				select {
				case <-l.done:
					return
				default:
				}
				l.log.Error("msg", "error reading from interface", "ifname", ifi.Name, "port", locPort, "error", err)
				continue
			}
			frame := make([]byte, n)
			copy(frame, b[:n])
			l.Recv(locPort, frame)
		}
	}()
}

// CancelListenOn closes the listener for the interface, if any.
func (l *LLDPD) CancelListenOn(ifi *net.Interface) {
	l.listenersLock.Lock()
	defer l.listenersLock.Unlock()
	for port, pconn := range l.listeners {
		if pconn.ifi.Index == ifi.Index {
			pconn.conn.Close()
			delete(l.listeners, port)
			l.log.Info("msg", "closed listener", "ifname", ifi.Name, "port", port)
		}
	}
}

// portForInterface resolves the local port number backed by an
// interface name, or 0 when the interface is not a configured port.
func (l *LLDPD) portForInterface(name string) int {
	for i, cfg := range l.portCfgs {
		if cfg.InterfaceName == name {
			return i + 1
		}
	}
	return 0
}

// rawSend is the default transmit path: write the frame on the port's
// raw socket towards the nearest-bridge group address.
func (l *LLDPD) rawSend(locPort int, frame []byte) error {
	l.listenersLock.RLock()
	pconn, ok := l.listeners[locPort]
	l.listenersLock.RUnlock()
	if !ok {
		return errors.Wrapf(ErrInvalidPort, "no listener for port %d", locPort)
	}

	_, err := pconn.conn.WriteTo(frame, &raw.Addr{HardwareAddr: lldpMulticast})
	return errors.Wrapf(err, "send on port %d", locPort)
}

// ---- query surface ----

// Ports returns the port registry.
func (l *LLDPD) Ports() *PortRegistry { return l.registry }

// PortList returns the ordered local port numbers.
func (l *LLDPD) PortList() []int { return l.registry.PortList() }

// PortConfigFor returns the read-only configuration record of a port,
// or nil when no configuration exists for that number.
func (l *LLDPD) PortConfigFor(locPort int) *PortConfig {
	if locPort < 1 || locPort > len(l.portCfgs) {
		return nil
	}
	cfg := l.portCfgs[locPort-1]
	return &cfg
}

func (l *LLDPD) ChassisID() ChassisID                 { return l.store.chassisID() }
func (l *LLDPD) StationName() string                  { return l.store.stationName() }
func (l *LLDPD) ManagementAddress() ManagementAddress { return l.store.managementAddress() }
func (l *LLDPD) ManagementPortIndex() ManagementPortIndex {
	return l.store.managementPortIndex()
}

func (l *LLDPD) PortID(locPort int) (PortID, error) { return l.store.portID(locPort) }
func (l *LLDPD) PortDescription(locPort int) (string, error) {
	return l.store.portDescription(locPort)
}
func (l *LLDPD) SignalDelays(locPort int) (SignalDelays, error) {
	return l.store.signalDelays(locPort)
}
func (l *LLDPD) LinkStatus(locPort int) (LinkStatus, error) { return l.store.linkStatus(locPort) }

// SetLinkStatus updates the live PHY state of a port, typically from
// the host's link monitor.
func (l *LLDPD) SetLinkStatus(locPort int, status LinkStatus) error {
	return l.store.setLinkStatus(locPort, status)
}

func (l *LLDPD) PeerChassisID(locPort int) (ChassisID, error) {
	return l.store.peerChassisID(locPort)
}
func (l *LLDPD) PeerPortID(locPort int) (PortID, error) { return l.store.peerPortID(locPort) }
func (l *LLDPD) PeerPortDescription(locPort int) (string, error) {
	return l.store.peerPortDescription(locPort)
}
func (l *LLDPD) PeerManagementAddress(locPort int) (ManagementAddress, error) {
	return l.store.peerManagementAddress(locPort)
}
func (l *LLDPD) PeerManagementPortIndex(locPort int) (ManagementPortIndex, error) {
	return l.store.peerManagementPortIndex(locPort)
}
func (l *LLDPD) PeerStationName(locPort int) (string, error) {
	return l.store.peerStationName(locPort)
}
func (l *LLDPD) PeerSignalDelays(locPort int) (SignalDelays, error) {
	return l.store.peerSignalDelays(locPort)
}
func (l *LLDPD) PeerLinkStatus(locPort int) (LinkStatus, error) {
	return l.store.peerLinkStatus(locPort)
}
func (l *LLDPD) PeerTTL(locPort int) (time.Duration, error) { return l.store.peerTTL(locPort) }
func (l *LLDPD) PeerTimestamp(locPort int) (uint32, error) {
	return l.store.peerTimestamp(locPort)
}

func defaultInterfaceFilterFn(ifi *net.Interface) bool {
	return ifi != nil
}

func defaultPortLookupFn(ifi *net.Interface) string {
	return ifi.Name
}

// defaultPortID follows the "port-001" convention of the field-device
// profile.
func defaultPortID(locPort int) string {
	return fmt.Sprintf("port-%03d", locPort)
}
