package lldpd

import (
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var (
	testSourceMAC = net.HardwareAddr{0x02, 0x00, 0x5e, 0x00, 0x00, 0x01}
	testPeerMAC   = net.HardwareAddr{0x02, 0x00, 0x5e, 0x00, 0x00, 0x02}
)

type discardLogger struct{}

func (discardLogger) Info(keyvals ...interface{})  {}
func (discardLogger) Error(keyvals ...interface{}) {}

// fakeClock drives the engine's 10 ms tick counter in tests.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func testPortConfigs(n int) []PortConfig {
	cfgs := make([]PortConfig, n)
	for i := range cfgs {
		cfgs[i] = PortConfig{
			InterfaceName: fmt.Sprintf("eth%d", i),
			PortID:        fmt.Sprintf("port-%03d", i+1),
			Description:   fmt.Sprintf("physical port %d", i+1),
		}
	}
	return cfgs
}

// newTestEngine builds an engine with n ports, a capturing clock and no
// real network I/O.
func newTestEngine(t *testing.T, n int, opts ...Option) (*LLDPD, *fakeClock) {
	t.Helper()
	clk := &fakeClock{t: time.Unix(1000, 0)}
	all := []Option{
		Ports(testPortConfigs(n)),
		StationName("dut"),
		SourceAddress(testSourceMAC),
		ManagementAddr(ManAddrFamilyIPv4, []byte{192, 168, 1, 100}, 1),
		SendWith(func(int, []byte) error { return nil }),
		WithLogger(discardLogger{}),
	}
	all = append(all, opts...)
	l := New(all...)
	l.started = clk.now()
	l.now = clk.now
	return l, clk
}

// testPeerFrame builds a complete, valid Ethernet+LLDP frame as a
// directly connected peer device would send it.
func testPeerFrame(t *testing.T, stationName string) []byte {
	t.Helper()
	peer := New(
		Ports([]PortConfig{{InterfaceName: "peth0", PortID: "port-001", Description: "peer port 1"}}),
		StationName(stationName),
		SourceAddress(testPeerMAC),
		ManagementAddr(ManAddrFamilyIPv4, []byte{192, 168, 1, 101}, 2),
		SendWith(func(int, []byte) error { return nil }),
		WithLogger(discardLogger{}),
	)
	require.NoError(t, peer.SetLinkStatus(1, LinkStatus{
		AutoNegSupported:     true,
		AutoNegEnabled:       true,
		AutoNegAdvertisedCap: 0x0d01,
		OperMAUType:          MAUType100BaseTXFullDuplex,
	}))
	peer.store.ports[0].SignalDelays = SignalDelays{
		RxDelayNS:   144,
		TxDelayNS:   144,
		LineDelayNS: 10,
	}
	frame, err := peer.buildFrame(peer.store.localIdentity(), 1)
	require.NoError(t, err)
	return frame
}

func TestNewDerivesIdentityFromStationName(t *testing.T) {
	l, _ := newTestEngine(t, 1)
	chassis := l.ChassisID()
	require.Equal(t, IDSubtypeLocallyAssigned, chassis.Subtype)
	require.Equal(t, []byte("dut"), chassis.Value)
	require.Equal(t, "dut", l.StationName())
}

func TestNewFallsBackToMACIdentity(t *testing.T) {
	l := New(
		Ports(testPortConfigs(1)),
		SourceAddress(testSourceMAC),
		SendWith(func(int, []byte) error { return nil }),
		WithLogger(discardLogger{}),
	)
	chassis := l.ChassisID()
	require.Equal(t, IDSubtypeMACAddress, chassis.Subtype)
	require.Equal(t, []byte(testSourceMAC), chassis.Value)
	require.Equal(t, testSourceMAC.String(), l.StationName())

	// Management address falls back to the MAC as well.
	man := l.ManagementAddress()
	require.Equal(t, ManAddrFamily802, man.Subtype)
	require.Equal(t, []byte(testSourceMAC), man.Value)
}

func TestPortConfigFor(t *testing.T) {
	l, _ := newTestEngine(t, 2)

	cfg := l.PortConfigFor(2)
	require.NotNil(t, cfg)
	require.Equal(t, "eth1", cfg.InterfaceName)
	require.Equal(t, "port-002", cfg.PortID)

	require.Nil(t, l.PortConfigFor(0))
	require.Nil(t, l.PortConfigFor(3))
}

func TestPortForInterface(t *testing.T) {
	l, _ := newTestEngine(t, 2)
	require.Equal(t, 1, l.portForInterface("eth0"))
	require.Equal(t, 2, l.portForInterface("eth1"))
	require.Equal(t, 0, l.portForInterface("wlan0"))
}
