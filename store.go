package lldpd

import (
	"sync"
	"time"

	"github.com/pkg/errors"
)

var (
	// ErrNoPeerInfo is returned by peer accessors before the first valid
	// LLDP frame has been received on the port.
	ErrNoPeerInfo = errors.New("lldpd: no peer information received on port")

	// ErrInvalidPort is returned when a port number is outside 1..N.
	// This is a caller contract violation, not a runtime condition.
	ErrInvalidPort = errors.New("lldpd: port number out of range")
)

// localIdentity holds the interface-level local attributes shared by all
// ports of the engine instance.
type localIdentity struct {
	chassisID    ChassisID
	stationName  string
	manAddress   ManagementAddress
	manPortIndex ManagementPortIndex
}

type peerEntry struct {
	rec           PeerRecord
	timestamp10ms uint32
	received      bool
}

// topologyStore keeps the local port records and the per-port peer
// snapshots. One peer per local port; a newly received valid frame
// overwrites the prior snapshot.
//
// All mutating entry points (frame reception, link-state updates) and
// all readers go through the mutex, so a reader can never observe a
// half-committed peer record.
type topologyStore struct {
	mu    sync.RWMutex
	local localIdentity
	ports []PortRecord
	peers []peerEntry
}

func newTopologyStore(local localIdentity, ports []PortRecord) *topologyStore {
	return &topologyStore{
		local: local,
		ports: ports,
		peers: make([]peerEntry, len(ports)),
	}
}

// index validates the 1..N port contract.
func (s *topologyStore) index(locPort int) (int, error) {
	if locPort < 1 || locPort > len(s.ports) {
		return 0, errors.Wrapf(ErrInvalidPort, "port %d", locPort)
	}
	return locPort - 1, nil
}

// ---- local accessors ----

func (s *topologyStore) chassisID() ChassisID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.local.chassisID.clone()
}

func (s *topologyStore) stationName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.local.stationName
}

func (s *topologyStore) managementAddress() ManagementAddress {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.local.manAddress.clone()
}

func (s *topologyStore) managementPortIndex() ManagementPortIndex {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.local.manPortIndex
}

func (s *topologyStore) portID(locPort int) (PortID, error) {
	i, err := s.index(locPort)
	if err != nil {
		return PortID{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ports[i].PortID.clone(), nil
}

func (s *topologyStore) portDescription(locPort int) (string, error) {
	i, err := s.index(locPort)
	if err != nil {
		return "", err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ports[i].PortDescription, nil
}

func (s *topologyStore) signalDelays(locPort int) (SignalDelays, error) {
	i, err := s.index(locPort)
	if err != nil {
		return SignalDelays{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ports[i].SignalDelays, nil
}

func (s *topologyStore) linkStatus(locPort int) (LinkStatus, error) {
	i, err := s.index(locPort)
	if err != nil {
		return LinkStatus{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ports[i].LinkStatus, nil
}

// setLinkStatus updates the live PHY state of a port. LinkStatus is the
// only local field that changes after initialization.
func (s *topologyStore) setLinkStatus(locPort int, status LinkStatus) error {
	i, err := s.index(locPort)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ports[i].LinkStatus = status
	return nil
}

// portRecord returns a copy of the full local record for the encoder.
func (s *topologyStore) portRecord(locPort int) (PortRecord, error) {
	i, err := s.index(locPort)
	if err != nil {
		return PortRecord{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec := s.ports[i]
	rec.PortID = rec.PortID.clone()
	return rec, nil
}

func (s *topologyStore) localIdentity() localIdentity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l := s.local
	l.chassisID = l.chassisID.clone()
	l.manAddress = l.manAddress.clone()
	return l
}

// ---- peer accessors ----

// peer returns a copy of the peer entry, or ErrNoPeerInfo when no valid
// frame has been received on the port yet.
func (s *topologyStore) peer(locPort int) (PeerRecord, error) {
	i, err := s.index(locPort)
	if err != nil {
		return PeerRecord{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.peers[i].received {
		return PeerRecord{}, errors.Wrapf(ErrNoPeerInfo, "port %d", locPort)
	}
	return s.peers[i].rec.clone(), nil
}

func (s *topologyStore) peerChassisID(locPort int) (ChassisID, error) {
	p, err := s.peer(locPort)
	if err != nil {
		return ChassisID{}, err
	}
	return p.ChassisID, nil
}

func (s *topologyStore) peerPortID(locPort int) (PortID, error) {
	p, err := s.peer(locPort)
	if err != nil {
		return PortID{}, err
	}
	return p.PortID, nil
}

func (s *topologyStore) peerPortDescription(locPort int) (string, error) {
	p, err := s.peer(locPort)
	if err != nil {
		return "", err
	}
	return p.PortDescription, nil
}

func (s *topologyStore) peerManagementAddress(locPort int) (ManagementAddress, error) {
	p, err := s.peer(locPort)
	if err != nil {
		return ManagementAddress{}, err
	}
	return p.ManagementAddress, nil
}

func (s *topologyStore) peerManagementPortIndex(locPort int) (ManagementPortIndex, error) {
	p, err := s.peer(locPort)
	if err != nil {
		return ManagementPortIndex{}, err
	}
	return p.ManagementPortIndex, nil
}

func (s *topologyStore) peerStationName(locPort int) (string, error) {
	p, err := s.peer(locPort)
	if err != nil {
		return "", err
	}
	return p.StationName, nil
}

func (s *topologyStore) peerSignalDelays(locPort int) (SignalDelays, error) {
	p, err := s.peer(locPort)
	if err != nil {
		return SignalDelays{}, err
	}
	return p.SignalDelays, nil
}

func (s *topologyStore) peerLinkStatus(locPort int) (LinkStatus, error) {
	p, err := s.peer(locPort)
	if err != nil {
		return LinkStatus{}, err
	}
	return p.LinkStatus, nil
}

func (s *topologyStore) peerTTL(locPort int) (time.Duration, error) {
	p, err := s.peer(locPort)
	if err != nil {
		return 0, err
	}
	return p.TTL, nil
}

// peerTimestamp returns the time the current peer information was first
// received, in 10 ms ticks since engine start. Receiving identical
// information again does not move the timestamp.
func (s *topologyStore) peerTimestamp(locPort int) (uint32, error) {
	i, err := s.index(locPort)
	if err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.peers[i].received {
		return 0, errors.Wrapf(ErrNoPeerInfo, "port %d", locPort)
	}
	return s.peers[i].timestamp10ms, nil
}

// commitPeer stores a decoded attribute set for a port. The timestamp is
// only taken when the set differs from what is already stored; the
// returned flag tells the reception handler whether to raise an alarm.
func (s *topologyStore) commitPeer(locPort int, rec PeerRecord, ticks10ms uint32) (changed bool, err error) {
	i, err := s.index(locPort)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e := &s.peers[i]
	if e.received && e.rec.equal(rec) {
		return false, nil
	}
	e.rec = rec.clone()
	e.timestamp10ms = ticks10ms
	e.received = true
	return true, nil
}
