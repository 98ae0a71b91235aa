package lldpd

// PortConfig is the externally supplied, read-only LLDP configuration of
// one physical port. The engine reads it at initialization and never
// mutates or persists it.
type PortConfig struct {
	// InterfaceName is the OS name of the backing network interface.
	InterfaceName string `yaml:"interface"`

	// PortID is the locally assigned port identifier sent in the
	// Port ID TLV, e.g. "port-001".
	PortID string `yaml:"port_id"`

	// Description is the text sent in the Port Description TLV.
	Description string `yaml:"description"`
}

// PortRegistry enumerates the local physical ports. Port numbers are
// dense integers 1..N; the management port is never part of the set.
type PortRegistry struct {
	ports []int
}

func newPortRegistry(n int) *PortRegistry {
	r := &PortRegistry{ports: make([]int, n)}
	for i := range r.ports {
		r.ports[i] = i + 1
	}
	return r
}

// PortList returns the ordered set of local port numbers.
func (r *PortRegistry) PortList() []int {
	return append([]int(nil), r.ports...)
}

// NumPorts returns N, the number of physical ports.
func (r *PortRegistry) NumPorts() int {
	return len(r.ports)
}

// Iterator returns a fresh iterator over the port numbers. Each caller
// owns its iterator; iterators do not share state.
func (r *PortRegistry) Iterator() *PortIterator {
	return &PortIterator{ports: r.ports}
}

// PortIterator walks the registry's port numbers in order.
type PortIterator struct {
	ports []int
	next  int
}

// Next returns the next port number, or 0 when the iteration is done.
func (it *PortIterator) Next() int {
	if it.next >= len(it.ports) {
		return 0
	}
	n := it.ports[it.next]
	it.next++
	return n
}

// Reset restarts the iterator; the following Next calls reproduce the
// same sequence.
func (it *PortIterator) Reset() {
	it.next = 0
}
