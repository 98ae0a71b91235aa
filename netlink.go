package lldpd

import (
	"net"

	"github.com/jsimonetti/rtnetlink"
	"github.com/mdlayher/netlink"
	"golang.org/x/sys/unix"
)

type ifOperation int

const (
	// IF_ADD signals a new or re-announced link.
	IF_ADD ifOperation = iota
	// IF_DEL signals a removed link.
	IF_DEL
)

type ifInfo struct {
	op  ifOperation
	ifi *net.Interface
}

// NLListener watches rtnetlink for link additions and removals and
// publishes them on Messages.
type NLListener struct {
	Messages chan ifInfo

	conn *rtnetlink.Conn
	log  Logger
}

// NewNLListener returns a link watcher publishing to Messages once
// Start is called.
func NewNLListener(log Logger) *NLListener {
	return &NLListener{
		Messages: make(chan ifInfo, 16),
		log:      log,
	}
}

// Start subscribes to the kernel link multicast group and starts the
// receive loop.
func (nl *NLListener) Start() {
	conn, err := rtnetlink.Dial(&netlink.Config{Groups: unix.RTMGRP_LINK})
	if err != nil {
		nl.log.Error("msg", "error subscribing to link notifications", "error", err)
		return
	}
	nl.conn = conn

	go func() {
		for {
			msgs, omsgs, err := nl.conn.Receive()
			if err != nil {
				nl.log.Error("msg", "error receiving link notification", "error", err)
				return
			}
			for i, m := range msgs {
				if i >= len(omsgs) {
					break
				}
				lm, ok := m.(*rtnetlink.LinkMessage)
				if !ok {
					continue
				}
				nl.publish(omsgs[i].Header.Type, lm)
			}
		}
	}()
}

// Stop closes the netlink connection, ending the receive loop.
func (nl *NLListener) Stop() {
	if nl.conn != nil {
		nl.conn.Close()
	}
}

func (nl *NLListener) publish(typ netlink.HeaderType, lm *rtnetlink.LinkMessage) {
	ifi := interfaceFor(lm)
	if ifi == nil {
		return
	}
	switch typ {
	case unix.RTM_NEWLINK:
		nl.Messages <- ifInfo{op: IF_ADD, ifi: ifi}
	case unix.RTM_DELLINK:
		nl.Messages <- ifInfo{op: IF_DEL, ifi: ifi}
	}
}

// interfaceFor resolves the OS interface for a link message. A removed
// link can no longer be looked up, so it is rebuilt from the message
// attributes.
func interfaceFor(lm *rtnetlink.LinkMessage) *net.Interface {
	if ifi, err := net.InterfaceByIndex(int(lm.Index)); err == nil {
		return ifi
	}
	if lm.Attributes == nil {
		return nil
	}
	return &net.Interface{
		Index:        int(lm.Index),
		Name:         lm.Attributes.Name,
		MTU:          int(lm.Attributes.MTU),
		HardwareAddr: lm.Attributes.Address,
	}
}

// startNLLoop wires link notifications into the engine: interfaces
// backing configured ports get their listener bound or released, and
// the transmission cadence is resynchronized without an immediate
// retransmission burst.
func (l *LLDPD) startNLLoop() {
	nl := NewNLListener(l.log)
	nl.Start()

	go func() {
		for {
			select {
			case info := <-nl.Messages:
				switch info.op {
				case IF_ADD:
					if !l.filterFn(info.ifi) {
						continue
					}
					port := l.portForInterface(info.ifi.Name)
					if port == 0 {
						continue
					}
					l.ListenOn(port, info.ifi)
					l.TxRestart(false)
				case IF_DEL:
					l.CancelListenOn(info.ifi)
					l.TxRestart(false)
				}
			case <-l.done:
				nl.Stop()
				return
			}
		}
	}()
}
