// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package server

import (
	"errors"
	"fmt"
	"net"
	"time"
)

// DefaultAcceptTimeout bounds each accept cycle of the main loop.
const DefaultAcceptTimeout = 10 * time.Second

// AcceptKind is the outcome of one accept cycle.
type AcceptKind int

const (
	AcceptOK      AcceptKind = iota // Conn is set
	AcceptTimeout                   // no client within the timeout
	AcceptError                     // Err is set, the listener is still usable
	AcceptClosed                    // the listener was closed
)

func (k AcceptKind) String() string {
	switch k {
	case AcceptOK:
		return "ok"
	case AcceptTimeout:
		return "timeout"
	case AcceptError:
		return "error"
	case AcceptClosed:
		return "closed"
	default:
		return fmt.Sprintf("AcceptKind(%d)", int(k))
	}
}

// AcceptResult is returned by Acceptor.Accept instead of a bare error so
// the main loop can switch on the outcome.
type AcceptResult struct {
	Kind AcceptKind
	Conn net.Conn
	Err  error
}

// Acceptor yields one client connection per call.
type Acceptor interface {
	Accept() AcceptResult
	Close() error
	Addr() net.Addr
}

// Listener is a TCP listener whose Accept gives up after a fixed timeout.
type Listener struct {
	ln      *net.TCPListener
	timeout time.Duration
}

// Listen binds addr (":8080" binds all interfaces).
func Listen(addr string, timeout time.Duration) (*Listener, error) {
	if timeout <= 0 {
		timeout = DefaultAcceptTimeout
	}

	tcpAddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", addr, err)
	}
	ln, err := net.ListenTCP("tcp", tcpAddr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	return &Listener{ln: ln, timeout: timeout}, nil
}

func (l *Listener) Accept() AcceptResult {
	if err := l.ln.SetDeadline(time.Now().Add(l.timeout)); err != nil {
		return classifyAcceptErr(err)
	}
	conn, err := l.ln.Accept()
	if err != nil {
		return classifyAcceptErr(err)
	}
	return AcceptResult{Kind: AcceptOK, Conn: conn}
}

func classifyAcceptErr(err error) AcceptResult {
	if errors.Is(err, net.ErrClosed) {
		return AcceptResult{Kind: AcceptClosed, Err: err}
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return AcceptResult{Kind: AcceptTimeout, Err: err}
	}
	return AcceptResult{Kind: AcceptError, Err: err}
}

func (l *Listener) Close() error   { return l.ln.Close() }
func (l *Listener) Addr() net.Addr { return l.ln.Addr() }
