package main

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/shanebarnes/goto/logger"
	"github.com/shanebarnes/goto/tokenbucket"
	"github.com/twinj/uuid"
)

// TCPInterceptor relays every connection accepted on its port straight to
// the mapped destination node. Payload bytes are opaque and pass through
// unmodified in both directions.
type TCPInterceptor struct {
	Impl     InterceptorImpl
	listener net.Listener
	slots    chan struct{} // accept cap, nil when unbounded
	stop     sync.Once
}

var _ Interceptor = (*TCPInterceptor)(nil)

func (ni *TCPInterceptor) Init(id int, port int, manager *Manager) {
	ni.Impl.Init(id, port, manager)
}

func (ni *TCPInterceptor) GetImpl() *InterceptorImpl {
	return &ni.Impl
}

// Run binds the interception port and starts accepting in the background.
// It returns once the listener is up; a bind failure starts nothing.
func (ni *TCPInterceptor) Run() error {
	if err := ni.Impl.Run(); err != nil {
		return err
	}

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", ni.Impl.Port))
	if err != nil {
		logger.PrintlnError(ni.Impl.Tag, "could not listen on port", ni.Impl.Port, ":", err.Error())
		return err
	}

	// The cap is a slot channel rather than a wrapped listener: accepted
	// conns must stay *net.TCPConn so the relay can half-close them.
	if max := ni.Impl.Manager.Config().MaxConns; max > 0 {
		ni.slots = make(chan struct{}, max)
	}
	ni.listener = listener

	logger.PrintlnInfo(ni.Impl.Tag, "listening on port", ni.Impl.Port)

	go ni.accept()

	return nil
}

func (ni *TCPInterceptor) accept() {
	for {
		if ni.slots != nil {
			ni.slots <- struct{}{}
		}

		conn, err := ni.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				logger.PrintlnInfo(ni.Impl.Tag, "listener closed, no longer accepting")
			} else {
				logger.PrintlnError(ni.Impl.Tag, "accept failed:", err.Error())
			}
			return
		}

		go func(c net.Conn) {
			ni.findRoute(c)
			if ni.slots != nil {
				<-ni.slots // findRoute returns only after the final close
			}
		}(conn)
	}
}

// Shutdown stops new connections from being accepted. Relays already in
// flight drain on their own; they are not cancelled.
func (ni *TCPInterceptor) Shutdown() {
	ni.stop.Do(func() {
		if ni.listener != nil {
			ni.listener.Close()
		}
	})
}

// findRoute resolves an accepted connection to its real destination: the
// edge comes from the port map and the destination port from the topology.
// A lookup miss or a failed dial drops this connection and nothing else.
func (ni *TCPInterceptor) findRoute(src net.Conn) {
	edge, ok := ni.Impl.Manager.LookupEdge(ni.Impl.Port)
	if !ok {
		logger.PrintlnError(ni.Impl.Tag, "no edge mapped to port", ni.Impl.Port, ": dropping connection")
		src.Close()
		return
	}

	dstAddr := fmt.Sprintf("127.0.0.1:%d", realPort(ni.Impl.Manager.Config().NodePortBase, edge.Receiver))

	dst, err := net.Dial("tcp", dstAddr)
	if err != nil {
		logger.PrintlnError(ni.Impl.Tag, "could not reach", dstAddr, "for", edge.String(), ":", err.Error())
		src.Close()
		return
	}

	ni.startRelay(src, dst, edge)
}

// startRelay shuttles bytes both ways until each direction reaches
// end-of-stream, then tears the pair down.
func (ni *TCPInterceptor) startRelay(src net.Conn, dst net.Conn, edge DirectedEdge) {
	trip := uuid.NewV4().String()
	logger.PrintlnInfo(ni.Impl.Tag, "opening trip", trip, ":", edge.String(), "via", dst.RemoteAddr().String())

	setTcpOptions(src)
	setTcpOptions(dst)

	var wg sync.WaitGroup
	wg.Add(2)

	go ni.reroute(&wg, src, dst, trip+"-fwd")
	go ni.reroute(&wg, dst, src, trip+"-rev")
	wg.Wait()

	src.Close()
	dst.Close()

	logger.PrintlnInfo(ni.Impl.Tag, "closing trip", trip, ":", edge.String())
}

// reroute copies one direction. On end-of-stream it half-closes the write
// side of dst so the peer observes EOF while its own sends keep draining.
func (ni *TCPInterceptor) reroute(wg *sync.WaitGroup, src net.Conn, dst net.Conn, tag string) {
	defer wg.Done()

	config := ni.Impl.Manager.Config()
	bufferSize := config.BufferSize
	bandwidth := config.Bandwidth / 8

	var gate func() bool
	var refund func(uint64)
	if bandwidth > 0 {
		tbSize := uint64(bandwidth) * 10
		if bufferSize > uint64(bandwidth) {
			tbSize = bufferSize * 10
		}

		tb := tokenbucket.New(uint64(bandwidth), tbSize)
		gate = func() bool {
			tokens := tb.Remove(bufferSize)
			if tokens < bufferSize {
				tb.Return(tokens)
				return false
			}
			return true
		}
		refund = func(n uint64) { tb.Return(n) }
	}

	odometer := MetricsNew(tag)
	buf := make([]byte, bufferSize)

	for {
		if gate != nil && !gate() {
			time.Sleep(1 * time.Millisecond)
			continue
		}

		size, err := src.Read(buf)
		if size > 0 {
			if _, werr := dst.Write(buf[:size]); werr != nil {
				logger.PrintlnDebug(tag, werr.Error())
				break
			}
			odometer.Add(int64(size))

			if refund != nil && size < int(bufferSize) {
				refund(bufferSize - uint64(size))
			}
		}
		if err != nil {
			logger.PrintlnDebug(tag, err.Error())
			break
		}
	}

	halfClose(dst)
	odometer.Dump()
}

func setTcpOptions(conn net.Conn) {
	if tcpConn, ok := conn.(*net.TCPConn); ok {
		tcpConn.SetNoDelay(true)
	}
}

// halfClose shuts down only the write direction so bytes still in flight
// drain to the reader on the other end.
func halfClose(conn net.Conn) {
	if tcpConn, ok := conn.(*net.TCPConn); ok {
		tcpConn.CloseWrite()
	} else {
		conn.Close()
	}
}
