package ctl

import (
	"fmt"
	"net"
	"time"
)

// chooseFreePort finds an available TCP port by asking the kernel for :0
func chooseFreePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer l.Close()
	addr := l.Addr().(*net.TCPAddr)
	return addr.Port, nil
}

func isPortBusy(port int) (bool, string) {
	// Try connecting; if succeeds, someone is listening.
	conn, err := net.DialTimeout("tcp", fmt.Sprintf("127.0.0.1:%d", port), 200*time.Millisecond)
	if err == nil {
		_ = conn.Close()
		return true, "tcp listener detected"
	}
	return false, ""
}
