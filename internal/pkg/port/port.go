package port

import (
	"fmt"
	"net"
)

func tryBind(port int) error {
	l, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return err
	}
	return l.Close()
}

// FindAvailablePort walks upward from startPort until a port binds.
func FindAvailablePort(startPort int) int {
	port := startPort
	for tryBind(port) != nil {
		port++
	}
	return port
}
