package models

import (
	"fmt"
	"net"
	"strconv"
)

// ServerCredential identifies one remote control-panel instance.
type ServerCredential struct {
	ID       string
	Host     string
	Port     int
	Username string
	Password string
	UseSSL   bool
}

// BaseURL returns the scheme, host and port of the panel.
func (c ServerCredential) BaseURL() string {
	scheme := "http"
	if c.UseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s", scheme, net.JoinHostPort(c.Host, strconv.Itoa(c.Port)))
}

// String never includes the password.
func (c ServerCredential) String() string {
	return fmt.Sprintf("%s@%s", c.Username, c.BaseURL())
}
