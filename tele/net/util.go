package telenet

import (
	"net"
	"net/url"

	"github.com/juju/errors"
)

func addrString(a net.Addr) string {
	if a == nil {
		return ""
	}
	return a.String()
}

func parseURI(s string) (scheme, hostport string, err error) {
	u, err := url.ParseRequestURI(s)
	if err != nil {
		return "", "", err
	}
	return u.Scheme, u.Host, nil
}

func IsTimeout(err error) bool {
	if ne, ok := errors.Cause(err).(net.Error); ok {
		return ne.Timeout()
	}
	return false
}

// IsClosed reports use of closed network connection.
func IsClosed(err error) bool {
	err = errors.Cause(err)
	if oe, ok := err.(*net.OpError); ok {
		err = oe.Err
	}
	return err == net.ErrClosed
}
