package utils

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"

	"golang.org/x/net/proxy"
)

// connectDialer tunnels connections through an HTTP CONNECT proxy.
type connectDialer struct {
	proxyURL *url.URL
	forward  proxy.Dialer
}

func newConnectDialer(uri *url.URL, forward proxy.Dialer) (proxy.Dialer, error) {
	return &connectDialer{proxyURL: uri, forward: forward}, nil
}

func (d *connectDialer) Dial(_, addr string) (net.Conn, error) {
	conn, err := d.forward.Dial("tcp", d.proxyURL.Host)
	if err != nil {
		return nil, fmt.Errorf("dial proxy: %w", err)
	}
	req := &http.Request{
		Method: http.MethodConnect,
		URL:    &url.URL{Opaque: addr},
		Host:   addr,
		Header: http.Header{},
	}
	if user := d.proxyURL.User; user != nil {
		password, _ := user.Password()
		req.SetBasicAuth(user.Username(), password)
	}
	if err := req.Write(conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("write CONNECT request: %w", err)
	}
	resp, err := http.ReadResponse(bufio.NewReader(conn), req)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("read CONNECT response: %w", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		_ = conn.Close()
		return nil, fmt.Errorf("CONNECT response: %s", resp.Status)
	}
	return conn, nil
}

func init() {
	proxy.RegisterDialerType("http", newConnectDialer)
	proxy.RegisterDialerType("https", newConnectDialer)
}

// GetDialer returns a DialContext function honoring HTTPS_PROXY, then HTTP_PROXY.
func GetDialer() func(context.Context, string, string) (net.Conn, error) {
	dialer := proxy.FromEnvironment()
	for _, envVar := range []string{"HTTPS_PROXY", "HTTP_PROXY"} {
		raw := os.Getenv(envVar)
		if raw == "" {
			continue
		}
		if uri, err := url.Parse(raw); err == nil {
			if d, err := proxy.FromURL(uri, proxy.Direct); err == nil {
				dialer = d
				break
			}
		}
	}
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		if cd, ok := dialer.(proxy.ContextDialer); ok {
			return cd.DialContext(ctx, network, addr)
		}
		return dialer.Dial(network, addr)
	}
}
