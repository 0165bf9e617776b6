package httpfetch

import (
	"context"
	"fmt"
	"net"
	"time"

	utls "github.com/refraction-networking/utls"
)

// chromeH1Spec is a Chrome ClientHello with ALPN limited to http/1.1, since
// net/http cannot speak HTTP/2 over a utls connection.
var chromeH1Spec = func() *utls.ClientHelloSpec {
	spec, err := utls.UTLSIdToSpec(utls.HelloChrome_Auto)
	if err != nil {
		return nil
	}
	for i, ext := range spec.Extensions {
		if alpn, ok := ext.(*utls.ALPNExtension); ok {
			alpn.AlpnProtocols = []string{"http/1.1"}
			spec.Extensions[i] = alpn
			break
		}
	}
	return &spec
}()

func dialChromeTLS(ctx context.Context, network, addr string) (net.Conn, error) {
	dialer := &net.Dialer{Timeout: 10 * time.Second}
	conn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}
	host, _, _ := net.SplitHostPort(addr)

	var tlsConn *utls.UConn
	if chromeH1Spec != nil {
		tlsConn = utls.UClient(conn, &utls.Config{ServerName: host}, utls.HelloCustom)
		if err := tlsConn.ApplyPreset(chromeH1Spec); err != nil {
			conn.Close()
			return nil, fmt.Errorf("apply chrome TLS preset: %w", err)
		}
	} else {
		tlsConn = utls.UClient(conn, &utls.Config{ServerName: host, NextProtos: []string{"http/1.1"}}, utls.HelloGolang)
	}

	if err := tlsConn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return tlsConn, nil
}
