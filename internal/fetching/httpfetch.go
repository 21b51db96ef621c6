package fetching

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	utls "github.com/refraction-networking/utls"

	"github.com/veridianlabs/trustlens/pkg/models"
)

const maxBodyBytes = 10 << 20

// HTTPFetcher is the minimal strategy: a plain GET with no rendering. The
// TLS client hello is rotated together with the user agent so the request
// does not advertise a stock Go fingerprint under a browser identity.
type HTTPFetcher struct {
	timeout        time.Duration
	minContentSize int
}

func NewHTTPFetcher(timeout time.Duration, minContentSize int) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &HTTPFetcher{timeout: timeout, minContentSize: minContentSize}
}

func (f *HTTPFetcher) Name() string                    { return "minimal" }
func (f *HTTPFetcher) Method() models.ExtractionMethod { return models.MethodMinimal }

func (f *HTTPFetcher) Fetch(ctx context.Context, url string, _ *Session) (string, Interactor, error) {
	ua, hello := RotateIdentity()
	client := f.newClient(hello)
	defer client.CloseIdleConnections()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", nil, NewClassifiedError(KindInvalidURL, err)
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := client.Do(req)
	if err != nil {
		return "", nil, Classify(err)
	}
	defer resp.Body.Close()

	if err := statusError(resp.StatusCode); err != nil {
		return "", nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", nil, Classify(err)
	}
	if len(body) < f.minContentSize {
		return "", nil, NewClassifiedError(KindContentSmall,
			fmt.Errorf("body of %d bytes below minimum %d", len(body), f.minContentSize))
	}
	return string(body), nil, nil
}

func (f *HTTPFetcher) newClient(hello utls.ClientHelloID) *http.Client {
	dialer := &net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}

	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          10,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		Proxy:                 http.ProxyFromEnvironment,
		DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			host, _, err := net.SplitHostPort(addr)
			if err != nil {
				host = addr
			}
			raw, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			cfg := &utls.Config{
				ServerName: host,
				NextProtos: []string{"http/1.1"},
			}
			conn := utls.UClient(raw, cfg, hello)
			if err := conn.HandshakeContext(ctx); err != nil {
				_ = raw.Close()
				return nil, fmt.Errorf("tls handshake: %w", err)
			}
			return conn, nil
		},
	}

	return &http.Client{
		Transport: transport,
		Timeout:   f.timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return fmt.Errorf("stopped after %d redirects", len(via))
			}
			return nil
		},
	}
}
