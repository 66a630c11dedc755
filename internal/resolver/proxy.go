package resolver

import (
	"bufio"
	"context"
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	xproxy "golang.org/x/net/proxy"
)

// ProxyList holds optional proxies for resolution attempts. Picks are
// random; a stale or slow proxy only costs one attempt.
type ProxyList struct {
	mu      sync.Mutex
	proxies []string
	rng     *rand.Rand
}

// EmptyProxyList returns a list that always picks direct connections.
func EmptyProxyList() *ProxyList {
	return &ProxyList{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // proxy choice is not security sensitive
	}
}

// LoadProxyList reads one proxy URL per line from a file. A missing
// file yields an empty list: proxies are optional.
func LoadProxyList(path string) (*ProxyList, error) {
	list := EmptyProxyList()

	if path == "" {
		return list, nil
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return list, nil
		}

		return nil, fmt.Errorf("failed to open proxy list %q: %w", path, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			list.proxies = append(list.proxies, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read proxy list %q: %w", path, err)
	}

	return list, nil
}

// Len returns the number of configured proxies.
func (p *ProxyList) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.proxies)
}

// Pick returns a random proxy URL, or empty string for direct.
func (p *ProxyList) Pick() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.proxies) == 0 {
		return ""
	}

	return p.proxies[p.rng.Intn(len(p.proxies))]
}

// clientFor builds an HTTP client routed through the given proxy URL.
// HTTP(S) proxies use the transport proxy hook; socks5:// proxies dial
// through a SOCKS dialer. An empty proxy URL yields a direct client.
func clientFor(proxyURL string, timeout time.Duration) (*http.Client, error) {
	if proxyURL == "" {
		return &http.Client{Timeout: timeout}, nil
	}

	parsed, err := url.Parse(proxyURL)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy URL %q: %w", proxyURL, err)
	}

	transport := &http.Transport{}

	if strings.HasPrefix(parsed.Scheme, "socks") {
		dialer, dialErr := xproxy.FromURL(parsed, xproxy.Direct)
		if dialErr != nil {
			return nil, fmt.Errorf("failed to create SOCKS dialer for %q: %w", proxyURL, dialErr)
		}

		transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			if contextDialer, ok := dialer.(xproxy.ContextDialer); ok {
				return contextDialer.DialContext(ctx, network, addr)
			}

			return dialer.Dial(network, addr)
		}
	} else {
		transport.Proxy = http.ProxyURL(parsed)
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}, nil
}
