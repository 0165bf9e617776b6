package httpfetch

import (
	"math/rand/v2"
	"net/http"
	"net/url"
	"sync"
)

var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
}

// Rotator hands out proxies in round-robin order and user agents at random.
type Rotator struct {
	proxies    []*url.URL
	userAgents []string
	mu         sync.Mutex
	proxyIndex int
}

// NewRotator parses proxies. Empty userAgents selects a built-in Chrome set.
func NewRotator(proxies, userAgents []string) (*Rotator, error) {
	r := &Rotator{userAgents: userAgents}
	if len(r.userAgents) == 0 {
		r.userAgents = defaultUserAgents
	}
	for _, p := range proxies {
		u, err := url.Parse(p)
		if err != nil {
			return nil, err
		}
		r.proxies = append(r.proxies, u)
	}
	return r, nil
}

// Proxy returns the next proxy, or nil when none are configured. Its
// signature matches http.Transport.Proxy.
func (r *Rotator) Proxy(*http.Request) (*url.URL, error) {
	if len(r.proxies) == 0 {
		return nil, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.proxies[r.proxyIndex]
	r.proxyIndex = (r.proxyIndex + 1) % len(r.proxies)
	return p, nil
}

func (r *Rotator) UserAgent() string {
	return r.userAgents[rand.IntN(len(r.userAgents))]
}
