package proxy

import "sync"

// Supplier hands out proxy URLs round-robin. An empty supplier always
// returns "", which the fetcher treats as a direct connection.
type Supplier interface {
	Get() string
}

type supplier struct {
	proxies []string
	current int
	mutex   sync.Mutex
}

// NewSupplier creates a Supplier over a pre-vetted proxy list.
func NewSupplier(proxies []string) Supplier {
	return &supplier{proxies: proxies}
}

// Get returns the next proxy URL in round-robin fashion.
func (s *supplier) Get() string {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if len(s.proxies) == 0 {
		return ""
	}

	proxy := s.proxies[s.current]
	s.current = (s.current + 1) % len(s.proxies)

	return proxy
}
