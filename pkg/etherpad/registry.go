package etherpad

import (
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
)

// Target describes one per-domain backend: which tenant domain it serves and
// how to reach it. Tuning fields left zero fall back to the Connection
// defaults.
type Target struct {
	Domain      string
	URL         string
	APIKey      string
	APIVersion  string
	InternalURI string

	TrustAll       bool
	VerifyHost     bool
	KeepAlive      bool
	MaxPoolSize    int
	ConnectTimeout time.Duration
}

// Registry resolves which backend Etherpad instance serves a request and owns
// one Client per backend. The lookup table is built once at construction and
// read-only afterwards, so lookups need no locking; backend topology is
// deployment-time configuration, not request-time data.
type Registry struct {
	clients map[string]*Client
	// first preserves declaration order for FirstClient.
	first  *Client
	logger hclog.Logger
}

// NewRegistry builds a Client for every target. Domains are fixed for the
// lifetime of the registry; there is no dynamic re-registration.
func NewRegistry(targets []Target, logger hclog.Logger) (*Registry, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("no etherpad backends configured")
	}

	r := &Registry{
		clients: make(map[string]*Client, len(targets)),
		logger:  logger,
	}
	for _, t := range targets {
		if t.Domain == "" {
			return nil, fmt.Errorf("etherpad backend %q has no domain", t.URL)
		}
		if t.URL == "" {
			return nil, fmt.Errorf("etherpad backend for domain %q has no URL", t.Domain)
		}
		client, err := NewClient(ConnectionConfig{
			URL:            t.URL,
			APIKey:         t.APIKey,
			APIVersion:     t.APIVersion,
			InternalURI:    t.InternalURI,
			TrustAll:       t.TrustAll,
			VerifyHost:     t.VerifyHost,
			KeepAlive:      t.KeepAlive,
			MaxPoolSize:    t.MaxPoolSize,
			ConnectTimeout: t.ConnectTimeout,
			Logger:         logger.Named("etherpad").With("domain", t.Domain),
		})
		if err != nil {
			return nil, fmt.Errorf("building etherpad client for domain %q: %w", t.Domain, err)
		}
		r.clients[t.Domain] = client
		if r.first == nil {
			r.first = client
		}
		logger.Info("registered etherpad backend",
			"domain", t.Domain, "url", t.URL)
	}
	return r, nil
}

// ClientFor resolves the client serving a request host or URL. A host with no
// configured backend is a realistic operational error and is reported as an
// error value, never a nil client.
func (r *Registry) ClientFor(hostOrURL string) (*Client, error) {
	domain := Domain(hostOrURL)
	client, ok := r.clients[domain]
	if !ok {
		return nil, fmt.Errorf("no etherpad client configured for domain %q", domain)
	}
	return client, nil
}

// FirstClient returns the first configured client, for callers that are not
// bound to a request host (e.g. background jobs).
func (r *Registry) FirstClient() *Client {
	return r.first
}

// Domains returns the configured tenant domains.
func (r *Registry) Domains() []string {
	domains := make([]string, 0, len(r.clients))
	for d := range r.clients {
		domains = append(domains, d)
	}
	return domains
}

// Domain extracts the registrable domain from a request host or full URL: the
// scheme and port are stripped and only the last two DNS labels are kept.
// "sub1.sub2.example.com" becomes "example.com"; "localhost:8080" becomes
// "localhost".
func Domain(hostOrURL string) string {
	host := hostOrURL
	if i := strings.Index(host, "://"); i >= 0 {
		host = host[i+3:]
	}
	if i := strings.IndexByte(host, '/'); i >= 0 {
		host = host[:i]
	}
	if i := strings.IndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	labels := strings.Split(host, ".")
	if len(labels) > 2 {
		return strings.Join(labels[len(labels)-2:], ".")
	}
	return host
}
