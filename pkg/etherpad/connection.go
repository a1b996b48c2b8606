package etherpad

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-hclog"
)

// DefaultAPIVersion is the Etherpad Lite API version targeted when none is
// configured.
const DefaultAPIVersion = "1.2.1"

// Defaults for the HTTP client tuning knobs.
const (
	DefaultMaxPoolSize    = 16
	DefaultConnectTimeout = 10 * time.Second
)

// ConnectionConfig describes one backend Etherpad instance. All fields are
// resolved once at construction; a Connection is immutable afterwards.
type ConnectionConfig struct {
	// URL is the public base URL of the backend (scheme, host, optional port
	// and path prefix). It is also the URL user-facing pad links are built
	// from.
	URL string

	// APIKey is sent with every call. An empty key is a startup warning, not
	// an error: the backend will reject calls with CODE_INVALID_API_KEY.
	APIKey string

	// APIVersion selects the /api/{version}/ path segment. Defaults to
	// DefaultAPIVersion.
	APIVersion string

	// InternalURI, when set, is dialed instead of URL. The public URL is
	// still used for building pad links.
	InternalURI string

	// TrustAll disables all TLS certificate validation. Insecure; meant for
	// self-signed development backends only.
	TrustAll bool

	// VerifyHost enables hostname verification of the backend certificate.
	// When false the certificate chain is still verified against the system
	// roots, only the name check is skipped.
	VerifyHost bool

	// MaxPoolSize bounds concurrently in-flight requests to the backend;
	// excess requests queue on the pool. Defaults to DefaultMaxPoolSize.
	MaxPoolSize int

	// ConnectTimeout bounds connection establishment. Defaults to
	// DefaultConnectTimeout.
	ConnectTimeout time.Duration

	// KeepAlive enables connection reuse across calls.
	KeepAlive bool

	Logger hclog.Logger
}

// Connection performs the network calls for one backend target and hands the
// raw bytes to the codec. Remote failures of any kind are converted into a
// normalized error Result at this boundary; they never escape as Go errors.
type Connection struct {
	base       *url.URL
	apiKey     string
	apiVersion string
	httpClient *http.Client
	logger     hclog.Logger
}

// NewConnection builds the pooled HTTP client for one backend target. The
// only hard error is an unparseable base URL; everything else has defaults.
func NewConnection(cfg ConnectionConfig) (*Connection, error) {
	log := cfg.Logger
	if log == nil {
		log = hclog.NewNullLogger()
	}

	dialURL := cfg.URL
	if cfg.InternalURI != "" {
		log.Info("using internal pad uri", "internal_uri", cfg.InternalURI)
		dialURL = cfg.InternalURI
	}
	base, err := url.Parse(dialURL)
	if err != nil {
		return nil, fmt.Errorf("invalid etherpad URL %q: %w", dialURL, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf(
			"etherpad URL %q must use http or https scheme", dialURL)
	}

	if cfg.APIKey == "" {
		log.Warn("no etherpad API key configured, calls will be rejected")
	}
	apiVersion := cfg.APIVersion
	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}
	poolSize := cfg.MaxPoolSize
	if poolSize <= 0 {
		poolSize = DefaultMaxPoolSize
	}
	connectTimeout := cfg.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = DefaultConnectTimeout
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: connectTimeout,
		}).DialContext,
		MaxConnsPerHost:     poolSize,
		MaxIdleConnsPerHost: poolSize,
		IdleConnTimeout:     90 * time.Second,
		DisableKeepAlives:   !cfg.KeepAlive,
		TLSClientConfig:     tlsConfig(cfg.TrustAll, cfg.VerifyHost),
	}

	return &Connection{
		base:       base,
		apiKey:     cfg.APIKey,
		apiVersion: apiVersion,
		httpClient: &http.Client{Transport: transport},
		logger:     log,
	}, nil
}

// tlsConfig maps the trust knobs onto crypto/tls. trustAll skips validation
// entirely; verifyHost=false keeps chain verification but drops the hostname
// check.
func tlsConfig(trustAll, verifyHost bool) *tls.Config {
	if trustAll {
		return &tls.Config{InsecureSkipVerify: true}
	}
	if verifyHost {
		return nil
	}
	cfg := &tls.Config{InsecureSkipVerify: true}
	cfg.VerifyPeerCertificate = func(rawCerts [][]byte, _ [][]*x509.Certificate) error {
		certs := make([]*x509.Certificate, 0, len(rawCerts))
		for _, raw := range rawCerts {
			cert, err := x509.ParseCertificate(raw)
			if err != nil {
				return err
			}
			certs = append(certs, cert)
		}
		if len(certs) == 0 {
			return fmt.Errorf("no peer certificate presented")
		}
		opts := x509.VerifyOptions{Intermediates: x509.NewCertPool()}
		for _, cert := range certs[1:] {
			opts.Intermediates.AddCert(cert)
		}
		_, err := certs[0].Verify(opts)
		return err
	}
	return cfg
}

// Get calls an API method with every parameter in the query string.
func (c *Connection) Get(ctx context.Context, apiMethod string, args Params) Result {
	return c.call(ctx, http.MethodGet, apiMethod, args, nil)
}

// Post calls an API method with addressing parameters in the query string and
// payload parameters as a JSON request body.
func (c *Connection) Post(ctx context.Context, apiMethod string, queryArgs, bodyArgs Params) Result {
	return c.call(ctx, http.MethodPost, apiMethod, queryArgs, bodyArgs)
}

func (c *Connection) call(ctx context.Context, httpMethod, apiMethod string, queryArgs, bodyArgs Params) Result {
	endpoint := *c.base
	endpoint.Path = c.apiPath(apiMethod)
	endpoint.RawQuery = encodeQuery(queryArgs, c.apiKey)

	var bodyReader io.Reader
	if httpMethod == http.MethodPost {
		body, err := encodeBody(bodyArgs)
		if err != nil {
			return errorResult("unable to encode request body: %s", err)
		}
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, httpMethod, endpoint.String(), bodyReader)
	if err != nil {
		return errorResult("unable to build request for %s: %s", apiMethod, err)
	}
	if bodyReader != nil {
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("etherpad call failed", "method", apiMethod, "error", err)
		return errorResult("unable to reach etherpad backend: %s", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errorResult("%s", resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errorResult("unable to read etherpad response: %s", err)
	}
	return decodeResponse(body)
}

// apiPath returns the request path for an API method, preserving any path
// prefix of the base URL.
func (c *Connection) apiPath(apiMethod string) string {
	return c.base.Path + "/api/" + c.apiVersion + "/" + apiMethod
}

// IsSecure reports whether calls to the backend use TLS.
func (c *Connection) IsSecure() bool {
	return c.base.Scheme == "https"
}
