package gameclient

import (
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/promofarm/core-go/internal/config"
	"github.com/promofarm/core-go/internal/model"
)

// newTransport builds a pooled transport shared by all sessions. Cookie
// state lives in per-session jars, so sharing the connection pool is safe.
func newTransport() *http.Transport {
	return &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 20,
		MaxConnsPerHost:     50,
		IdleConnTimeout:     90 * time.Second,

		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,

		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,

		ForceAttemptHTTP2: true,
	}
}

var sharedTransport = newTransport()

// Session is an authenticated browsing context for one account: an isolated
// cookie jar plus the client profile the requests present. It is passed
// explicitly into every provisioning and action call, never shared as an
// ambient singleton.
type Session struct {
	Owner   string
	Account model.Account
	Profile ClientProfile
	Client  *http.Client

	baseURL *url.URL
}

// NewSession creates a session with an empty jar and a freshly randomized
// client profile.
func NewSession(owner string, account model.Account, base string) (*Session, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, err
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}

	return &Session{
		Owner:   owner,
		Account: account,
		Profile: RandomProfile(),
		Client: &http.Client{
			Transport: sharedTransport,
			Jar:       jar,
			Timeout:   config.GameRequestTimeout,
		},
		baseURL: baseURL,
	}, nil
}

// BaseURL returns the game site root this session talks to.
func (s *Session) BaseURL() *url.URL {
	return s.baseURL
}

// SeedCookies loads a persisted cookie set into the jar, scoped to the game
// domain.
func (s *Session) SeedCookies(set model.CookieSet) {
	cookies := make([]*http.Cookie, 0, len(set))
	for name, value := range set {
		cookies = append(cookies, &http.Cookie{
			Name:   name,
			Value:  value,
			Domain: s.baseURL.Hostname(),
			Path:   "/",
		})
	}
	s.Client.Jar.SetCookies(s.baseURL, cookies)
}

// Cookies extracts the jar's current cookies for the game domain as the
// persistable set. The result is the complete authoritative state; callers
// store it wholesale.
func (s *Session) Cookies() model.CookieSet {
	set := model.CookieSet{}
	for _, c := range s.Client.Jar.Cookies(s.baseURL) {
		set[c.Name] = c.Value
	}
	return set
}

// NewRequest builds a request against the game site with the session's
// profile headers applied. Path may be absolute or relative to the base URL.
func (s *Session) NewRequest(method, path string) (*http.Request, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequest(method, s.baseURL.ResolveReference(ref).String(), nil)
	if err != nil {
		return nil, err
	}
	s.Profile.Apply(req)
	return req, nil
}

// NewFormRequest builds a form POST against the game site.
func (s *Session) NewFormRequest(path string, form url.Values) (*http.Request, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequest(http.MethodPost,
		s.baseURL.ResolveReference(ref).String(),
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	s.Profile.Apply(req)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	return req, nil
}
