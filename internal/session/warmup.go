package session

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/promofarm/core-go/internal/config"
	apperrors "github.com/promofarm/core-go/internal/errors"
	"github.com/promofarm/core-go/internal/gameclient"
	"github.com/promofarm/core-go/internal/model"
)

// Default warm-up sequence: bot-defense pixel, root page, AJAX ping. The
// order matters; each response seeds cookies the next request presents.
var defaultWarmupPaths = []string{
	"/akam/13/pixel",
	"/",
	"/ajax/ping",
}

// WarmupProvisioner establishes a session over plain HTTP: roll a fresh
// client profile, walk the warm-up sequence with jittered human-like delays,
// then fetch the account's login reference and capture the resulting jar.
type WarmupProvisioner struct {
	baseURL     string
	warmupPaths []string
	retry       gameclient.RetryConfig
	delayMin    time.Duration
	delayMax    time.Duration
}

func NewWarmupProvisioner(baseURL string) *WarmupProvisioner {
	return &WarmupProvisioner{
		baseURL:     baseURL,
		warmupPaths: defaultWarmupPaths,
		retry:       gameclient.DefaultRetryConfig(),
		delayMin:    config.WarmupDelayMin,
		delayMax:    config.WarmupDelayMax,
	}
}

// WithWarmupPaths overrides the warm-up sequence (used by tests and by
// deployments where the site's defense endpoints move).
func (p *WarmupProvisioner) WithWarmupPaths(paths ...string) *WarmupProvisioner {
	p.warmupPaths = paths
	return p
}

// WithRetry overrides the transport retry policy.
func (p *WarmupProvisioner) WithRetry(cfg gameclient.RetryConfig) *WarmupProvisioner {
	p.retry = cfg
	return p
}

// WithDelays overrides the jitter window between warm-up requests.
func (p *WarmupProvisioner) WithDelays(min, max time.Duration) *WarmupProvisioner {
	p.delayMin, p.delayMax = min, max
	return p
}

func (p *WarmupProvisioner) Provision(ctx context.Context, owner string, account model.Account) (model.CookieSet, error) {
	if account.LoginURL == "" {
		return nil, apperrors.MissingCredentialRef(account.UID)
	}

	sess, err := gameclient.NewSession(owner, account, p.baseURL)
	if err != nil {
		return nil, apperrors.Internal("could not build session").WithCause(err)
	}

	for _, path := range p.warmupPaths {
		if err := p.get(ctx, sess, path); err != nil {
			return nil, err
		}
		if err := gameclient.HumanDelay(ctx, p.delayMin, p.delayMax); err != nil {
			return nil, apperrors.Transport(err)
		}
	}

	// The login reference logs the account in; redirects along the way drop
	// the session cookies into the jar.
	if err := p.get(ctx, sess, account.LoginURL); err != nil {
		return nil, err
	}

	set := sess.Cookies()
	if len(set) == 0 {
		return nil, apperrors.EmptySession(account.UID)
	}

	log.Debug().Str("owner", owner).Str("uid", account.UID).
		Int("cookies", len(set)).Msg("warm-up provisioning complete")
	return set, nil
}

// get fetches one URL through the session, retrying transient transport
// failures with backoff. Response bodies are drained so connections return
// to the pool.
func (p *WarmupProvisioner) get(ctx context.Context, sess *gameclient.Session, path string) error {
	var lastErr error
	for attempt := 0; attempt <= p.retry.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return apperrors.Transport(ctx.Err())
			case <-time.After(p.retry.Backoff(attempt - 1)):
			}
		}

		req, err := sess.NewRequest(http.MethodGet, path)
		if err != nil {
			return apperrors.InvalidInput("url", err.Error())
		}
		resp, err := sess.Client.Do(req.WithContext(ctx))
		if err != nil {
			lastErr = err
			continue
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return nil
	}
	return apperrors.Transport(lastErr)
}
