package session

import (
	"context"
	"math/rand"
	"path/filepath"
	"strings"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"

	"github.com/promofarm/core-go/internal/config"
	apperrors "github.com/promofarm/core-go/internal/errors"
	"github.com/promofarm/core-go/internal/gameclient"
	"github.com/promofarm/core-go/internal/model"
)

// stealthScript masks the usual automation markers before any page script
// runs: webdriver flag, empty plugin list, headless WebGL vendor strings.
const stealthScript = `
Object.defineProperty(navigator, 'webdriver', { get: () => undefined });
Object.defineProperty(navigator, 'plugins', {
  get: () => [{ name: 'Chrome PDF Plugin' }, { name: 'Chrome PDF Viewer' }, { name: 'Native Client' }],
});
Object.defineProperty(navigator, 'languages', { get: () => ['en-US', 'en'] });
Object.defineProperty(navigator, 'hardwareConcurrency', { get: () => 8 });
const origGetParameter = WebGLRenderingContext.prototype.getParameter;
WebGLRenderingContext.prototype.getParameter = function (param) {
  if (param === 37445) return 'Intel Inc.';
  if (param === 37446) return 'Intel Iris OpenGL Engine';
  return origGetParameter.call(this, param);
};
window.chrome = window.chrome || { runtime: {} };
`

// BrowserProvisioner drives a real browser through the login reference. Each
// account gets a persistent profile directory so the site sees a returning
// visitor, and the fingerprint is randomized per attempt.
type BrowserProvisioner struct {
	baseURL     string
	domain      string
	profilesDir string
	execPath    string
	cookies     cookieSeeder
}

// cookieSeeder supplies the cookies injected before navigation.
type cookieSeeder interface {
	Load(owner, uid string) (model.CookieSet, error)
}

func NewBrowserProvisioner(baseURL, domain, profilesDir, execPath string, cookies cookieSeeder) *BrowserProvisioner {
	return &BrowserProvisioner{
		baseURL:     baseURL,
		domain:      domain,
		profilesDir: profilesDir,
		execPath:    execPath,
		cookies:     cookies,
	}
}

func (p *BrowserProvisioner) Provision(ctx context.Context, owner string, account model.Account) (model.CookieSet, error) {
	return p.ProvisionWith(ctx, owner, account, nil)
}

// ProvisionWith runs the login flow and then the embedded action, if any.
// Cookies are re-extracted from the browser context even when the embedded
// action fails: the refreshed session is worth persisting either way, so the
// cookie set is returned alongside the action's error.
func (p *BrowserProvisioner) ProvisionWith(ctx context.Context, owner string, account model.Account, embedded chromedp.Action) (model.CookieSet, error) {
	if account.LoginURL == "" {
		return nil, apperrors.MissingCredentialRef(account.UID)
	}

	profile := gameclient.RandomProfile()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserDataDir(filepath.Join(p.profilesDir, owner+"_"+account.UID)),
		chromedp.UserAgent(profile.UserAgent),
		chromedp.WindowSize(profile.ViewportWidth, profile.ViewportHeight),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("lang", strings.SplitN(profile.AcceptLanguage, ",", 2)[0]),
	)
	if p.execPath != "" {
		opts = append(opts, chromedp.ExecPath(p.execPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	stepCtx, cancelStep := context.WithTimeout(browserCtx, config.BrowserStepTimeout)
	defer cancelStep()

	known, err := p.cookies.Load(owner, account.UID)
	if err != nil {
		return nil, apperrors.Storage(err)
	}

	if err := chromedp.Run(stepCtx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(stealthScript).Do(ctx)
			return err
		}),
		p.injectCookies(known),
		chromedp.Navigate(account.LoginURL),
		p.humanPreAction(profile),
	); err != nil {
		return nil, apperrors.Transport(err)
	}

	var embeddedErr error
	if embedded != nil {
		embeddedErr = chromedp.Run(stepCtx, embedded)
		if embeddedErr != nil {
			log.Warn().Str("owner", owner).Str("uid", account.UID).
				Err(embeddedErr).Msg("embedded browser action failed, still extracting cookies")
		}
	}

	set, err := p.extractCookies(stepCtx)
	if err != nil {
		return nil, apperrors.Transport(err)
	}
	if len(set) == 0 {
		return nil, apperrors.EmptySession(account.UID)
	}
	return set, embeddedErr
}

func (p *BrowserProvisioner) injectCookies(set model.CookieSet) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		for name, value := range set {
			err := network.SetCookie(name, value).
				WithDomain(p.domain).
				WithPath("/").
				Do(ctx)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// humanPreAction moves the mouse along a few random points and scrolls a
// little before anything server-observable happens.
func (p *BrowserProvisioner) humanPreAction(profile gameclient.ClientProfile) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		for i := 0; i < 3; i++ {
			x := float64(rand.Intn(profile.ViewportWidth))
			y := float64(rand.Intn(profile.ViewportHeight))
			if err := input.DispatchMouseEvent(input.MouseMoved, x, y).Do(ctx); err != nil {
				return err
			}
			if err := gameclient.HumanDelay(ctx, config.WarmupDelayMin, config.WarmupDelayMax); err != nil {
				return err
			}
		}
		return chromedp.Evaluate(`window.scrollBy(0, 200 + Math.random() * 300)`, nil).Do(ctx)
	})
}

func (p *BrowserProvisioner) extractCookies(ctx context.Context) (model.CookieSet, error) {
	set := model.CookieSet{}
	err := chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		cookies, err := storage.GetCookies().Do(ctx)
		if err != nil {
			return err
		}
		for _, c := range cookies {
			if strings.HasSuffix(strings.TrimPrefix(c.Domain, "."), p.domain) ||
				strings.HasSuffix(p.domain, strings.TrimPrefix(c.Domain, ".")) {
				set[c.Name] = c.Value
			}
		}
		return nil
	}))
	if err != nil {
		return nil, err
	}
	return set, nil
}
