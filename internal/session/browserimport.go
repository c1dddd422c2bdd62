package session

import (
	"context"
	"strings"

	"github.com/browserutils/kooky"
	_ "github.com/browserutils/kooky/browser/chrome"
	_ "github.com/browserutils/kooky/browser/chromium"
	_ "github.com/browserutils/kooky/browser/edge"
	_ "github.com/browserutils/kooky/browser/firefox"
	"github.com/rs/zerolog/log"

	apperrors "github.com/promofarm/core-go/internal/errors"
	"github.com/promofarm/core-go/internal/model"
)

// ImportProvisioner pulls the game domain's cookies out of a browser
// installed on this machine. It covers the manual path: the operator logs
// in once in their own browser, and the account rides that session. No
// login reference is required.
type ImportProvisioner struct {
	domain  string
	browser string
}

// NewImportProvisioner imports cookies for the given domain. browser narrows
// the source ("chrome", "firefox", ...); empty means any installed browser.
func NewImportProvisioner(domain, browser string) *ImportProvisioner {
	return &ImportProvisioner{domain: domain, browser: strings.ToLower(browser)}
}

func (p *ImportProvisioner) Provision(ctx context.Context, owner string, account model.Account) (model.CookieSet, error) {
	cookies, err := kooky.ReadCookies(ctx, kooky.DomainHasSuffix(p.domain))
	if err != nil {
		return nil, apperrors.External("browser cookie store", err)
	}

	set := model.CookieSet{}
	for _, cookie := range cookies {
		if p.browser != "" && cookie.Browser != nil {
			source := strings.ToLower(cookie.Browser.Browser())
			if !strings.Contains(source, p.browser) {
				continue
			}
		}
		set[cookie.Name] = cookie.Value
	}

	if len(set) == 0 {
		return nil, apperrors.EmptySession(account.UID)
	}

	log.Info().Str("owner", owner).Str("uid", account.UID).
		Str("domain", p.domain).Int("cookies", len(set)).
		Msg("imported cookies from local browser")
	return set, nil
}
