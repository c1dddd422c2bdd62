// Package session obtains and refreshes authenticated cookie sets for game
// accounts. Strategies differ in cost and stealth; all of them return the
// complete cookie set for the game domain, which callers persist wholesale.
package session

import (
	"context"

	"github.com/promofarm/core-go/internal/model"
)

// Provisioner produces a valid CookieSet for (owner, account).
//
// Failures are per-account and never fatal to a batch: callers convert them
// into skip/retry results and move on to the next account.
type Provisioner interface {
	Provision(ctx context.Context, owner string, account model.Account) (model.CookieSet, error)
}
