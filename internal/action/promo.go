package action

import (
	"context"
	"io"
	"net/url"

	apperrors "github.com/promofarm/core-go/internal/errors"
	"github.com/promofarm/core-go/internal/gameclient"
)

// PromoAction redeems a one-shot promotional code. The orchestrator
// guarantees at-most-once application through the promo history; the action
// itself only performs the redeem call.
type PromoAction struct {
	path string
	code string
}

func NewPromoAction(code string) *PromoAction {
	return &PromoAction{path: "/event/coupon/redeem", code: code}
}

func (a *PromoAction) Name() string    { return "promo:" + a.code }
func (a *PromoAction) EventID() string { return "coupon" }
func (a *PromoAction) Code() string    { return a.code }

func (a *PromoAction) Execute(ctx context.Context, sess *gameclient.Session) (Result, error) {
	req, err := sess.NewFormRequest(a.path, url.Values{"code": {a.code}})
	if err != nil {
		return Result{}, err
	}
	resp, err := sess.Client.Do(req.WithContext(ctx))
	if err != nil {
		return Result{}, apperrors.Transport(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Result{}, apperrors.Transport(err)
	}
	return ClassifyResponse(body), nil
}
