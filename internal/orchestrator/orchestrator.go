// Package orchestrator fans per-account actions out across the registered
// accounts with bounded pacing, partial-failure tolerance and at-most-once
// promo semantics. Per-account errors never escape the account boundary;
// only store-level I/O failures propagate to the caller.
package orchestrator

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/promofarm/core-go/internal/action"
	"github.com/promofarm/core-go/internal/activity"
	"github.com/promofarm/core-go/internal/config"
	apperrors "github.com/promofarm/core-go/internal/errors"
	"github.com/promofarm/core-go/internal/gameclient"
	"github.com/promofarm/core-go/internal/model"
	"github.com/promofarm/core-go/internal/session"
	"github.com/promofarm/core-go/internal/store"
)

// RunRecorder archives batch summaries. Recording failures are logged, not
// propagated: losing a report row must not fail the batch.
type RunRecorder interface {
	RecordRun(ctx context.Context, kind string, summary model.BatchSummary, started, finished time.Time) error
}

type Orchestrator struct {
	accounts    *store.AccountRegistry
	cookies     *store.CookieStore
	promos      *store.PromoHistory
	checkpoints *store.CheckpointStore
	detector    *activity.Detector
	provisioner session.Provisioner
	recorder    RunRecorder
	jobs        *JobRegistry
	pacer       gameclient.Pacer

	baseURL     string
	ttl         time.Duration
	orgDelay    time.Duration
	farmActions []action.EventAction
}

func New(
	accounts *store.AccountRegistry,
	cookies *store.CookieStore,
	promos *store.PromoHistory,
	checkpoints *store.CheckpointStore,
	detector *activity.Detector,
	provisioner session.Provisioner,
	recorder RunRecorder,
	pacer gameclient.Pacer,
	baseURL string,
	farmActions []action.EventAction,
) *Orchestrator {
	return &Orchestrator{
		accounts:    accounts,
		cookies:     cookies,
		promos:      promos,
		checkpoints: checkpoints,
		detector:    detector,
		provisioner: provisioner,
		recorder:    recorder,
		jobs:        NewJobRegistry(),
		pacer:       pacer,
		baseURL:     baseURL,
		ttl:         config.ActivityTTL,
		orgDelay:    config.OrgFanoutDelay,
		farmActions: farmActions,
	}
}

// Jobs exposes the job registry for state queries.
func (o *Orchestrator) Jobs() *JobRegistry { return o.jobs }

// WithTTL overrides the activity freshness TTL (tests).
func (o *Orchestrator) WithTTL(ttl time.Duration) *Orchestrator {
	o.ttl = ttl
	return o
}

// WithOrgDelay overrides the delay between accounts in org-wide runs.
func (o *Orchestrator) WithOrgDelay(d time.Duration) *Orchestrator {
	o.orgDelay = d
	return o
}

// RefreshSession provisions a fresh cookie set for the account and persists
// it, replacing whatever was stored.
func (o *Orchestrator) RefreshSession(ctx context.Context, owner, uid string) (model.CookieSet, error) {
	acc, err := o.accounts.FindAccount(owner, uid)
	if err != nil {
		return nil, apperrors.Storage(err)
	}
	if acc == nil {
		return nil, apperrors.NotFound("account")
	}

	set, err := o.provisioner.Provision(ctx, owner, *acc)
	if err != nil {
		return nil, err
	}
	if err := o.cookies.Save(owner, uid, set); err != nil {
		return nil, apperrors.Storage(err)
	}
	return set, nil
}

// ensureFresh enforces the freshness gate for an event-gated batch. When the
// activity map is stale it blocks on a full detection pass; it then answers
// whether the event is active.
func (o *Orchestrator) ensureFresh(ctx context.Context, eventID string) (bool, error) {
	if eventID == "" {
		return true, nil
	}
	if o.detector.Stale(o.ttl) {
		if _, err := o.detector.DetectAll(ctx); err != nil {
			return false, err
		}
	}
	return o.detector.IsActive(eventID)
}

// RunForAccount runs the action for one account. Every failure mode is
// folded into the result record; this function never returns an error.
func (o *Orchestrator) RunForAccount(ctx context.Context, owner string, acc model.Account, act action.EventAction) (res model.ActionResult) {
	res = model.ActionResult{Owner: owner, UID: acc.UID, Username: acc.Username}

	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("owner", owner).Str("uid", acc.UID).
				Interface("panic", r).Msg("action panicked")
			res.Outcome = model.OutcomeRecoverable
			res.Message = fmt.Sprintf("internal panic: %v", r)
		}
	}()

	set, err := o.cookies.Load(owner, acc.UID)
	if err != nil {
		return o.fail(res, model.OutcomeRecoverable, "cookie store unavailable: "+err.Error())
	}

	if len(set) == 0 {
		set, err = o.provisioner.Provision(ctx, owner, acc)
		if err != nil {
			return o.provisionFailure(res, acc, err)
		}
		if err := o.cookies.Save(owner, acc.UID, set); err != nil {
			return o.fail(res, model.OutcomeRecoverable, "could not persist session: "+err.Error())
		}
	}

	sess, err := gameclient.NewSession(owner, acc, o.baseURL)
	if err != nil {
		return o.fail(res, model.OutcomeRecoverable, "session setup failed: "+err.Error())
	}
	sess.SeedCookies(set)

	out, execErr := act.Execute(ctx, sess)

	// A transport failure usually means the stored session went stale:
	// provision once and retry before giving up.
	if execErr != nil && apperrors.GetCode(execErr) == apperrors.ErrCodeTransport {
		if fresh, provErr := o.provisioner.Provision(ctx, owner, acc); provErr == nil {
			sess.SeedCookies(fresh)
			out, execErr = act.Execute(ctx, sess)
		}
	}

	// Whatever happened, the jar's refreshed cookies are worth keeping.
	if fresh := sess.Cookies(); len(fresh) > 0 {
		if err := o.cookies.Save(owner, acc.UID, fresh); err != nil {
			log.Warn().Str("owner", owner).Str("uid", acc.UID).Err(err).
				Msg("could not persist refreshed cookies")
		}
	}

	if execErr != nil {
		return o.fail(res, model.OutcomeRecoverable, execErr.Error())
	}

	res.Outcome = out.Outcome
	res.Message = out.Message
	return res
}

func (o *Orchestrator) fail(res model.ActionResult, outcome model.Outcome, msg string) model.ActionResult {
	res.Outcome = outcome
	res.Message = msg
	return res
}

func (o *Orchestrator) provisionFailure(res model.ActionResult, acc model.Account, err error) model.ActionResult {
	switch apperrors.GetCode(err) {
	case apperrors.ErrCodeMissingCredentialRef:
		return o.fail(res, model.OutcomeSkipped, "no login reference")
	case apperrors.ErrCodeEmptySession:
		// often a site-side defense change; keep it loud
		log.Error().Str("uid", acc.UID).Msg("provisioning yielded no cookies")
		return o.fail(res, model.OutcomeRecoverable, "provisioning yielded no cookies")
	default:
		return o.fail(res, model.OutcomeRecoverable, err.Error())
	}
}

// RunForOwner runs the action for every account of one owner concurrently.
// Each account's failure is isolated; the summary always carries exactly one
// record per account. An inactive gated event short-circuits the whole batch
// with a single "not active" result.
func (o *Orchestrator) RunForOwner(ctx context.Context, owner string, act action.EventAction) (model.BatchSummary, error) {
	started := time.Now()
	var summary model.BatchSummary

	active, err := o.ensureFresh(ctx, act.EventID())
	if err != nil {
		return summary, err
	}
	if !active {
		summary.Add(model.ActionResult{
			Owner:   owner,
			Outcome: model.OutcomeSkipped,
			Message: fmt.Sprintf("event %s is not active", act.EventID()),
		}, config.MaxFailureDetails)
		return summary, nil
	}

	accounts, err := o.accounts.ListAccounts(owner)
	if err != nil {
		return summary, apperrors.Storage(err)
	}

	results := make([]model.ActionResult, len(accounts))
	done := make(chan int, len(accounts))
	for i, acc := range accounts {
		go func(i int, acc model.Account) {
			results[i] = o.RunForAccount(ctx, owner, acc, act)
			done <- i
		}(i, acc)
	}
	for range accounts {
		<-done
	}

	for _, r := range results {
		summary.Add(r, config.MaxFailureDetails)
	}

	o.record(ctx, "owner:"+act.Name(), summary, started)
	return summary, nil
}

// RunForAllOwners runs the action across every owner's accounts
// sequentially with pacing between accounts. This path is admin-triggered
// and far larger, so it trades speed for not hammering the remote service.
func (o *Orchestrator) RunForAllOwners(ctx context.Context, act action.EventAction, progress ProgressFunc) (model.BatchSummary, error) {
	started := time.Now()
	var summary model.BatchSummary

	active, err := o.ensureFresh(ctx, act.EventID())
	if err != nil {
		return summary, err
	}
	if !active {
		summary.Add(model.ActionResult{
			Outcome: model.OutcomeSkipped,
			Message: fmt.Sprintf("event %s is not active", act.EventID()),
		}, config.MaxFailureDetails)
		return summary, nil
	}

	entries, err := o.flattenAccounts()
	if err != nil {
		return summary, err
	}

	reporter := newProgressReporter(progress, config.ProgressMinInterval, config.ProgressMinIncrement)
	for i, entry := range entries {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if o.pacer != nil {
			if err := o.pacer.Wait(ctx); err != nil {
				return summary, err
			}
		}

		summary.Add(o.RunForAccount(ctx, entry.owner, entry.account, act), config.MaxFailureDetails)
		reporter.Report(i+1, len(entries))

		if i < len(entries)-1 {
			select {
			case <-ctx.Done():
				return summary, ctx.Err()
			case <-time.After(o.orgDelay):
			}
		}
	}
	reporter.Flush(len(entries), len(entries))

	o.record(ctx, "org:"+act.Name(), summary, started)
	return summary, nil
}

// RedeemPromo applies a one-shot code across the owner's accounts, with
// at-most-once semantics across the whole system: a code present in history
// rejects the batch before any account is touched, and a batch with at
// least one success records the code.
func (o *Orchestrator) RedeemPromo(ctx context.Context, owner, code string) (model.BatchSummary, error) {
	applied, err := o.promos.Contains(code)
	if err != nil {
		return model.BatchSummary{}, apperrors.Storage(err)
	}
	if applied {
		return model.BatchSummary{}, apperrors.AlreadyApplied(code)
	}

	summary, err := o.RunForOwner(ctx, owner, action.NewPromoAction(code))
	if err != nil {
		return summary, err
	}

	if summary.Succeeded > 0 {
		if err := o.promos.Record(code); err != nil {
			return summary, apperrors.Storage(err)
		}
	}
	return summary, nil
}

type accountEntry struct {
	owner   string
	account model.Account
}

// flattenAccounts lists all owners' accounts in a stable order so farm
// checkpoints index into a reproducible sequence.
func (o *Orchestrator) flattenAccounts() ([]accountEntry, error) {
	all, err := o.accounts.ListAll()
	if err != nil {
		return nil, apperrors.Storage(err)
	}

	owners := make([]string, 0, len(all))
	for owner := range all {
		owners = append(owners, owner)
	}
	sort.Strings(owners)

	var entries []accountEntry
	for _, owner := range owners {
		for _, acc := range all[owner] {
			entries = append(entries, accountEntry{owner: owner, account: acc})
		}
	}
	return entries, nil
}

func (o *Orchestrator) record(ctx context.Context, kind string, summary model.BatchSummary, started time.Time) {
	if o.recorder == nil {
		return
	}
	if err := o.recorder.RecordRun(ctx, kind, summary, started, time.Now()); err != nil {
		log.Warn().Str("kind", kind).Err(err).Msg("could not archive run report")
	}
}

// RenderSummary formats a batch summary for the caller's chat surface.
func RenderSummary(s model.BatchSummary) string {
	out := fmt.Sprintf("processed %d account(s): %d ok, %d failed, %d skipped",
		s.Total, s.Succeeded, s.Failed, s.Skipped)
	for _, d := range s.FailureDetails {
		out += "\n- " + d
	}
	return out
}
