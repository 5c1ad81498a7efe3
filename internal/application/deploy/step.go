// internal/application/deploy/step.go
package deploy

import (
	"context"
	"errors"
	"log"
)

// ============================================================
// Step executor
// ============================================================
//
// 各ステップは {Success(detail) | Failure(kind, message)} のタグ付き結果を
// 返す。失敗してもパイプラインは止めない（best-effort 方針）: 途中で全部
// 止まるより、部分的でも注釈付きのレポートを出す方が価値がある。

// StepFunc is one zero-argument pipeline operation. The returned detail is a
// short human-readable note (created address, signature, counts).
type StepFunc func(ctx context.Context) (detail string, err error)

// StepResult is the tagged outcome of one pipeline step.
type StepResult struct {
	Index  int
	Label  string
	OK     bool
	Detail string
	Kind   string // failure kind (submit/confirm/verify/fetch); empty on success
	Err    string // failure message; empty on success
	Cost   float64
}

// Runner executes steps in order with isolated failure handling: a failure is
// caught, logged with the step index and a pass/fail marker, recorded, and
// control returns to the caller so the next step still runs. One ledger
// submission per mutating step; no automatic retry.
type Runner struct {
	tracker *CostTracker
	results []StepResult
}

func NewRunner(tracker *CostTracker) *Runner {
	return &Runner{tracker: tracker}
}

// Run executes fn as the next step. Balances are sampled immediately before
// and after so the recorded cost reflects exactly this submission.
func (r *Runner) Run(ctx context.Context, label string, fn StepFunc) StepResult {
	res := StepResult{
		Index: len(r.results) + 1,
		Label: label,
	}

	before, beforeOK := r.tracker.Sample(ctx)
	detail, err := fn(ctx)
	after, afterOK := r.tracker.Sample(ctx)

	if beforeOK && afterOK {
		res.Cost = Cost(before, after)
	}

	if err != nil {
		res.Kind, res.Err = classify(err)
		log.Printf("[deploy] step=%d label=%q FAILED kind=%s err=%s", res.Index, res.Label, res.Kind, res.Err)
	} else {
		res.OK = true
		res.Detail = detail
		log.Printf("[deploy] step=%d label=%q OK %s cost=%.9f", res.Index, res.Label, res.Detail, res.Cost)
	}

	r.results = append(r.results, res)
	return res
}

// Results returns the recorded step outcomes in execution order.
func (r *Runner) Results() []StepResult {
	out := make([]StepResult, len(r.results))
	copy(out, r.results)
	return out
}

// classify maps an error to its failure kind and message. Steps are allowed
// to fail with a message-less error; a generic marker is recorded then.
func classify(err error) (kind, msg string) {
	kind = KindSubmit

	var confirmErr *ConfirmError
	var mismatchErr *MismatchError
	var fetchErr *FetchError
	switch {
	case errors.As(err, &confirmErr):
		kind = KindConfirm
	case errors.As(err, &mismatchErr):
		kind = KindVerify
	case errors.As(err, &fetchErr):
		kind = KindFetch
	}

	msg = err.Error()
	if msg == "" {
		msg = "unknown error"
	}
	return kind, msg
}
