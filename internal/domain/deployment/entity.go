package deployment

import (
	"errors"
	"strings"
	"time"
)

// ------------------------------------------------------
// Entity: Deployment (deployments テーブル 1 レコード)
// ------------------------------------------------------
//
// 1 回のデプロイ実行の記録。パイプライン終了後にアーカイブとして保存する。
//
// 想定テーブル構造:
//
// - id            : string
// - network       : string      // RPC endpoint の URL
// - payer         : string      // base58
// - collection    : string      // base58
// - machine       : string      // base58
// - treasury      : string      // base58
// - itemsLoaded   : int
// - itemsRedeemed : int
// - totalCost     : float64     // SOL
// - assets        : []string    // minted asset addresses (base58)
// - steps         : []Step      // per-step records (別テーブル)
// - startedAt     : time.Time
// - finishedAt    : time.Time
type Deployment struct {
	ID            string    `json:"id"`
	Network       string    `json:"network"`
	Payer         string    `json:"payer"`
	Collection    string    `json:"collection"`
	Machine       string    `json:"machine"`
	Treasury      string    `json:"treasury"`
	ItemsLoaded   uint64    `json:"itemsLoaded"`
	ItemsRedeemed uint64    `json:"itemsRedeemed"`
	TotalCost     float64   `json:"totalCost"`
	Assets        []string  `json:"assets"`
	Steps         []Step    `json:"steps"`
	StartedAt     time.Time `json:"startedAt"`
	FinishedAt    time.Time `json:"finishedAt"`
}

// Step is the archived record of one pipeline step: its index, label,
// pass/fail marker and, on failure, the failure kind and message.
type Step struct {
	Index  int     `json:"index"`
	Label  string  `json:"label"`
	OK     bool    `json:"ok"`
	Detail string  `json:"detail,omitempty"`
	Kind   string  `json:"kind,omitempty"` // failure kind; empty on success
	Err    string  `json:"err,omitempty"`
	Cost   float64 `json:"cost"`
}

// ------------------------------------------------------
// Errors
// ------------------------------------------------------

var (
	ErrInvalidNetwork    = errors.New("deployment: invalid network")
	ErrInvalidPayer      = errors.New("deployment: invalid payer")
	ErrInvalidTimestamps = errors.New("deployment: invalid startedAt / finishedAt")
	ErrRedeemedOverflow  = errors.New("deployment: itemsRedeemed exceeds itemsLoaded")
	ErrNoSteps           = errors.New("deployment: steps are empty")
)

// ------------------------------------------------------
// Constructors
// ------------------------------------------------------

// New validates and returns a Deployment. ID may be empty; repositories are
// allowed to assign one on save.
func New(network, payer string, startedAt, finishedAt time.Time) (Deployment, error) {
	d := Deployment{
		Network:    strings.TrimSpace(network),
		Payer:      strings.TrimSpace(payer),
		StartedAt:  startedAt.UTC(),
		FinishedAt: finishedAt.UTC(),
	}
	if err := d.validate(); err != nil {
		return Deployment{}, err
	}
	return d, nil
}

// Validate exposes the consistency check to callers that assemble a
// Deployment field by field.
func (d Deployment) Validate() error { return d.validate() }

func (d Deployment) validate() error {
	if d.Network == "" {
		return ErrInvalidNetwork
	}
	if strings.TrimSpace(d.Payer) == "" {
		return ErrInvalidPayer
	}
	if d.StartedAt.IsZero() || d.FinishedAt.IsZero() || d.FinishedAt.Before(d.StartedAt) {
		return ErrInvalidTimestamps
	}
	if d.ItemsRedeemed > d.ItemsLoaded {
		return ErrRedeemedOverflow
	}
	return nil
}

// ------------------------------------------------------
// Behavior
// ------------------------------------------------------

// FailedSteps returns the steps that carry a failure marker.
func (d Deployment) FailedSteps() []Step {
	var out []Step
	for _, s := range d.Steps {
		if !s.OK {
			out = append(out, s)
		}
	}
	return out
}

// Succeeded reports whether every recorded step passed.
func (d Deployment) Succeeded() bool {
	if len(d.Steps) == 0 {
		return false
	}
	return len(d.FailedSteps()) == 0
}

// ------------------------------------------------------
// DDL from domain
// ------------------------------------------------------

// DeploymentsTableDDL defines the SQL for the deployments migration.
const DeploymentsTableDDL = `
-- Migration: Initialize Deployment domain

BEGIN;

CREATE TABLE IF NOT EXISTS deployments (
  id             TEXT        PRIMARY KEY,
  network        TEXT        NOT NULL,
  payer          TEXT        NOT NULL,
  collection     TEXT        NOT NULL DEFAULT '',
  machine        TEXT        NOT NULL DEFAULT '',
  treasury       TEXT        NOT NULL DEFAULT '',
  items_loaded   BIGINT      NOT NULL DEFAULT 0,
  items_redeemed BIGINT      NOT NULL DEFAULT 0,
  total_cost     DOUBLE PRECISION NOT NULL DEFAULT 0,
  assets         TEXT[]      NOT NULL DEFAULT '{}',
  started_at     TIMESTAMPTZ NOT NULL,
  finished_at    TIMESTAMPTZ NOT NULL,
  created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),

  CONSTRAINT chk_deployments_network_non_empty CHECK (char_length(trim(network)) > 0),
  CONSTRAINT chk_deployments_payer_non_empty   CHECK (char_length(trim(payer)) > 0),
  CONSTRAINT chk_deployments_redeemed_le_loaded CHECK (items_redeemed <= items_loaded)
);

CREATE INDEX IF NOT EXISTS idx_deployments_payer      ON deployments (payer);
CREATE INDEX IF NOT EXISTS idx_deployments_started_at ON deployments (started_at DESC);

COMMIT;
`

// DeploymentStepsTableDDL defines the SQL for the deployment_steps migration.
const DeploymentStepsTableDDL = `
-- Migration: Initialize Deployment steps

BEGIN;

CREATE TABLE IF NOT EXISTS deployment_steps (
  deployment_id TEXT             NOT NULL REFERENCES deployments (id) ON DELETE CASCADE,
  step_index    INT              NOT NULL,
  label         TEXT             NOT NULL,
  ok            BOOLEAN          NOT NULL,
  detail        TEXT             NOT NULL DEFAULT '',
  kind          TEXT             NOT NULL DEFAULT '',
  err           TEXT             NOT NULL DEFAULT '',
  cost          DOUBLE PRECISION NOT NULL DEFAULT 0,

  PRIMARY KEY (deployment_id, step_index)
);

COMMIT;
`
