// internal/adapters/out/db/deployment_repository_pg.go
package db

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/lib/pq"

	dbcommon "github.com/joaotav/mpl-core/internal/adapters/out/db/common"
	depdom "github.com/joaotav/mpl-core/internal/domain/deployment"
)

// DeploymentRepositoryPG archives finished deployment runs in PostgreSQL
// (deployments + deployment_steps tables; see the domain DDL constants).
type DeploymentRepositoryPG struct {
	DB *sql.DB
}

var _ depdom.RepositoryPort = (*DeploymentRepositoryPG)(nil)

func NewDeploymentRepositoryPG(db *sql.DB) *DeploymentRepositoryPG {
	return &DeploymentRepositoryPG{DB: db}
}

// Save inserts the run and its step records in one transaction. ID が空なら
// ここで採番する。ベストエフォート契約なので呼び出し側はエラーをログに
// 残すだけでよい。
func (r *DeploymentRepositoryPG) Save(ctx context.Context, d depdom.Deployment) (depdom.Deployment, error) {
	if r == nil || r.DB == nil {
		return depdom.Deployment{}, fmt.Errorf("deployment repository pg: db is nil")
	}
	if err := d.Validate(); err != nil {
		return depdom.Deployment{}, err
	}
	if strings.TrimSpace(d.ID) == "" {
		d.ID = newDeploymentID()
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return depdom.Deployment{}, fmt.Errorf("deployment repository pg: begin: %w", err)
	}
	defer tx.Rollback()

	const insertRun = `
INSERT INTO deployments
  (id, network, payer, collection, machine, treasury,
   items_loaded, items_redeemed, total_cost, assets, started_at, finished_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	if _, err := tx.ExecContext(ctx, insertRun,
		d.ID, d.Network, d.Payer, d.Collection, d.Machine, d.Treasury,
		int64(d.ItemsLoaded), int64(d.ItemsRedeemed), d.TotalCost,
		pq.Array(d.Assets), d.StartedAt, d.FinishedAt,
	); err != nil {
		if dbcommon.IsUniqueViolation(err) {
			return depdom.Deployment{}, fmt.Errorf("deployment repository pg: id %s already archived: %w", d.ID, err)
		}
		return depdom.Deployment{}, fmt.Errorf("deployment repository pg: insert run: %w", err)
	}

	const insertStep = `
INSERT INTO deployment_steps
  (deployment_id, step_index, label, ok, detail, kind, err, cost)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	for _, s := range d.Steps {
		if _, err := tx.ExecContext(ctx, insertStep,
			d.ID, s.Index, s.Label, s.OK, s.Detail, s.Kind, s.Err, s.Cost,
		); err != nil {
			return depdom.Deployment{}, fmt.Errorf("deployment repository pg: insert step %d: %w", s.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return depdom.Deployment{}, fmt.Errorf("deployment repository pg: commit: %w", err)
	}
	return d, nil
}

// GetByID loads one archived run with its steps.
func (r *DeploymentRepositoryPG) GetByID(ctx context.Context, id string) (depdom.Deployment, error) {
	if r == nil || r.DB == nil {
		return depdom.Deployment{}, fmt.Errorf("deployment repository pg: db is nil")
	}
	run := dbcommon.GetRunner(ctx, r.DB)

	const q = `
SELECT id, network, payer, collection, machine, treasury,
       items_loaded, items_redeemed, total_cost, assets, started_at, finished_at
FROM deployments
WHERE id = $1
LIMIT 1`
	var (
		d              depdom.Deployment
		loaded, redeem int64
		assets         pq.StringArray
	)
	err := run.QueryRowContext(ctx, q, strings.TrimSpace(id)).Scan(
		&d.ID, &d.Network, &d.Payer, &d.Collection, &d.Machine, &d.Treasury,
		&loaded, &redeem, &d.TotalCost, &assets, &d.StartedAt, &d.FinishedAt,
	)
	if err != nil {
		return depdom.Deployment{}, err
	}
	d.ItemsLoaded = uint64(loaded)
	d.ItemsRedeemed = uint64(redeem)
	d.Assets = []string(assets)

	const qs = `
SELECT step_index, label, ok, detail, kind, err, cost
FROM deployment_steps
WHERE deployment_id = $1
ORDER BY step_index`
	rows, err := run.QueryContext(ctx, qs, d.ID)
	if err != nil {
		return depdom.Deployment{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var s depdom.Step
		if err := rows.Scan(&s.Index, &s.Label, &s.OK, &s.Detail, &s.Kind, &s.Err, &s.Cost); err != nil {
			return depdom.Deployment{}, err
		}
		d.Steps = append(d.Steps, s)
	}
	return d, rows.Err()
}

// newDeploymentID mints a short random hex id for the archive row.
func newDeploymentID() string {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return "dep-unknown"
	}
	return "dep-" + hex.EncodeToString(buf)
}
