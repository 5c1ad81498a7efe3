// internal/adapters/out/firestore/deployment_repository_fs.go
package firestore

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/firestore"

	depdom "github.com/joaotav/mpl-core/internal/domain/deployment"
)

// DeploymentRepositoryFS implements deployment.RepositoryPort using Firestore.
type DeploymentRepositoryFS struct {
	Client *firestore.Client
}

var _ depdom.RepositoryPort = (*DeploymentRepositoryFS)(nil)

func NewDeploymentRepositoryFS(client *firestore.Client) *DeploymentRepositoryFS {
	return &DeploymentRepositoryFS{Client: client}
}

// Save persists one finished run under the "deployments" collection.
func (r *DeploymentRepositoryFS) Save(ctx context.Context, d depdom.Deployment) (depdom.Deployment, error) {
	if r == nil || r.Client == nil {
		return depdom.Deployment{}, errors.New("firestore client is nil")
	}
	if err := d.Validate(); err != nil {
		return depdom.Deployment{}, err
	}

	col := r.Client.Collection("deployments")

	// ID が空なら自動採番
	var docRef *firestore.DocumentRef
	if d.ID == "" {
		docRef = col.NewDoc()
		d.ID = docRef.ID
	} else {
		docRef = col.Doc(d.ID)
	}

	steps := make([]map[string]interface{}, 0, len(d.Steps))
	for _, s := range d.Steps {
		steps = append(steps, map[string]interface{}{
			"index":  s.Index,
			"label":  s.Label,
			"ok":     s.OK,
			"detail": s.Detail,
			"kind":   s.Kind,
			"err":    s.Err,
			"cost":   s.Cost,
		})
	}

	// ドメインのフィールドを落とさないように明示的にマッピングする
	data := map[string]interface{}{
		"network":       d.Network,
		"payer":         d.Payer,
		"collection":    d.Collection,
		"machine":       d.Machine,
		"treasury":      d.Treasury,
		"itemsLoaded":   int64(d.ItemsLoaded),
		"itemsRedeemed": int64(d.ItemsRedeemed),
		"totalCost":     d.TotalCost,
		"assets":        d.Assets,
		"steps":         steps,
		"startedAt":     d.StartedAt,
		"finishedAt":    d.FinishedAt,
		"createdAt":     time.Now().UTC(),
	}

	if _, err := docRef.Set(ctx, data); err != nil {
		return depdom.Deployment{}, err
	}
	return d, nil
}
