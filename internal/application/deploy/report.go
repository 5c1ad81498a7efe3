// internal/application/deploy/report.go
package deploy

import (
	"fmt"
	"strings"
	"time"

	assetdom "github.com/joaotav/mpl-core/internal/domain/asset"
	depdom "github.com/joaotav/mpl-core/internal/domain/deployment"
)

// ============================================================
// Deployment report
// ============================================================

// Report is the final outcome of one pipeline run: the addresses involved,
// per-step results, the aggregate cost, and the minted-asset summary.
type Report struct {
	Network       string
	Payer         string
	Collection    string
	Machine       string
	Treasury      string
	ItemsLoaded   uint64
	ItemsRedeemed uint64
	TotalCost     float64
	Assets        []assetdom.Asset
	Steps         []StepResult
	StartedAt     time.Time
	FinishedAt    time.Time
}

// Succeeded reports whether every recorded step passed.
func (r Report) Succeeded() bool {
	for _, s := range r.Steps {
		if !s.OK {
			return false
		}
	}
	return len(r.Steps) > 0
}

// Render returns a human-readable run summary.
func (r Report) Render() string {
	var b strings.Builder

	fmt.Fprintf(&b, "==============================================\n")
	fmt.Fprintf(&b, " deployment report (%s)\n", r.Network)
	fmt.Fprintf(&b, "==============================================\n")
	fmt.Fprintf(&b, "payer:      %s\n", r.Payer)
	fmt.Fprintf(&b, "collection: %s\n", orDash(r.Collection))
	fmt.Fprintf(&b, "machine:    %s\n", orDash(r.Machine))
	fmt.Fprintf(&b, "treasury:   %s\n", orDash(r.Treasury))
	fmt.Fprintf(&b, "items:      loaded=%d redeemed=%d\n", r.ItemsLoaded, r.ItemsRedeemed)
	fmt.Fprintf(&b, "total cost: %.9f SOL\n", r.TotalCost)
	fmt.Fprintf(&b, "duration:   %s\n", r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))

	fmt.Fprintf(&b, "\nsteps:\n")
	for _, s := range r.Steps {
		if s.OK {
			fmt.Fprintf(&b, "  [%2d] OK     %-28s %s (cost=%.9f)\n", s.Index, s.Label, orDash(s.Detail), s.Cost)
			continue
		}
		fmt.Fprintf(&b, "  [%2d] FAILED %-28s kind=%s err=%s\n", s.Index, s.Label, s.Kind, s.Err)
	}

	fmt.Fprintf(&b, "\nminted assets (%d):\n", len(r.Assets))
	if len(r.Assets) == 0 {
		fmt.Fprintf(&b, "  (none)\n")
	}
	for i, a := range r.Assets {
		fmt.Fprintf(&b, "  [%2d] address=%s owner=%s name=%q uri=%s\n", i+1, a.Address, a.Owner, a.Name, a.URI)
	}

	return b.String()
}

// ToDeployment converts the report into the archive entity.
func (r Report) ToDeployment() (depdom.Deployment, error) {
	d, err := depdom.New(r.Network, r.Payer, r.StartedAt, r.FinishedAt)
	if err != nil {
		return depdom.Deployment{}, err
	}

	d.Collection = r.Collection
	d.Machine = r.Machine
	d.Treasury = r.Treasury
	d.ItemsLoaded = r.ItemsLoaded
	d.ItemsRedeemed = r.ItemsRedeemed
	d.TotalCost = r.TotalCost

	d.Assets = make([]string, 0, len(r.Assets))
	for _, a := range r.Assets {
		d.Assets = append(d.Assets, a.Address)
	}

	d.Steps = make([]depdom.Step, 0, len(r.Steps))
	for _, s := range r.Steps {
		d.Steps = append(d.Steps, depdom.Step{
			Index:  s.Index,
			Label:  s.Label,
			OK:     s.OK,
			Detail: s.Detail,
			Kind:   s.Kind,
			Err:    s.Err,
			Cost:   s.Cost,
		})
	}

	if err := d.Validate(); err != nil {
		return depdom.Deployment{}, err
	}
	return d, nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
