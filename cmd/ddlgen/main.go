// cmd/ddlgen/main.go
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joaotav/mpl-core/internal/domain/deployment"
)

func mustWrite(path string, content string) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		panic(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		panic(err)
	}
}

func main() {
	outDir := filepath.Join("internal", "infra", "database", "migrations")

	outDeployments := filepath.Join(outDir, "init_deployments.sql")
	outSteps := filepath.Join(outDir, "init_deployment_steps.sql")

	mustWrite(outDeployments, deployment.DeploymentsTableDDL)
	fmt.Println("✅ Generated:", outDeployments)

	mustWrite(outSteps, deployment.DeploymentStepsTableDDL)
	fmt.Println("✅ Generated:", outSteps)
}
