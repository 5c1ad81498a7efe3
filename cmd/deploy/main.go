// cmd/deploy/main.go
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/joaotav/mpl-core/internal/platform/di"
)

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()

	c, err := di.NewContainer(ctx)
	if err != nil {
		log.Fatalf("[deploy] init failed: %v", err)
	}
	defer c.Close()

	report, err := c.Usecase.Deploy(ctx, c.Params())
	if err != nil {
		log.Fatalf("[deploy] run aborted: %v", err)
	}

	fmt.Print(report.Render())
}
