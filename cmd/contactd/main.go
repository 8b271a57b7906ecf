// cmd/contactd/main.go
package main

import (
	"context"
	"os"

	"github.com/dalemusser/contactd/app"
)

func main() {
	if err := app.Run(context.Background()); err != nil {
		os.Exit(1)
	}
}
