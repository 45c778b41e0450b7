package main

import (
	"fmt"
	"os"

	"github.com/Stone-IT-Cloud/devsummary/internal/app"
)

func main() {
	if err := newRootCmd(app.New).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}
