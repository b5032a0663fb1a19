package main

import (
	"fmt"
	"os"

	"github.com/oakwood-commons/lingo/cmd"
	"github.com/oakwood-commons/lingo/pkg/logger"
	"github.com/oakwood-commons/lingo/pkg/settings"
)

func main() {
	err := cmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", settings.CliBinaryName, err)
	}
	logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}
