package main

import (
	"fmt"
	"os"

	rlmtracecmder "github.com/papercomputeco/rlmtrace/cmd/rlmtrace"
)

func main() {
	cmd := rlmtracecmder.NewRLMTraceCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
