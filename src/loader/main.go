package main

import (
	"fmt"
	"io"
	"meetingroom/src/boot"
	"os"

	"ariga.io/atlas-provider-gorm/gormschema"
)

// Prints the schema of every migrated model for atlas:
//
//	atlas migrate diff --env gorm
func main() {
	stmts, err := gormschema.New("postgres").Load(boot.Models...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load gorm schema: %v\n", err)
		os.Exit(1)
	}
	io.WriteString(os.Stdout, stmts)
}
