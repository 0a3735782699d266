// atlas-loader 輸出 models 對應的 DDL，給 atlas 的 external_schema 使用:
//
//	data "external_schema" "gorm" {
//	  program = ["go", "run", "./tools/atlas-loader", "--dialect", "postgres"]
//	}
package main

import (
	"fmt"
	"io"
	"os"

	"ariga.io/atlas-provider-gorm/gormschema"
	"github.com/spf13/pflag"

	"confbid/models"
)

func main() {
	dialect := pflag.String("dialect", "postgres", "postgres, mysql, sqlite or sqlserver")
	pflag.Parse()

	stmts, err := gormschema.New(*dialect).Load(&models.Bid{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load gorm schema: %v\n", err)
		os.Exit(1)
	}
	io.WriteString(os.Stdout, stmts)
}
