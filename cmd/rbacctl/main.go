package main

import (
	"os"

	"github.com/odyssey-erp/odyssey-rbac/cmd/rbacctl/cli"
)

func main() {
	os.Exit(cli.Execute())
}
