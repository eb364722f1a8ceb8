package main

import (
	"adbtool/pkg/cli"
	"context"
	"fmt"
	"os"
)

func main() {
	if err := cli.New().Execute(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
