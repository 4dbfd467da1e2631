package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/atomichabits/internal/cli"
)

var CLI struct {
	Config string `help:"YAML config file; environment variables override it." type:"path" env:"HABITS_CONFIG"`

	Serve      cli.ServeCmd      `cmd:"" help:"Run the HTTP API." default:"1"`
	CreateUser cli.CreateUserCmd `cmd:"" help:"Create a user account."`
	Seed       cli.SeedCmd       `cmd:"" help:"Fill an empty database with demo data."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("server"),
		kong.Description("Habit tracker API server"),
		kong.UsageOnError(),
	)

	err := ctx.Run(&cli.Context{ConfigPath: CLI.Config})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
