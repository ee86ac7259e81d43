package main

import (
	"flag"
	"fmt"
	"os"

	"grimm.is/portcullis/cmd"
	"grimm.is/portcullis/internal/brand"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "start":
		fs := flag.NewFlagSet("start", flag.ExitOnError)
		configFile := fs.String("config", brand.DefaultConfigFile(), "Path to configuration file")
		fs.StringVar(configFile, "c", brand.DefaultConfigFile(), "Path to configuration file (shorthand)")
		fs.Parse(os.Args[2:])
		err = cmd.RunStart(*configFile)

	case "check":
		fs := flag.NewFlagSet("check", flag.ExitOnError)
		configFile := fs.String("config", brand.DefaultConfigFile(), "Path to configuration file")
		fs.StringVar(configFile, "c", brand.DefaultConfigFile(), "Path to configuration file (shorthand)")
		verbose := fs.Bool("verbose", false, "Also print the generated nftables ruleset")
		fs.BoolVar(verbose, "v", false, "Also print the generated nftables ruleset (shorthand)")
		fs.Parse(os.Args[2:])
		err = cmd.RunCheck(*configFile, *verbose)

	case "status":
		fs := flag.NewFlagSet("status", flag.ExitOnError)
		configFile := fs.String("config", brand.DefaultConfigFile(), "Path to configuration file")
		fs.StringVar(configFile, "c", brand.DefaultConfigFile(), "Path to configuration file (shorthand)")
		fs.Parse(os.Args[2:])
		err = cmd.RunStatus(*configFile)

	case "flush":
		fs := flag.NewFlagSet("flush", flag.ExitOnError)
		configFile := fs.String("config", brand.DefaultConfigFile(), "Path to configuration file")
		fs.StringVar(configFile, "c", brand.DefaultConfigFile(), "Path to configuration file (shorthand)")
		teardown := fs.Bool("teardown", false, "Delete the whole table instead of just clearing bans and grants")
		fs.Parse(os.Args[2:])
		err = cmd.RunFlush(*configFile, *teardown)

	case "version", "-version", "--version":
		fmt.Printf("%s %s (built %s, %s)\n", brand.Name, brand.Version, brand.BuildTime, brand.BuildArch)

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf(`%s - %s

Usage:
  %s <command> [flags]

Commands:
  start    Run the daemon in the foreground
  check    Validate the configuration and print the resolved policy
  status   Show current bans and grants from the live firewall
  flush    Clear all dynamic firewall state (bans and grants)
  version  Print version information
  help     Show this help

Flags:
  -config, -c   Path to configuration file (default %s)

Run '%s check -v' to preview the nftables ruleset without applying it.
`, brand.Name, brand.Description, brand.BinaryName, brand.DefaultConfigFile(), brand.BinaryName)
}
