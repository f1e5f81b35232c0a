package main

import (
	"fmt"
	"os"
)

const appName = "blackout"

const usage = "usage: blackout <daemon|status|toggle|reload [file]|send [file]|check [file]>"

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(1)
	}

	cfg, err := loadConfig(configPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Only the daemon writes to the log file.
	if os.Args[1] != "daemon" {
		cfg.LogFile = ""
	}
	logger, closeLog := newLogger(cfg)
	defer closeLog.Close()

	var file string
	if len(os.Args) > 2 {
		file = os.Args[2]
	}

	switch os.Args[1] {
	case "daemon":
		err = runDaemon(cfg, logger)
	case "status":
		err = runStatus()
	case "toggle":
		err = runToggle()
	case "reload":
		err = runReload(file)
	case "send":
		err = runSend(cfg, file, logger)
	case "check":
		err = runCheck(cfg, file, logger)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n%s\n", os.Args[1], usage)
		os.Exit(1)
	}

	if err != nil {
		closeLog.Close()
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
