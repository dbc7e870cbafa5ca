// Copyright 2025 The Autocomplete Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package main implements the trigger completion server and CLI [DBG] application.

Autocomplete suggests values for the word under the cursor once it starts with
a configured trigger such as "@" or "$". Triggers draw their candidates from
static lists or from nested trees, optionally gated by a regular expression.
It can operate as a MessagePack IPC server for editor integration, or as a
CLI application for testing and debugging.

# Usage

Start the server with the default config:

	autocomplete

Use a custom config file, debug logging and live reload:

	autocomplete -config ./triggers.toml -d -watch

Run in CLI mode for interactive testing:

	autocomplete -c

# Configuration

Triggers and runtime options live in a TOML file. The file is created with
defaults at $XDG_CONFIG_HOME/autocomplete/config.toml when missing:

	[server]
	max_text = 4096
	timeout_ms = 2000
	watch = false

	[cli]
	remove_trailing = false
	space_after = true

	[[trigger]]
	trigger = "@"
	color = "#6db9fd"
	list = ["Ali", "Alireza", "Hassan"]

With -watch (or watch = true) edits to the file swap the engine in place.
Invalid edits are logged and the running engine is kept.

# IPC Protocol

The server communicates via MessagePack over stdin/stdout. Logs go to stderr.

	{"id": "req1", "a": "suggest", "x": "Hello @Al", "p": 9}
	{"id": "req1", "s": [{"t": "@", "d": "Ali"}, {"t": "@", "d": "Alireza"}], "n": 2, "t": 145}

See package server for the replace, reload and health actions.

# Command Line Flags

	-config string
	    Path to a custom config file
	-d  Enable debug mode with detailed logging
	-c  Run in CLI mode instead of server mode
	-watch
	    Reload the config file when it changes
	-rebuild-config
	    Overwrite the default config file with defaults and exit
	-version
	    Show current version
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/parsisolution/autocomplete/internal/cli"
	"github.com/parsisolution/autocomplete/internal/logger"
	"github.com/parsisolution/autocomplete/pkg/config"
	"github.com/parsisolution/autocomplete/pkg/server"
	"github.com/parsisolution/autocomplete/pkg/suggest"
)

const (
	Version = "0.3.0-beta"
	AppName = "autocomplete"
	gh      = "https://github.com/parsisolution/autocomplete"
)

// sigHandler cancels the returned context on SIGINT/SIGTERM and exits
// normally, since reads from stdin cannot be interrupted.
func sigHandler() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		cancel()
		fmt.Fprintf(os.Stderr, "\nExiting...\n")
		os.Exit(0)
	}()
	return ctx
}

// main wires config, engine and the chosen front end together.
// It does not implement logic for them and only manages the flow.
func main() {
	ctx := sigHandler()

	configFile := flag.String("config", "", "Path to custom config file")
	debugMode := flag.Bool("d", false, "Toggle debug mode")
	cliMode := flag.Bool("c", false, "Run CLI -- useful for testing and debugging")
	watch := flag.Bool("watch", false, "Reload the config file when it changes")
	rebuild := flag.Bool("rebuild-config", false, "Overwrite the default config file with defaults and exit")
	showVersion := flag.Bool("version", false, "Show current version")

	flag.Parse()

	if *showVersion {
		printVersion()
		return
	}

	if *debugMode {
		log.SetLevel(log.DebugLevel)
		log.SetReportTimestamp(true)
	} else {
		log.SetLevel(log.WarnLevel)
	}

	if *rebuild {
		path, err := config.RebuildConfigFile()
		if err != nil {
			log.Fatalf("Failed to rebuild config: %v", err)
		}
		fmt.Fprintf(os.Stderr, "Config rebuilt at %s\n", path)
		return
	}

	appConfig, configPath, err := config.LoadConfigWithPriority(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Debugf("Using config file: (%s)", config.GetActiveConfigPath(configPath))

	engineLogger := logger.New(logger.Suggest)
	if *debugMode {
		engineLogger = logger.NewDebug(logger.Suggest)
	}

	engine, err := suggest.New(appConfig.SuggestTriggers(), suggest.WithLogger(engineLogger))
	if err != nil {
		log.Fatalf("Failed to build engine: %v", err)
	}
	log.Debugf("Engine ready: %d triggers", len(appConfig.Triggers))

	// CLI would be mainly used for testing and dbg purposes.
	if *cliMode {
		log.SetReportTimestamp(false)
		inputHandler := cli.NewInputHandler(engine, appConfig.CLI, os.Stdin, os.Stderr)
		if err := inputHandler.Start(ctx); err != nil {
			log.Fatalf("CLI error: %v", err)
		}
		return
	}

	log.Debug("spawning IPC")
	srv := server.NewServer(engine, appConfig, configPath, os.Stdin, os.Stdout)

	if (*watch || appConfig.Server.Watch) && configPath != "" {
		go func() {
			err := config.Watch(ctx, configPath, func(c *config.Config) {
				if err := srv.Apply(c); err != nil {
					log.Warnf("Keeping previous triggers: %v", err)
				}
			})
			if err != nil {
				log.Errorf("Config watcher stopped: %v", err)
			}
		}()
	}

	showStartupInfo(configPath, len(appConfig.Triggers))

	if err := srv.Start(ctx); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// printVersion renders the version banner to stderr.
func printVersion() {
	banner := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    false,
		ReportTimestamp: false,
		Prefix:          "",
	})

	styles := log.DefaultStyles()
	styles.Values["version"] = lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"}).
		Background(lipgloss.AdaptiveColor{Light: "#f2e9e1", Dark: "#26233a"})
	styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	banner.SetStyles(styles)

	banner.Print("")
	banner.Print("[ Autocomplete ] Trigger based suggestions for any text input")
	banner.Print("", "version", Version)
	banner.Print("")
	banner.Print("use -h or --help to see available options")
	banner.Print("Github Repo", "gh", gh)
}

// showStartupInfo displays some basic info about the init process on stderr.
func showStartupInfo(configPath string, triggers int) {
	currentLevel := log.GetLevel()
	log.SetLevel(log.InfoLevel)

	fmt.Fprintln(os.Stderr, "==============")
	fmt.Fprintln(os.Stderr, " Autocomplete ")
	fmt.Fprintln(os.Stderr, "==============")
	log.Infof("Version: %s", Version)
	log.Infof("Process ID: [ %d ]", os.Getpid())
	log.Infof("config: ( %s )", config.GetActiveConfigPath(configPath))
	log.Infof("triggers: %d", triggers)
	log.Info("status: ready")
	fmt.Fprintln(os.Stderr, "==============")
	fmt.Fprintln(os.Stderr, "Press Ctrl+C to exit")

	log.SetLevel(currentLevel)
}
