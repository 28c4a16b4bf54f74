// Copyright 2025 The GlideServe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package main implements the glide typing server and CLI [DBG] application.

Note: This is a BETA release. APIs and functionality may rapidly change.

GlideServe recognizes swipe traces drawn across a soft keyboard and ranks
typed completions and corrections for the word being composed. It decides
whether the top candidate may be committed without the user picking it,
following one of three auto-commit tiers. It can operate as a MessagePack IPC
server for integration with input method frontends, or as a CLI application
for testing and debugging.

# Usage

Start the server with default settings:

	glideserve

Use custom data directory, a user dictionary and enable debug mode:

	glideserve -data /path/to/chunks -userdb user.db -d

Run in CLI mode for interactive testing:

	glideserve -c -limit 10 -tier aggressive

The data directory should contain chunked binary files named dict_0001.bin,
dict_0002.bin, etc. A plain "word frequency" text file can be added with
-dict.

# Configuration

Runtime configuration is managed through a TOML file:

	[engine]
	workers = 2

	[glide]
	device_tier = "high"
	loop_factor = 0.2

	[autocommit]
	tier = "moderate"

	[server]
	max_limit = 64

The config file is automatically created with defaults if it doesn't exist.
Server mode watches the file and applies changes without restart.

# IPC Protocol

The server communicates via MessagePack over stdin/stdout. The layout has to
be sent before the first glide trace:

	{"id": "k1", "op": "layout", "subtype": "en_US", "kw": 40, "kh": 60}
	{"id": "g1", "op": "glide", "pts": [[20, 30], [180, 30], [300, 90]]}
	{"id": "s1", "op": "suggest", "p": "hel", "l": 5}

See package server for every operation.

# CLI Mode

CLI mode reads composing words from stdin and prints ranked suggestions
together with the auto-commit decision. Lines starting with a colon are
commands:

	:glide hello    recognize a clean trace of "hello" on QWERTY
	:tier moderate  switch the auto-commit tier
	:accept hello   report "hello" as picked

# Command Line Flags

	-data string
	    Directory containing binary chunk files (default "data/")
	-dict string
	    Extra text dictionary file
	-config string
	    Path to the TOML config file
	-rebuild-config
	    Overwrite the config file with defaults and exit
	-userdb string
	    SQLite user dictionary, relative to the config dir
	-d  Enable debug mode with detailed logging
	-c  Run in CLI mode instead of server mode
	-limit int
	    Number of suggestions to return in CLI mode
	-prmin int
	    Minimum prefix length for suggestions
	-prmax int
	    Maximum prefix length for suggestions
	-no-filter
	    Disable input filtering for debugging
	-words int
	    Maximum words to load (0 for all)
	-tier string
	    Auto-commit tier (conservative, moderate, aggressive)
	-kw, -kh float
	    Key size of the CLI QWERTY layout
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/bastiangx/glideserve/internal/cli"
	"github.com/bastiangx/glideserve/internal/logger"
	"github.com/bastiangx/glideserve/internal/userdict"
	"github.com/bastiangx/glideserve/internal/utils"
	"github.com/bastiangx/glideserve/pkg/autocommit"
	"github.com/bastiangx/glideserve/pkg/config"
	"github.com/bastiangx/glideserve/pkg/dictionary"
	"github.com/bastiangx/glideserve/pkg/engine"
	"github.com/bastiangx/glideserve/pkg/layout"
	"github.com/bastiangx/glideserve/pkg/server"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

const (
	Version = "0.3.0-beta"
	AppName = "glideserve"
	gh      = "https://github.com/bastiangx/glideserve"
)

// sigHandler is a simple handler for OS signals to exit normally.
func sigHandler() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		fmt.Fprintf(os.Stderr, "\nExiting...\n")
		os.Exit(0)
	}()
}

// main calls other packages to initialize the server or CLI inputs.
// main() does not implement logic for them and only manages the flow.
func main() {
	sigHandler()
	defaultConfig := config.DefaultConfig()

	showVersion := flag.Bool("version", false, "Show current version")
	binaryDir := flag.String("data", "data/", "Directory containing the binary files")
	dictFile := flag.String("dict", "", "Extra dictionary file (chunk or 'word frequency' text)")
	configFile := flag.String("config", "", "Path to config.toml")
	rebuildConfig := flag.Bool("rebuild-config", false, "Overwrite the config file with defaults and exit")
	userDB := flag.String("userdb", "", "SQLite user dictionary (overrides dict.user_db)")
	debugMode := flag.Bool("d", false, "Toggle debug mode")
	cliMode := flag.Bool("c", false, "Run CLI -- useful for testing and debugging")
	limit := flag.Int("limit", 10, "Number of suggestions to return")
	minPrefix := flag.Int("prmin", defaultConfig.Server.MinPrefix, "Minimum prefix length for suggestions (1 < n <= prmax)")
	maxPrefix := flag.Int("prmax", defaultConfig.Server.MaxPrefix, "Maximum prefix length for suggestions")
	noFilter := flag.Bool("no-filter", false, "Disable input filtering (DBG only) - shows all raw dictionary entries (numbers, symbols, etc)")
	wordLimit := flag.Int("words", defaultConfig.Dict.MaxWords, "Maximum number of words to load (use 0 for all words)")
	tierName := flag.String("tier", "", "Auto-commit tier: conservative, moderate or aggressive")
	keyWidth := flag.Float64("kw", 40, "Key width of the CLI QWERTY layout")
	keyHeight := flag.Float64("kh", 60, "Key height of the CLI QWERTY layout")

	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}
	if *rebuildConfig {
		path, err := config.RebuildConfigFile(*configFile)
		if err != nil {
			log.Fatalf("Failed to rebuild config: %v", err)
		}
		fmt.Fprintf(os.Stderr, "Wrote default config to %s\n", path)
		os.Exit(0)
	}

	if *debugMode {
		log.SetLevel(log.DebugLevel)
		log.SetReportTimestamp(true)
	} else {
		log.SetLevel(log.WarnLevel)
	}
	log.SetOutput(os.Stderr)

	appConfig, configPath, err := config.LoadConfigWithPriority(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Debugf("Using config file: (%s)", utils.GetAbsolutePath(configPath))

	wordsSet := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "words" {
			wordsSet = true
		}
	})
	if !wordsSet {
		*wordLimit = appConfig.Dict.MaxWords
	}
	if *tierName != "" {
		tier, err := autocommit.ParseTier(*tierName)
		if err != nil {
			log.Fatalf("Invalid -tier: %v", err)
		}
		appConfig.AutoCommit.Tier = tier
	}

	opts, err := appConfig.EngineOptions()
	if err != nil {
		log.Fatalf("Invalid engine config: %v", err)
	}

	configDir := ""
	if configPath != "" {
		configDir = filepath.Dir(configPath)
	}
	pathResolver, err := utils.NewPathResolver(configDir)
	if err != nil {
		log.Errorf("Failed to initialize path resolver: %v", err)
		log.Print("Either env is not set or system is not supported")
		log.Print("Did you forget to run the build or install scripts?")
		os.Exit(1)
	}

	dbPath := appConfig.Dict.UserDB
	if *userDB != "" {
		dbPath = *userDB
	}
	var users *userdict.Store
	if dbPath = pathResolver.ResolveConfigRelative(dbPath); dbPath != "" {
		users, err = userdict.Open(dbPath)
		if err != nil {
			log.Fatalf("Failed to open user dictionary: %v", err)
		}
		defer users.Close()
		opts.Feedback = users
		log.Debugf("User dictionary at: %s", dbPath)
	}

	eng, err := engine.New(opts)
	if err != nil {
		log.Fatalf("Failed to init engine: %v", err)
	}
	defer eng.Stop()

	resolvedDataDir := pathResolver.GetDataDir(*binaryDir)
	log.Debugf("Using data dir at: %s", resolvedDataDir)
	log.Debugf("Init dictionary: maxWords=[%d]", *wordLimit)
	if err := loadDictionary(eng, resolvedDataDir, *dictFile, *wordLimit); err != nil {
		log.Fatalf("Failed to load dictionary: %v", err)
	}

	// CLI would be mainly used for testing and dbg purposes.
	// Any new features or changes should be tested in CLI mode first.
	if *cliMode {
		log.SetReportTimestamp(false)
		log.Debug("Input info:",
			"minPrefix", *minPrefix,
			"maxPrefix", *maxPrefix,
			"limit", *limit,
			"noFilter", *noFilter,
			"tier", eng.Tier())

		eng.SetLayout(layout.QWERTY(appConfig.Engine.Locale, *keyWidth, *keyHeight))
		if err := eng.ReloadUser(context.Background()); err != nil {
			log.Warnf("Failed to load user words: %v", err)
		}
		inputHandler := cli.NewInputHandler(eng, *minPrefix, *maxPrefix, *limit, *noFilter)
		if err := inputHandler.Start(); err != nil {
			log.Fatalf("CLI error: %v", err)
		}
		return
	}

	log.Debug("spawning IPC")
	srv := server.NewServer(eng, appConfig, configPath)

	showStartupInfo(resolvedDataDir, eng)

	if err := srv.Start(); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// loadDictionary fills the static dictionary from the chunk dir and the
// optional extra file. A dir without chunks is not fatal.
func loadDictionary(eng *engine.Engine, dataDir, extraFile string, maxWords int) error {
	entries, err := dictionary.NewLoader(dataDir, maxWords).Load()
	switch {
	case errors.Is(err, dictionary.ErrNoChunks):
		log.Warnf("No chunk files in %s, running with an empty dictionary...", dataDir)
	case err != nil:
		return err
	}
	if extraFile != "" {
		extra, err := dictionary.LoadFile(extraFile)
		if err != nil {
			return err
		}
		log.Debugf("Loaded %d words from %s", len(extra), extraFile)
		entries = append(entries, extra...)
	}
	eng.Store().SetStatic(entries)
	log.Debugf("Dictionary ready: %d words", eng.Store().Snapshot().Len())
	return nil
}

func printVersion() {
	vl := logger.NewWithConfig("", log.InfoLevel, false, false, log.TextFormatter)

	styles := log.DefaultStyles()
	styles.Values["version"] = lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"}).
		Background(lipgloss.AdaptiveColor{Light: "#f2e9e1", Dark: "#26233a"})
	styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	vl.SetStyles(styles)

	vl.Print("")
	vl.Print("[ GlideServe ] Glide typing and suggestions over IPC")
	vl.Print("", "version", Version)
	vl.Print("")
	vl.Print("use -h or --help to see available options")
	vl.Print("Github Repo", "gh", gh)
}

// showStartupInfo displays some basic info about the init process.
// Everything goes to stderr, stdout belongs to the IPC stream.
func showStartupInfo(dataDir string, eng *engine.Engine) {
	pid := os.Getpid()
	currentLevel := log.GetLevel()
	log.SetLevel(log.InfoLevel)

	fmt.Fprintln(os.Stderr, "============")
	fmt.Fprintln(os.Stderr, " GlideServe ")
	fmt.Fprintln(os.Stderr, "============")
	log.Infof("Version: %s", Version)
	log.Infof("Process ID: [ %d ]", pid)
	log.Info("init: OK")
	log.Infof("data dir: ( %s )", dataDir)
	log.Infof("words: %d, auto-commit: %s", eng.Store().Snapshot().Len(), eng.Tier())
	log.Info("status: waiting for layout")
	fmt.Fprintln(os.Stderr, "============")
	fmt.Fprintln(os.Stderr, "Press Ctrl+C to exit")

	log.SetLevel(currentLevel)
}
