package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dnguyen/perfhub/internal/api"
	"github.com/dnguyen/perfhub/internal/app"
	"github.com/dnguyen/perfhub/internal/cache"
	"github.com/dnguyen/perfhub/internal/model"
)

func main() {
	configPath := flag.String("config", model.DefaultConfigPath(), "path to the config file")
	flag.Parse()

	// Stray log output corrupts the alternate screen, so package log
	// goes to a file in debug mode and nowhere otherwise.
	if os.Getenv("PERFHUB_DEBUG") != "" {
		f, err := tea.LogToFile("perfhub-debug.log", "debug")
		if err != nil {
			fail("opening debug log: %v", err)
		}
		defer f.Close()
	} else {
		log.SetOutput(io.Discard)
	}

	cfg, err := model.LoadConfig(*configPath)
	if err != nil {
		fail("loading config: %v", err)
	}

	cch, err := cache.Open(filepath.Join(filepath.Dir(*configPath), "cache.db"))
	if err != nil {
		fail("opening cache: %v", err)
	}
	defer cch.Close()

	client := api.NewClient(cfg.Server.BaseURL, "")

	p := tea.NewProgram(
		app.New(*cfg, *configPath, client, cch),
		tea.WithAltScreen(),
	)
	if _, err := p.Run(); err != nil {
		fail("running program: %v", err)
	}
}

// fail prints to stderr and exits; the TUI is not running yet or has
// already been torn down when this is called.
func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "perfhub: "+format+"\n", args...)
	os.Exit(1)
}
