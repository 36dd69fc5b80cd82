package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/zappabad/bullbear/internal/config"
	"github.com/zappabad/bullbear/internal/game"
	"github.com/zappabad/bullbear/internal/logger"
	"github.com/zappabad/bullbear/tui"
)

func main() {
	configPath := flag.String("config", ".", "directory containing config.yaml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	// the terminal owns stdout; keep logs out of the way unless debugging
	logCfg := cfg.Logging
	zlog := zap.NewNop()
	if logCfg.Level == "debug" {
		if zlog, err = logger.New(logCfg); err != nil {
			fmt.Fprintf(os.Stderr, "build logger: %v\n", err)
			os.Exit(1)
		}
	}

	g, err := game.NewGame(game.ConfigFromApp(cfg, zlog))
	if err != nil {
		fmt.Fprintf(os.Stderr, "build game: %v\n", err)
		os.Exit(1)
	}
	defer g.Close()

	model := tui.NewModel(g.Session, g.News, cfg.Game.PlayerName)

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}
}
