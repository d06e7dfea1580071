package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/saravenpi/chatdeck/internal/chat"
	"github.com/saravenpi/chatdeck/internal/config"
	"github.com/saravenpi/chatdeck/internal/history"
	"github.com/saravenpi/chatdeck/internal/llm"
	"github.com/saravenpi/chatdeck/internal/logger"
	"github.com/saravenpi/chatdeck/internal/prefs"
	"github.com/saravenpi/chatdeck/internal/remote"
	"github.com/saravenpi/chatdeck/internal/store"
	"github.com/saravenpi/chatdeck/internal/ui"
)

const version = "1.0.0"

func main() {
	command := ""
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	switch command {
	case "version", "-v", "--version":
		fmt.Printf("Chatdeck v%s\n", version)
		return
	case "help", "-h", "--help":
		printHelp()
		return
	case "", "history":
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printHelp()
		os.Exit(1)
	}

	if err := run(command); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type deps struct {
	db        *store.Store
	catalog   llm.Catalog
	paginator *history.Paginator
	chats     *chat.Service
	prefs     *prefs.Store
}

func run(command string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logFile, err := logger.OpenFile(cfg.LogFile)
	if err != nil {
		return err
	}
	defer logFile.Close()

	log, err := logger.New(logFile, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}

	d, err := wire(cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("startup failed")
		return err
	}
	defer d.db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if command == "history" {
		return printHistory(ctx, os.Stdout, d.paginator, time.Now())
	}

	app := &ui.App{
		Paginator: d.paginator,
		Chats:     d.chats,
		Catalog:   d.catalog,
		Prefs:     d.prefs,
		UserID:    cfg.UserID,
		Log:       log,
		Ctx:       ctx,

		RemoteHistory: cfg.RemoteHistory(),
	}

	log.Info().Str("version", version).Bool("remote_history", cfg.RemoteHistory()).Msg("starting chatdeck")
	p := tea.NewProgram(ui.NewMenuModel(app), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

func wire(cfg *config.Config, log zerolog.Logger) (*deps, error) {
	db, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	catalog, err := llm.LoadCatalog(cfg.ModelsFile)
	if err != nil {
		db.Close()
		return nil, err
	}
	if cfg.DefaultModel != "" {
		if _, ok := catalog.Find(cfg.DefaultModel); !ok {
			db.Close()
			return nil, fmt.Errorf("CHATDECK_DEFAULT_MODEL %q: %w", cfg.DefaultModel, llm.ErrUnknownModel)
		}
		catalog.Default = cfg.DefaultModel
	}

	var completer *llm.Registry
	if cfg.TestEnvironment {
		completer = llm.NewTestRegistry(catalog)
	} else {
		completer = llm.NewRegistry(llm.NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL), catalog, log)
	}

	var (
		fetcher history.PageFetcher
		deleter history.ChatDeleter
	)
	if cfg.RemoteHistory() {
		client := remote.NewClient(cfg.APIBaseURL, cfg.APIToken, cfg.RequestTimeout, log)
		fetcher, deleter = client, client
	} else {
		source := store.HistorySource{Store: db, UserID: cfg.UserID}
		fetcher, deleter = source, source
	}

	paginator := history.NewPaginator(fetcher, deleter,
		history.WithPageSize(cfg.PageSize),
		history.WithLogger(log.With().Str("component", "history").Logger()),
	)
	service := chat.NewService(db, completer, catalog, history.NewUUID, log.With().Str("component", "chat").Logger())

	return &deps{
		db:        db,
		catalog:   catalog,
		paginator: paginator,
		chats:     service,
		prefs:     prefs.NewStore(cfg.PreferencesPath()),
	}, nil
}

// printHistory loads every page and writes the chats grouped by age.
func printHistory(ctx context.Context, w io.Writer, p *history.Paginator, now time.Time) error {
	for {
		loaded, err := p.LoadNextPage(ctx)
		if err != nil {
			return err
		}
		if !loaded {
			break
		}
	}

	groups := p.Snapshot().Groups(now)
	if groups.Len() == 0 {
		fmt.Fprintln(w, "Your conversations will appear here once you start chatting.")
		return nil
	}

	for i, section := range groups.Sections() {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, section.Bucket.Title())
		for _, c := range section.Chats {
			fmt.Fprintf(w, "  %s  %s  %s\n", c.CreatedAt.Local().Format("2006-01-02 15:04"), c.ID, c.Title)
		}
	}
	return nil
}

func printHelp() {
	help := `Chatdeck - Terminal chat client

Usage:
  chatdeck              Start the chat client
  chatdeck history      Print your chat history grouped by date
  chatdeck version      Show version information
  chatdeck help         Show this help message

Navigation:
  ↑/↓ or j/k        Navigate lists
  Enter             Select/Open item
  ESC               Go back
  q                 Quit from current view
  ctrl+c            Force quit

Menu:
  💬 Conversations  Browse your chat history
  🤖 Model          Choose the model new messages use

Conversations:
  n                 Start a new chat
  d                 Delete the selected chat (asks first)
  r                 Reload history, or retry after an error
  g/G               Jump to first/last loaded chat

Messages:
  n or c            Compose new message
  ctrl+s            Send message (while composing)
  r                 Reload the chat
  ↑/↓ or j/k        Scroll messages

Configuration (environment):
  CHATDECK_DATA_DIR         Data directory (default ~/.chatdeck)
  CHATDECK_USER_ID          Local user id (default "local")
  CHATDECK_API_URL          Serve history from a remote API instead of the local database
  CHATDECK_API_TOKEN        Bearer token for the remote API
  CHATDECK_PAGE_SIZE        Chats per history page (default 20)
  CHATDECK_LOG_LEVEL        debug, info, warn, error (default info)
  OPENAI_API_KEY            Key used for replies and titles
  CHATDECK_TEST_ENVIRONMENT Use the built-in echo model instead of OpenAI

Logs are written to ~/.chatdeck/chatdeck.log.
`
	fmt.Print(help)
}
