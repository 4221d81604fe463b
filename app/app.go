package parlor

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/parlor-chat/parlor/core"
)

type App struct {
	config      *Config
	db          *core.SQLiteDB
	context     context.Context
	server      *http.Server
	logger      *slog.Logger
	eventRouter *core.EventRouter
	wsManager   *core.ConnManager
	room        *core.Room

	exit chan int

	messageStore core.MessageStore
	userDir      core.UserDirectory

	cleanupFuncs []func(context.Context)

	wg sync.WaitGroup
}

func New(ctx context.Context, config *Config) *App {
	app := &App{
		exit: make(chan int),
	}
	if ctx == nil {
		ctx, _ = signal.NotifyContext(
			context.Background(),
			syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGHUP)
	}
	app.context = ctx

	if config == nil {
		var err error
		config, err = LoadConfig()
		if err != nil {
			failed(1, "failed to load config: %v\n", err)
		}
	}
	if err := config.Validate(); err != nil {
		failed(1, FormatValidationErrors(err))
	}
	app.config = config

	app.logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug,
		AddSource: true,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.SourceKey {
				source, _ := a.Value.Any().(*slog.Source)
				if source != nil {
					source.File = filepath.Base(source.File)
				}
			}
			return a
		},
	}))

	switch app.config.Storage.Backend {
	case SQLiteBackend:
		var err error
		app.db, err = core.NewSQLiteDB(app.config.Storage.SQLite.File, app.config.Storage.SQLite.Migrations)
		if err != nil {
			failed(1, "failed to open database: %v\n", err)
		}
		app.AddCleanupFunc(func(ctx context.Context) {
			app.db.Close()
		})
		if err := app.db.Migrate(); err != nil {
			failed(1, "failed to migrate database: %v\n", err)
		}
		app.messageStore = core.NewSQLiteMessageStore(app.db.DB)
		app.userDir = core.NewSQLiteUserDirectory(app.db.DB)
	default:
		app.messageStore = core.NewMemoryMessageStore()
		app.userDir = core.NewMemoryUserDirectory()
	}

	app.wsManager = core.NewConnManager(app.context, &app.wg, app.logger)

	app.room = core.NewRoom(app.messageStore, app.userDir, app.wsManager, app.logger, core.RoomOptions{
		HistoryLimit: app.config.Room.HistoryLimit,
		TypingTTL:    app.config.Room.TypingTTL,
		StoreTimeout: app.config.Room.StoreTimeout,
	})
	app.wsManager.OnConnectionClosed(func(connID string) {
		if err := app.room.Disconnect(app.context, connID); err != nil {
			app.logger.Error(err.Error())
		}
	})

	app.eventRouter = core.NewEventRouter(app.context, app.logger, app.wsManager)
	app.eventRouter.On(core.JoinEvent, app.JoinEventHandler)
	app.eventRouter.On(core.MessageEvent, app.MessageEventHandler)
	app.eventRouter.On(core.TypingEvent, app.TypingEventHandler)
	app.eventRouter.On(core.StopTypingEvent, app.StopTypingEventHandler)
	app.eventRouter.On(core.StatusEvent, app.StatusEventHandler)

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   app.config.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		if _, err := app.wsManager.Connect(w, r); err != nil {
			app.logger.Error(fmt.Sprintf("ws connect: %v", err))
		}
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", app.HealthHandler)
		r.Get("/messages", app.MessagesHandler)
		r.Get("/users", app.UsersHandler)
		r.Get("/users/online", app.OnlineUsersHandler)
	})

	app.server = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", app.config.Hostname, app.config.Port),
		Handler: r,
		BaseContext: func(listener net.Listener) context.Context {
			return app.context
		},
	}

	return app
}

func (app *App) Start() {
	app.eventRouter.Listen()
	app.AddCleanupFunc(func(ctx context.Context) {
		app.wsManager.Close()
	})

	// listen for shutdown signal
	go func() {
		<-app.context.Done()
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer closeCancel()
		var wg sync.WaitGroup

		for _, f := range app.cleanupFuncs {
			wg.Add(1)
			go func(f func(context.Context)) {
				defer wg.Done()
				f(closeCtx)
			}(f)
		}

		done := make(chan struct{})
		go func() {
			wg.Wait()
			close(done)
		}()

		select {
		case <-done:
			app.logger.Info("app shutdown gracefully")
			app.exit <- 0
		case <-closeCtx.Done():
			app.logger.Info("app shutdown timed out")
			app.exit <- 1
		}
	}()

	app.AddCleanupFunc(func(ctx context.Context) {
		app.server.Shutdown(ctx)
	})
	app.logger.Info(fmt.Sprintf("app running on %s:%d with %s storage",
		app.config.Hostname, app.config.Port, app.config.Storage.Backend))

	err := app.server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		failed(1, "server error: %v\n", err)
	}

	code := <-app.exit
	os.Exit(code)
}

func (app *App) AddCleanupFunc(f func(context.Context)) {
	app.cleanupFuncs = append(app.cleanupFuncs, f)
}

func failed(code int, s string, args ...interface{}) {
	fmt.Printf(s, args...)
	os.Exit(code)
}
