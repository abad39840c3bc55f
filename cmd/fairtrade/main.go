package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/erazemk/fairtrade/internal/api"
	"github.com/erazemk/fairtrade/internal/auth"
	"github.com/erazemk/fairtrade/internal/config"
	"github.com/erazemk/fairtrade/internal/db"
	"github.com/erazemk/fairtrade/internal/ledger"
	"github.com/erazemk/fairtrade/internal/store"
)

const usage = `Usage: fairtrade [flags]

Flags:
  -c, -config <path>      YAML config file (default: none, built-in defaults)
  -d, -db <path>          SQLite database path (default: fairtrade.sqlite3)
  -a, -addr <host:port>   listen address (default: :8080)
  -u, -user <name>        administrator username on first run (default: admin)
  -l, -log <path>         log file path (default: no file, stdout/stderr only)
  -h, -help               show this help and exit

Flags given on the command line override values from the config file.
`

func main() {
	cfg, err := parseArgs(os.Args[1:], os.Stdout)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	level, _ := config.ParseLevel(cfg.Logging.Level)
	closeLog, err := setupLogger(level, cfg.Logging.File)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	if err := run(cfg); err != nil {
		slog.Error("fatal", "error", err)
		closeLog()
		os.Exit(1)
	}
}

// parseArgs builds the configuration from flags and the optional config file.
func parseArgs(args []string, out io.Writer) (*config.Config, error) {
	fs := flag.NewFlagSet("fairtrade", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() { fmt.Fprint(out, usage) }

	def := config.Default()

	var configPath, dbPath, addr, adminUser, logPath string
	fs.StringVar(&configPath, "config", "", "")
	fs.StringVar(&configPath, "c", "", "")
	fs.StringVar(&dbPath, "db", def.Database.Path, "")
	fs.StringVar(&dbPath, "d", def.Database.Path, "")
	fs.StringVar(&addr, "addr", def.Server.Addr, "")
	fs.StringVar(&addr, "a", def.Server.Addr, "")
	fs.StringVar(&adminUser, "user", def.Admin.Username, "")
	fs.StringVar(&adminUser, "u", def.Admin.Username, "")
	fs.StringVar(&logPath, "log", "", "")
	fs.StringVar(&logPath, "l", "", "")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		fs.Usage()
		return nil, fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}

	cfg := def
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return nil, err
		}
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "db", "d":
			cfg.Database.Path = dbPath
		case "addr", "a":
			cfg.Server.Addr = addr
		case "user", "u":
			cfg.Admin.Username = adminUser
		case "log", "l":
			cfg.Logging.File = logPath
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(cfg *config.Config) error {
	if _, err := os.Stat(cfg.Database.Path); os.IsNotExist(err) {
		password, err := initDatabase(cfg.Database.Path, cfg.Admin.Username, cfg.Admin.InitialBalance)
		if err != nil {
			return fmt.Errorf("initializing database: %w", err)
		}
		printInitResult(os.Stdout, cfg.Database.Path, cfg.Admin.Username, password)
		fmt.Println()
	}

	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	if err := db.EnsureSchema(database); err != nil {
		return fmt.Errorf("ensuring database schema: %w", err)
	}
	slog.Info("database ready", "path", cfg.Database.Path)

	jwtSecret, err := store.GetJWTSecret(context.Background(), database)
	if err != nil {
		return fmt.Errorf("loading JWT secret: %w", err)
	}

	l := ledger.New(database)
	server := &http.Server{
		Addr: cfg.Server.Addr,
		Handler: api.NewRouter(database, l, api.Options{
			JWTSecret:   jwtSecret,
			TokenExpiry: cfg.Auth.TokenExpiry,
		}),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       120 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-quit
		slog.Info("shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", cfg.Server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving: %w", err)
	}

	slog.Info("server stopped, closing database")
	return nil
}

// initDatabase creates the database file with its schema and the
// administrator account, returning the generated administrator password. A
// failed initialization removes the file.
func initDatabase(path, adminUsername string, initialBalance int64) (password string, err error) {
	database, err := db.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		database.Close()
		if err != nil {
			os.Remove(path)
		}
	}()

	if err := db.EnsureSchema(database); err != nil {
		return "", fmt.Errorf("ensuring schema: %w", err)
	}

	password, err = generatePassword(16)
	if err != nil {
		return "", fmt.Errorf("generating password: %w", err)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return "", err
	}

	if err := bootstrapAdmin(context.Background(), database, adminUsername, hash, initialBalance); err != nil {
		return "", err
	}
	return password, nil
}

func bootstrapAdmin(ctx context.Context, database *sql.DB, username, hash string, initialBalance int64) error {
	l := ledger.New(database)
	admin, err := l.Bootstrap(ctx, username, hash)
	if err != nil {
		return fmt.Errorf("creating administrator: %w", err)
	}
	if initialBalance > 0 {
		if err := l.Fund(ctx, admin.ID, admin.ID, initialBalance); err != nil {
			return fmt.Errorf("funding administrator: %w", err)
		}
	}
	return nil
}

func printInitResult(w io.Writer, dbPath, username, password string) {
	fmt.Fprintf(w, "Database created: %s\n", dbPath)
	fmt.Fprintln(w, "Schema initialized.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Administrator account created:")
	fmt.Fprintf(w, "  Username: %s\n", username)
	fmt.Fprintf(w, "  Password: %s\n", password)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Save this password, it cannot be recovered.")
	fmt.Fprintln(w, "It can be changed after logging in.")
}

func generatePassword(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%&*"
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}
