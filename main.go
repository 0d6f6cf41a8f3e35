package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/term"

	"tetrisfold/client"
	"tetrisfold/terminal"
)

const (
	hideCursor = "\033[2J\033[?25l" // also clear screen
	showCursor = "\033[23;0H\n\r\033[?25h"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("unable to load .env file: %v", err)
	}

	addr := flag.String("addr", env("TETRIS_ADDR", "localhost:9000"), "game server gRPC address")
	httpAddr := flag.String("http", env("TETRIS_HTTP_ADDR", "localhost:9001"), "game server HTTP address, used by -watch")
	seed := flag.Int64("seed", envInt("TETRIS_SEED"), "seed for local games, 0 picks one")
	logFile := flag.String("log", env("TETRIS_LOG", "tetris.log"), "log file")
	debug := flag.Bool("debug", false, "enable debug logging")
	watch := flag.String("watch", "", "spectate the session with this ID instead of playing")
	flag.Parse()

	f, err := os.OpenFile(*logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		log.Fatalf("unable to open log file: %v", err)
	}
	os.Exit(run(f, *debug, *addr, *httpAddr, *seed, *watch))
}

// run returns the exit code. It owns the log file, so deferred closes still
// happen on failures.
func run(f *os.File, debug bool, addr, httpAddr string, seed int64, watch string) int {
	defer f.Close()
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level}))

	if watch != "" {
		if err := spectate(logger, httpAddr, watch); err != nil {
			logger.Error("watch failed", slog.String("error", err.Error()))
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	}

	c, err := client.New(logger, &client.Options{Address: addr, Seed: seed})
	if err != nil {
		logger.Error("unable to start client", slog.String("error", err.Error()))
		fmt.Fprintf(os.Stderr, "unable to start client: %v\n", err)
		return 1
	}
	fmt.Print(hideCursor)
	c.Start()
	fmt.Print(showCursor)
	if err := c.Close(); err != nil {
		logger.Error("unable to close keyboard", slog.String("error", err.Error()))
	}
	return 0
}

func spectate(logger *slog.Logger, httpAddr, session string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r, err := terminal.New(os.Stdout, logger)
	if err != nil {
		return err
	}
	u := url.URL{Scheme: "ws", Host: httpAddr, Path: "/ws", RawQuery: url.Values{"session": {session}}.Encode()}
	restore, err := startRawConsole()
	if err != nil {
		return err
	}
	defer restore()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		// raw mode swallows SIGINT, q or Ctrl-C stop watching.
		b := make([]byte, 1)
		for {
			if _, err := os.Stdin.Read(b); err != nil || b[0] == 'q' || b[0] == 3 {
				cancel()
				return
			}
		}
	}()
	return terminal.Watch(ctx, u.String(), r)
}

// startRawConsole keeps spectators' keystrokes off the board. The keyboard
// package does the same for players.
func startRawConsole() (func(), error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		fmt.Print(hideCursor)
		return func() { fmt.Print(showCursor) }, nil
	}
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("unable to set the terminal to raw mode: %w", err)
	}
	fmt.Print(hideCursor)
	return func() {
		fmt.Print(showCursor)
		_ = term.Restore(fd, oldState)
	}, nil
}

func env(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func envInt(key string) int64 {
	n, err := strconv.ParseInt(os.Getenv(key), 10, 64)
	if err != nil {
		return 0
	}
	return n
}
