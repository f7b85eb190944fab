package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/common-nighthawk/go-figure"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/yomnaalset/elibrary-go-client/catalog"
	"github.com/yomnaalset/elibrary-go-client/credentials/sealed"
	"github.com/yomnaalset/elibrary-go-client/internal/config"
	"github.com/yomnaalset/elibrary-go-client/internal/metrics"
	"github.com/yomnaalset/elibrary-go-client/session"
	"github.com/yomnaalset/elibrary-go-client/transport"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Error running session client: %s\n", err)
	}
	log.Printf("Session client stopped\n")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	displayAppname(c.GetAppName())

	logger := newLogger(c)

	store, err := sealed.New(c.GetCredentialsDir(), logger)
	if err != nil {
		return fmt.Errorf("sealed.New: %w", err)
	}

	authTransport, err := transport.NewClient(c, logger)
	if err != nil {
		return fmt.Errorf("transport.NewClient: %w", err)
	}

	collector := metrics.NewCollector(prometheus.NewRegistry())
	manager, err := session.NewManager(
		session.Deps{Store: store, Transport: authTransport},
		c,
		logger,
		session.WithMetrics(collector),
	)
	if err != nil {
		return fmt.Errorf("session.NewManager: %w", err)
	}

	unsubscribe := manager.Subscribe(func(snap session.Snapshot) {
		event := logger.Info().
			Str("state", string(snap.State)).
			Bool("authenticated", snap.Authenticated).
			Bool("refreshing", snap.Refreshing)
		if snap.User != nil {
			event = event.Str("user", snap.User.Email).Str("role", string(snap.User.Role))
		}
		event.Msg("session changed")
	})
	defer unsubscribe()

	ctx := context.Background()
	if err := manager.Restore(ctx); err != nil {
		return fmt.Errorf("manager.Restore: %w", err)
	}

	if !manager.IsAuthenticated() {
		if err := promptLogin(ctx, manager); err != nil {
			return err
		}
	}

	books, err := catalog.NewClient(c, manager, logger)
	if err != nil {
		return fmt.Errorf("catalog.NewClient: %w", err)
	}
	defer books.Close()

	if listed, err := books.ListBooks(ctx); err != nil {
		logger.Warn().Err(err).Msg("could not list books")
	} else {
		logger.Info().Int("count", len(listed)).Msg("catalog loaded")
	}

	logger.Info().Msg("session active, press Ctrl-C to log out and exit")
	waitForStopSignal()

	manager.Logout(ctx)
	return nil
}

func promptLogin(ctx context.Context, manager *session.Manager) error {
	reader := bufio.NewReader(os.Stdin)

	for {
		fmt.Print("Email: ")
		email, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("read email: %w", err)
		}
		fmt.Print("Password: ")
		password, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}

		err = manager.Login(ctx, strings.TrimSpace(email), strings.TrimSpace(password))
		if err == nil {
			return nil
		}
		fmt.Printf("Login failed: %s\n", err)
	}
}

func newLogger(c config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(c.GetLogLevel())
	if err != nil {
		level = zerolog.InfoLevel
	}
	writer := zerolog.ConsoleWriter{Out: os.Stderr}
	return zerolog.New(writer).Level(level).With().Timestamp().Logger()
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
