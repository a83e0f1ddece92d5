package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-task-client/devapi"
	"github.com/jrsteele09/go-task-client/internal/config"
	"github.com/jrsteele09/go-task-client/internal/logging"
	faketaskrepo "github.com/jrsteele09/go-task-client/tasks/repofake"
	refreshrepofake "github.com/jrsteele09/go-task-client/token/refresh/repofake"
	fakeuserrepo "github.com/jrsteele09/go-task-client/users/repofake"
	"github.com/rs/zerolog"
)

func main() {
	c := config.New()
	logger := logging.New(c.GetEnv(), c.GetLogLevel())

	for {
		if err := run(c, logger); err != nil {
			logger.Error().Err(err).Msg("dev api stopped with error, restarting")
			time.Sleep(1 * time.Second)
			continue
		}
		break
	}
	logger.Info().Msg("dev api stopped")
}

func run(c config.Config, logger zerolog.Logger) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	displayAppname(c.GetAppName() + " Dev API")

	handler, err := devapi.New(c, devapi.Repos{
		Users:         fakeuserrepo.NewFakeUserRepo(),
		Tasks:         faketaskrepo.NewFakeTaskRepo(),
		RefreshTokens: refreshrepofake.NewFakeRefreshTokenRepo(),
	}, devapi.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("devapi.New: %w", err)
	}

	server := &http.Server{Addr: c.GetPort(), Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	serveErr := make(chan error, 1)
	go func() { serveErr <- listenAndServe(server, logger) }()

	select {
	case err := <-serveErr:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(server)
}

func listenAndServe(server *http.Server, logger zerolog.Logger) error {
	logger.Info().Str("addr", server.Addr).Msg("dev api listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
