package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-task-client/internal/config"
	"github.com/jrsteele09/go-task-client/internal/logging"
)

const version = "0.1.0"

const usage = `usage: taskctl [flags] <command> [args]

commands:
  login       -email -password
  register    -username -email -password
  logout
  whoami
  dashboard
  tasks       list | assigned | create | update | delete | assign | respond
  users       list | create | delete
  version

flags:
`

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "taskctl: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("taskctl", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usage)
		fs.PrintDefaults()
	}
	configFile := fs.String("config", "", "config file (yaml, json or toml)")
	store := fs.String("store", "", "session store: memory, file or redis")
	apiURL := fs.String("api", "", "REST API base URL")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errors.New("no command given")
	}

	cmdName, cmdArgs := fs.Arg(0), fs.Args()[1:]
	if cmdName == "version" {
		displayAppname("taskctl")
		fmt.Fprintf(out, "taskctl %s\n", version)
		return nil
	}

	overrideEnv("TASKCLIENT_SESSION_STORE", *store)
	overrideEnv("TASKCLIENT_API_BASE_URL", *apiURL)
	cfg, err := loadConfig(*configFile)
	if err != nil {
		return err
	}
	logger := logging.New(cfg.GetEnv(), cfg.GetLogLevel())

	cmd, ok := commands[cmdName]
	if !ok {
		fs.Usage()
		return fmt.Errorf("unknown command %q", cmdName)
	}

	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()
	defer a.dumpMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cmd.needsSession {
		if err := a.restore(ctx); err != nil {
			return err
		}
	}
	return cmd.run(ctx, a, cmdArgs, out)
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.New(), nil
	}
	return config.NewFromFile(path)
}

func overrideEnv(key, value string) {
	if value != "" {
		_ = os.Setenv(key, value)
	}
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
