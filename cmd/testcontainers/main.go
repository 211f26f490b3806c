package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/designsafe-ci/portal-data/internal/containers"
	"github.com/designsafe-ci/portal-data/internal/logger"
	"github.com/joho/godotenv"
)

func main() {
	var showHelp bool
	flag.BoolVar(&showHelp, "h", false, "show help")
	var envFilename string
	flag.StringVar(&envFilename, "f", "", "path to the .env file")
	flag.Parse()

	usage := `
Run the portal-data backing services (MariaDB, Authorizer, Elasticsearch, Redis)
in Docker and print the environment to reach them.

Usage:

testcontainers [-h] [-f ENV_FILE_PATH]

ENV_FILE_PATH: path to a .env file with DB_IMAGE, ES_IMAGE, AUTHZ_CLIENT_ID, ...

example
  testcontainers -f /path/to/something/.env > .env.local
`
	if showHelp {
		fmt.Println(usage)
		return
	}

	log, err := logger.New("dev")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if envFilename != "" {
		log.Info("loading environment", "file", envFilename)
		if err := godotenv.Load(envFilename); err != nil {
			log.Fatal("failed to load environment variables", "error", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	stack, err := containers.Start(ctx, containers.OptionsFromEnv(), log)
	if err != nil {
		log.Fatal("failed to start containers", "error", err)
	}
	for _, line := range stack.EnvLines() {
		fmt.Println(line)
	}

	<-ctx.Done()
	log.Info("terminating containers")
	if err := stack.Terminate(context.Background()); err != nil {
		log.Error("terminate failed", "error", err)
	}
}
