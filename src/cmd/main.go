package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	app "photoapp/src/app"
	cfg "photoapp/src/configuration"
	"photoapp/src/console"
	"photoapp/src/logging"
	"photoapp/src/repository"
	server "photoapp/src/server"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout))
}

// run is the whole program; it returns the process exit status.
func run(args []string, in io.Reader, out io.Writer) int {
	fs := flag.NewFlagSet("photoapp", flag.ContinueOnError)
	fs.SetOutput(out)
	configPath := fs.String("config", "", "path to the photoapp config file")
	serve := fs.Bool("serve", false, "serve the read-only HTTP API instead of the interactive console")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	stdin := bufio.NewReader(in)

	fmt.Fprintln(out, "** Welcome to PhotoApp **")
	fmt.Fprintln(out)

	path := *configPath
	if path == "" {
		path = askConfigFile(stdin, out)
	}

	config, err := cfg.ReadProperties(path)
	if errors.Is(err, cfg.ErrConfigNotFound) {
		fmt.Fprintf(out, "**ERROR: config file '%s' does not exist, exiting\n", path)
		return 1
	}
	if err != nil {
		fmt.Fprintf(out, "**ERROR: %v, exiting\n", err)
		return 1
	}

	log, err := logging.NewLogger(config.Log)
	if err != nil {
		fmt.Fprintf(out, "**ERROR: unable to open log, exiting (%v)\n", err)
		return 1
	}
	defer func() { _ = log.Sync() }()

	objects, err := app.NewMinioS3Client(config.S3, config.ConfigFile, log)
	if err != nil {
		log.Errorw("s3 client init failed", "bucket", config.S3.Bucket, "error", err)
		fmt.Fprintln(out, "**ERROR: unable to create S3 client, exiting")
		return 1
	}

	db, err := repository.Connect(config.RDS, config.Log.Level, log)
	if err != nil {
		log.Errorw("database connect failed", "endpoint", config.RDS.Endpoint, "error", err)
		fmt.Fprintln(out, "**ERROR: unable to connect to database, exiting")
		return 1
	}
	defer db.Close()

	photos := repository.NewPhotoRepository(db)

	if err := photos.EnsureSchema(context.Background()); err != nil {
		log.Warnw("schema check failed, continuing with existing tables", "error", err)
	}

	if *serve {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if err := server.RunServer(ctx, config.Server, objects, photos, log); err != nil {
			log.Errorw("http server failed", "error", err)
			return 1
		}
		return 0
	}

	// The console keeps the default interrupt behaviour: Ctrl-C ends the
	// process, commands themselves are never cancelled.
	session := &console.Session{
		Objects: objects,
		Meta:    photos,
		Viewer:  console.ImageViewer{},
		WorkDir: config.S3.DownloadTo,
		Log:     log,
	}
	if err := console.NewDispatcher(session, stdin, out).Run(context.Background()); err != nil {
		log.Errorw("reading commands failed", "error", err)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "** done **")
	return 0
}

func askConfigFile(in *bufio.Reader, out io.Writer) string {
	fmt.Fprintln(out, "What config file to use for this session?")
	fmt.Fprintf(out, "Press ENTER to use default (%s),\n", cfg.DefaultConfigFile)
	fmt.Fprintln(out, "otherwise enter name of config file>")

	line, _ := in.ReadString('\n')
	if name := strings.TrimSpace(line); name != "" {
		return name
	}
	return cfg.DefaultConfigFile
}
