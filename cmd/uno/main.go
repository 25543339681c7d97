package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"sync"

	"github.com/joho/godotenv"
	"github.com/nrawrx3/uno"
	"github.com/nrawrx3/uno/admin"
	cmdcommon "github.com/nrawrx3/uno/cmd"
	"github.com/nrawrx3/uno/console"
	"github.com/nrawrx3/uno/hand_reader"
	"github.com/nrawrx3/uno/internal/utils"
	"github.com/nrawrx3/uno/saveslot"
	"github.com/nrawrx3/uno/tui"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

const logFilePrefix = "uno"

var configFile string

func main() {
	flag.StringVar(&configFile, "conf", ".env", "dotenv file with UNO_* settings")
	flag.Parse()

	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	if err := godotenv.Load(configFile); err != nil {
		if !os.IsNotExist(errors.Cause(err)) {
			return errors.Wrapf(err, "loading %s", configFile)
		}
		log.Printf("No config file %s, using the environment only", configFile)
	}

	envConfig, err := cmdcommon.LoadEnvConfig()
	if err != nil {
		return err
	}

	logger, err := utils.CreateFileLogger(false, envConfig.LogDir, logFilePrefix)
	if err != nil {
		return err
	}

	engine, err := createEngine(envConfig, logger)
	if err != nil {
		return err
	}

	slot := saveslot.New(envConfig.SavePath)
	palette := console.NewPalette(envConfig.DarkMode)
	stateMutex := &sync.Mutex{}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var server *admin.Admin
	if envConfig.Frontend == cmdcommon.FrontendHTTP || envConfig.HTTPListenAddr != "" {
		server = admin.NewAdmin(admin.Config{
			ListenAddr: envConfig.HTTPListenAddr,
			Engine:     engine,
			Slot:       slot,
			Lock:       stateMutex,
			Palette:    palette,
			Logger:     logger,
		})
	}

	if envConfig.Frontend == cmdcommon.FrontendHTTP {
		log.Printf("Serving the table at http://%s", envConfig.HTTPListenAddr)
		return server.RunServer(ctx)
	}

	// The frontend owns the terminal. Quitting it stops the server too.
	g, ctx := errgroup.WithContext(ctx)
	ctx, cancel := context.WithCancel(ctx)
	if server != nil {
		g.Go(func() error {
			return server.RunServer(ctx)
		})
	}
	g.Go(func() error {
		defer cancel()
		switch envConfig.Frontend {
		case cmdcommon.FrontendTUI:
			u := tui.New(tui.Config{
				Engine:  engine,
				Slot:    slot,
				Lock:    stateMutex,
				Palette: palette,
				Logger:  logger,
			})
			return u.Run(ctx)
		default:
			c := console.New(console.Config{
				Engine:  engine,
				Slot:    slot,
				Lock:    stateMutex,
				Palette: palette,
				Out:     os.Stdout,
				Logger:  logger,
			})
			return c.RunREPL(ctx)
		}
	})
	return g.Wait()
}

func createEngine(envConfig *cmdcommon.EnvConfig, logger *log.Logger) (*uno.Engine, error) {
	opts, err := envConfig.EngineOptions()
	if err != nil {
		return nil, err
	}
	opts.Logger = logger

	if envConfig.DebugStartingHandJSON == "" {
		return uno.NewEngine(opts)
	}

	data, err := os.ReadFile(envConfig.DebugStartingHandJSON)
	if err != nil {
		return nil, errors.Wrap(err, "reading starting hand preset")
	}
	state, err := hand_reader.LoadPreset(data, logger)
	if err != nil {
		return nil, errors.Wrapf(err, "preset %s", envConfig.DebugStartingHandJSON)
	}
	logger.Printf("starting from preset %s", envConfig.DebugStartingHandJSON)
	return uno.NewEngineWithState(opts, state)
}
