package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/classtrade/classtrade/api"
	"github.com/classtrade/classtrade/config"
	"github.com/classtrade/classtrade/core/broker"
	"github.com/classtrade/classtrade/core/securities"
	"github.com/classtrade/classtrade/core/sessions"
	"github.com/classtrade/classtrade/libs/num"
	"github.com/classtrade/classtrade/logging"

	"github.com/jessevdk/go-flags"
	"golang.org/x/sync/errgroup"
)

type options struct {
	Config string `description:"Path to a TOML configuration file" long:"config" short:"c"`
	Env    string `default:"prod"                                  description:"Logger environment (dev, prod)" long:"env"`
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "classtrade: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var opts options
	if _, err := flags.NewParser(&opts, flags.Default).ParseArgs(args); err != nil {
		if flags.WroteHelp(err) {
			return nil
		}
		return err
	}

	cfg, err := config.Read(opts.Config)
	if err != nil {
		return err
	}

	log := logging.NewLoggerFromEnv(opts.Env)
	defer log.AtExit()

	bkr := broker.New(log, cfg.Broker)
	bkr.Subscribe(broker.NewLogSubscriber(log))

	secs := securities.NewRegistry(log, cfg.Securities)
	seedSecurities(secs)

	registry := sessions.NewRegistry(log, cfg.Sessions, secs, bkr)
	server := api.NewServer(log, cfg.API, registry, secs)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return server.Serve(ctx)
	})

	log.Info("classtrade started")
	return eg.Wait()
}

// seedSecurities lists the classroom's default instruments. Sessions share
// the listing, tick sizes are a cent except the index which trades in
// quarters.
func seedSecurities(r *securities.Registry) {
	cent := num.MustDecimalFromString("0.01")
	for _, s := range []*securities.Security{
		{ID: "AAPL", Symbol: "AAPL", Name: "Apple Inc.", TickSize: cent, Tradable: true},
		{ID: "MSFT", Symbol: "MSFT", Name: "Microsoft Corporation", TickSize: cent, Tradable: true},
		{ID: "GOOG", Symbol: "GOOG", Name: "Alphabet Inc.", TickSize: cent, Tradable: true},
		{ID: "TSLA", Symbol: "TSLA", Name: "Tesla, Inc.", TickSize: cent, Tradable: true},
		{ID: "SPX", Symbol: "SPX", Name: "Classroom Index", TickSize: num.MustDecimalFromString("0.25"), Tradable: true},
	} {
		r.List(s)
	}
}
