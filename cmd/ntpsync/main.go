// ntpsync sets the system clock from an NTP server.
//
// Usage:
//
//    ntpsync [-c <file>] [-s <n>] [-n] [-pool <host>]... [host]
//
// The optional `host` argument names a server that is tried before the
// built-in pool. When it is not a valid hostname it is skipped and the
// pool is used directly.
//
// The `-s <n>` flag sets how many samples are taken from each server,
// between 1 and 5. The corrected times of the successful samples are
// averaged.
//
// The `-n` flag runs everything except setting the clock.
//
// The `-interval <duration>` flag keeps ntpsync running and repeats the
// sync, serving prometheus metrics on `-metric <addr>` if given.
//
// Setting the clock needs root, or CAP_SYS_TIME on linux.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/apex/log"
	"github.com/apex/log/handlers/cli"
	"github.com/gorilla/handlers"
	"github.com/m-lab/go/flagx"
	"github.com/m-lab/go/rtx"
	"github.com/mengzhuo/ntpsync"
)

var (
	flagConfig     = flag.String("c", "", "yaml config file")
	flagSamples    = flag.Int("s", 0, "samples per server (1-5)")
	flagTimeout    = flag.Duration("timeout", 0, "per sample receive timeout")
	flagDryRun     = flag.Bool("n", false, "do not set the clock")
	flagNameserver = flag.String("nameserver", "", "resolve servers with this dns server")
	flagInterval   = flag.Duration("interval", 0, "repeat the sync at this interval")
	flagMetric     = flag.String("metric", "", "serve metrics on this address with -interval")
	flagTextfile   = flag.String("textfile", "", "write metrics to this file after the sync")
	flagDebug      = flag.Bool("debug", false, "debug logging")
	flagVersion    = flag.Bool("v", false, "print version")
	flagPool       flagx.StringArray

	Version = "dev"
)

func init() {
	flag.Var(&flagPool, "pool", "fallback server, may be repeated (default built-in pool)")
	log.SetHandler(cli.New(os.Stderr))
}

func loadConfig() (cfg *ntpsync.Config, err error) {
	cfg = ntpsync.NewConfig()
	if *flagConfig != "" {
		if cfg, err = ntpsync.NewConfigFromFile(*flagConfig); err != nil {
			return nil, err
		}
	}
	if *flagSamples != 0 {
		cfg.Samples = *flagSamples
	}
	if *flagTimeout > 0 {
		cfg.Timeout = *flagTimeout
	}
	if *flagDryRun {
		cfg.DryRun = true
	}
	if *flagNameserver != "" {
		cfg.Nameserver = *flagNameserver
	}
	if *flagInterval != 0 {
		cfg.Interval = *flagInterval
	}
	if *flagMetric != "" {
		cfg.Metric = *flagMetric
	}
	if *flagTextfile != "" {
		cfg.Textfile = *flagTextfile
	}
	if len(flagPool) > 0 {
		cfg.Pool = append([]string(nil), flagPool...)
	}
	if flag.NArg() > 0 {
		cfg.Server = flag.Arg(0)
	}
	return cfg, nil
}

func realmain(ctx context.Context, cfg *ntpsync.Config, stdout, stderr io.Writer) error {
	s, err := ntpsync.New(cfg, log.Log)
	if err != nil {
		return err
	}
	if cfg.Interval > 0 {
		return serve(ctx, s, cfg)
	}

	res, err := s.Synchronize(ctx, cfg.Server)
	if cfg.Textfile != "" {
		if werr := s.WriteMetrics(cfg.Textfile); werr != nil {
			log.WithError(werr).Warn("write metrics")
		}
	}
	if err != nil {
		fmt.Fprintf(stderr, "%s\n%s\n", err, ntpsync.Remediation())
		return err
	}
	fmt.Fprintf(stdout, "%s from %s (delay %s, %d/%d samples)\n",
		res.Time().Format(time.RFC3339Nano), res.Host,
		time.Duration(res.Delay*float64(time.Second)), res.SuccessCount, res.TotalCount)
	return nil
}

func metricsMux(s *ntpsync.Synchronizer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", handlers.MethodHandler{
		http.MethodGet: s.MetricsHandler(),
	})
	return mux
}

func serve(ctx context.Context, s *ntpsync.Synchronizer, cfg *ntpsync.Config) error {
	if cfg.Metric != "" {
		srv := &http.Server{Addr: cfg.Metric, Handler: metricsMux(s)}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.WithError(err).Error("metrics server")
			}
		}()
		defer srv.Close()
		log.Infof("metrics on %s", cfg.Metric)
	}

	err := s.Run(ctx, cfg.Server, cfg.Interval)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func internalmain(ctx context.Context) error {
	flag.Parse()
	if *flagVersion {
		fmt.Println(Version)
		return nil
	}
	if *flagDebug {
		log.SetLevel(log.DebugLevel)
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return realmain(ctx, cfg, os.Stdout, os.Stderr)
}

func fmain(f func(context.Context) error, e func(error, string, ...interface{})) {
	if err := f(context.Background()); err != nil {
		e(err, "ntpsync failed")
	}
}

var defaultMain = internalmain // testability

func main() {
	fmain(defaultMain, rtx.Must)
}
