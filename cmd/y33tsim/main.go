// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// y33tsim boots an emulated machine with a y33t watchdog on its I2C bus and
// plays a guest that pings it for a while and then stops.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/jmhodges/clock"
	"github.com/spf13/afero"
	"github.com/u-root/y33t/config"
	"github.com/u-root/y33t/pkg/hardware/vclock"
	"github.com/u-root/y33t/pkg/hardware/y33t"
	"github.com/u-root/y33t/pkg/i2cwatcher"
	"github.com/u-root/y33t/pkg/logger"
	"github.com/u-root/y33t/pkg/machine"
	"github.com/u-root/y33t/pkg/metric"
	"github.com/u-root/y33t/pkg/watchdog"
	"golang.org/x/sync/errgroup"
)

var (
	configPath = flag.String("config", "", "YAML configuration file")
	pings      = flag.Int("pings", 5, "How many times the guest pings the watchdog")
	interval   = flag.Duration("interval", 2*time.Second, "Virtual time between pings")
	idle       = flag.Duration("idle", 5*time.Second, "Virtual time to run after the last ping")
	watch      = flag.Bool("watch", false, "Print every I2C transaction")
	snapshot   = flag.Bool("snapshot", false, "Save a snapshot when done")
	restore    = flag.Bool("restore", false, "Restore the snapshot before running")

	log = logger.LogContainer.GetSimpleLogger()
)

func loadConfig(fs afero.Fs) (*config.Config, error) {
	if *configPath == "" {
		c := *config.DefaultConfig
		return &c, nil
	}
	return config.Load(fs, *configPath)
}

func simulate(fs afero.Fs, conf *config.Config) error {
	m := machine.New(vclock.NewFrom(clock.New()))
	defer m.Close()
	if *watch {
		m.Bus().SetObserver(i2cwatcher.New(os.Stdout))
	}

	_, err := m.Attach(conf.Watchdog.Address, func(h machine.Host) machine.Device {
		return y33t.New(h)
	})
	if err != nil {
		return err
	}
	m.PowerOn()

	if *restore {
		if err := m.Load(fs, conf.Snapshot.Path); err != nil {
			return err
		}
	}

	wdt := watchdog.New(m.Bus())
	wdt.Address = conf.Watchdog.Address
	report := func() error {
		why, err := wdt.BootReason()
		if err != nil {
			return err
		}
		log.Infof("Guest booted (boot #%d), reason: %v", m.Boots(), why)
		return nil
	}
	if err := report(); err != nil {
		return err
	}

	for i := 0; i < *pings; i++ {
		if err := wdt.Ping(); err != nil {
			return err
		}
		boots := m.Boots()
		m.Advance(*interval)
		if m.Boots() != boots {
			if err := report(); err != nil {
				return err
			}
		}
	}

	log.Infof("Guest stopped pinging at %v", m.Clock().Now())
	boots := m.Boots()
	m.Advance(*idle)
	if m.Boots() != boots {
		if err := report(); err != nil {
			return err
		}
	} else {
		log.Infof("No reset within %v", *idle)
	}

	if *snapshot {
		return m.Save(fs, conf.Snapshot.Path)
	}
	return nil
}

func serveMetrics(ctx context.Context, listen string) error {
	l, err := net.Listen("tcp", listen)
	if err != nil {
		return fmt.Errorf("could not listen: %v", err)
	}
	mux := http.NewServeMux()
	metric.StartMetrics(mux)
	srv := &http.Server{Handler: mux}
	go func() {
		<-ctx.Done()
		srv.Close()
	}()
	log.Infof("Serving metrics on %v", l.Addr())
	if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func run() error {
	fs := afero.NewOsFs()
	conf, err := loadConfig(fs)
	if err != nil {
		return err
	}
	if err := logger.LogContainer.SetLevel(conf.Log.Level); err != nil {
		return err
	}
	if err := logger.LogContainer.SetFile(fs, conf.Log.File); err != nil {
		return err
	}
	defer logger.LogContainer.Sync()

	log.Infof("y33tsim version %s", conf.Version.Version)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	if conf.Metrics.Listen != "" {
		g.Go(func() error { return serveMetrics(ctx, conf.Metrics.Listen) })
	}
	g.Go(func() error {
		if err := simulate(fs, conf); err != nil {
			return err
		}
		if conf.Metrics.Listen != "" {
			log.Infof("Simulation done, interrupt to exit")
		}
		return nil
	})
	return g.Wait()
}

func main() {
	flag.Parse()
	if err := run(); err != nil {
		log.Fatalf("y33tsim: %v", err)
	}
}
