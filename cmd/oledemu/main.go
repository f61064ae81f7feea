// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// oledemu runs an emulated board with an SSD1306 behind a TWI controller,
// initialises the display with periph's SSD1306 driver and streams frames to
// it. The emulated panel is shown in the terminal or over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	drv "periph.io/x/devices/v3/ssd1306"
	"periph.io/x/host/v3"

	"github.com/GermanBionicSystems/periphemu/board"
	"github.com/GermanBionicSystems/periphemu/screen2d"
	"github.com/GermanBionicSystems/periphemu/ssd1306"
	"github.com/GermanBionicSystems/periphemu/videosink"
)

func mainImpl() error {
	busName := flag.String("bus", board.DefaultOpts.Name, "I²C bus to drive the display on")
	httpAddr := flag.String("http", "", "serve the emulated display on this address")
	term := flag.Bool("term", false, "show the emulated display in the terminal")
	fps := flag.Int("fps", 10, "refresh rate")
	scale := flag.Int("scale", 4, "magnification of the frames served over HTTP")
	text := flag.String("text", "periphemu", "banner text")
	format := videosink.PNG
	flag.Var(&format, "format", "image format served over HTTP: png or jpeg")
	verbose := flag.Bool("v", false, "verbose logging")
	flag.Parse()
	if flag.NArg() != 0 {
		return errors.New("unexpected argument, try -help")
	}
	if *fps < 1 {
		return fmt.Errorf("invalid -fps %d", *fps)
	}
	if *verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	if _, err := host.Init(); err != nil {
		return err
	}

	b, err := board.New(&board.DefaultOpts)
	if err != nil {
		return err
	}
	if err := b.Register(); err != nil {
		return err
	}
	defer b.Close()

	bus, err := i2creg.Open(*busName)
	if err != nil {
		return err
	}
	defer bus.Close()

	opts := drv.DefaultOpts
	oled, err := drv.NewI2C(bus, &opts)
	if err != nil {
		return err
	}
	defer oled.Halt()
	logrus.WithField("bus", bus.String()).Infof("%s initialised", oled)

	var drawers []display.Drawer
	if *term {
		d := screen2d.New(&screen2d.Opts{X: ssd1306.Width, Y: ssd1306.Height, Step: 2})
		defer d.Halt()
		drawers = append(drawers, d)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if *httpAddr != "" {
		s := videosink.New(&videosink.Opts{
			Width:  ssd1306.Width,
			Height: ssd1306.Height,
			Scale:  *scale,
			Format: format,
		})
		defer s.Halt()
		drawers = append(drawers, s)
		mux := http.NewServeMux()
		mux.Handle("/", s)
		mux.Handle("/ws", s.WebSocket())
		srv := &http.Server{Addr: *httpAddr, Handler: mux}
		go func() {
			logrus.Infof("serving on http://%s/", *httpAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logrus.Error(err)
				stop()
			}
		}()
		defer srv.Shutdown(context.Background())
	}

	interval := time.Second / time.Duration(*fps)
	done := make(chan error, 1)
	go func() {
		done <- b.Run(ctx, interval, drawers...)
	}()

	dev := &i2c.Dev{Bus: bus, Addr: uint16(board.DefaultOpts.OLEDAddr)}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		if err := sendFrame(dev, compose(*text, time.Now())); err != nil {
			logrus.Errorf("frame: %v", err)
		}
		select {
		case <-ctx.Done():
			if err := <-done; !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		case <-t.C:
		}
	}
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "oledemu: %s.\n", err)
		os.Exit(1)
	}
}
