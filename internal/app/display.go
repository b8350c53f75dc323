// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"image"
	"math"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/compass/internal/config"
	"github.com/relabs-tech/compass/internal/mag"
)

const (
	displayW = 128
	displayH = 64

	// compass rose on the left half
	roseCX = 31
	roseCY = 32
	roseR  = 29
)

// ssd1306 addresses the panel at 0x3C; readdressed forwards its traffic to
// the configured address.
type readdressed struct {
	i2c.Bus
	addr uint16
}

func (b *readdressed) Tx(_ uint16, w, r []byte) error {
	return b.Bus.Tx(b.addr, w, r)
}

// RunDisplay draws the latest heading from TOPIC_HEADING on an SSD1306 OLED.
func RunDisplay(cfg *config.Config) error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph: %w", err)
	}

	bus, err := i2creg.Open(cfg.HMCI2CBus)
	if err != nil {
		return fmt.Errorf("failed to open I2C bus: %w", err)
	}
	defer bus.Close()

	dev, err := ssd1306.NewI2C(&readdressed{Bus: bus, addr: cfg.DisplayI2CAddr}, &ssd1306.DefaultOpts)
	if err != nil {
		return fmt.Errorf("failed to initialize display: %w", err)
	}
	log.WithField("addr", fmt.Sprintf("0x%02X", cfg.DisplayI2CAddr)).Info("display: initialized")

	if err := dev.Draw(dev.Bounds(), renderSplash(), image.Point{}); err != nil {
		log.WithError(err).Warn("display: error showing splash")
	}

	heading := &latest[mag.Heading]{}
	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDDisplay)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)
	if err := subscribeJSON(client, cfg.TopicHeading, heading.Set); err != nil {
		return err
	}

	ticker := time.NewTicker(time.Duration(cfg.DisplayUpdateInterval) * time.Millisecond)
	defer ticker.Stop()

	log.Info("display: starting update loop")
	for range ticker.C {
		h, ok := heading.Get()
		if err := dev.Draw(dev.Bounds(), renderHeading(h, ok), image.Point{}); err != nil {
			log.WithError(err).Warn("display: error updating display")
		}
	}
	return nil
}

func newFrame() (*image1bit.VerticalLSB, *font.Drawer) {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, displayW, displayH))
	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
	return img, drawer
}

func drawText(d *font.Drawer, x, y int, s string) {
	d.Dot = fixed.P(x, y)
	d.DrawString(s)
}

// renderHeading draws a compass rose with a needle pointing at the heading
// and the numeric heading to its right.
func renderHeading(h mag.Heading, ok bool) *image1bit.VerticalLSB {
	img, drawer := newFrame()

	// Rim, with ticks every 45°
	for a := 0.0; a < 360; a += 2 {
		plot(img, polar(a, roseR))
	}
	for a := 0.0; a < 360; a += 45 {
		line(img, polar(a, roseR-4), polar(a, roseR))
	}
	drawText(drawer, roseCX-3, 13, "N")

	if !ok {
		drawText(drawer, 68, 26, "Compass")
		drawText(drawer, 68, 39, "Waiting")
		return img
	}

	line(img, image.Point{X: roseCX, Y: roseCY}, polar(h.Heading, roseR-6))
	drawText(drawer, 68, 13, "HDG")
	drawText(drawer, 68, 28, fmt.Sprintf("%5.1f", h.Heading))
	drawText(drawer, 68, 43, h.Cardinal)
	drawText(drawer, 68, 58, fmt.Sprintf("D%+.1f", h.Declination))
	return img
}

func renderSplash() *image1bit.VerticalLSB {
	img, drawer := newFrame()
	drawText(drawer, 20, 26, "Compass Pi")
	drawText(drawer, 20, 43, "HMC5883L")
	return img
}

// polar returns the screen point at heading deg (clockwise from north) and
// radius r from the rose centre.
func polar(deg, r float64) image.Point {
	rad := deg * math.Pi / 180
	return image.Point{
		X: roseCX + int(math.Round(r*math.Sin(rad))),
		Y: roseCY - int(math.Round(r*math.Cos(rad))),
	}
}

func plot(img *image1bit.VerticalLSB, p image.Point) {
	if p.In(img.Bounds()) {
		img.SetBit(p.X, p.Y, image1bit.On)
	}
}

func line(img *image1bit.VerticalLSB, a, b image.Point) {
	dx, dy := b.X-a.X, b.Y-a.Y
	steps := max(abs(dx), abs(dy))
	if steps == 0 {
		plot(img, a)
		return
	}
	for i := 0; i <= steps; i++ {
		plot(img, image.Point{
			X: a.X + int(math.Round(float64(dx*i)/float64(steps))),
			Y: a.Y + int(math.Round(float64(dy*i)/float64(steps))),
		})
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
