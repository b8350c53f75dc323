// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/compass/internal/calibration"
	"github.com/relabs-tech/compass/internal/hmc5883l"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// Calibrator is the part of the compass the calibration page drives.
type Calibrator interface {
	Calibrate(n int) (hmc5883l.Calibration, error)
	Calibration() hmc5883l.Calibration
	Record(samples int, cal hmc5883l.Calibration) calibration.Record
	Declination() float64
	SetDeclination(deg float64)
}

// CalibrationCmd is a message from the browser.
type CalibrationCmd struct {
	Action  string   `json:"action"` // calibrate, status, declination
	Samples int      `json:"samples,omitempty"`
	Degrees *float64 `json:"degrees,omitempty"`
}

// CalibrationResponse is a message to the browser.
type CalibrationResponse struct {
	Type        string      `json:"type"` // started, complete, status, declination, error
	Samples     int         `json:"samples,omitempty"`
	Offset      *[3]int16   `json:"offset,omitempty"`
	Scale       *[3]float64 `json:"scale,omitempty"`
	Confidence  float64     `json:"confidence,omitempty"`
	Declination float64     `json:"declination"`
	File        string      `json:"file,omitempty"`
	Message     string      `json:"message,omitempty"`
}

// CalibrationHandler serves the calibration websocket.
type CalibrationHandler struct {
	Dev            Calibrator
	File           string // where results are saved; empty disables saving
	DefaultSamples int
}

func (h *CalibrationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("calibration: websocket upgrade error")
		return
	}
	defer conn.Close()

	for {
		var msg CalibrationCmd
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithError(err).Warn("calibration: websocket read error")
			}
			return
		}

		var resps []CalibrationResponse
		switch msg.Action {
		case "calibrate":
			resps = h.calibrate(conn, msg.Samples)
		case "status":
			resps = []CalibrationResponse{h.status("status")}
		case "declination":
			if msg.Degrees == nil {
				resps = []CalibrationResponse{h.errorf("missing degrees field")}
				break
			}
			h.Dev.SetDeclination(*msg.Degrees)
			log.WithField("degrees", *msg.Degrees).Info("calibration: declination set")
			resps = []CalibrationResponse{h.status("declination")}
		default:
			resps = []CalibrationResponse{h.errorf("unknown action: %s", msg.Action)}
		}
		for _, resp := range resps {
			if err := conn.WriteJSON(resp); err != nil {
				log.WithError(err).Warn("calibration: websocket write error")
				return
			}
		}
	}
}

// calibrate runs one pass. The "started" notice is written before the pass
// blocks so the page can prompt the user to rotate the sensor.
func (h *CalibrationHandler) calibrate(conn *websocket.Conn, n int) []CalibrationResponse {
	if n == 0 {
		n = h.DefaultSamples
	}
	if n <= 0 {
		return []CalibrationResponse{h.errorf("%v", hmc5883l.ErrInvalidSampleCount)}
	}
	if err := conn.WriteJSON(CalibrationResponse{
		Type:        "started",
		Samples:     n,
		Declination: h.Dev.Declination(),
		Message:     "rotate the sensor through all orientations",
	}); err != nil {
		return nil
	}

	log.WithField("samples", n).Info("calibration: pass started")
	cal, err := h.Dev.Calibrate(n)
	if err != nil {
		log.WithError(err).Warn("calibration: pass failed")
		return []CalibrationResponse{h.errorf("calibration failed: %v", err)}
	}

	resp := h.status("complete")
	resp.Samples = n
	resp.Offset, resp.Scale = &cal.Offset, &cal.Scale
	rec := h.Dev.Record(n, cal)
	resp.Confidence = rec.Confidence
	if h.File != "" {
		if err := calibration.Save(h.File, rec); err != nil {
			log.WithError(err).Warn("calibration: save failed")
			resp.Message = fmt.Sprintf("applied but not saved: %v", err)
		} else {
			resp.File = h.File
		}
	}
	log.WithFields(log.Fields{"offset": cal.Offset, "scale": cal.Scale}).Info("calibration: pass complete")
	return []CalibrationResponse{resp}
}

func (h *CalibrationHandler) status(typ string) CalibrationResponse {
	cal := h.Dev.Calibration()
	return CalibrationResponse{
		Type:        typ,
		Offset:      &cal.Offset,
		Scale:       &cal.Scale,
		Confidence:  calibration.Coverage(cal),
		Declination: h.Dev.Declination(),
	}
}

func (h *CalibrationHandler) errorf(format string, args ...any) CalibrationResponse {
	return CalibrationResponse{
		Type:        "error",
		Declination: h.Dev.Declination(),
		Message:     fmt.Sprintf(format, args...),
	}
}
