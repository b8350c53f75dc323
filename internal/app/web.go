// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/compass/internal/config"
	"github.com/relabs-tech/compass/internal/gps"
	"github.com/relabs-tech/compass/internal/mag"
)

// latest keeps the most recent value of T and serves it as JSON.
type latest[T any] struct {
	mu sync.RWMutex
	v  T
	ok bool
}

func (l *latest[T]) Set(v T) {
	l.mu.Lock()
	l.v = v
	l.ok = true
	l.mu.Unlock()
}

func (l *latest[T]) Get() (T, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.v, l.ok
}

func (l *latest[T]) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	v, ok := l.Get()
	if !ok {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Warn("json encode error")
	}
}

// RunWeb subscribes to the compass and GPS topics and serves the latest
// values at /api/heading and /api/gps, with static files from ./web.
func RunWeb(cfg *config.Config) error {
	readings := &latest[mag.Reading]{}
	fixes := &latest[gps.Fix]{}

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDWeb)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	if err := subscribeJSON(client, cfg.TopicMag, readings.Set); err != nil {
		return err
	}
	if err := subscribeJSON(client, cfg.TopicGPS, fixes.Set); err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/api/heading", readings)
	mux.Handle("/api/gps", fixes)
	mux.Handle("/", http.FileServer(http.Dir("web")))

	addr := fmt.Sprintf(":%d", cfg.WebServerPort)
	log.WithField("addr", addr).Info("web server listening")
	return http.ListenAndServe(addr, mux)
}
