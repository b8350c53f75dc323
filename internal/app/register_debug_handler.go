// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/compass/internal/mag"
	"github.com/relabs-tech/compass/internal/sensors"
)

const registerDevice = "hmc5883l"

// RegisterDevice is raw register access to the sensor.
type RegisterDevice interface {
	ReadRegister(reg byte) (byte, error)
	ReadAllRegisters() (map[byte]byte, error)
	WriteRegister(reg, val byte) error
}

// RegisterResponse is a message to the register debug page.
type RegisterResponse struct {
	Type        string                 `json:"type"` // "register_data", "register_map", "error"
	Device      string                 `json:"device,omitempty"`
	Address     string                 `json:"addr,omitempty"`
	Value       string                 `json:"value,omitempty"`
	Registers   map[string]string      `json:"registers,omitempty"` // for bulk read
	Timestamp   string                 `json:"timestamp,omitempty"`
	Message     string                 `json:"message,omitempty"`
	RegisterMap []sensors.RegisterInfo `json:"register_map,omitempty"`
}

// RegisterDebugHandler serves the register debug websocket.
type RegisterDebugHandler struct {
	Dev RegisterDevice
}

// registerDebugSession holds WebSocket connection state for register debugging
type registerDebugSession struct {
	conn *websocket.Conn
	dev  RegisterDevice
}

func (h *RegisterDebugHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("register_debug: websocket upgrade error")
		return
	}
	defer conn.Close()

	s := &registerDebugSession{conn: conn, dev: h.Dev}

	// Send register map on connection
	if err := s.sendRegisterMap(); err != nil {
		log.WithError(err).Warn("register_debug: error sending register map")
		return
	}

	for {
		var rawMsg map[string]interface{}
		if err := conn.ReadJSON(&rawMsg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithError(err).Warn("register_debug: websocket error")
			}
			return
		}

		action, ok := rawMsg["action"].(string)
		if !ok {
			s.sendError("missing or invalid action field")
			continue
		}

		switch action {
		case "get_map":
			if err := s.sendRegisterMap(); err != nil {
				log.WithError(err).Warn("register_debug: error sending register map")
			}
		case "read":
			s.handleRead(rawMsg)
		case "read_all":
			s.handleReadAll()
		case "write":
			s.handleWrite(rawMsg)
		default:
			s.sendError(fmt.Sprintf("unknown action: %s", action))
		}
	}
}

// parseHexByte accepts "0x1E" style values.
func parseHexByte(s string) (byte, error) {
	var b byte
	if _, err := fmt.Sscanf(s, "0x%X", &b); err != nil {
		return 0, err
	}
	return b, nil
}

func (s *registerDebugSession) handleRead(rawMsg map[string]interface{}) {
	addr, _ := rawMsg["addr"].(string)
	if addr == "" {
		s.sendError("missing addr field")
		return
	}
	reg, err := parseHexByte(addr)
	if err != nil {
		s.sendError(fmt.Sprintf("invalid address format: %s", addr))
		return
	}

	value, err := s.dev.ReadRegister(reg)
	if err != nil {
		s.sendError(fmt.Sprintf("read error: %v", err))
		return
	}

	s.send(RegisterResponse{
		Type:      "register_data",
		Device:    registerDevice,
		Address:   fmt.Sprintf("0x%02X", reg),
		Value:     fmt.Sprintf("0x%02X", value),
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

func (s *registerDebugSession) handleReadAll() {
	registers, err := s.dev.ReadAllRegisters()
	if err != nil && len(registers) == 0 {
		s.sendError(fmt.Sprintf("read all error: %v", err))
		return
	}

	regMap := make(map[string]string, len(registers))
	for addr, value := range registers {
		regMap[fmt.Sprintf("0x%02X", addr)] = fmt.Sprintf("0x%02X", value)
	}

	resp := RegisterResponse{
		Type:      "register_data",
		Device:    registerDevice,
		Registers: regMap,
		Timestamp: time.Now().Format(time.RFC3339),
	}
	// Partial reads still report what was read.
	if err != nil {
		resp.Message = fmt.Sprintf("read all error: %v", err)
	}
	s.send(resp)
}

func (s *registerDebugSession) handleWrite(rawMsg map[string]interface{}) {
	addr, _ := rawMsg["addr"].(string)
	valueStr, _ := rawMsg["value"].(string)
	if addr == "" || valueStr == "" {
		s.sendError("missing addr or value field")
		return
	}

	reg, err := parseHexByte(addr)
	if err != nil {
		s.sendError(fmt.Sprintf("invalid address format: %s", addr))
		return
	}
	value, err := parseHexByte(valueStr)
	if err != nil {
		s.sendError(fmt.Sprintf("invalid value format: %s", valueStr))
		return
	}

	if err := s.dev.WriteRegister(reg, value); err != nil {
		s.sendError(fmt.Sprintf("write error: %v", err))
		return
	}
	log.WithFields(log.Fields{"reg": addr, "value": valueStr}).Info("register_debug: register written")

	s.send(RegisterResponse{
		Type:      "register_data",
		Device:    registerDevice,
		Address:   fmt.Sprintf("0x%02X", reg),
		Value:     fmt.Sprintf("0x%02X", value),
		Timestamp: time.Now().Format(time.RFC3339),
		Message:   "write successful",
	})
}

func (s *registerDebugSession) sendRegisterMap() error {
	return s.conn.WriteJSON(RegisterResponse{
		Type:        "register_map",
		Device:      registerDevice,
		RegisterMap: sensors.HMC5883LRegisterMap(),
	})
}

func (s *registerDebugSession) sendError(message string) {
	s.send(RegisterResponse{Type: "error", Message: message})
}

func (s *registerDebugSession) send(resp RegisterResponse) {
	if err := s.conn.WriteJSON(resp); err != nil {
		log.WithError(err).Warn("register_debug: websocket write error")
	}
}

// HandleReading serves one fresh compass reading per request.
func HandleReading(read func() (mag.Reading, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Access-Control-Allow-Origin", "*")

		reading, err := read()
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
			return
		}
		json.NewEncoder(w).Encode(reading)
	}
}
