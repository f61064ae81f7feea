// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package videosink

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Any origin is accepted.
	CheckOrigin: func(*http.Request) bool { return true },
}

// WebSocket returns a handler sending the current frame, then one frame per
// change, as binary websocket messages. The "format" parameter is honoured
// like for ServeHTTP.
func (s *Sink) WebSocket() http.Handler {
	return http.HandlerFunc(s.serveWebSocket)
}

func (s *Sink) serveWebSocket(w http.ResponseWriter, r *http.Request) {
	format, err := s.formatFromQuery(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied.
		s.log.Error(err)
		return
	}
	defer conn.Close()

	// Clients do not send anything; reading is needed to process control
	// frames and notice the connection closing.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	c := s.subscribe()
	defer s.unsubscribe(c)
	for {
		payload, err := s.grab(format)
		if err != nil {
			s.log.Error(err)
			return
		}
		err = conn.WriteMessage(websocket.BinaryMessage, payload)
		putBuffer(payload)
		if err != nil {
			return
		}
		select {
		case <-c.refresh:
		case <-c.terminate:
			msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "halted")
			_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
			return
		case <-closed:
			return
		case <-r.Context().Done():
			return
		}
	}
}
