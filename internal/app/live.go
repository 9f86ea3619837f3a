// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/relabs-tech/sensor_dashboard/internal/config"
	"github.com/relabs-tech/sensor_dashboard/internal/dashboard"
	"github.com/relabs-tech/sensor_dashboard/internal/env"
	"github.com/relabs-tech/sensor_dashboard/internal/history"
	"github.com/relabs-tech/sensor_dashboard/internal/telemetry"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // dashboard is served on the LAN only
	},
}

// liveMessage is pushed to websocket clients on every reading.
type liveMessage struct {
	Latest  env.Reading      `json:"latest"`
	History history.Snapshot `json:"history"`
	LEDOn   bool             `json:"led_on"`
}

// liveServer mirrors the device history from MQTT and serves it to
// any number of browsers.
type liveServer struct {
	history *history.Buffer

	mu      sync.Mutex
	ledOn   bool
	clients map[*websocket.Conn]chan []byte
}

func newLiveServer(size int) *liveServer {
	return &liveServer{
		history: history.New(size),
		clients: make(map[*websocket.Conn]chan []byte),
	}
}

// RunLive subscribes to the dashboard's MQTT topics and serves a live
// view with websocket updates until ctx is cancelled.
func RunLive(ctx context.Context, cfg *config.Config) error {
	if cfg.MQTTBroker == "" {
		return errors.New("live: MQTT_BROKER is required")
	}

	ls := newLiveServer(cfg.HistorySize)

	client := mqtt.NewClient(telemetry.NewClientOptions(cfg.MQTTBroker, cfg.MQTTClientIDLive))
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Printf("live: connected to MQTT broker at %s", cfg.MQTTBroker)

	token := client.Subscribe(cfg.TopicReading, 0, func(_ mqtt.Client, msg mqtt.Message) {
		ls.handleReading(msg.Payload())
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("live: subscribed to MQTT topic %s", cfg.TopicReading)

	if cfg.TopicLED != "" {
		token = client.Subscribe(cfg.TopicLED, 0, func(_ mqtt.Client, msg mqtt.Message) {
			ls.handleLED(msg.Payload())
		})
		token.Wait()
		if token.Error() != nil {
			return token.Error()
		}
		log.Printf("live: subscribed to MQTT topic %s", cfg.TopicLED)
	}

	return ls.serve(ctx, fmt.Sprintf(":%d", cfg.LiveServerPort))
}

// serve runs the HTTP server on addr until ctx is cancelled or the
// server fails. It returns after shutdown has finished.
func (ls *liveServer) serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           ls.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, cancel := context.WithCancel(ctx)
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancelShutdown()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("live: web server shutdown error: %v", err)
		}
		ls.closeClients()
	}()

	log.Printf("live: web server listening on %s", srv.Addr)
	err := srv.ListenAndServe()
	cancel()
	<-stopped

	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("live: web server: %w", err)
	}
	return nil
}

func (ls *liveServer) routes() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/ws", ls.handleWS).Methods("GET")
	r.HandleFunc("/api/history", ls.handleHistory).Methods("GET")
	r.HandleFunc("/", ls.handlePage).Methods("GET")

	recovered := handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(r)
	return handlers.LoggingHandler(log.Writer(), recovered)
}

func (ls *liveServer) handleReading(payload []byte) {
	r, err := telemetry.DecodeReading(payload)
	if err != nil {
		log.Printf("live: %v", err)
		return
	}
	ls.history.Record(r)

	msg, err := json.Marshal(ls.message())
	if err != nil {
		log.Printf("live: json marshal error: %v", err)
		return
	}
	ls.broadcast(msg)
}

func (ls *liveServer) handleLED(payload []byte) {
	s, err := telemetry.DecodeLED(payload)
	if err != nil {
		log.Printf("live: %v", err)
		return
	}
	ls.mu.Lock()
	ls.ledOn = s.On
	ls.mu.Unlock()
}

func (ls *liveServer) message() liveMessage {
	latest, _ := ls.history.Latest()
	ls.mu.Lock()
	ledOn := ls.ledOn
	ls.mu.Unlock()
	return liveMessage{Latest: latest, History: ls.history.Snapshot(), LEDOn: ledOn}
}

func (ls *liveServer) handlePage(w http.ResponseWriter, r *http.Request) {
	msg := ls.message()
	_, have := ls.history.Latest()

	data, err := dashboard.NewPageData(msg.Latest, have, msg.LEDOn, msg.History)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	data.Title = "Sensor Dashboard (live)"
	data.LiveURL = "/ws"

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := dashboard.Render(w, data); err != nil {
		log.Printf("live: %v", err)
	}
}

func (ls *liveServer) handleHistory(w http.ResponseWriter, r *http.Request) {
	if _, have := ls.history.Latest(); !have {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(ls.message()); err != nil {
		log.Printf("live: json encode error: %v", err)
	}
}

func (ls *liveServer) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("live: websocket upgrade error: %v", err)
		return
	}

	send := ls.addClient(conn)

	// initial state so the page does not wait for the next reading
	if _, have := ls.history.Latest(); have {
		if msg, err := json.Marshal(ls.message()); err == nil {
			select {
			case send <- msg:
			default:
			}
		}
	}

	go func() {
		defer ls.removeClient(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("live: websocket read error: %v", err)
				}
				return
			}
		}
	}()

	for msg := range send {
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			log.Printf("live: websocket write error: %v", err)
			break
		}
	}
	ls.removeClient(conn)
	conn.Close()
}

func (ls *liveServer) addClient(conn *websocket.Conn) chan []byte {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	ch := make(chan []byte, 8)
	ls.clients[conn] = ch
	return ch
}

func (ls *liveServer) removeClient(conn *websocket.Conn) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	if ch, ok := ls.clients[conn]; ok {
		delete(ls.clients, conn)
		close(ch)
	}
}

// broadcast queues msg for every client; a client whose queue is full
// misses this update.
func (ls *liveServer) broadcast(msg []byte) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	for _, ch := range ls.clients {
		select {
		case ch <- msg:
		default:
		}
	}
}

func (ls *liveServer) clientCount() int {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return len(ls.clients)
}

func (ls *liveServer) closeClients() {
	ls.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(ls.clients))
	for c := range ls.clients {
		conns = append(conns, c)
	}
	ls.mu.Unlock()

	for _, c := range conns {
		c.Close()
	}
}
