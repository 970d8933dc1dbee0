package app

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/bmp180_thermometer/internal/config"
	"github.com/relabs-tech/bmp180_thermometer/internal/env"
	"github.com/relabs-tech/bmp180_thermometer/internal/report"
)

// latestSample keeps the most recent reading for the HTTP API and forwards
// each one to the WebSocket hub.
type latestSample struct {
	mu     sync.RWMutex
	sample env.Sample
	have   bool
	out    report.SamplePublisher
}

func (l *latestSample) PublishSample(s env.Sample) error {
	l.mu.Lock()
	l.sample = s
	l.have = true
	l.mu.Unlock()
	return l.out.PublishSample(s)
}

// receive handles one MQTT reading payload.
func (l *latestSample) receive(payload []byte) {
	s, err := decodeSample(payload)
	if err != nil {
		log.Printf("web: MQTT payload unmarshal error: %v", err)
		return
	}
	if err := l.PublishSample(s); err != nil {
		log.Printf("web: forwarding reading: %v", err)
	}
}

func (l *latestSample) serveTemperature(w http.ResponseWriter, r *http.Request) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if !l.have {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(l.sample); err != nil {
		log.Printf("web: json encode error: %v", err)
	}
}

// newWebMux serves the latest reading, the live stream and the static UI.
func newWebMux(latest *latestSample, stream http.Handler, staticDir string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/temperature", latest.serveTemperature)
	mux.Handle("/ws", stream)
	mux.Handle("/", http.FileServer(http.Dir(staticDir)))
	return mux
}

// RunWeb subscribes to published readings and serves them over HTTP and
// WebSocket.
func RunWeb() error {
	cfg := config.Get()
	if cfg == nil {
		return fmt.Errorf("web: config not initialized")
	}
	mc := cfg.Report.MQTT

	hub := report.NewHub()
	defer hub.Close()
	latest := &latestSample{out: hub}

	client, err := report.Connect(mc.Broker, mc.ClientIDWeb)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	token := client.Subscribe(mc.TopicReading, 0, func(_ mqtt.Client, msg mqtt.Message) {
		latest.receive(msg.Payload())
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("web: subscribed to MQTT topic %s", mc.TopicReading)

	addr := fmt.Sprintf(":%d", cfg.Web.Port)
	log.Printf("web: server listening on %s", addr)
	return http.ListenAndServe(addr, newWebMux(latest, hub, cfg.Web.StaticDir))
}
