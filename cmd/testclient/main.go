// Command testclient subscribes to the bridge's /v1/stream endpoint and
// prints every state snapshot it receives. Useful for smoke-testing a
// running service.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"

	"github.com/gorilla/websocket"
)

type snapshot struct {
	FinalText      string `json:"finalText"`
	Partial        string `json:"partial"`
	TranslatedText string `json:"translatedText"`
	HasTranslation bool   `json:"hasTranslation"`
	StatusText     string `json:"statusText"`
	Connected      bool   `json:"connected"`
}

func main() {
	url := flag.String("url", "ws://localhost:8080/v1/stream", "bridge stream endpoint")
	flag.Parse()

	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		log.Fatalf("failed to connect: %v", err)
	}
	defer conn.Close()

	log.Printf("Connected to %s", *url)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for {
			_, payload, err := conn.ReadMessage()
			if err != nil {
				log.Printf("read error: %v", err)
				return
			}
			var s snapshot
			if err := json.Unmarshal(payload, &s); err != nil {
				log.Printf("bad snapshot: %v", err)
				continue
			}
			switch {
			case s.Partial != "":
				log.Printf("[partial] %s", s.Partial)
			case s.HasTranslation:
				log.Printf("[translated] %s", s.TranslatedText)
			case s.FinalText != "":
				log.Printf("[final] %s", s.FinalText)
			default:
				log.Printf("[state] connected=%v status=%q", s.Connected, s.StatusText)
			}
		}
	}()

	select {
	case <-done:
	case <-interrupt:
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	}
}
