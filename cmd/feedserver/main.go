// Feed server - simulated transcript source for local runs.
// Serves a WebSocket endpoint that emits scripted utterances with
// progressive partials, a final commit, and a late translation update,
// the same dual-emission shape the real source produces.
package main

import (
	"flag"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"transcript-bridge-service/internal/observability/logging"
)

// scriptedUtterance is one utterance with progressive partial transcripts
// and an optional translation that arrives late.
type scriptedUtterance struct {
	Partials    []string
	Final       string
	Translation string // empty means no translation is emitted
	Language    string
	Target      string
	RTF         float64
}

var defaultScript = []scriptedUtterance{
	{
		Partials:    []string{"Bom", "Bom dia", "Bom dia a"},
		Final:       "Bom dia a todos",
		Translation: "Good morning everyone",
		Language:    "pt",
		Target:      "en",
		RTF:         0.31,
	},
	{
		Partials:    []string{"Vamos", "Vamos começar", "Vamos começar a"},
		Final:       "Vamos começar a reunião",
		Translation: "Let's start the meeting",
		Language:    "pt",
		Target:      "en",
		RTF:         0.28,
	},
	{
		Partials:    []string{"I want", "I want to", "I want to review"},
		Final:       "I want to review the action items",
		Translation: "",
		Language:    "en",
		RTF:         0.25,
	},
	{
		Partials:    []string{"Thank you"},
		Final:       "Thank you very much",
		Translation: "Muito obrigado",
		Language:    "en",
		Target:      "pt",
		RTF:         0.22,
	},
}

type message struct {
	Type           string   `json:"type,omitempty"`
	Text           string   `json:"text,omitempty"`
	OriginalText   *string  `json:"original_text,omitempty"`
	TranslatedText string   `json:"translated_text,omitempty"`
	SourceLanguage string   `json:"source_language,omitempty"`
	TargetLanguage string   `json:"target_language,omitempty"`
	Timestamp      int64    `json:"timestamp,omitempty"`
	IsFinal        bool     `json:"is_final,omitempty"`
	RTF            *float64 `json:"rtf,omitempty"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func main() {
	addr := flag.String("addr", ":8765", "listen address")
	interval := flag.Duration("interval", 400*time.Millisecond, "delay between partials")
	translateDelay := flag.Duration("translate-delay", 2*time.Second, "delay before the translation update")
	flag.Parse()

	logging.Init(logging.Config{Level: "info", Format: "console"})

	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn().Err(err).Msg("upgrade failed")
			return
		}
		log.Info().Str("remote", r.RemoteAddr).Msg("Client subscribed")
		go feed(conn, *interval, *translateDelay)
	})

	log.Info().Str("addr", *addr).Msg("Feed server listening")
	if err := http.ListenAndServe(*addr, nil); err != nil {
		log.Fatal().Err(err).Msg("feed server failed")
	}
}

// feed streams the script to one client until the connection goes away.
func feed(conn *websocket.Conn, interval, translateDelay time.Duration) {
	defer conn.Close()

	send := func(m message) bool {
		if m.Timestamp == 0 {
			m.Timestamp = time.Now().UnixMilli()
		}
		if err := conn.WriteJSON(m); err != nil {
			log.Info().Err(err).Msg("Client gone")
			return false
		}
		return true
	}

	if !send(message{Type: "status", Text: "listening"}) {
		return
	}

	for i := 0; ; i++ {
		utt := defaultScript[i%len(defaultScript)]

		for _, partial := range utt.Partials {
			p := partial
			if !send(message{
				OriginalText:   &p,
				TranslatedText: p,
				SourceLanguage: utt.Language,
			}) {
				return
			}
			time.Sleep(interval)
		}

		final := utt.Final
		rtf := utt.RTF
		if !send(message{
			OriginalText:   &final,
			TranslatedText: final,
			SourceLanguage: utt.Language,
			IsFinal:        true,
			RTF:            &rtf,
		}) {
			return
		}

		if utt.Translation != "" {
			time.Sleep(translateDelay)
			if !send(message{
				OriginalText:   &final,
				TranslatedText: utt.Translation,
				SourceLanguage: utt.Language,
				TargetLanguage: utt.Target,
				IsFinal:        true,
			}) {
				return
			}
		}

		time.Sleep(interval)
	}
}
