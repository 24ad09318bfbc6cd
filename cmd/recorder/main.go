// Command recorder is a demo client: it logs in, opens the WebSocket,
// chunks an audio file into timed segments, and drives the full
// session lifecycle against a running server. It mirrors the server's
// lifecycle broadcasts through the recorder state machine, including
// rejoining the session room after a transport drop.
package main

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/khairulh/notulen/domain/entities"
	"github.com/khairulh/notulen/internal/recorder"
)

type loginRequest struct {
	UserID string `json:"user_id"`
}

type loginResponse struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
}

type outboundEvent struct {
	Type      string `json:"type"`
	Timestamp string `json:"timestamp,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	UserID    string `json:"user_id,omitempty"`
	Title     string `json:"title,omitempty"`
	Source    string `json:"source_type,omitempty"`
	Index     *int   `json:"index,omitempty"`
	AudioData string `json:"audio_data,omitempty"`
	MimeType  string `json:"mime_type,omitempty"`
	StartMs   int64  `json:"start_ms,omitempty"`
	EndMs     int64  `json:"end_ms,omitempty"`
}

type inboundEvent struct {
	Type      string          `json:"type"`
	SessionID string          `json:"session_id"`
	Status    string          `json:"status"`
	Index     int             `json:"index"`
	Text      string          `json:"text"`
	Message   string          `json:"message"`
	Session   json.RawMessage `json:"session"`
}

func main() {
	server := flag.String("server", "localhost:8080", "server host:port")
	user := flag.String("user", "demo-user", "user identifier to log in as")
	audioPath := flag.String("audio", "", "audio file to stream (required)")
	title := flag.String("title", "Demo session", "session title")
	chunkMs := flag.Int64("chunk-ms", 3000, "chunk duration in milliseconds")
	chunkBytes := flag.Int("chunk-bytes", 64*1024, "chunk size in bytes")
	flag.Parse()

	if *audioPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	audio, err := os.ReadFile(*audioPath)
	if err != nil {
		log.Fatal("failed to read audio file: ", err)
	}
	mimeType := mimeTypeFor(*audioPath)

	token, err := login(*server, *user)
	if err != nil {
		log.Fatal("failed to log in: ", err)
	}
	log.Printf("logged in as %s", *user)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	conn, err := dial(*server, token)
	if err != nil {
		log.Fatal("dial: ", err)
	}
	defer conn.Close()

	sessionID := uuid.New().String()
	state := recorder.State(recorder.Idle{})

	// Mirror server broadcasts into the state machine.
	updates := make(chan recorder.Event, 16)
	done := make(chan struct{})
	go readLoop(conn, updates, done)

	send(conn, outboundEvent{
		Type:      "start",
		SessionID: sessionID,
		UserID:    *user,
		Title:     *title,
		Source:    string(entities.SourceTypeMic),
	})
	state = recorder.Next(state, recorder.Start{SessionID: sessionID, Source: entities.SourceTypeMic})
	log.Printf("session %s started", sessionID)

	// Stream the file as timed chunks, then stop.
	go func() {
		index := 0
		for offset := 0; offset < len(audio); offset += *chunkBytes {
			end := offset + *chunkBytes
			if end > len(audio) {
				end = len(audio)
			}
			i := index
			send(conn, outboundEvent{
				Type:      "audio_chunk",
				SessionID: sessionID,
				Index:     &i,
				AudioData: base64.StdEncoding.EncodeToString(audio[offset:end]),
				MimeType:  mimeType,
				StartMs:   int64(index) * *chunkMs,
				EndMs:     int64(index+1) * *chunkMs,
			})
			index++
			time.Sleep(time.Duration(*chunkMs) * time.Millisecond)
		}
		send(conn, outboundEvent{Type: "stop", SessionID: sessionID})
		log.Printf("all %d chunks sent, stopping", index)
	}()

	for {
		select {
		case ev := <-updates:
			state = recorder.Next(state, ev)
			log.Printf("recorder state: %T", state)
			switch state.(type) {
			case recorder.Completed, recorder.Failed:
				closeGracefully(conn, done)
				return
			}

		case <-done:
			// Transport dropped: reconnect and rejoin the session room.
			state = recorder.Next(state, recorder.TransportDisconnected{})
			log.Printf("transport lost, reconnecting")
			conn, err = dial(*server, token)
			if err != nil {
				log.Fatal("reconnect failed: ", err)
			}
			done = make(chan struct{})
			go readLoop(conn, updates, done)
			send(conn, outboundEvent{Type: "join", SessionID: sessionID})
			state = recorder.Next(state, recorder.TransportReconnected{})

		case <-interrupt:
			log.Println("interrupt, stopping session")
			send(conn, outboundEvent{Type: "stop", SessionID: sessionID})
			state = recorder.Next(state, recorder.Stop{})
		}
	}
}

func login(server, userID string) (string, error) {
	body, err := json.Marshal(loginRequest{UserID: userID})
	if err != nil {
		return "", err
	}

	resp, err := http.Post(
		fmt.Sprintf("http://%s/api/v1/auth/login", server),
		"application/json",
		bytes.NewBuffer(body),
	)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login returned status %d", resp.StatusCode)
	}

	var login loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&login); err != nil {
		return "", err
	}
	return login.Token, nil
}

func dial(server, token string) (*websocket.Conn, error) {
	u := url.URL{Scheme: "ws", Host: server, Path: "/ws"}
	headers := http.Header{}
	headers.Add("Authorization", "Bearer "+token)

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), headers)
	return conn, err
}

func send(conn *websocket.Conn, event outboundEvent) {
	event.Timestamp = time.Now().UTC().Format(time.RFC3339)
	if err := conn.WriteJSON(event); err != nil {
		log.Println("write:", err)
	}
}

// readLoop translates server broadcasts into state machine events.
func readLoop(conn *websocket.Conn, updates chan<- recorder.Event, done chan<- struct{}) {
	defer close(done)
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var ev inboundEvent
		if err := json.Unmarshal(message, &ev); err != nil {
			log.Println("unmarshal:", err)
			continue
		}

		switch ev.Type {
		case "status":
			log.Printf("status: %s", ev.Status)
			switch entities.SessionStatus(ev.Status) {
			case entities.SessionStatusPaused:
				updates <- recorder.Pause{}
			case entities.SessionStatusRecording:
				updates <- recorder.Resume{}
			case entities.SessionStatusProcessing:
				updates <- recorder.Stop{}
			case entities.SessionStatusError:
				updates <- recorder.FinalizeFailed{Message: "session errored"}
			}
		case "transcript":
			log.Printf("transcript[%d]: %s", ev.Index, ev.Text)
		case "completed":
			log.Printf("session completed: %s", string(ev.Session))
			updates <- recorder.FinalizeSucceeded{}
		case "error":
			log.Printf("server error: %s", ev.Message)
		}
	}
}

func closeGracefully(conn *websocket.Conn, done <-chan struct{}) {
	err := conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	if err != nil {
		log.Println("write close:", err)
		return
	}
	select {
	case <-done:
	case <-time.After(time.Second):
	}
}

func mimeTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".webm":
		return "audio/webm"
	case ".ogg", ".opus":
		return "audio/ogg"
	case ".wav":
		return "audio/wav"
	case ".flac":
		return "audio/flac"
	default:
		return "audio/webm"
	}
}
