// wsprobe is a manual test client for the notification endpoint: it joins a
// room and prints every frame the server pushes.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/lmittmann/tint"
	"github.com/vietddude/stylelog"
)

func main() {
	url := flag.String("url", "ws://localhost:8080/ws", "websocket endpoint")
	chainID := flag.String("chain", "134", "chain id to subscribe on")
	topic := flag.String("topic", "deals", "topic to join")
	flag.Parse()

	stylelog.InitDefault(&tint.Options{
		Level:      slog.LevelInfo,
		TimeFormat: time.RFC3339,
	})

	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		slog.Error("Dial failed", "url", *url, "error", err)
		os.Exit(1)
	}
	defer conn.Close()

	join, _ := json.Marshal([2]any{"join", map[string]string{
		"chainId": *chainID,
		"topic":   *topic,
	}})
	if err := conn.WriteMessage(websocket.TextMessage, join); err != nil {
		slog.Error("Join write failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Joined", "chain", *chainID, "topic", *topic)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		conn.Close()
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			slog.Info("Connection closed", "error", err)
			return
		}
		fmt.Printf("%s\n", raw)
	}
}
