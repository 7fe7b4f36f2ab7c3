// Interactive WebSocket client for manual testing against a running
// server. Commands map to wire frames; anything starting with '{' is
// sent through verbatim.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

func main() {
	var addr = flag.String("addr", "localhost:8000", "server host:port")
	var path = flag.String("path", "/ws", "websocket path")
	flag.Parse()

	u := url.URL{Scheme: "ws", Host: *addr, Path: *path}
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("dial %s: %v", u.String(), err)
	}
	defer conn.Close()

	fmt.Printf("Connected to %s\n", u.String())
	fmt.Println("Commands: login <user>, join [code], create [private], start, leave, word <guess>, logout, quit")
	fmt.Println("Raw JSON frames are sent as-is.")

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				fmt.Printf("\nconnection closed: %v\n", err)
				return
			}
			fmt.Printf("\n<< %s\n> ", data)
		}
	}()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "quit" {
			break
		}

		frame, err := buildFrame(input)
		if err != nil {
			fmt.Println(err)
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			fmt.Printf("send failed: %v\n", err)
			break
		}
		if input == "logout" {
			break
		}
	}

	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	<-done
	fmt.Println("Goodbye!")
}

func buildFrame(input string) ([]byte, error) {
	if strings.HasPrefix(input, "{") {
		return []byte(input), nil
	}

	parts := strings.Fields(input)
	frame := map[string]any{}
	switch parts[0] {
	case "login":
		if len(parts) < 2 {
			return nil, fmt.Errorf("usage: login <user>")
		}
		frame["kind"] = "Login"
		frame["data"] = map[string]any{"user_id": parts[1]}
	case "join":
		frame["kind"] = "JoinRoom"
		if len(parts) > 1 {
			frame["data"] = map[string]any{"code": strings.ToUpper(parts[1])}
		}
	case "create":
		frame["kind"] = "CreateRoom"
		public := true
		if len(parts) > 1 && parts[1] == "private" {
			public = false
		}
		frame["data"] = map[string]any{"public": public}
	case "start":
		frame["kind"] = "RequestStart"
	case "leave":
		frame["kind"] = "LeaveRoom"
	case "word":
		if len(parts) < 2 {
			return nil, fmt.Errorf("usage: word <guess>")
		}
		frame["kind"] = "SubmitWord"
		frame["data"] = map[string]any{"word": parts[1]}
	case "logout":
		frame["kind"] = "Logout"
	default:
		return nil, fmt.Errorf("unknown command: %s", parts[0])
	}
	return json.Marshal(frame)
}
