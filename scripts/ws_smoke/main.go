package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/birdroom/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	base := flag.String("addr", "ws://localhost:8000/19", "relay base URL")
	user := flag.String("user", "tester", "user label")
	room := flag.Int64("room", 1, "room id")
	text := flag.String("text", "hello from smoke test", "message text to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := probe(ctx, *base+"/ws/ping"); err != nil {
		return err
	}

	conn, _, err := websocket.Dial(ctx, fmt.Sprintf("%s/ws/room/%d/user/%s", *base, *room, url.PathEscape(*user)), nil)
	if err != nil {
		return fmt.Errorf("dial room: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	if err := wsjson.Write(ctx, conn, proto.Inbound{Message: text}); err != nil {
		return fmt.Errorf("send: %w", err)
	}

	var out proto.Outbound
	if err := wsjson.Read(ctx, conn, &out); err != nil {
		return fmt.Errorf("read: %w", err)
	}
	fmt.Printf("Broadcast: room=%d user=%s message=%q\n", *room, out.User, out.Message)
	return nil
}

func probe(ctx context.Context, pingURL string) error {
	conn, _, err := websocket.Dial(ctx, pingURL, nil)
	if err != nil {
		return fmt.Errorf("dial ping: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	for _, token := range []string{"serve", "ping"} {
		if err := conn.Write(ctx, websocket.MessageText, []byte(token)); err != nil {
			return fmt.Errorf("send %s: %w", token, err)
		}
	}

	_, data, err := conn.Read(ctx)
	if err != nil {
		return fmt.Errorf("read pong: %w", err)
	}
	fmt.Printf("Liveness: %s\n", data)
	return nil
}
