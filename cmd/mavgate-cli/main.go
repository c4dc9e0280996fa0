// mavgate-cli is a manual test client: it subscribes to a running
// gateway, renders every envelope and sends requests typed on stdin.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gorilla/websocket"
	"github.com/mattn/go-isatty"

	"github.com/mavgate/mavgate/log2"
)

const usage = `commands, one per line:
- state    request full drone state snapshot
- ping     check the gateway is responsive
- quit     close connection and exit
`

var log = log2.NewStderr(log2.LDebug)

func main() {
	cmdline := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	flagURL := cmdline.String("url", "ws://127.0.0.1:8765", "gateway address")
	cmdline.Parse(os.Args[1:])
	url := *flagURL
	if !strings.Contains(url, "://") {
		url = "ws://" + url
	}

	log.SetFlags(log2.LInteractiveFlags)
	log.Infof("connecting to %s", url)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		log.Fatalf("dial %s: %v", url, err)
	}
	defer conn.Close()
	log.Infof("connected")

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		conn.Close()
		os.Exit(0)
	}()

	send(conn, "GET_STATE")
	go readLoop(conn)

	interactive := isatty.IsTerminal(os.Stdin.Fd())
	if interactive {
		fmt.Print(usage)
	}
	scanner := bufio.NewScanner(os.Stdin)
	for {
		if interactive {
			fmt.Print("> ")
		}
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
		case "state":
			send(conn, "GET_STATE")
		case "ping":
			send(conn, "PING")
		case "quit", "exit":
			return
		default:
			log.Errorf("unknown command '%s'", line)
			if interactive {
				fmt.Print(usage)
			}
		}
	}
}

func send(conn *websocket.Conn, reqType string) {
	b, err := json.Marshal(map[string]string{"type": reqType})
	if err != nil {
		log.Fatalf("marshal: %v", err)
	}
	if err = conn.WriteMessage(websocket.TextMessage, b); err != nil {
		log.Fatalf("write: %v", err)
	}
}

func readLoop(conn *websocket.Conn) {
	d := newDisplay(os.Stdout)
	for {
		_, b, err := conn.ReadMessage()
		if err != nil {
			log.Infof("connection closed: %v", err)
			os.Exit(0)
		}
		d.Handle(b)
	}
}
