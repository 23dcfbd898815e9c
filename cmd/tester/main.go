package main

// Protocol smoke tester: spins up pairs of bot clients that create, join,
// start and play games against a running server, picking random legal
// cells until somebody wins.

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"math/rand"
	"net"
	"sync"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type cell struct {
	Count  int    `json:"count"`
	Player string `json:"player"`
}

type player struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type gameStateData struct {
	Grid     [][]cell `json:"grid"`
	GameOver bool     `json:"gameOver"`
	Winner   *player  `json:"winner"`
	IsMyTurn bool     `json:"isMyTurn"`
}

func main() {
	var (
		serverAddr  = flag.String("addr", "localhost:4411", "WebSocket server address")
		numGames    = flag.Int("games", 3, "Number of concurrent bot games")
		gridW       = flag.Int("width", 6, "Grid width")
		gridH       = flag.Int("height", 6, "Grid height")
		moveDelayMs = flag.Int("movedelay", 50, "Milliseconds between bot moves")
	)
	flag.Parse()

	wg := &sync.WaitGroup{}
	for i := 0; i < *numGames; i++ {
		wg.Add(1)
		go func(gameNum int) {
			defer wg.Done()
			runGame(*serverAddr, gameNum, *gridW, *gridH, *moveDelayMs)
		}(i)
	}
	wg.Wait()
	log.Println("Tester finished.")
}

func runGame(addr string, gameNum, gridW, gridH, moveDelayMs int) {
	codeChan := make(chan string, 1)

	wg := &sync.WaitGroup{}
	wg.Add(2)
	go func() {
		defer wg.Done()
		hostLoop(addr, gameNum, gridW, gridH, moveDelayMs, codeChan)
	}()
	go func() {
		defer wg.Done()
		joinerLoop(addr, gameNum, moveDelayMs, codeChan)
	}()
	wg.Wait()
}

func hostLoop(addr string, gameNum, gridW, gridH, moveDelayMs int, codeChan chan<- string) {
	conn, err := dial(addr)
	if err != nil {
		log.Printf("[Game %d] host dial error: %v", gameNum, err)
		return
	}
	defer conn.Close()

	send(conn, "create-game", map[string]any{
		"playerName": "host-bot",
		"settings":   map[string]int{"width": gridW, "height": gridH, "maxPlayers": 2},
	})

	var code, myID string
	for code == "" {
		env, err := readEnvelope(conn)
		if err != nil {
			log.Printf("[Game %d] host read error: %v", gameNum, err)
			return
		}
		if env.Type == "game-created" {
			var d struct {
				GameCode string `json:"gameCode"`
				PlayerID string `json:"playerId"`
			}
			if err := json.Unmarshal(env.Data, &d); err != nil {
				log.Printf("[Game %d] bad game-created payload: %v", gameNum, err)
				return
			}
			code = d.GameCode
			myID = d.PlayerID
		}
	}
	log.Printf("[Game %d] created %s", gameNum, code)
	codeChan <- code

	// Wait for the joiner to show up, then kick the game off.
	for {
		env, err := readEnvelope(conn)
		if err != nil {
			log.Printf("[Game %d] host read error: %v", gameNum, err)
			return
		}
		if env.Type == "lobby-update" {
			var d struct {
				Players []player `json:"players"`
			}
			if err := json.Unmarshal(env.Data, &d); err == nil && len(d.Players) >= 2 {
				break
			}
		}
	}
	send(conn, "start-game", map[string]string{"gameCode": code})

	playLoop(conn, gameNum, "host-bot", code, myID, moveDelayMs)
}

func joinerLoop(addr string, gameNum, moveDelayMs int, codeChan <-chan string) {
	code := <-codeChan

	conn, err := dial(addr)
	if err != nil {
		log.Printf("[Game %d] joiner dial error: %v", gameNum, err)
		return
	}
	defer conn.Close()

	send(conn, "join-game", map[string]string{"gameCode": code, "playerName": "join-bot"})
	playLoop(conn, gameNum, "join-bot", code, "", moveDelayMs)
}

func playLoop(conn net.Conn, gameNum int, name, code, myID string, moveDelayMs int) {
	rnd := rand.New(rand.NewSource(time.Now().UnixNano() + int64(gameNum)))

	for {
		env, err := readEnvelope(conn)
		if err != nil {
			log.Printf("[Game %d] %s read error: %v", gameNum, name, err)
			return
		}

		switch env.Type {
		case "game-created", "game-joined":
			var d struct {
				PlayerID string `json:"playerId"`
			}
			if err := json.Unmarshal(env.Data, &d); err == nil {
				myID = d.PlayerID
			}

		case "join-rejected", "error":
			log.Printf("[Game %d] %s rejected: %s", gameNum, name, string(env.Data))
			return

		case "game-state":
			var st gameStateData
			if err := json.Unmarshal(env.Data, &st); err != nil {
				log.Printf("[Game %d] %s bad game-state: %v", gameNum, name, err)
				return
			}
			if st.GameOver {
				winner := "?"
				if st.Winner != nil {
					winner = st.Winner.Name
				}
				log.Printf("[Game %d] over, winner: %s", gameNum, winner)
				send(conn, "leave-game", map[string]string{"gameCode": code})
				return
			}
			if st.IsMyTurn {
				time.Sleep(time.Duration(moveDelayMs) * time.Millisecond)
				x, y, ok := pickMove(rnd, st.Grid, myID)
				if !ok {
					log.Printf("[Game %d] %s has no legal move", gameNum, name)
					return
				}
				send(conn, "make-move", map[string]any{"gameCode": code, "x": x, "y": y})
			}
		}
	}
}

// pickMove chooses a random empty or self-owned cell.
func pickMove(rnd *rand.Rand, grid [][]cell, myID string) (int, int, bool) {
	type pos struct{ x, y int }
	var legal []pos
	for x := range grid {
		for y := range grid[x] {
			if grid[x][y].Player == "" || grid[x][y].Player == myID {
				legal = append(legal, pos{x, y})
			}
		}
	}
	if len(legal) == 0 {
		return 0, 0, false
	}
	p := legal[rnd.Intn(len(legal))]
	return p.x, p.y, true
}

func dial(addr string) (net.Conn, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, _, err := ws.Dial(ctx, "ws://"+addr)
	return conn, err
}

func send(conn net.Conn, msgType string, data any) {
	payload, err := json.Marshal(map[string]any{"type": msgType, "data": data})
	if err != nil {
		log.Printf("marshal error: %v", err)
		return
	}
	if err := wsutil.WriteClientText(conn, payload); err != nil {
		log.Printf("write error: %v", err)
	}
}

// readEnvelope returns the next non-ping message, answering pings along
// the way.
func readEnvelope(conn net.Conn) (envelope, error) {
	for {
		data, err := wsutil.ReadServerText(conn)
		if err != nil {
			return envelope{}, err
		}
		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			return envelope{}, err
		}
		if env.Type == "ping" {
			send(conn, "pong", nil)
			continue
		}
		return env, nil
	}
}
