package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"
)

// liveValidator accepts WebSocket clients and broadcasts each build/validate
// cycle's result to all of them. One connected client watching "serve" is
// meant to stand in for an editor plugin tailing compile status; there's no
// real shader source to watch here, so it just rebroadcasts the sample
// program's status on an interval driven by the caller.
type liveValidator struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

func newLiveValidator() *liveValidator {
	return &liveValidator{
		clients: make(map[*websocket.Conn]struct{}),
	}
}

func (lv *liveValidator) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := lv.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("shaderirdemo: websocket upgrade failed: %v", err)
		return
	}

	lv.mu.Lock()
	lv.clients[conn] = struct{}{}
	lv.mu.Unlock()

	// Drain and discard anything the client sends; we only push.
	go func() {
		defer lv.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (lv *liveValidator) drop(conn *websocket.Conn) {
	lv.mu.Lock()
	delete(lv.clients, conn)
	lv.mu.Unlock()
	conn.Close()
}

func (lv *liveValidator) broadcast(status string) {
	lv.mu.Lock()
	defer lv.mu.Unlock()
	for conn := range lv.clients {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(status)); err != nil {
			conn.Close()
			delete(lv.clients, conn)
		}
	}
}

// runServe starts an HTTP+WebSocket server on addr and, in further
// goroutines managed by the same errgroup, closes the server once ctx is
// cancelled and pushes a validation-status line to every connected client
// each time tick delivers one. It runs until ctx is cancelled or the server
// fails.
func runServe(ctx context.Context, addr string, tick <-chan string) error {
	lv := newLiveValidator()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", lv.handleWS)

	srv := &http.Server{Addr: addr, Handler: mux}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-ctx.Done()
		return srv.Close()
	})

	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("shaderirdemo: serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case status, ok := <-tick:
				if !ok {
					return nil
				}
				lv.broadcast(status)
			}
		}
	})

	return g.Wait()
}
