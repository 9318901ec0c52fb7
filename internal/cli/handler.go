// Package cli provides an interactive read-eval-print loop for
// kvs-client, adapted from the store's original single-process REPL
// to instead drive a remote server through internal/client (§4.6,
// §6.5).
package cli

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/lskv/lskv/internal/client"
)

// Handler manages the interactive command loop for kvs-client.
type Handler struct {
	client  *client.Client
	scanner *bufio.Scanner
}

// NewHandler creates a new CLI handler targeting the given client.
func NewHandler(c *client.Client) *Handler {
	return &Handler{
		client:  c,
		scanner: bufio.NewScanner(os.Stdin),
	}
}

// Run starts the interactive command loop, processing user input until
// an exit command is received or an error occurs.
func (h *Handler) Run() error {
	fmt.Println("kvs-client - connected to", h.client.Addr)
	fmt.Println("Commands: SET <key> <value>, GET <key>, RM <key>, EXIT")
	fmt.Print("> ")

	for h.scanner.Scan() {
		line := strings.TrimSpace(h.scanner.Text())
		if line == "" {
			fmt.Print("> ")
			continue
		}

		parts := strings.Fields(line)
		command := strings.ToUpper(parts[0])

		switch command {
		case "SET":
			h.handleSet(parts)
		case "GET":
			h.handleGet(parts)
		case "RM", "DELETE":
			h.handleRemove(parts)
		case "EXIT", "QUIT":
			slog.Info("cli: shutdown requested by user")
			fmt.Println("Goodbye!")
			return nil
		default:
			slog.Warn("cli: unknown command received", "command", command)
			fmt.Printf("Unknown command: %s\n", command)
			fmt.Println("Commands: SET <key> <value>, GET <key>, RM <key>, EXIT")
		}

		fmt.Print("> ")
	}

	if err := h.scanner.Err(); err != nil {
		return fmt.Errorf("error reading input: %w", err)
	}
	return nil
}

func (h *Handler) handleSet(parts []string) {
	if len(parts) < 3 {
		fmt.Println("Usage: SET <key> <value>")
		return
	}

	key := parts[1]
	value := strings.Join(parts[2:], " ")
	if err := h.client.Set(key, value); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Println("OK")
}

func (h *Handler) handleGet(parts []string) {
	if len(parts) < 2 {
		fmt.Println("Usage: GET <key>")
		return
	}

	key := parts[1]
	value, ok, err := h.client.Get(key)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if !ok {
		fmt.Println("Key not found")
		return
	}
	fmt.Println(value)
}

func (h *Handler) handleRemove(parts []string) {
	if len(parts) < 2 {
		fmt.Println("Usage: RM <key>")
		return
	}

	key := parts[1]
	if err := h.client.Remove(key); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Println("OK")
}
