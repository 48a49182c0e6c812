package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/conductionnl/balance-service/internal/auth"
)

// token mints a client-application JWT for calling the API, signed with
// the same secret the server validates against.
func main() {
	clientID := flag.String("client-id", "", "client application identifier")
	name := flag.String("name", "", "client display name")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		slog.Error("JWT_SECRET is required")
		os.Exit(1)
	}
	if *clientID == "" {
		slog.Error("-client-id is required")
		os.Exit(1)
	}

	token, err := auth.GenerateToken(*clientID, *name, secret, *ttl)
	if err != nil {
		slog.Error("failed to generate token", "error", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
