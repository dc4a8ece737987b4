package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/swapkart/tradein-backend/internal/middleware"
)

// mint_token prints a bearer token for local API testing. The secret must
// match the server's JWT_SECRET_KEY.
func main() {
	user := flag.String("user", "", "user id (defaults to a fresh uuid)")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	secret := os.Getenv("JWT_SECRET_KEY")
	if secret == "" {
		secret = "defaultsecret"
	}

	userID := uuid.New()
	if *user != "" {
		parsed, err := uuid.Parse(*user)
		if err != nil {
			fmt.Fprintf(os.Stderr, "mint_token: invalid user id: %v\n", err)
			os.Exit(1)
		}
		userID = parsed
	}

	token, err := middleware.SignUserToken(secret, userID, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mint_token: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("user: %s\ntoken: %s\n", userID, token)
}
