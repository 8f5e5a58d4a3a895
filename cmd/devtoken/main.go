// Command devtoken prints a signed bearer token for local testing.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Ahmat91/Ecommerce-ALX/internal/auth"
	"github.com/Ahmat91/Ecommerce-ALX/internal/config"
	"github.com/Ahmat91/Ecommerce-ALX/internal/entity"
)

func main() {
	user := flag.String("user", "demo-user", "user id placed in the sub claim")
	staff := flag.Bool("staff", false, "grant staff access")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "err", err)
		os.Exit(1)
	}

	token, err := auth.NewAuthenticator(cfg.JWTSecret, cfg.JWTIssuer).
		Issue(entity.Identity{UserID: *user, IsStaff: *staff}, *ttl)
	if err != nil {
		slog.Error("Failed to issue token", "err", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
