package main

import (
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"go-trading-post/internal/model"
	"go-trading-post/pkg/jwt"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

// issue-token mints a bearer token for an operator of the trading post API.
//
//	go run ./cmd/issue-token -name "Quartermaster" -ttl 24h
//	go run ./cmd/issue-token -name "Clerk" -read-only
//	go run ./cmd/issue-token -name "Buyer" -privileges transaction:create,good:view
func main() {
	// 1. Load env so JWT_SECRET matches the API
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, relying on system env")
	}

	name := flag.String("name", "operator", "operator name recorded as the actor of every change")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	readOnly := flag.Bool("read-only", false, "grant only the :view privileges")
	privileges := flag.String("privileges", "", "comma separated privilege codes (default: all)")
	flag.Parse()

	// 2. Pick privileges
	granted := model.PrivilegeCodes()
	switch {
	case *privileges != "":
		granted = parsePrivileges(*privileges)
	case *readOnly:
		granted = model.ReadOnlyPrivilegeCodes()
	}

	// 3. Sign
	token, err := jwt.GenerateToken(uuid.New(), *name, granted, *ttl)
	if err != nil {
		log.Fatalf("❌ Failed to sign token: %v", err)
	}

	log.Printf("✅ Token for %s (%s), valid %s", *name, strings.Join(granted, ", "), *ttl)
	fmt.Println(token)
}

func parsePrivileges(raw string) []string {
	known := make(map[string]bool)
	for _, code := range model.PrivilegeCodes() {
		known[code] = true
	}

	var codes []string
	for _, code := range strings.Split(raw, ",") {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		if !known[code] {
			log.Fatalf("❌ Unknown privilege %q", code)
		}
		codes = append(codes, code)
	}
	return codes
}
