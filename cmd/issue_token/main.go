package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/skillforge-backend/internal/pkg/envutil"
	"github.com/yungbote/skillforge-backend/internal/pkg/logger"
	"github.com/yungbote/skillforge-backend/internal/services"
)

// issue_token signs a development access token with JWT_SECRET_KEY.
func main() {
	var user string
	var ttl time.Duration
	flag.StringVar(&user, "user", "", "user id to put in the sub claim (random when empty)")
	flag.DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	flag.Parse()

	userID := uuid.New()
	if s := strings.TrimSpace(user); s != "" {
		id, err := uuid.Parse(s)
		if err != nil || id == uuid.Nil {
			fmt.Printf("invalid -user %q\n", s)
			os.Exit(2)
		}
		userID = id
	}

	log, err := logger.New("production")
	if err != nil {
		fmt.Printf("init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	auth, err := services.NewAuthService(log, envutil.String("JWT_SECRET_KEY", ""))
	if err != nil {
		fmt.Printf("init auth: %v\n", err)
		os.Exit(1)
	}
	token, err := auth.IssueToken(userID, ttl)
	if err != nil {
		fmt.Printf("issue token: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "user_id=%s expires_in=%s\n", userID, ttl)
	fmt.Println(token)
}
