// Command token mints a development JWT for an actor id.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/linskybing/gigdesk/internal/api/middleware"
	"github.com/linskybing/gigdesk/internal/config"
	"github.com/linskybing/gigdesk/pkg/response"
	flag "github.com/spf13/pflag"
)

func main() {
	userID := flag.StringP("user", "u", "", "actor id (uuid); a new one is generated when empty")
	username := flag.StringP("name", "n", "", "display name stored in the token")
	ttl := flag.DurationP("ttl", "t", 0, "token lifetime (defaults to TOKEN_TTL)")
	asJSON := flag.Bool("json", false, "print token, user id and expiry as JSON")
	flag.Parse()

	config.LoadConfig()
	middleware.Init()

	id := uuid.New()
	if *userID != "" {
		parsed, err := uuid.Parse(*userID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid --user %q: %v\n", *userID, err)
			os.Exit(2)
		}
		id = parsed
	}
	if *ttl <= 0 {
		*ttl = config.TokenTTL
	}

	token, err := middleware.GenerateToken(id, *username, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sign token: %v\n", err)
		os.Exit(1)
	}

	if !*asJSON {
		fmt.Println(token)
		return
	}
	_ = json.NewEncoder(os.Stdout).Encode(response.TokenResponse{
		Token:     token,
		UserID:    id.String(),
		ExpiresIn: int64(ttl.Seconds()),
	})
}
