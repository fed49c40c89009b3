// Command usertier assigns a subscription tier to a user. Changes take
// effect on the API within the tier cache window.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"colorbook/internal/quota"
)

func main() {
	var (
		idFlag     string
		tierFlag   string
		resetUsage bool
	)

	flag.StringVar(&idFlag, "id", "", "user ID to update")
	flag.StringVar(&tierFlag, "tier", "premium", "tier to assign (free, premium)")
	flag.BoolVar(&resetUsage, "reset-usage", false, "also clear today's usage counter")
	flag.Parse()

	userID := strings.TrimSpace(idFlag)
	if userID == "" {
		exitWithError(errors.New("-id is required"))
	}
	tier := quota.Tier(strings.ToLower(strings.TrimSpace(tierFlag)))
	switch tier {
	case quota.TierFree, quota.TierPremium:
	default:
		exitWithError(fmt.Errorf("unsupported tier %q", tierFlag))
	}

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		exitWithError(errors.New("DATABASE_URL is required"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		exitWithError(fmt.Errorf("failed to connect database: %w", err))
	}
	defer pool.Close()

	upsert := `
INSERT INTO users (id, tier)
VALUES ($1, $2)
ON CONFLICT (id) DO UPDATE SET tier = EXCLUDED.tier;
`
	if _, err := pool.Exec(ctx, upsert, userID, string(tier)); err != nil {
		exitWithError(fmt.Errorf("failed to update tier: %w", err))
	}

	if resetUsage {
		day := time.Now().UTC().Format("2006-01-02")
		if _, err := pool.Exec(ctx, `DELETE FROM usage WHERE user_id = $1 AND day = $2;`, userID, day); err != nil {
			exitWithError(fmt.Errorf("failed to reset usage: %w", err))
		}
	}

	fmt.Printf("User %s updated to tier %s\n", userID, tier)
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
