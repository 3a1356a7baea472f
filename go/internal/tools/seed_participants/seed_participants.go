package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"

	"github.com/mcdev12/roleta/go/internal/dbconfig"
	"github.com/mcdev12/roleta/go/internal/giveaway"
	"github.com/mcdev12/roleta/go/internal/models"
)

// Participant is one entry of the seed file
type Participant struct {
	Platform       models.Platform `json:"platform"`
	PlatformUserID string          `json:"platform_user_id"`
	DisplayName    string          `json:"display_name"`
}

func main() {
	giveawayID := flag.Int64("giveaway", 0, "giveaway to seed")
	path := flag.String("file", "go/internal/assets/participants.json", "participants JSON file")
	publish := flag.Bool("publish", false, "publish a fresh snapshot over NATS after seeding")
	flag.Parse()

	if *giveawayID <= 0 {
		fmt.Fprintln(os.Stderr, "-giveaway is required")
		os.Exit(2)
	}

	ctx := context.Background()

	// 1) Load participants
	data, err := os.ReadFile(*path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read %s: %v\n", *path, err)
		os.Exit(1)
	}
	var participants []Participant
	if err := json.Unmarshal(data, &participants); err != nil {
		fmt.Fprintf(os.Stderr, "unmarshal participants: %v\n", err)
		os.Exit(1)
	}

	// 2) Connect to DB
	cfg := dbconfig.NewConfigFromEnv()
	pool, err := cfg.Pool(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect error: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	// 3) Upsert participants; a repeat entry only refreshes last_seen
	inserted, updated, skipped, errs := seed(ctx, pool, *giveawayID, participants)
	fmt.Printf("participants: total=%d inserted=%d updated=%d skipped=%d errors=%d\n",
		len(participants), inserted, updated, skipped, errs)

	// 4) Let connected viewers see the new entries
	if *publish {
		if err := publishState(ctx, cfg, *giveawayID); err != nil {
			fmt.Fprintf(os.Stderr, "publish state: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("state published")
	}

	if errs > 0 {
		os.Exit(1)
	}
}

func seed(ctx context.Context, pool *pgxpool.Pool, giveawayID int64, participants []Participant) (inserted, updated, skipped, errs int) {
	for _, p := range participants {
		name := strings.TrimSpace(p.DisplayName)
		if !p.Platform.Valid() || p.PlatformUserID == "" || name == "" {
			fmt.Fprintf(os.Stderr, "skip invalid participant %+v\n", p)
			skipped++
			continue
		}

		var fresh bool
		err := pool.QueryRow(ctx, `
            INSERT INTO participants (giveaway_id, platform, platform_user_id, display_name)
            VALUES ($1, $2, $3, $4)
            ON CONFLICT (giveaway_id, platform, platform_user_id)
            DO UPDATE SET display_name = EXCLUDED.display_name, last_seen = now()
            RETURNING (xmax = 0)
        `, giveawayID, string(p.Platform), p.PlatformUserID, name).Scan(&fresh)
		if err != nil {
			fmt.Fprintf(os.Stderr, "upsert %s/%s: %v\n", p.Platform, p.PlatformUserID, err)
			errs++
			continue
		}
		if fresh {
			inserted++
		} else {
			updated++
		}
	}
	return inserted, updated, skipped, errs
}

func publishState(ctx context.Context, cfg dbconfig.Config, giveawayID int64) error {
	db, err := cfg.Open(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	natsCfg := giveaway.DefaultNATSConfig()
	if url := os.Getenv("NATS_URL"); url != "" {
		natsCfg.URL = url
	}
	if subject := os.Getenv("NATS_SUBJECT"); subject != "" {
		natsCfg.Subject = subject
	}
	nc, err := giveaway.ConnectNATS(natsCfg)
	if err != nil {
		return err
	}
	defer nc.Close()

	app := giveaway.NewApp(giveaway.NewRepository(db), giveaway.NewNATSPublisher(nc, natsCfg.Subject), clockwork.NewRealClock())
	if err := app.PublishState(ctx, giveawayID); err != nil {
		return err
	}
	return nc.Flush()
}
