package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"proai/internal/catalog"
	"proai/internal/infra"
	"proai/internal/meter"
	"proai/internal/registry"
	"proai/internal/storage"
)

func main() {
	var (
		listFlag    bool
		emailFlag   string
		planFlag    string
		creditsFlag int
		resetFlag   bool
	)

	flag.BoolVar(&listFlag, "list", false, "list registered accounts")
	flag.StringVar(&emailFlag, "email", "", "account email to inspect or update")
	flag.StringVar(&planFlag, "plan", "", "plan to assign (premium)")
	flag.IntVar(&creditsFlag, "credits", 0, "credits to grant on top of the current balance")
	flag.BoolVar(&resetFlag, "reset", false, "force a daily quota reset")
	flag.Parse()

	_ = godotenv.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, cleanup, err := openStore(ctx)
	if err != nil {
		exitWithError(err)
	}
	defer cleanup()

	cat, err := catalog.Load(os.Getenv("CATALOG_PATH"))
	if err != nil {
		exitWithError(err)
	}
	reg := registry.New(store, cat)

	if listFlag {
		emails, err := reg.Emails(ctx)
		if err != nil {
			exitWithError(err)
		}
		for _, email := range emails {
			fmt.Println(email)
		}
		return
	}

	email := strings.TrimSpace(emailFlag)
	if email == "" {
		exitWithError(errors.New("either -list or -email must be provided"))
	}

	account, err := reg.FindByEmail(ctx, email)
	if err != nil {
		exitWithError(fmt.Errorf("failed to load account: %w", err))
	}

	changed := false
	switch strings.ToLower(strings.TrimSpace(planFlag)) {
	case "":
	case "premium":
		account.Profile = meter.Upgrade(account.Profile)
		changed = true
	default:
		exitWithError(fmt.Errorf("unsupported plan %q", planFlag))
	}
	if creditsFlag != 0 {
		next, err := meter.AddCredits(account.Profile, creditsFlag)
		if err != nil {
			exitWithError(err)
		}
		account.Profile = next
		changed = true
	}
	if resetFlag {
		account.Profile = meter.ResetDaily(account.Profile, cat.Categories(), time.Now())
		changed = true
	}

	if changed {
		if err := reg.Save(ctx, account); err != nil {
			exitWithError(fmt.Errorf("failed to save account: %w", err))
		}
	}

	plan := "free"
	if account.Profile.Premium {
		plan = "premium"
	}
	fmt.Printf("%s (%s) plan=%s credits=%d last_reset=%s\n",
		account.Email, account.Name, plan, account.Profile.Credits, account.Profile.LastReset)
	for _, c := range cat.Categories() {
		if used := account.Profile.UsedToday(c.ID); used > 0 {
			fmt.Printf("  %s used_today=%d\n", c.ID, used)
		}
	}
}

func openStore(ctx context.Context) (storage.DurableStore, func(), error) {
	driver := strings.TrimSpace(os.Getenv("STORE_DRIVER"))
	if driver == "" {
		driver = "file"
	}
	switch driver {
	case "file":
		dataDir := os.Getenv("DATA_DIR")
		if dataDir == "" {
			dataDir = "./data"
		}
		store, err := storage.NewFileStore(dataDir)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	case "postgres":
		dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
		if dbURL == "" {
			return nil, nil, errors.New("DATABASE_URL is required")
		}
		pool, err := infra.NewDBPool(ctx, &infra.Config{DatabaseURL: dbURL})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect database: %w", err)
		}
		store, err := storage.NewPostgresStore(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		return store, pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported STORE_DRIVER %q", driver)
	}
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
