package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/jrigden/muckamuck/internal/auth"
	"github.com/jrigden/muckamuck/internal/fake"
	"github.com/jrigden/muckamuck/internal/metrics"
	"github.com/jrigden/muckamuck/internal/repository"
	"github.com/jrigden/muckamuck/internal/retry"
	"github.com/jrigden/muckamuck/internal/service"
	"github.com/jrigden/muckamuck/internal/snapshot"
)

type seededUser struct {
	UUID     string   `json:"uuid"`
	Email    string   `json:"email"`
	Password string   `json:"password"`
	Sites    []string `json:"sites"`
}

type output struct {
	Users  []seededUser `json:"users"`
	RunID  string       `json:"run_id,omitempty"`
	Output string       `json:"output,omitempty"`
}

func main() {
	var (
		databaseURL = flag.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
		outputDir   = flag.String("output", os.Getenv("MUCKAMUCK_OUTPUT_DIRECTORY"), "Snapshot root; empty skips the export")
		users       = flag.Int("n", 3, "Number of users to create")
		sitesPer    = flag.Int("sites", 1, "Sites per user")
		seed        = flag.Uint64("seed", uint64(time.Now().UnixNano()), "Random seed")
		format      = flag.String("format", "plain", "Output format: plain or json")
	)
	flag.Parse()

	if *databaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}
	if *users < 1 || *sitesPer < 0 {
		fmt.Fprintln(os.Stderr, "-n must be positive and -sites non-negative")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := repository.Migrate(ctx, *databaseURL); err != nil {
		fmt.Fprintln(os.Stderr, "migrate database:", err)
		os.Exit(1)
	}

	repo, err := repository.New(ctx, *databaseURL)
	if err != nil {
		fmt.Fprintln(os.Stderr, "connect database:", err)
		os.Exit(1)
	}
	defer repo.Close()

	recorder := metrics.NewNoop()
	userService := service.NewUserService(repo, auth.NewArgon2Hasher(auth.DefaultParams()), recorder)
	siteService := service.NewSiteService(repo, recorder)
	faker := fake.New(*seed)

	out := output{Users: make([]seededUser, 0, *users)}
	for i := 0; i < *users; i++ {
		seeded, err := seedUser(ctx, faker, userService, siteService, *sitesPer)
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
		out.Users = append(out.Users, *seeded)
	}

	if *outputDir != "" {
		runID, err := exportAll(ctx, repo, *outputDir)
		if err != nil {
			fmt.Fprintln(os.Stderr, "export snapshots:", err)
			os.Exit(1)
		}
		out.RunID = runID
		out.Output = *outputDir
	}

	switch strings.ToLower(*format) {
	case "plain":
		for _, u := range out.Users {
			fmt.Printf("%s %s %s\n", u.UUID, u.Email, u.Password)
		}
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
	default:
		fmt.Fprintln(os.Stderr, "invalid format; use plain or json")
		os.Exit(1)
	}
}

func seedUser(ctx context.Context, faker *fake.Faker, users *service.UserService, sites *service.SiteService, sitesPer int) (*seededUser, error) {
	profile := faker.GenerateUser()
	password := faker.GeneratePassword()

	user, err := users.CreateUser(ctx, service.CreateUserInput{
		Email:       profile.Email,
		Password:    password,
		PublicEmail: profile.PublicEmail,
		Name:        profile.Name,
		Bio:         profile.Bio,
		Twitter:     profile.Twitter,
		Facebook:    profile.Facebook,
		Google:      profile.Google,
	})
	if err != nil {
		return nil, fmt.Errorf("create user %s: %w", profile.Email, err)
	}

	seeded := &seededUser{UUID: user.UUID, Email: user.Email, Password: password}
	for j := 0; j < sitesPer; j++ {
		draft := faker.GenerateSite(*user)
		site, err := sites.CreateSite(ctx, service.CreateSiteInput{
			Domain:            draft.Domain,
			Title:             draft.Title,
			Description:       draft.Description,
			Language:          draft.Language,
			SubscriptionLevel: draft.SubscriptionLevel,
			OwnerUUID:         user.UUID,
		})
		if err != nil {
			return nil, fmt.Errorf("create site %s: %w", draft.Domain, err)
		}
		seeded.Sites = append(seeded.Sites, site.UUID)
	}
	return seeded, nil
}

func exportAll(ctx context.Context, repo *repository.Repository, root string) (string, error) {
	resolver, err := snapshot.NewResolver(root)
	if err != nil {
		return "", err
	}
	if err := snapshot.EnsureDir(resolver.Root()); err != nil {
		return "", err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	writer := snapshot.NewWriter(resolver, logger, metrics.NewNoop())
	export := service.NewExportService(repo, writer, nil, retry.DefaultConfig(), logger)

	summary, err := export.ExportAll(ctx)
	if err != nil {
		return "", err
	}
	return summary.RunID, nil
}
