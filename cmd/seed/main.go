package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"statues/internal/config"
	"statues/internal/db"
	"statues/internal/logging"
	"statues/internal/model"
	"statues/internal/repository"
	"statues/internal/service"
)

// SeedStatueData is one catalog entry in a seed source.
type SeedStatueData struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

// sampleStatues is the starter catalog used when no source is given.
var sampleStatues = []SeedStatueData{
	{Name: "Sculpture 1", Description: "A group sculpture made from fabric and clay.", Image: "20240906_113250.jpg"},
	{Name: "Sculpture 2", Description: "A standing figure that represents unity and strength.", Image: "20240906_113244.jpg"},
	{Name: "Sculpture 3", Description: "Nature-inspired relief, showing movement and flow.", Image: "20240906_113324.jpg"},
	{Name: "Sculpture 4", Description: "A tall sculpture expressing human connection.", Image: "20240906_113341.jpg"},
	{Name: "Sculpture 5", Description: "An arrangement of faces showing different emotions.", Image: "20240906_113257.jpg"},
}

func main() {
	source := flag.String("source", "", "JSON file or http(s) URL with statues; defaults to the built-in sample")
	flag.Parse()

	cfg := config.Load()
	logging.Configure(cfg.LogLevel, cfg.IsProduction())
	logrus.Info("starting seed")

	gormDB, err := db.NewMySQL(cfg.MySQLDSN, db.PoolOptions{MaxOpenConns: 2, MaxIdleConns: 1})
	if err != nil {
		logrus.Fatalf("failed to connect to database: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	// Run migrations to ensure schema is up to date
	if err := db.Migrate(ctx, gormDB); err != nil {
		logrus.Fatalf("failed to run migrations: %v", err)
	}

	statues, err := loadStatues(ctx, *source)
	if err != nil {
		logrus.Fatalf("failed to load statues: %v", err)
	}

	created, updated, err := seedStatues(ctx, repository.NewStatueRepository(gormDB), statues)
	if err != nil {
		logrus.Fatalf("failed to seed statues: %v", err)
	}
	logrus.WithFields(logrus.Fields{"created": created, "updated": updated}).Info("statues seeded")

	if cfg.AdminPassword == "" {
		logrus.Warn("ADMIN_PASSWORD not set, skipping admin account")
		return
	}
	authService := service.NewAuthService(repository.NewUserRepository(gormDB), nil)
	admin, createdAdmin, err := authService.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword)
	if err != nil {
		logrus.Fatalf("failed to seed admin: %v", err)
	}
	logrus.WithFields(logrus.Fields{"username": admin.Username, "created": createdAdmin}).Info("admin account ready")
}

// loadStatues reads the seed catalog from a URL, a file, or the built-in sample.
func loadStatues(ctx context.Context, source string) ([]SeedStatueData, error) {
	if source == "" {
		return sampleStatues, nil
	}

	var body []byte
	var err error
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		body, err = fetchStatues(ctx, source)
	} else {
		body, err = os.ReadFile(source)
	}
	if err != nil {
		return nil, err
	}

	var statues []SeedStatueData
	if err := json.Unmarshal(body, &statues); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	return statues, nil
}

func fetchStatues(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch statues: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("source returned status code: %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// seedStatues creates missing statues and refreshes existing ones, matching by name.
func seedStatues(ctx context.Context, repo repository.StatueRepository, statues []SeedStatueData) (created int, updated int, err error) {
	for _, item := range statues {
		name := strings.TrimSpace(item.Name)
		if name == "" || strings.TrimSpace(item.Description) == "" {
			logrus.WithField("name", item.Name).Warn("skipping statue without name or description")
			continue
		}
		var image *string
		if item.Image != "" {
			img := item.Image
			image = &img
		}

		existing, err := repo.FindByName(ctx, name)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return created, updated, fmt.Errorf("error checking statue %q: %w", name, err)
		}

		if existing != nil {
			existing.Description = item.Description
			existing.Image = image
			if err := repo.Update(ctx, existing); err != nil {
				return created, updated, fmt.Errorf("error updating statue %q: %w", name, err)
			}
			updated++
			continue
		}

		statue := &model.Statue{Name: name, Description: item.Description, Image: image}
		if err := repo.Create(ctx, statue); err != nil {
			return created, updated, fmt.Errorf("error creating statue %q: %w", name, err)
		}
		created++
	}
	return created, updated, nil
}
