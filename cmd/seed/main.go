package main

import (
	"log"
	"log/slog"
	"time"

	"bounce-service/internal/config"
	"bounce-service/internal/database"
	"bounce-service/internal/models"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	slog.Info("Starting database seeding...")

	db, err := database.NewPostgresConnection(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal("Migration failed:", err)
	}
	slog.Info("Database ready")

	users := seedUsers(db)
	seedFollows(db, users)
	seedBounces(db, users)

	slog.Info("Seeding completed")
}

func seedUsers(db *gorm.DB) []models.User {
	passcode, _ := bcrypt.GenerateFromPassword([]byte("123456"), bcrypt.DefaultCost)

	seeds := []models.User{
		{Email: "admin@bounce.app", Nickname: "admin", Passcode: string(passcode), IsAdmin: true},
		{Email: "ana@bounce.app", Nickname: "ana", Passcode: string(passcode), Bio: "art week every week"},
		{Email: "ben@bounce.app", Nickname: "ben", Passcode: string(passcode), Bio: "wynwood regular"},
		{Email: "cleo@bounce.app", Nickname: "cleo", Passcode: string(passcode)},
		{Email: "dre@bounce.app", Nickname: "dre", Passcode: string(passcode), Bio: "always at the beach"},
	}

	var users []models.User
	for _, seed := range seeds {
		user := seed
		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}},
			DoNothing: true,
		}).Create(&user).Error
		if err != nil {
			slog.Warn("User seed failed", "email", seed.Email, "error", err)
			continue
		}
		if user.ID == 0 {
			// Already existed; fetch the row.
			db.Where("email = ?", seed.Email).First(&user)
		}
		users = append(users, user)
		slog.Info("Seeded user", "email", user.Email, "id", user.ID)
	}
	return users
}

func seedFollows(db *gorm.DB, users []models.User) {
	if len(users) < 5 {
		return
	}

	pairs := [][2]int{{1, 2}, {2, 1}, {1, 3}, {3, 4}, {4, 1}, {2, 4}}
	for _, p := range pairs {
		follow := models.Follow{
			FollowerID:  users[p[0]].ID,
			FollowingID: users[p[1]].ID,
		}
		err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&follow).Error
		if err != nil {
			slog.Warn("Follow seed failed", "error", err)
		}
	}
	slog.Info("Seeded follows", "count", len(pairs))
}

func seedBounces(db *gorm.DB, users []models.User) {
	if len(users) < 4 {
		return
	}

	venues := []models.Bounce{
		{
			CreatorID:    users[1].ID,
			VenueName:    "Miami Beach Convention Center",
			VenueAddress: "1901 Convention Center Dr, Miami Beach",
			Latitude:     25.7959,
			Longitude:    -80.1347,
			IsNow:        true,
			IsPublic:     true,
			BounceTime:   time.Now(),
			Status:       models.BounceStatusActive,
		},
		{
			CreatorID:    users[2].ID,
			VenueName:    "Wynwood Walls",
			VenueAddress: "2520 NW 2nd Ave, Miami",
			Latitude:     25.8011,
			Longitude:    -80.1995,
			IsPublic:     true,
			BounceTime:   time.Now().Add(4 * time.Hour),
			Status:       models.BounceStatusActive,
		},
		{
			CreatorID:  users[3].ID,
			VenueName:  "Club Space",
			Latitude:   25.7846,
			Longitude:  -80.1955,
			BounceTime: time.Now().Add(8 * time.Hour),
			Status:     models.BounceStatusActive,
		},
	}

	for i := range venues {
		bounce := venues[i]
		if err := db.Create(&bounce).Error; err != nil {
			slog.Warn("Bounce seed failed", "venue", bounce.VenueName, "error", err)
			continue
		}
		attendee := models.BounceAttendee{BounceID: bounce.ID, UserID: bounce.CreatorID}
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&attendee).Error; err != nil {
			slog.Warn("Attendee seed failed", "error", err)
		}
		slog.Info("Seeded bounce", "venue", bounce.VenueName, "id", bounce.ID)
	}
}
