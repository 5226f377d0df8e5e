// seed-school provisions a tenant: the school row, its empty dataset
// record (version 1), a console user, and a redis session token for the
// sync client.
//
// Usage (from backend directory):
//   DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... \
//   REDIS_ADDRESS=... go run ./cmd/seed-school -name "Hilltop Academy" \
//     -username hilltop -password 'secret'
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/edspark/schoolhub_backend/config"
	"github.com/edspark/schoolhub_backend/datasync"
	"github.com/edspark/schoolhub_backend/models"
	"github.com/edspark/schoolhub_backend/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func main() {
	name := flag.String("name", "", "school name (required)")
	username := flag.String("username", "", "console user name (required)")
	password := flag.String("password", "", "console user password (required)")
	datasetKey := flag.String("dataset-key", datasync.DefaultDatasetKey, "dataset key to seed")
	flag.Parse()

	if *name == "" || *username == "" || *password == "" {
		flag.Usage()
		os.Exit(2)
	}

	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}
	models.MigrateTable()

	ctx = utils.SetUserIdInContext(ctx, 1)
	ctx = utils.SetUserNameInContext(ctx, "Seed")
	ctx = utils.SetUsernameInContext(ctx, *username)
	ctx = utils.SetSkipTenantScopeInContext(ctx, true)

	var existing models.User
	err := db.WithContext(ctx).Model(&models.User{}).Where("username = ?", *username).First(&existing).Error
	if err == nil {
		fmt.Fprintf(os.Stderr, "user %q already exists (school %s)\n", *username, existing.SchoolId)
		os.Exit(2)
	}
	if err != gorm.ErrRecordNotFound {
		fmt.Fprintf(os.Stderr, "failed to lookup user: %v\n", err)
		os.Exit(1)
	}

	school, err := models.CreateSchool(ctx, &models.NewSchool{Name: *name}, *datasetKey)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create school: %v\n", err)
		os.Exit(1)
	}

	hashed, err := utils.HashPassword(*password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to hash password: %v\n", err)
		os.Exit(1)
	}

	user := models.User{
		Username: *username,
		Name:     *name,
		Password: string(hashed),
		Role:     models.UserRoleSchool,
		SchoolId: school.ID.String(),
		IsActive: utils.NewTrue(),
	}
	if err := db.WithContext(ctx).Create(&user).Error; err != nil {
		fmt.Fprintf(os.Stderr, "failed to create user: %v\n", err)
		os.Exit(1)
	}

	// Session token for the sync client; matches the session middleware's
	// "Token:<token>" lookup.
	token := uuid.NewString()
	if err := config.SetRedisValue("Token:"+token, *username, 30*24*time.Hour); err != nil {
		fmt.Fprintf(os.Stderr, "failed to store session token: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("school %s (%s) seeded\n", school.Name, school.ID)
	fmt.Printf("session token: %s\n", token)
}
