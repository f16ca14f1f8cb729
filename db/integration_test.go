//go:build integration

package db_test

import (
	"context"
	"testing"
	"time"

	"github.com/sidhant-sriv/spots-api/config"
	"github.com/sidhant-sriv/spots-api/db"
	"github.com/sidhant-sriv/spots-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const postgresImage = "postgres:16-alpine"

func startPostgres(t *testing.T) config.DatabaseConfig {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        postgresImage,
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "spots",
			"POSTGRES_PASSWORD": "spots",
			"POSTGRES_DB":       "spots",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("terminate postgres container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	return config.DatabaseConfig{
		Host:         host,
		Port:         port.Port(),
		User:         "spots",
		Password:     "spots",
		Name:         "spots",
		SSLMode:      "disable",
		TimeZone:     "UTC",
		MaxOpenConns: 5,
		MaxIdleConns: 2,
	}
}

func TestPostgresMigrateSeedAndCascade(t *testing.T) {
	cfg := startPostgres(t)

	DB, err := db.Connect(cfg)
	require.NoError(t, err)
	require.NoError(t, db.MakeMigration(DB))
	require.NoError(t, db.Seed(DB))

	var spot models.Spot
	require.NoError(t, DB.Where("name = ?", "Cozy Cabin").First(&spot).Error)

	// the foreign keys alone must cascade on postgres
	require.NoError(t, DB.Delete(&models.Spot{}, spot.ID).Error)

	var n int64
	require.NoError(t, DB.Model(&models.Booking{}).Where("spot_id = ?", spot.ID).Count(&n).Error)
	assert.Zero(t, n)
	require.NoError(t, DB.Model(&models.Review{}).Where("spot_id = ?", spot.ID).Count(&n).Error)
	assert.Zero(t, n)
	require.NoError(t, DB.Model(&models.SpotImage{}).Where("spot_id = ?", spot.ID).Count(&n).Error)
	assert.Zero(t, n)
	require.NoError(t, DB.Model(&models.ReviewImage{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)
}
