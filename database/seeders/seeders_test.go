package seeders_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/storefront/app/repositories"
	_ "github.com/shashiranjanraj/storefront/database/migrations"
	"github.com/shashiranjanraj/storefront/database/seeders"
	"github.com/shashiranjanraj/storefront/pkg/database"
	"github.com/shashiranjanraj/storefront/pkg/migration"
)

func TestRunAllIsIdempotent(t *testing.T) {
	db, err := database.OpenMemory(t.Name())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	require.NoError(t, migration.New(db).Quiet().Run())

	ctx := context.Background()
	var out bytes.Buffer
	require.NoError(t, seeders.RunAll(ctx, db, &out))
	require.NoError(t, seeders.RunAll(ctx, db, &out))

	n, err := repositories.NewProductRepository(db).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
	assert.Contains(t, out.String(), "Running seeder: products")
}
