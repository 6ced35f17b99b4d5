package migrations

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDriverURL(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"postgres://u:p@localhost:5432/db?sslmode=disable", "pgx5://u:p@localhost:5432/db?sslmode=disable", false},
		{"postgresql://u:p@db/app", "pgx5://u:p@db/app", false},
		{"pgx5://u:p@db/app", "pgx5://u:p@db/app", false},
		{"mysql://u:p@db/app", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := DriverURL(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	ups, err := fs.Glob(sqlFiles, "sql/*.up.sql")
	require.NoError(t, err)
	downs, err := fs.Glob(sqlFiles, "sql/*.down.sql")
	require.NoError(t, err)

	require.NotEmpty(t, ups)
	assert.Equal(t, len(ups), len(downs))

	body, err := fs.ReadFile(sqlFiles, "sql/000001_init.up.sql")
	require.NoError(t, err)
	assert.Contains(t, string(body), "account_verification_keys")
}
