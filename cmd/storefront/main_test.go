package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildDSN(t *testing.T) {
	env := func(vars map[string]string) func(string) string {
		return func(k string) string { return vars[k] }
	}

	tests := []struct {
		name string
		vars map[string]string
		want string
	}{
		{
			name: "explicit DSN wins",
			vars: map[string]string{"DB_DSN": " host=db.prod user=app ", "DB_HOST": "ignored"},
			want: "host=db.prod user=app",
		},
		{
			name: "defaults",
			vars: map[string]string{},
			want: "host=localhost user=postgres password=postgres dbname=storefront port=5432 sslmode=disable",
		},
		{
			name: "discrete vars",
			vars: map[string]string{
				"DB_HOST": "db", "DB_USER": "shop", "DB_PASSWORD": "s3cret",
				"DB_NAME": "shopdb", "DB_PORT": "5433", "DB_SSLMODE": "require",
			},
			want: "host=db user=shop password=s3cret dbname=shopdb port=5433 sslmode=require",
		},
		{
			name: "POSTGRES_* fallbacks",
			vars: map[string]string{"POSTGRES_USER": "pg", "POSTGRES_PASSWORD": "pw", "POSTGRES_DB": "pgdb"},
			want: "host=localhost user=pg password=pw dbname=pgdb port=5432 sslmode=disable",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, buildDSN(env(tt.vars)))
		})
	}
}
