package db

import "testing"

func TestMigrateURL(t *testing.T) {
	cases := map[string]string{
		"postgres://u:p@db:5432/booking?sslmode=disable": "pgx5://u:p@db:5432/booking?sslmode=disable",
		"postgresql://u:p@db:5432/booking":               "pgx5://u:p@db:5432/booking",
		"pgx5://u:p@db:5432/booking":                     "pgx5://u:p@db:5432/booking",
	}
	for in, want := range cases {
		if got := MigrateURL(in); got != want {
			t.Fatalf("MigrateURL(%q) = %q, want %q", in, got, want)
		}
	}
}
