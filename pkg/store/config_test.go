package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "valid config",
			cfg: Config{
				Host: "localhost", Port: 5432, User: "test", Password: "test",
				Database: "test", SSLMode: "disable", MaxConns: 10, MinConns: 2,
			},
			wantErr: false,
		},
		{
			name:    "missing password",
			cfg:     Config{Host: "localhost", Port: 5432, User: "test", Database: "test", MaxConns: 10},
			wantErr: true,
		},
		{
			name:    "min conns exceed max conns",
			cfg:     Config{Host: "localhost", Port: 5432, User: "test", Password: "test", Database: "test", MaxConns: 5, MinConns: 10},
			wantErr: true,
		},
		{
			name:    "zero max conns",
			cfg:     Config{Host: "localhost", Port: 5432, User: "test", Password: "test", Database: "test", MaxConns: 0},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_DSN(t *testing.T) {
	cfg := Config{Host: "db.internal", Port: 5433, User: "u", Password: "p", Database: "d", SSLMode: "require"}
	assert.Equal(t, "host=db.internal port=5433 user=u password=p dbname=d sslmode=require", cfg.DSN())
}
