package server

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/conversa-chat/conversa/pkg/model"
	"github.com/conversa-chat/conversa/pkg/store"
)

// Config holds server configuration.
type Config struct {
	Addr            string // TCP bind address (e.g. ":12345")
	WSAddr          string // HTTP bind address for the WebSocket gateway (empty = disabled)
	MetricsAddr     string // HTTP bind address for /metrics endpoint (empty = disabled)
	DBPath          string // SQLite database path (moderation state)
	AdminSecret     string // shared admin secret; empty disables admin logins
	AutoCreateRooms bool   // create absent rooms on ENTRAR_SALA (legacy behavior)
	RoomsFile       string // YAML file defining rooms to create on startup

	// CLI-only actions (run and exit)
	ExportBans bool   // export the ban list as YAML and exit
	Unban      string // lift the ban on this username and exit
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Addr:            ":12345",
		MetricsAddr:     ":9602",
		DBPath:          "conversa.db",
		AutoCreateRooms: true,
	}
}

// ApplyEnv overrides config fields from CONVERSA_* environment variables.
// cmd/server loads a .env file first, so deployments can keep the admin
// secret out of the command line.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("CONVERSA_ADDR"); v != "" {
		c.Addr = v
	}
	if v := os.Getenv("CONVERSA_WS_ADDR"); v != "" {
		c.WSAddr = v
	}
	if v := os.Getenv("CONVERSA_METRICS_ADDR"); v != "" {
		c.MetricsAddr = v
	}
	if v := os.Getenv("CONVERSA_DB"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("CONVERSA_ADMIN_SECRET"); v != "" {
		c.AdminSecret = v
	}
}

// RoomYAML represents a room in the YAML bootstrap config.
type RoomYAML struct {
	Name string `yaml:"name"`
}

// RoomsConfig is the top-level YAML config for rooms.
type RoomsConfig struct {
	Rooms []RoomYAML `yaml:"rooms"`
}

// LoadRoomsFromYAML reads a rooms YAML file and creates the listed rooms.
// Rooms that already exist are left alone. Seeded rooms follow the normal
// lifecycle: once a member departs and leaves one empty, it is deleted.
func LoadRoomsFromYAML(path string, rr *RoomRegistry) error {
	data, err := os.ReadFile(path) //nolint:gosec // path from user-provided CLI config
	if err != nil {
		return fmt.Errorf("read rooms config: %w", err)
	}
	return ImportRoomsFromYAML(data, rr)
}

// ImportRoomsFromYAML parses YAML data and creates the listed rooms.
func ImportRoomsFromYAML(data []byte, rr *RoomRegistry) error {
	var cfg RoomsConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("parse rooms config: %w", err)
	}

	created := 0
	for _, room := range cfg.Rooms {
		if err := model.ValidateRoomName(room.Name); err != nil {
			slog.Error("invalid room in config", "name", room.Name, "err", err)
			continue
		}
		if err := rr.Create(room.Name); err != nil {
			slog.Debug("room from config already exists", "name", room.Name)
			continue
		}
		created++
	}

	slog.Info("imported rooms from YAML", "count", created)
	return nil
}

// BanYAML represents a ban in YAML export.
type BanYAML struct {
	Username  string `yaml:"username"`
	Reason    string `yaml:"reason,omitempty"`
	BannedBy  string `yaml:"banned_by,omitempty"`
	ExpiresAt string `yaml:"expires_at,omitempty"`
	CreatedAt string `yaml:"created_at"`
}

// BansExport is the top-level YAML for ban export.
type BansExport struct {
	Bans []BanYAML `yaml:"bans"`
}

// ExportBansYAML exports the ban list as YAML.
func ExportBansYAML(st store.DataStore) ([]byte, error) {
	bans, err := st.ListBans()
	if err != nil {
		return nil, err
	}

	export := BansExport{}
	for _, b := range bans {
		entry := BanYAML{
			Username:  b.Username,
			Reason:    b.Reason,
			BannedBy:  b.BannedBy,
			CreatedAt: b.CreatedAt.Format("2006-01-02T15:04:05Z"),
		}
		if !b.ExpiresAt.IsZero() {
			entry.ExpiresAt = b.ExpiresAt.Format("2006-01-02T15:04:05Z")
		}
		export.Bans = append(export.Bans, entry)
	}
	return yaml.Marshal(&export)
}
