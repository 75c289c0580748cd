package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	BotToken string

	DBDriver string
	DBDSN    string

	// OpsAddr serves /healthz and /readyz for process supervision.
	OpsAddr string

	AdminID    int64
	TeacherIDs []int64

	// Channels the student must be subscribed to before using the bot,
	// e.g. "@my_channel".
	RequiredChannels []string
}

func FromEnv() Config {
	return Config{
		BotToken:         os.Getenv("BOT_TOKEN"),
		DBDriver:         envOr("DB_DRIVER", "sqlite"),
		DBDSN:            envOr("DB_DSN", ""),
		OpsAddr:          envOr("OPS_ADDR", ":8081"),
		AdminID:          envInt64("ADMIN_ID", 0),
		TeacherIDs:       csvInt64("TEACHER_IDS"),
		RequiredChannels: csv("REQUIRED_CHANNELS"),
	}
}

// IsTeacher reports whether id belongs to the static teacher list or is the
// admin. Roles are assigned from this list at registration time.
func (c Config) IsTeacher(id int64) bool {
	if id == c.AdminID && id != 0 {
		return true
	}
	for _, t := range c.TeacherIDs {
		if t == id {
			return true
		}
	}
	return false
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envInt64(k string, def int64) int64 {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func csv(k string) []string {
	parts := strings.Split(os.Getenv(k), ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func csvInt64(k string) []int64 {
	out := make([]int64, 0, 4)
	for _, s := range csv(k) {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			continue
		}
		out = append(out, n)
	}
	return out
}
