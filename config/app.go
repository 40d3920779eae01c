package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// App holds the non-datastore settings shared by the server and the
// terminal client.
type App struct {
	Port               string
	InterviewServerURL string

	GCPProjectID string
	GCPLocation  string
	GeminiModel  string
	GCSBucket    string

	STTWorkers int
	// DisableSTT skips the Google Speech worker pool, e.g. on machines
	// without credentials.
	DisableSTT bool
}

// Load reads .env (if present) and the process environment.
func Load() App {
	_ = godotenv.Load()

	return App{
		Port:               getenv("PORT", "5000"),
		InterviewServerURL: getenv("INTERVIEW_SERVER_URL", "http://localhost:5000"),
		GCPProjectID:       os.Getenv("GCP_PROJECT_ID"),
		GCPLocation:        getenv("GCP_LOCATION", "us-central1"),
		GeminiModel:        os.Getenv("GEMINI_MODEL"),
		GCSBucket:          os.Getenv("GCS_BUCKET"),
		STTWorkers:         getenvInt("STT_WORKERS", 2),
		DisableSTT:         os.Getenv("STT_DISABLED") == "true",
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvInt(k string, def int) int {
	if n, err := strconv.Atoi(os.Getenv(k)); err == nil && n > 0 {
		return n
	}
	return def
}
