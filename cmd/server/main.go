package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	_ "github.com/mattn/go-sqlite3"

	"istibyan/internal/api"
	"istibyan/internal/kv"
	"istibyan/internal/middleware"
	"istibyan/internal/services"
	"istibyan/internal/utils"
)

func main() {
	// Local dev convenience; a missing .env is not an error.
	_ = godotenv.Load()

	addr := utils.SafeEnv("ISTIBYAN_ADDR", ":8080")

	store, err := openStore()
	if err != nil {
		log.Fatalf("open store: %v", err)
	}

	converter, err := buildConverter(context.Background())
	if err != nil {
		log.Fatalf("configure converter: %v", err)
	}

	mux := http.NewServeMux()
	api.NewRouter(store, converter).Register(mux)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "name": "Istibyan API"})
	})

	handler := middleware.NoStore(middleware.CORS(middleware.SecureHeaders(middleware.WithAuth(mux))))

	log.Printf("Istibyan server listening on %s", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func openStore() (services.RecordStore, error) {
	if utils.SafeEnv("ISTIBYAN_STORE", "sqlite") == "memory" {
		log.Printf("using in-memory record store; data will not survive a restart")
		return kv.NewMemoryStore(), nil
	}
	sqlitePath := utils.SafeEnv("ISTIBYAN_SQLITE_PATH", "data/istibyan.db")
	if err := os.MkdirAll(filepath.Dir(sqlitePath), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?cache=shared&_busy_timeout=5000", filepath.ToSlash(sqlitePath))
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := kv.RunMigrations(db, os.Getenv("ISTIBYAN_MIGRATIONS_DIR")); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return kv.NewSQLiteStore(db)
}

func buildConverter(ctx context.Context) (services.SurveyConverter, error) {
	switch provider := utils.SafeEnv("ISTIBYAN_AI_PROVIDER", "openai"); provider {
	case "gemini":
		return services.NewGeminiConverter(ctx,
			os.Getenv("GEMINI_API_KEY"),
			os.Getenv("GEMINI_MODEL"),
		)
	case "openai":
		// A missing key is tolerated at startup: createSurvey then fails
		// with a gateway error instead of the whole API refusing to boot.
		return services.NewOpenAIConverter(nil,
			os.Getenv("OPENAI_API_KEY"),
			os.Getenv("OPENAI_BASE_URL"),
			os.Getenv("OPENAI_MODEL"),
		), nil
	default:
		return nil, fmt.Errorf("unknown ISTIBYAN_AI_PROVIDER %q", provider)
	}
}
