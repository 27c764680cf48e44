package config

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type HTTPServer struct {
	Host string
	Port string
}

type OMDb struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type TMDb struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	// Requests per second against the TMDB API.
	RateLimit float64
}

type Ratings struct {
	// Path to the sqlite database holding the bulk ratings dump.
	Path string
}

type Library struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

type Snapshot struct {
	Path string
	// How often the dirty movie index is flushed to disk.
	FlushInterval time.Duration
}

type Rooms struct {
	IdleTTL       time.Duration
	SweepInterval time.Duration
}

type Imports struct {
	Timeout time.Duration
}

type Cache struct {
	SearchSize int
	DetailSize int
}

type Config struct {
	HTTP     HTTPServer
	OMDb     OMDb
	TMDb     TMDb
	Ratings  Ratings
	Library  Library
	Snapshot Snapshot
	Rooms    Rooms
	Imports  Imports
	Cache    Cache
}

const logtag = "[config]"

func Load() *Config {
	configPath := flag.String("config", "", "path env file")
	flag.Parse()

	if *configPath != "" {
		if err := godotenv.Load(*configPath); err != nil {
			log.Fatalf("%s err loading env from file : %v", logtag, err)
		}
		log.Printf("%s using env from : %s", logtag, *configPath)
	} else {
		log.Printf("%s using env from .env", logtag)
		_ = godotenv.Load()
	}

	cfg := &Config{
		HTTP:     *newHTTP(),
		OMDb:     *newOMDb(),
		TMDb:     *newTMDb(),
		Ratings:  *newRatings(),
		Library:  *newLibrary(),
		Snapshot: *newSnapshot(),
		Rooms:    *newRooms(),
		Imports:  *newImports(),
		Cache:    *newCache(),
	}

	log.Printf("%s backend config : %+v\n", logtag, cfg)
	return cfg
}

func newHTTP() *HTTPServer {
	return &HTTPServer{
		Port: getenv("HTTP_PORT", "8080"),
		Host: getenv("HTTP_HOST", "localhost"),
	}
}

func newOMDb() *OMDb {
	return &OMDb{
		BaseURL: getenv("OMDB_BASE_URL", "https://www.omdbapi.com"),
		APIKey:  getenv("OMDB_API_KEY", ""),
		Timeout: getdur("OMDB_TIMEOUT", 10*time.Second),
	}
}

func newTMDb() *TMDb {
	return &TMDb{
		BaseURL:   getenv("TMDB_BASE_URL", "https://api.themoviedb.org/3"),
		APIKey:    getenv("TMDB_API_KEY", ""),
		Timeout:   getdur("TMDB_TIMEOUT", 10*time.Second),
		RateLimit: getfloat("TMDB_RATE_LIMIT", 4),
	}
}

func newRatings() *Ratings {
	return &Ratings{
		Path: getenv("RATINGS_DB_PATH", "ratings.db"),
	}
}

func newLibrary() *Library {
	return &Library{
		BaseURL: getenv("LIBRARY_BASE_URL", ""),
		Token:   getenv("LIBRARY_TOKEN", ""),
		Timeout: getdur("LIBRARY_TIMEOUT", 5*time.Second),
	}
}

func newSnapshot() *Snapshot {
	return &Snapshot{
		Path:          getenv("SNAPSHOT_PATH", "movie_index.json"),
		FlushInterval: getdur("SNAPSHOT_FLUSH_INTERVAL", time.Minute),
	}
}

func newRooms() *Rooms {
	return &Rooms{
		IdleTTL:       getdur("ROOM_IDLE_TTL", 30*time.Minute),
		SweepInterval: getdur("ROOM_SWEEP_INTERVAL", 5*time.Minute),
	}
}

func newImports() *Imports {
	return &Imports{
		Timeout: getdur("IMPORT_FETCH_TIMEOUT", 30*time.Second),
	}
}

func newCache() *Cache {
	return &Cache{
		SearchSize: getint("CACHE_SEARCH_SIZE", 2048),
		DetailSize: getint("CACHE_DETAIL_SIZE", 2048),
	}
}

func getenv(key, defaultValue string) string {
	val := os.Getenv(key)
	if val == "" {
		fmt.Printf("%s %s undefined. Using default value %s\n", logtag, key, defaultValue)
		return defaultValue
	}
	fmt.Printf("%s %s = %s\n", logtag, key, val)
	return val
}

func getint(key string, defaultValue int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		log.Printf("%s %s is not an int, using default %d", logtag, key, defaultValue)
		return defaultValue
	}
	return n
}

func getfloat(key string, defaultValue float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		log.Printf("%s %s is not a float, using default %v", logtag, key, defaultValue)
		return defaultValue
	}
	return f
}

func getdur(key string, defaultValue time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		log.Printf("%s %s is not a duration, using default %v", logtag, key, defaultValue)
		return defaultValue
	}
	return d
}
