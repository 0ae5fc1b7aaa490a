package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultPassword guards the viewer when PASSWORD is unset.
const DefaultPassword = "pilot"

type Config struct {
	// Camera
	CameraIndex int
	CameraName  string
	FrameWidth  int
	FrameHeight int
	Fullscreen  bool

	// Object detector
	ModelPath           string
	ModelConfigPath     string
	ModelFormat         string // yolo or ssd
	ClassNamesPath      string
	ConfidenceThreshold float64
	NMSThreshold        float64
	InputSize           int

	// Speech
	SpeechEngine       string // vosk or cloud
	VoskModelPath      string
	Language           string
	OpenAIKey          string
	OpenAIBaseURL      string
	TranscriptionModel string
	AudioChunkFrames   int

	// Listener timings
	NameTimeout        time.Duration
	TriggerTimeout     time.Duration
	TriggerPhraseLimit time.Duration
	CommandTimeout     time.Duration
	CommandPhraseLimit time.Duration
	AmbientDuration    time.Duration

	// Vocabulary
	VocabularyPath      string
	RelayVocabularyPath string
	TriggerWord         string

	// Relay
	RelayPin       string
	RelayActiveLow bool
	RelayDryRun    bool

	// IMU (ESP32 over serial)
	IMUPort string
	IMUBaud int

	// Weather
	WeatherURL      string
	WeatherCity     string
	Latitude        float64
	Longitude       float64
	WeatherInterval time.Duration
	WeatherTimeout  time.Duration

	// Live viewer
	ViewerPort        int
	Password          string
	BroadcastEveryNth int // Send every N-th frame to browsers
	ProcessingWorkers int
	StaticDirectory   string

	// Storage
	DatabasePath             string
	ImageDirectory           string
	ImageBufferLimit         int
	ImageBufferFlushInterval time.Duration

	LogDirectory  string
	Notifications bool
}

// Load reads an optional .env file and then builds the configuration from the environment.
func Load() *Config {
	// A missing .env file is fine
	_ = godotenv.Load()

	return &Config{
		CameraIndex: getEnvAsInt("CAMERA_INDEX", 0),
		CameraName:  getEnv("CAMERA_NAME", "webcam"),
		FrameWidth:  getEnvAsInt("FRAME_WIDTH", 0),
		FrameHeight: getEnvAsInt("FRAME_HEIGHT", 0),
		Fullscreen:  getEnvAsBool("FULLSCREEN", true),

		ModelPath:           getEnv("MODEL_PATH", filepath.Join(".", "models", "military_aircraft.onnx")),
		ModelConfigPath:     getEnv("MODEL_CONFIG_PATH", ""),
		ModelFormat:         strings.ToLower(getEnv("MODEL_FORMAT", "yolo")),
		ClassNamesPath:      getEnv("CLASS_NAMES_PATH", filepath.Join(".", "models", "military_aircraft.yaml")),
		ConfidenceThreshold: getEnvAsFloat("CONFIDENCE_THRESHOLD", 0.5),
		NMSThreshold:        getEnvAsFloat("NMS_THRESHOLD", 0.45),
		InputSize:           getEnvAsInt("INPUT_SIZE", 640),

		SpeechEngine:       strings.ToLower(getEnv("SPEECH_ENGINE", "vosk")),
		VoskModelPath:      getEnv("VOSK_MODEL_PATH", filepath.Join(".", "models", "vosk-model-small-kz-0.15")),
		Language:           getEnv("SPEECH_LANGUAGE", "kk"),
		OpenAIKey:          getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:      getEnv("OPENAI_BASE_URL", ""),
		TranscriptionModel: getEnv("TRANSCRIPTION_MODEL", "whisper-1"),
		AudioChunkFrames:   getEnvAsInt("AUDIO_CHUNK_FRAMES", 4000),

		NameTimeout:        getEnvAsDuration("NAME_TIMEOUT", 5*time.Second),
		TriggerTimeout:     getEnvAsDuration("TRIGGER_TIMEOUT", 2*time.Second),
		TriggerPhraseLimit: getEnvAsDuration("TRIGGER_PHRASE_LIMIT", 5*time.Second),
		CommandTimeout:     getEnvAsDuration("COMMAND_TIMEOUT", 15*time.Second),
		CommandPhraseLimit: getEnvAsDuration("COMMAND_PHRASE_LIMIT", 10*time.Second),
		AmbientDuration:    getEnvAsDuration("AMBIENT_DURATION", time.Second),

		VocabularyPath:      getEnv("VOCABULARY_PATH", ""),
		RelayVocabularyPath: getEnv("RELAY_VOCABULARY_PATH", ""),
		TriggerWord:         strings.ToLower(getEnv("TRIGGER_WORD", "")),

		RelayPin:       getEnv("RELAY_PIN", "GPIO17"),
		RelayActiveLow: getEnvAsBool("RELAY_ACTIVE_LOW", true),
		RelayDryRun:    getEnvAsBool("RELAY_DRY_RUN", false),

		IMUPort: getEnv("IMU_PORT", ""),
		IMUBaud: getEnvAsInt("IMU_BAUD", 115200),

		WeatherURL:      getEnv("WEATHER_URL", "https://api.open-meteo.com/v1/forecast"),
		WeatherCity:     getEnv("WEATHER_CITY", "Aktobe"),
		Latitude:        getEnvAsFloat("LATITUDE", 50.2833),
		Longitude:       getEnvAsFloat("LONGITUDE", 57.1667),
		WeatherInterval: getEnvAsDuration("WEATHER_INTERVAL", 60*time.Second),
		WeatherTimeout:  getEnvAsDuration("WEATHER_TIMEOUT", 3*time.Second),

		ViewerPort:        getEnvAsInt("VIEWER_PORT", 0),
		Password:          getEnv("PASSWORD", DefaultPassword),
		BroadcastEveryNth: getEnvAsInt("BROADCAST_EVERY_NTH", 3),
		ProcessingWorkers: getEnvAsInt("PROCESSING_WORKERS", 2),
		StaticDirectory:   getEnv("STATIC_DIR", filepath.Join(".", "static")),

		DatabasePath:             getEnv("DB_PATH", filepath.Join(".", "data", "aisha.db")),
		ImageDirectory:           getEnv("IMAGE_DIR", filepath.Join(".", "images")),
		ImageBufferLimit:         getEnvAsInt("BUFFER_LIMIT", 7),
		ImageBufferFlushInterval: getEnvAsDuration("FLUSH_INTERVAL", 30*time.Second),

		LogDirectory:  getEnv("LOG_DIR", filepath.Join(".", "logs")),
		Notifications: getEnvAsBool("NOTIFICATIONS", false),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsDuration accepts Go durations ("1500ms") or plain seconds ("60").
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if seconds, err := strconv.ParseFloat(value, 64); err == nil {
		return time.Duration(seconds * float64(time.Second))
	}
	return defaultValue
}
