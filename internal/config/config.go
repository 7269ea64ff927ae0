package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	// MinNotificationTimeout is the lowest accepted cooldown between two
	// alerts for the same class label, in seconds.
	MinNotificationTimeout = 10
)

type Config struct {
	Port         int
	CameraDevice int

	DetectionLabels []string // target classes, from DETECTION_LABELS
	ScoreThreshold  float64
	IoUThreshold    float64
	FrameIntervalMs int

	CameraIdleTimeout  int // seconds without a frame read before the device is released
	CameraReapInterval int // seconds between reaper passes

	NotificationTimeout int // seconds between alerts per class label
	EmailNotifications  bool
	SenderEmail         string
	SenderPassword      string
	RecipientEmail      string
	SMTPServer          string
	SMTPPort            int

	ModelPath       string
	ModelConfigPath string
	ClassesPath     string

	SnapshotDirectory string
	LogDirectory      string
	DatabasePath      string
}

func Load() *Config {
	cfg := &Config{
		Port:         getEnvAsInt("PORT", 8000),
		CameraDevice: getEnvAsInt("CAMERA_DEVICE", 0),

		DetectionLabels: splitLabels(getEnv("DETECTION_LABELS", "person")),
		ScoreThreshold:  getEnvAsFloat("SCORE_THRESHOLD", 0.5),
		IoUThreshold:    getEnvAsFloat("IOU_THRESHOLD", 0.4),
		FrameIntervalMs: getEnvAsInt("FRAME_INTERVAL_MS", 30),

		CameraIdleTimeout:  getEnvAsInt("CAMERA_IDLE_TIMEOUT", 60),
		CameraReapInterval: getEnvAsInt("CAMERA_REAP_INTERVAL", 10),

		NotificationTimeout: getEnvAsInt("NOTIFICATION_TIMEOUT", 300),
		EmailNotifications:  getEnvAsBool("EMAIL_NOTIFICATIONS", false),
		SenderEmail:         getEnv("SENDER_EMAIL", ""),
		SenderPassword:      getEnv("SENDER_PASSWORD", ""),
		RecipientEmail:      getEnv("RECIPIENT_EMAIL", ""),
		SMTPServer:          getEnv("SMTP_SERVER", "smtp.gmail.com"),
		SMTPPort:            getEnvAsInt("SMTP_PORT", 587),

		ModelPath:       getEnv("MODEL_PATH", "yolov3.weights"),
		ModelConfigPath: getEnv("MODEL_CONFIG_PATH", "yolov3.cfg"),
		ClassesPath:     getEnv("CLASSES_PATH", "coco.names"),

		SnapshotDirectory: getEnv("SNAPSHOT_DIR", filepath.Join(".", "snapshots")),
		LogDirectory:      getEnv("LOG_DIR", filepath.Join(".", "logs")),
		DatabasePath:      getEnv("DB_PATH", filepath.Join(".", "opensentry.db")),
	}

	if cfg.NotificationTimeout < MinNotificationTimeout {
		cfg.NotificationTimeout = MinNotificationTimeout
	}

	return cfg
}

// splitLabels parses the comma-separated DETECTION_LABELS value,
// trimming whitespace and dropping empty entries.
func splitLabels(s string) []string {
	var labels []string
	for _, part := range strings.Split(s, ",") {
		if label := strings.TrimSpace(part); label != "" {
			labels = append(labels, label)
		}
	}
	return labels
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
		return strings.EqualFold(value, "true")
	}
	return defaultValue
}
