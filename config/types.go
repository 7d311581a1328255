package config

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port int `yaml:"port" validate:"gt=0"`
}

// TrackingConfig contains the state classifier windows and registry
// housekeeping intervals, all in seconds
type TrackingConfig struct {
	TemporaryLossSeconds int `yaml:"temporaryLossSeconds" validate:"gte=0"`
	DisconnectedSeconds  int `yaml:"disconnectedSeconds" validate:"gte=0"`
	RetentionSeconds     int `yaml:"retentionSeconds" validate:"gte=0"`
	SweepIntervalSeconds int `yaml:"sweepIntervalSeconds" validate:"gte=0"`
}

// PriorityConfig contains the disconnect-duration escalation thresholds
type PriorityConfig struct {
	MediumAfterSeconds   int `yaml:"mediumAfterSeconds" validate:"gte=0"`
	HighAfterSeconds     int `yaml:"highAfterSeconds" validate:"gte=0"`
	CriticalAfterSeconds int `yaml:"criticalAfterSeconds" validate:"gte=0"`
}

// ETAConfig contains arrival-estimation tuning
type ETAConfig struct {
	FallbackSpeedKMH      float64 `yaml:"fallbackSpeedKMH" validate:"gte=0"`
	DelayToleranceMinutes int     `yaml:"delayToleranceMinutes" validate:"gte=0"`
}

// PanelsConfig contains the grid view limits
type PanelsConfig struct {
	Max           int    `yaml:"max" validate:"gte=0"`
	DefaultLayout string `yaml:"defaultLayout" validate:"omitempty,oneof=2x2 3x3 4x4 5x4 auto"`
}

// PlaybackConfig contains route playback pacing
type PlaybackConfig struct {
	BaseTickMS int `yaml:"baseTickMS" validate:"gte=0"`
}

// FeedConfig contains the GTFS-Realtime VehiclePositions poller configuration
type FeedConfig struct {
	VehiclePositionsURL string `yaml:"vehiclePositionsURL" validate:"omitempty,url"`
	ReadIntervalMS      int    `yaml:"readIntervalMS" validate:"gte=0"`
	TimeoutMS           int    `yaml:"timeoutMS" validate:"gte=0"`
}

// HistoryConfig points at the read-only telemetry archive, if any
type HistoryConfig struct {
	SQLitePath string `yaml:"sqlitePath"`
}

// AppConfig is the root configuration structure
type AppConfig struct {
	Server   ServerConfig   `yaml:"server" validate:"required"`
	Tracking TrackingConfig `yaml:"tracking"`
	Priority PriorityConfig `yaml:"priority"`
	ETA      ETAConfig      `yaml:"eta"`
	Panels   PanelsConfig   `yaml:"panels"`
	Playback PlaybackConfig `yaml:"playback"`
	Feed     FeedConfig     `yaml:"feed"`
	History  HistoryConfig  `yaml:"history"`
}
