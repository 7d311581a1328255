package telemetry

import (
	"testing"
	"time"
)

func TestValidateSample(t *testing.T) {
	valid := Sample{
		VehicleID: "VEH-001",
		Latitude:  59.91,
		Longitude: 10.75,
		Speed:     40,
		Heading:   359,
		Timestamp: time.Now().UTC(),
	}

	tests := []struct {
		name    string
		mutate  func(*Sample)
		wantErr bool
	}{
		{"valid", func(s *Sample) {}, false},
		{"zero heading ok", func(s *Sample) { s.Heading = 0 }, false},
		{"missing vehicle id", func(s *Sample) { s.VehicleID = "" }, true},
		{"latitude too high", func(s *Sample) { s.Latitude = 90.1 }, true},
		{"latitude too low", func(s *Sample) { s.Latitude = -90.1 }, true},
		{"longitude out of range", func(s *Sample) { s.Longitude = 181 }, true},
		{"negative speed", func(s *Sample) { s.Speed = -1 }, true},
		{"heading 360 rejected", func(s *Sample) { s.Heading = 360 }, true},
		{"missing timestamp", func(s *Sample) { s.Timestamp = time.Time{} }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid
			tt.mutate(&s)
			err := ValidateSample(s)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSample() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
