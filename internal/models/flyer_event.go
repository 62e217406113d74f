package models

import "time"

const EventFlyerGenerated = "flyer.generated"

// FlyerEvent announces a generated flyer. It never carries image bytes.
type FlyerEvent struct {
	SessionID   string    `json:"session_id"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	Size        int       `json:"size"`
	Format      string    `json:"format"`
	GeneratedAt time.Time `json:"generated_at"`
}
