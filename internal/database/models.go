package database

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type Resume struct {
	ID               uuid.UUID
	OriginalFilename string
	Mime             string
	SizeBytes        int64
	StorageProvider  string
	ObjectKey        string
	StorageUrl       string
	UploadStatus     string
	CreatedAt        time.Time
	SessionID        uuid.UUID
}

type Subscription struct {
	ID               uuid.UUID
	UserID           uuid.UUID
	PlanName         string
	Status           string
	CurrentPeriodEnd sql.NullTime
	CreatedAt        time.Time
}

type UsageCounter struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	ActionType string
	Month      int32
	Year       int32
	Count      int32
	UpdatedAt  time.Time
}
