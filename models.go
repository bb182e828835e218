package main

import (
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/google/uuid"
	"github.com/resumepilot/resumeworker/internal/database"
	"github.com/resumepilot/resumeworker/internal/entitlement"
	"github.com/resumepilot/resumeworker/internal/extract"
	"github.com/streadway/amqp"
	"google.golang.org/adk/runner"
	"google.golang.org/adk/session"
)

type R2Config struct {
	AccountID string
	Bucket    string
	AccessKey string
	SecretKey string
}

type WorkerConfig struct {
	DB                  *database.Queries
	Gate                *entitlement.Gate
	Extractor           *extract.Extractor
	R2                  *R2Config
	AwsConfig           *aws.Config
	RabbitConn          *amqp.Connection
	RABBITMQUrl         string
	AgentRunner         *runner.Runner
	AgentSessionService session.Service
	AgentName           string
}

type AnalysisResult struct {
	FileName      string   `json:"file_name"`
	Score         int      `json:"score"`
	Strengths     []string `json:"strengths"`
	Improvements  []string `json:"improvements"`
	Summary       string   `json:"summary"`
	Recomendation string   `json:"recommendation"`
	WordCount     int      `json:"word_count,omitempty"`
	PageCount     *int     `json:"page_count,omitempty"`
	// Error result entry
	IsErrorResult bool   `json:"is_error_result"`
	Error         string `json:"error,omitempty"`
}

type AnalysisResults struct {
	ID        uuid.UUID        `json:"id"`
	Results   []AnalysisResult `json:"results" db:"results"`
	CreatedAt time.Time        `json:"created_at"`
	SessionID uuid.UUID        `json:"session_id"`
	UpdatedAt time.Time        `json:"updated_at"`
}

type Session struct {
	ID             uuid.UUID `json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	Name           string    `json:"name"`
	UserID         uuid.UUID `json:"user_id"`
	Status         string    `json:"status"`
	JobTitle       string    `json:"job_title"`
	JobDescription string    `json:"job_description"`
}
