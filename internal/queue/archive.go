package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/quorum-ai/quorum/backend/internal/db"
	"github.com/quorum-ai/quorum/backend/internal/storage"
	"github.com/quorum-ai/quorum/backend/pkg/history"
	"github.com/quorum-ai/quorum/backend/pkg/logger"

	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ArchiveMsg carries one finished execution from the server to the
// archive worker. Transcript is the raw NDJSON event log.
type ArchiveMsg struct {
	Record     history.Record `json:"record"`
	Transcript []byte         `json:"transcript,omitempty"`
}

// ProcessArchiveMessage persists one finished execution: the transcript
// goes to S3, the record itself to Postgres. The upsert makes redelivery
// safe.
func ProcessArchiveMessage(
	ctx context.Context,
	s3Client *awss3.Client,
	conn *pgxpool.Pool,
	msg string,
) error {
	data := new(ArchiveMsg)
	if err := json.Unmarshal([]byte(msg), data); err != nil {
		return err
	}
	record := data.Record

	if len(data.Transcript) > 0 {
		key, err := storage.PutTranscript(ctx, s3Client, record.ID, data.Transcript)
		if err != nil {
			return err
		}
		record.LogKey = key
	}

	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}

	finalAnswer := ""
	if record.FinalAnswer != nil {
		finalAnswer = record.FinalAnswer.Content
	}

	q := db.New(conn)
	if err := q.UpsertConversation(ctx, db.UpsertConversationParams{
		ID:          record.ID,
		Query:       record.Query,
		Payload:     payload,
		FinalAnswer: finalAnswer,
		TotalTokens: int32(record.Tokens),
		TotalCost:   record.Cost,
		LogKey:      record.LogKey,
		CreatedAt:   record.CreatedAt,
	}); err != nil {
		return err
	}

	logger.Info("[Queue] Archived conversation", "conversation_id", record.ID, "tokens", record.Tokens)
	return nil
}
