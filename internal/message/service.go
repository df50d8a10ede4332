// Package message provides unified message persistence and history.
package message

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	dbpkg "github.com/omnidesk/omnidesk/internal/db"
	"github.com/omnidesk/omnidesk/internal/db/sqlc"
	"github.com/omnidesk/omnidesk/internal/message/event"
)

var (
	ErrMessageNotFound  = errors.New("message not found")
	ErrStatusRegression = errors.New("message status cannot move backward")
)

// DBService persists and reads unified messages.
type DBService struct {
	queries   *sqlc.Queries
	logger    *slog.Logger
	publisher event.Publisher
}

// NewService creates a message service.
func NewService(log *slog.Logger, queries *sqlc.Queries, publishers ...event.Publisher) *DBService {
	if log == nil {
		log = slog.Default()
	}
	var publisher event.Publisher
	if len(publishers) > 0 {
		publisher = publishers[0]
	}
	return &DBService{
		queries:   queries,
		logger:    log.With(slog.String("service", "message")),
		publisher: publisher,
	}
}

// Persist writes a single message.
func (s *DBService) Persist(ctx context.Context, input PersistInput) (Message, error) {
	pgThreadID, err := dbpkg.ParseUUID(input.ThreadID)
	if err != nil {
		return Message{}, fmt.Errorf("invalid thread id: %w", err)
	}
	pgCustomerID, err := dbpkg.ParseUUID(input.CustomerID)
	if err != nil {
		return Message{}, fmt.Errorf("invalid customer id: %w", err)
	}
	direction := strings.TrimSpace(input.Direction)
	if direction != DirectionInbound && direction != DirectionOutbound {
		return Message{}, fmt.Errorf("unknown message direction %q", direction)
	}
	status := strings.TrimSpace(input.Status)
	if _, ok := statusRank[status]; !ok {
		return Message{}, fmt.Errorf("unknown message status %q", status)
	}
	contentType := strings.TrimSpace(input.ContentType)
	if contentType == "" {
		contentType = ContentTypeText
	}

	attachments := input.Attachments
	if attachments == nil {
		attachments = []Attachment{}
	}
	attachmentBytes, err := json.Marshal(attachments)
	if err != nil {
		return Message{}, fmt.Errorf("marshal attachments: %w", err)
	}
	metaBytes, err := json.Marshal(nonNilMap(input.Metadata))
	if err != nil {
		return Message{}, fmt.Errorf("marshal message metadata: %w", err)
	}

	row, err := s.queries.CreateMessage(ctx, sqlc.CreateMessageParams{
		ThreadID:          pgThreadID,
		CustomerID:        pgCustomerID,
		Channel:           strings.TrimSpace(input.Channel),
		Direction:         direction,
		Content:           input.Content,
		ContentType:       contentType,
		Attachments:       attachmentBytes,
		SenderID:          dbpkg.ToPgText(input.SenderID),
		SenderName:        dbpkg.ToPgText(input.SenderName),
		Status:            status,
		ExternalMessageID: dbpkg.ToPgText(input.ExternalMessageID),
		Metadata:          metaBytes,
	})
	if err != nil {
		return Message{}, err
	}

	result := toMessage(row)
	s.publish(event.TypeMessageCreated, result)
	return result, nil
}

// List returns up to limit thread messages, newest first.
func (s *DBService) List(ctx context.Context, threadID string, limit int) ([]Message, error) {
	pgThreadID, err := dbpkg.ParseUUID(threadID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.queries.ListThreadMessages(ctx, sqlc.ListThreadMessagesParams{
		ThreadID: pgThreadID,
		Limit:    int32(limit),
	})
	if err != nil {
		return nil, err
	}
	items := make([]Message, 0, len(rows))
	for _, row := range rows {
		items = append(items, toMessage(row))
	}
	return items, nil
}

// ListSince returns messages created after the given time, oldest first.
// Used by the SSE stream to replay a backlog on reconnect.
func (s *DBService) ListSince(ctx context.Context, threadID string, since time.Time) ([]Message, error) {
	pgThreadID, err := dbpkg.ParseUUID(threadID)
	if err != nil {
		return nil, err
	}
	rows, err := s.queries.ListThreadMessagesSince(ctx, sqlc.ListThreadMessagesSinceParams{
		ThreadID:  pgThreadID,
		CreatedAt: pgtype.Timestamptz{Time: since, Valid: true},
	})
	if err != nil {
		return nil, err
	}
	items := make([]Message, 0, len(rows))
	for _, row := range rows {
		items = append(items, toMessage(row))
	}
	return items, nil
}

func (s *DBService) Get(ctx context.Context, messageID string) (Message, error) {
	pgID, err := dbpkg.ParseUUID(messageID)
	if err != nil {
		return Message{}, err
	}
	row, err := s.queries.GetMessageByID(ctx, pgID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Message{}, ErrMessageNotFound
		}
		return Message{}, err
	}
	return toMessage(row), nil
}

func (s *DBService) Count(ctx context.Context, threadID string) (int64, error) {
	pgThreadID, err := dbpkg.ParseUUID(threadID)
	if err != nil {
		return 0, err
	}
	return s.queries.CountThreadMessages(ctx, pgThreadID)
}

// UpdateStatus advances a message's delivery status. Statuses only move
// forward; failed is reachable from pending or sent and is terminal.
func (s *DBService) UpdateStatus(ctx context.Context, messageID, newStatus, externalMessageID string) (Message, error) {
	current, err := s.Get(ctx, messageID)
	if err != nil {
		return Message{}, err
	}
	newStatus = strings.TrimSpace(newStatus)
	if err := CheckStatusAdvance(current.Status, newStatus); err != nil {
		return Message{}, err
	}
	if current.Status == newStatus {
		return current, nil
	}
	pgID, err := dbpkg.ParseUUID(messageID)
	if err != nil {
		return Message{}, err
	}
	row, err := s.queries.UpdateMessageStatus(ctx, sqlc.UpdateMessageStatusParams{
		ID:                pgID,
		Status:            newStatus,
		ExternalMessageID: dbpkg.ToPgText(externalMessageID),
	})
	if err != nil {
		// The SQL guard also enforces forward-only movement; losing a race
		// to a further-ahead writer shows up here as no row.
		if errors.Is(err, pgx.ErrNoRows) {
			return Message{}, ErrStatusRegression
		}
		return Message{}, err
	}
	result := toMessage(row)
	s.publish(event.TypeMessageStatus, result)
	return result, nil
}

// CheckStatusAdvance validates a status change: strictly forward along
// pending → sent → delivered → read, with failed branching off pending or
// sent. Requesting the current status is a no-op.
func CheckStatusAdvance(from, to string) error {
	fromRank, ok := statusRank[from]
	if !ok {
		return fmt.Errorf("unknown message status %q", from)
	}
	toRank, ok := statusRank[to]
	if !ok {
		return fmt.Errorf("unknown message status %q", to)
	}
	if from == to {
		return nil
	}
	if from == StatusFailed {
		return ErrStatusRegression
	}
	if to == StatusFailed {
		if fromRank > statusRank[StatusSent] {
			return ErrStatusRegression
		}
		return nil
	}
	if toRank <= fromRank {
		return ErrStatusRegression
	}
	return nil
}

var statusRank = map[string]int{
	StatusPending:   0,
	StatusSent:      1,
	StatusDelivered: 2,
	StatusRead:      3,
	StatusFailed:    4,
}

func (s *DBService) publish(eventType event.Type, msg Message) {
	if s.publisher == nil {
		return
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		s.logger.Warn("marshal message event failed", slog.Any("error", err))
		return
	}
	s.publisher.Publish(event.Event{
		Type:     eventType,
		ThreadID: msg.ThreadID,
		Data:     payload,
	})
}

func nonNilMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

func toUUIDString(value pgtype.UUID) string {
	if !value.Valid {
		return ""
	}
	parsed, err := uuid.FromBytes(value.Bytes[:])
	if err != nil {
		return ""
	}
	return parsed.String()
}

func toMessage(row sqlc.Message) Message {
	var attachments []Attachment
	if len(row.Attachments) > 0 {
		_ = json.Unmarshal(row.Attachments, &attachments)
	}
	metadata := map[string]any{}
	if len(row.Metadata) > 0 {
		_ = json.Unmarshal(row.Metadata, &metadata)
	}
	return Message{
		ID:                toUUIDString(row.ID),
		ThreadID:          toUUIDString(row.ThreadID),
		CustomerID:        toUUIDString(row.CustomerID),
		Channel:           row.Channel,
		Direction:         row.Direction,
		Content:           row.Content,
		ContentType:       row.ContentType,
		Attachments:       attachments,
		SenderID:          dbpkg.TextToString(row.SenderID),
		SenderName:        dbpkg.TextToString(row.SenderName),
		Status:            row.Status,
		ExternalMessageID: dbpkg.TextToString(row.ExternalMessageID),
		Metadata:          metadata,
		CreatedAt:         dbpkg.TimeFromPg(row.CreatedAt),
	}
}
