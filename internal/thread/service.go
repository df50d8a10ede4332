package thread

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

	"github.com/omnidesk/omnidesk/internal/db"
	"github.com/omnidesk/omnidesk/internal/db/sqlc"
)

var (
	ErrThreadNotFound    = errors.New("thread not found")
	ErrThreadClosed      = errors.New("thread is closed")
	ErrInvalidTransition = errors.New("invalid thread transition")
	ErrInvalidStatus     = errors.New("unknown thread status")
)

type Service struct {
	queries *sqlc.Queries
	logger  *slog.Logger
}

func NewService(log *slog.Logger, queries *sqlc.Queries) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		queries: queries,
		logger:  log.With(slog.String("service", "thread")),
	}
}

// RouteInbound returns the single non-closed thread for (customerID, channel),
// creating one when none exists. Provider conversation ids rotate, so a
// differing externalConversationID never forks a thread; the stored id is
// refreshed instead. Creation races are settled by the partial unique index on
// (customer_id, channel): the loser re-reads the winner's row.
func (s *Service) RouteInbound(ctx context.Context, customerID, channel, externalConversationID, externalRecipientID string) (Thread, error) {
	if s.queries == nil {
		return Thread{}, fmt.Errorf("thread queries not configured")
	}
	pgCustomerID, err := db.ParseUUID(customerID)
	if err != nil {
		return Thread{}, err
	}
	channel = strings.TrimSpace(channel)
	if channel == "" {
		return Thread{}, fmt.Errorf("channel is required")
	}
	row, err := s.queries.FindOpenThread(ctx, sqlc.FindOpenThreadParams{
		CustomerID: pgCustomerID,
		Channel:    channel,
	})
	if err == nil {
		return s.refreshExternalConversation(ctx, row, externalConversationID)
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Thread{}, fmt.Errorf("find open thread: %w", err)
	}

	created, err := s.queries.CreateThread(ctx, sqlc.CreateThreadParams{
		CustomerID:             pgCustomerID,
		Channel:                channel,
		ExternalConversationID: db.ToPgText(externalConversationID),
		ExternalRecipientID:    db.ToPgText(externalRecipientID),
		Metadata:               []byte("{}"),
	})
	if err != nil {
		if db.IsUniqueViolation(err) {
			winner, rerr := s.queries.FindOpenThread(ctx, sqlc.FindOpenThreadParams{
				CustomerID: pgCustomerID,
				Channel:    channel,
			})
			if rerr != nil {
				return Thread{}, fmt.Errorf("re-read thread after create conflict: %w", rerr)
			}
			return toThread(winner), nil
		}
		return Thread{}, fmt.Errorf("create thread: %w", err)
	}
	s.logger.Info("thread created",
		slog.String("thread_id", toUUIDString(created.ID)),
		slog.String("customer_id", customerID),
		slog.String("channel", channel))
	return toThread(created), nil
}

func (s *Service) refreshExternalConversation(ctx context.Context, row sqlc.Thread, externalConversationID string) (Thread, error) {
	externalConversationID = strings.TrimSpace(externalConversationID)
	if externalConversationID == "" || db.TextToString(row.ExternalConversationID) == externalConversationID {
		return toThread(row), nil
	}
	err := s.queries.UpdateThreadExternalConversation(ctx, sqlc.UpdateThreadExternalConversationParams{
		ID:                     row.ID,
		ExternalConversationID: db.ToPgText(externalConversationID),
	})
	if err != nil {
		return Thread{}, fmt.Errorf("refresh external conversation id: %w", err)
	}
	item := toThread(row)
	item.ExternalConversationID = externalConversationID
	return item, nil
}

func (s *Service) Get(ctx context.Context, threadID string) (Thread, error) {
	if s.queries == nil {
		return Thread{}, fmt.Errorf("thread queries not configured")
	}
	pgID, err := db.ParseUUID(threadID)
	if err != nil {
		return Thread{}, err
	}
	row, err := s.queries.GetThreadByID(ctx, pgID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Thread{}, ErrThreadNotFound
		}
		return Thread{}, fmt.Errorf("get thread: %w", err)
	}
	return toThread(row), nil
}

// Transition moves a thread between statuses. Closed threads are terminal;
// the next inbound message opens a fresh thread instead of reopening one.
// Requesting the current status is a no-op.
func (s *Service) Transition(ctx context.Context, threadID, newStatus string) (Thread, error) {
	current, err := s.Get(ctx, threadID)
	if err != nil {
		return Thread{}, err
	}
	newStatus = strings.ToLower(strings.TrimSpace(newStatus))
	if err := CheckTransition(current.Status, newStatus); err != nil {
		return Thread{}, err
	}
	if current.Status == newStatus {
		return current, nil
	}
	pgID, err := db.ParseUUID(threadID)
	if err != nil {
		return Thread{}, err
	}
	row, err := s.queries.UpdateThreadStatus(ctx, sqlc.UpdateThreadStatusParams{
		ID:     pgID,
		Status: newStatus,
	})
	if err != nil {
		return Thread{}, fmt.Errorf("update thread status: %w", err)
	}
	s.logger.Info("thread transitioned",
		slog.String("thread_id", threadID),
		slog.String("from", current.Status),
		slog.String("to", newStatus))
	return toThread(row), nil
}

// Assign overwrites the assignee unconditionally, last writer wins.
func (s *Service) Assign(ctx context.Context, threadID, assigneeID, assigneeName string) error {
	if s.queries == nil {
		return fmt.Errorf("thread queries not configured")
	}
	pgID, err := db.ParseUUID(threadID)
	if err != nil {
		return err
	}
	if strings.TrimSpace(assigneeID) == "" {
		return fmt.Errorf("assignee id is required")
	}
	err = s.queries.AssignThread(ctx, sqlc.AssignThreadParams{
		ID:           pgID,
		AssignedTo:   db.ToPgText(assigneeID),
		AssignedName: db.ToPgText(assigneeName),
	})
	if err != nil {
		return fmt.Errorf("assign thread: %w", err)
	}
	return nil
}

// MarkRead resets the unread counter after an operator opens the thread.
func (s *Service) MarkRead(ctx context.Context, threadID string) error {
	if s.queries == nil {
		return fmt.Errorf("thread queries not configured")
	}
	pgID, err := db.ParseUUID(threadID)
	if err != nil {
		return err
	}
	if err := s.queries.ResetThreadUnread(ctx, pgID); err != nil {
		return fmt.Errorf("reset thread unread: %w", err)
	}
	return nil
}

// RecordInbound bumps the unread counter and activity columns in one
// statement so concurrent webhooks never lose an increment.
func (s *Service) RecordInbound(ctx context.Context, threadID string, at time.Time, preview string) error {
	if s.queries == nil {
		return fmt.Errorf("thread queries not configured")
	}
	pgID, err := db.ParseUUID(threadID)
	if err != nil {
		return err
	}
	err = s.queries.RecordInboundActivity(ctx, sqlc.RecordInboundActivityParams{
		ID:                 pgID,
		LastMessageAt:      pgtype.Timestamptz{Time: at, Valid: true},
		LastMessagePreview: db.ToPgText(preview),
	})
	if err != nil {
		return fmt.Errorf("record inbound activity: %w", err)
	}
	return nil
}

func (s *Service) RecordOutbound(ctx context.Context, threadID string, at time.Time, preview string) error {
	if s.queries == nil {
		return fmt.Errorf("thread queries not configured")
	}
	pgID, err := db.ParseUUID(threadID)
	if err != nil {
		return err
	}
	err = s.queries.RecordOutboundActivity(ctx, sqlc.RecordOutboundActivityParams{
		ID:                 pgID,
		LastMessageAt:      pgtype.Timestamptz{Time: at, Valid: true},
		LastMessagePreview: db.ToPgText(preview),
	})
	if err != nil {
		return fmt.Errorf("record outbound activity: %w", err)
	}
	return nil
}

// SetPriority records an automation-assigned priority on the thread.
func (s *Service) SetPriority(ctx context.Context, threadID, priority string) error {
	if s.queries == nil {
		return fmt.Errorf("thread queries not configured")
	}
	pgID, err := db.ParseUUID(threadID)
	if err != nil {
		return err
	}
	priority = strings.TrimSpace(priority)
	if priority == "" {
		return fmt.Errorf("priority is required")
	}
	err = s.queries.SetThreadPriority(ctx, sqlc.SetThreadPriorityParams{
		ID:       pgID,
		Priority: priority,
	})
	if err != nil {
		return fmt.Errorf("set thread priority: %w", err)
	}
	return nil
}

// SetCard remembers the workspace card posted for this thread so later sends
// can update it in place.
func (s *Service) SetCard(ctx context.Context, threadID, cardChannel, cardTs string) error {
	if s.queries == nil {
		return fmt.Errorf("thread queries not configured")
	}
	pgID, err := db.ParseUUID(threadID)
	if err != nil {
		return err
	}
	err = s.queries.SetThreadCard(ctx, sqlc.SetThreadCardParams{
		ID:          pgID,
		CardChannel: db.ToPgText(cardChannel),
		CardTs:      db.ToPgText(cardTs),
	})
	if err != nil {
		return fmt.Errorf("set thread card: %w", err)
	}
	return nil
}

func (s *Service) ListByStatus(ctx context.Context, status string, limit int) ([]Thread, error) {
	if !validStatus(status) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	if s.queries == nil {
		return nil, fmt.Errorf("thread queries not configured")
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.queries.ListThreadsByStatus(ctx, sqlc.ListThreadsByStatusParams{
		Status: status,
		Limit:  int32(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("list threads by status: %w", err)
	}
	items := make([]Thread, 0, len(rows))
	for _, row := range rows {
		items = append(items, toThread(row))
	}
	return items, nil
}

func (s *Service) ListRecent(ctx context.Context, limit int) ([]Thread, error) {
	if s.queries == nil {
		return nil, fmt.Errorf("thread queries not configured")
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.queries.ListRecentThreads(ctx, int32(limit))
	if err != nil {
		return nil, fmt.Errorf("list recent threads: %w", err)
	}
	items := make([]Thread, 0, len(rows))
	for _, row := range rows {
		items = append(items, toThread(row))
	}
	return items, nil
}

// CheckTransition validates a status change against the thread state machine:
// open and pending move freely between each other and into closed; closed is
// terminal. Requesting the current status is allowed and treated as a no-op
// by the caller.
func CheckTransition(from, to string) error {
	if !validStatus(to) {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, to)
	}
	if from == to {
		return nil
	}
	if from == StatusClosed {
		return ErrThreadClosed
	}
	return nil
}

func validStatus(status string) bool {
	switch status {
	case StatusOpen, StatusPending, StatusClosed:
		return true
	}
	return false
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

func toThread(row sqlc.Thread) Thread {
	metadata := map[string]any{}
	if len(row.Metadata) > 0 {
		_ = json.Unmarshal(row.Metadata, &metadata)
	}
	return Thread{
		ID:                     toUUIDString(row.ID),
		CustomerID:             toUUIDString(row.CustomerID),
		Channel:                row.Channel,
		ExternalConversationID: db.TextToString(row.ExternalConversationID),
		Status:                 row.Status,
		AssignedTo:             db.TextToString(row.AssignedTo),
		AssignedName:           db.TextToString(row.AssignedName),
		LastMessageAt:          db.TimeFromPg(row.LastMessageAt),
		LastMessagePreview:     db.TextToString(row.LastMessagePreview),
		UnreadCount:            int(row.UnreadCount),
		CardChannel:            db.TextToString(row.CardChannel),
		CardTs:                 db.TextToString(row.CardTs),
		ExternalRecipientID:    db.TextToString(row.ExternalRecipientID),
		Metadata:               metadata,
		CreatedAt:              db.TimeFromPg(row.CreatedAt),
		UpdatedAt:              db.TimeFromPg(row.UpdatedAt),
	}
}
