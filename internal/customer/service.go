package customer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/omnidesk/omnidesk/internal/db"
	"github.com/omnidesk/omnidesk/internal/db/sqlc"
)

var (
	ErrCustomerNotFound   = errors.New("customer not found")
	ErrIdentifierConflict = errors.New("identifier already owned by another customer")
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
		logger:  log.With(slog.String("service", "customer")),
	}
}

// Resolve finds the Customer owning (identifierType, identifierValue) or
// creates one. Creation races between concurrent webhooks are settled by the
// unique index on customer_identifiers: the loser re-reads and returns the
// winner's record.
func (s *Service) Resolve(ctx context.Context, identifierType, identifierValue, channel string, hints Hints) (Customer, error) {
	if s.queries == nil {
		return Customer{}, fmt.Errorf("customer queries not configured")
	}
	identifierType, identifierValue, err := normalizeIdentifier(identifierType, identifierValue)
	if err != nil {
		return Customer{}, err
	}
	row, err := s.queries.GetCustomerByIdentifier(ctx, sqlc.GetCustomerByIdentifierParams{
		IdentifierType:  identifierType,
		IdentifierValue: identifierValue,
	})
	if err == nil {
		return toCustomer(row), nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Customer{}, fmt.Errorf("lookup customer by identifier: %w", err)
	}

	created, err := s.queries.CreateCustomer(ctx, sqlc.CreateCustomerParams{
		DisplayName: db.ToPgText(hints.DisplayName),
		AvatarUrl:   db.ToPgText(hints.AvatarURL),
	})
	if err != nil {
		return Customer{}, fmt.Errorf("create customer: %w", err)
	}
	_, err = s.queries.CreateCustomerIdentifier(ctx, sqlc.CreateCustomerIdentifierParams{
		CustomerID:      created.ID,
		IdentifierType:  identifierType,
		IdentifierValue: identifierValue,
		Channel:         strings.TrimSpace(channel),
		Verified:        true,
	})
	if err != nil {
		if db.IsUniqueViolation(err) {
			// Lost the insert race. The winner owns the identifier now.
			winner, rerr := s.queries.GetCustomerByIdentifier(ctx, sqlc.GetCustomerByIdentifierParams{
				IdentifierType:  identifierType,
				IdentifierValue: identifierValue,
			})
			if rerr != nil {
				return Customer{}, fmt.Errorf("re-read customer after identifier conflict: %w", rerr)
			}
			// The loser's customer row has no identifiers and would stay
			// unreachable; drop it.
			if derr := s.queries.DeleteCustomer(ctx, created.ID); derr != nil {
				s.logger.Warn("delete orphaned customer after identifier conflict",
					slog.String("customer_id", toUUIDString(created.ID)),
					slog.String("error", derr.Error()))
			}
			s.logger.Debug("identifier insert race resolved",
				slog.String("identifier_type", identifierType),
				slog.String("customer_id", toUUIDString(winner.ID)))
			return toCustomer(winner), nil
		}
		return Customer{}, fmt.Errorf("create customer identifier: %w", err)
	}
	s.logger.Info("customer created",
		slog.String("customer_id", toUUIDString(created.ID)),
		slog.String("identifier_type", identifierType),
		slog.String("channel", channel))
	return toCustomer(created), nil
}

// AddIdentifier attaches an identifier to an existing customer. Attaching one
// the customer already owns is a no-op; one owned by a different customer
// returns ErrIdentifierConflict and is never merged.
func (s *Service) AddIdentifier(ctx context.Context, customerID string, req AddIdentifierRequest) (Identifier, error) {
	if s.queries == nil {
		return Identifier{}, fmt.Errorf("customer queries not configured")
	}
	pgID, err := db.ParseUUID(customerID)
	if err != nil {
		return Identifier{}, err
	}
	identifierType, identifierValue, err := normalizeIdentifier(req.Type, req.Value)
	if err != nil {
		return Identifier{}, err
	}
	owner, err := s.queries.GetIdentifierOwner(ctx, sqlc.GetIdentifierOwnerParams{
		IdentifierType:  identifierType,
		IdentifierValue: identifierValue,
	})
	if err == nil {
		if owner.CustomerID == pgID {
			// Re-attaching can upgrade an unverified identifier, never downgrade.
			if req.Verified && !owner.Verified {
				if verr := s.queries.SetIdentifierVerified(ctx, sqlc.SetIdentifierVerifiedParams{
					ID:       owner.ID,
					Verified: true,
				}); verr != nil {
					return Identifier{}, fmt.Errorf("mark identifier verified: %w", verr)
				}
				owner.Verified = true
			}
			return toIdentifier(owner), nil
		}
		return Identifier{}, ErrIdentifierConflict
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Identifier{}, fmt.Errorf("lookup identifier owner: %w", err)
	}
	row, err := s.queries.CreateCustomerIdentifier(ctx, sqlc.CreateCustomerIdentifierParams{
		CustomerID:      pgID,
		IdentifierType:  identifierType,
		IdentifierValue: identifierValue,
		Channel:         strings.TrimSpace(req.Channel),
		Verified:        req.Verified,
	})
	if err != nil {
		if db.IsUniqueViolation(err) {
			winner, rerr := s.queries.GetIdentifierOwner(ctx, sqlc.GetIdentifierOwnerParams{
				IdentifierType:  identifierType,
				IdentifierValue: identifierValue,
			})
			if rerr != nil {
				return Identifier{}, fmt.Errorf("re-read identifier after conflict: %w", rerr)
			}
			if winner.CustomerID == pgID {
				return toIdentifier(winner), nil
			}
			return Identifier{}, ErrIdentifierConflict
		}
		return Identifier{}, fmt.Errorf("create customer identifier: %w", err)
	}
	return toIdentifier(row), nil
}

// Get returns a customer with its identifiers loaded.
func (s *Service) Get(ctx context.Context, customerID string) (Customer, error) {
	if s.queries == nil {
		return Customer{}, fmt.Errorf("customer queries not configured")
	}
	pgID, err := db.ParseUUID(customerID)
	if err != nil {
		return Customer{}, err
	}
	row, err := s.queries.GetCustomerByID(ctx, pgID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Customer{}, ErrCustomerNotFound
		}
		return Customer{}, fmt.Errorf("get customer: %w", err)
	}
	item := toCustomer(row)
	idents, err := s.queries.ListCustomerIdentifiers(ctx, pgID)
	if err != nil {
		return Customer{}, fmt.Errorf("list customer identifiers: %w", err)
	}
	for _, ident := range idents {
		item.Identifiers = append(item.Identifiers, toIdentifier(ident))
	}
	return item, nil
}

func (s *Service) ListIdentifiers(ctx context.Context, customerID string) ([]Identifier, error) {
	if s.queries == nil {
		return nil, fmt.Errorf("customer queries not configured")
	}
	pgID, err := db.ParseUUID(customerID)
	if err != nil {
		return nil, err
	}
	rows, err := s.queries.ListCustomerIdentifiers(ctx, pgID)
	if err != nil {
		return nil, fmt.Errorf("list customer identifiers: %w", err)
	}
	items := make([]Identifier, 0, len(rows))
	for _, row := range rows {
		items = append(items, toIdentifier(row))
	}
	return items, nil
}

// AddTag appends a tag unless the customer already carries it.
func (s *Service) AddTag(ctx context.Context, customerID, tag string) error {
	if s.queries == nil {
		return fmt.Errorf("customer queries not configured")
	}
	pgID, err := db.ParseUUID(customerID)
	if err != nil {
		return err
	}
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return fmt.Errorf("tag is required")
	}
	if err := s.queries.AddCustomerTag(ctx, sqlc.AddCustomerTagParams{ID: pgID, Tag: tag}); err != nil {
		return fmt.Errorf("add customer tag: %w", err)
	}
	return nil
}

func (s *Service) SetVip(ctx context.Context, customerID string, isVip bool) error {
	if s.queries == nil {
		return fmt.Errorf("customer queries not configured")
	}
	pgID, err := db.ParseUUID(customerID)
	if err != nil {
		return err
	}
	if err := s.queries.SetCustomerVip(ctx, sqlc.SetCustomerVipParams{ID: pgID, IsVip: isVip}); err != nil {
		return fmt.Errorf("set customer vip: %w", err)
	}
	return nil
}

func normalizeIdentifier(identifierType, identifierValue string) (string, string, error) {
	identifierType = strings.ToLower(strings.TrimSpace(identifierType))
	identifierValue = strings.TrimSpace(identifierValue)
	if identifierType == "" {
		return "", "", fmt.Errorf("identifier type is required")
	}
	if identifierValue == "" {
		return "", "", fmt.Errorf("identifier value is required")
	}
	if identifierType == IdentifierEmail {
		identifierValue = strings.ToLower(identifierValue)
	}
	return identifierType, identifierValue, nil
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

func toCustomer(row sqlc.Customer) Customer {
	tags := row.Tags
	if tags == nil {
		tags = []string{}
	}
	return Customer{
		ID:          toUUIDString(row.ID),
		DisplayName: db.TextToString(row.DisplayName),
		AvatarURL:   db.TextToString(row.AvatarUrl),
		Tags:        tags,
		IsVip:       row.IsVip,
		CreatedAt:   db.TimeFromPg(row.CreatedAt),
		UpdatedAt:   db.TimeFromPg(row.UpdatedAt),
	}
}

func toIdentifier(row sqlc.CustomerIdentifier) Identifier {
	return Identifier{
		Type:      row.IdentifierType,
		Value:     row.IdentifierValue,
		Channel:   row.Channel,
		Verified:  row.Verified,
		CreatedAt: db.TimeFromPg(row.CreatedAt),
	}
}
