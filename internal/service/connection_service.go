package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"bizledger/internal/model"
	"bizledger/internal/moneybird"
	"bizledger/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Event types pushed to the user's dashboards
const (
	EventMoneybirdConnected    = "moneybird.connected"
	EventMoneybirdDisconnected = "moneybird.disconnected"
)

// --- DTOs ---

type ConnectRequest struct {
	AccessToken      string `json:"access_token" binding:"required"`
	AdministrationID string `json:"administration_id"`
}

type ConnectionStatus struct {
	Connected          bool       `json:"connected"`
	AdministrationID   string     `json:"administration_id,omitempty"`
	AdministrationName string     `json:"administration_name,omitempty"`
	UpdatedAt          *time.Time `json:"updated_at,omitempty"`
}

type AdministrationResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Currency string `json:"currency,omitempty"`
	Country  string `json:"country,omitempty"`
}

// --- Interfaces ---

// EventPublisher delivers an event to the sockets of one user
type EventPublisher interface {
	Publish(userID string, eventType string, payload any)
}

type ConnectionService interface {
	Connect(ctx context.Context, userID string, req ConnectRequest) (*ConnectionStatus, error)
	Status(ctx context.Context, userID string) (*ConnectionStatus, error)
	Disconnect(ctx context.Context, userID string) error
	ListAdministrations(ctx context.Context, userID string) ([]AdministrationResponse, error)
}

type connectionService struct {
	tx          repository.TransactionManager
	connections repository.ConnectionRepository
	audit       repository.AuditRepository
	admins      AdministrationLister
	events      EventPublisher
	log         *zap.Logger
}

func NewConnectionService(
	tx repository.TransactionManager,
	connections repository.ConnectionRepository,
	audit repository.AuditRepository,
	admins AdministrationLister,
	events EventPublisher,
	log *zap.Logger,
) ConnectionService {
	if log == nil {
		log = zap.NewNop()
	}
	return &connectionService{
		tx:          tx,
		connections: connections,
		audit:       audit,
		admins:      admins,
		events:      events,
		log:         log.Named("connection"),
	}
}

// --- Implementation ---

// Connect verifies the token against the accounting API before storing it.
// Without an explicit administration the first reachable one is selected.
func (s *connectionService) Connect(ctx context.Context, userID string, req ConnectRequest) (*ConnectionStatus, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	token := strings.TrimSpace(req.AccessToken)
	if token == "" {
		return nil, fmt.Errorf("%w: access_token is required", ErrInvalidInput)
	}

	admins, err := s.admins.ListAdministrations(ctx, token)
	if errors.Is(err, moneybird.ErrUnauthorized) {
		return nil, ErrCredentialRejected
	}
	if err != nil {
		return nil, fmt.Errorf("list administrations: %w", err)
	}

	selected, err := pickAdministration(admins, strings.TrimSpace(req.AdministrationID))
	if err != nil {
		return nil, err
	}

	conn := &model.MoneybirdConnection{
		UserID:             uid,
		AccessToken:        token,
		AdministrationID:   string(selected.ID),
		AdministrationName: selected.Name,
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.connections.Upsert(txCtx, conn); err != nil {
			return fmt.Errorf("store connection: %w", err)
		}
		return s.record(txCtx, uid, model.ActionConnectMoneybird, conn)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("moneybird connected",
		zap.String("user_id", userID),
		zap.String("administration_id", conn.AdministrationID),
	)
	status := statusOf(conn)
	s.publish(userID, EventMoneybirdConnected, status)
	return status, nil
}

func (s *connectionService) Status(ctx context.Context, userID string) (*ConnectionStatus, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	conn, err := s.connections.GetByUserID(ctx, uid)
	if errors.Is(err, repository.ErrNotFound) {
		return &ConnectionStatus{Connected: false}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load connection: %w", err)
	}
	return statusOf(conn), nil
}

// Disconnect removes the stored credential. Disconnecting twice is not an error.
func (s *connectionService) Disconnect(ctx context.Context, userID string) error {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return ErrUnauthenticated
	}

	var deleted bool
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		deleted, err = s.connections.DeleteByUserID(txCtx, uid)
		if err != nil {
			return fmt.Errorf("delete connection: %w", err)
		}
		if !deleted {
			return nil
		}
		return s.record(txCtx, uid, model.ActionDisconnectMoneybird, nil)
	})
	if err != nil {
		return err
	}

	if deleted {
		s.log.Info("moneybird disconnected", zap.String("user_id", userID))
		s.publish(userID, EventMoneybirdDisconnected, ConnectionStatus{Connected: false})
	}
	return nil
}

func (s *connectionService) ListAdministrations(ctx context.Context, userID string) ([]AdministrationResponse, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	conn, err := s.connections.GetByUserID(ctx, uid)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNoCredential
	}
	if err != nil {
		return nil, fmt.Errorf("load connection: %w", err)
	}

	admins, err := s.admins.ListAdministrations(ctx, conn.AccessToken)
	if errors.Is(err, moneybird.ErrUnauthorized) {
		return nil, ErrCredentialRejected
	}
	if err != nil {
		return nil, fmt.Errorf("list administrations: %w", err)
	}

	res := make([]AdministrationResponse, 0, len(admins))
	for _, a := range admins {
		res = append(res, AdministrationResponse{
			ID:       string(a.ID),
			Name:     a.Name,
			Currency: a.Currency,
			Country:  a.Country,
		})
	}
	return res, nil
}

// pickAdministration returns the requested administration, or the first one
// when none was requested. An empty list yields an empty selection.
func pickAdministration(admins []moneybird.Administration, wanted string) (moneybird.Administration, error) {
	if wanted == "" {
		for _, a := range admins {
			if a.ID != "" {
				return a, nil
			}
		}
		return moneybird.Administration{}, nil
	}
	for _, a := range admins {
		if string(a.ID) == wanted {
			return a, nil
		}
	}
	return moneybird.Administration{}, fmt.Errorf("%w: administration %s is not reachable with this token", ErrInvalidInput, wanted)
}

func (s *connectionService) record(ctx context.Context, userID uuid.UUID, action string, conn *model.MoneybirdConnection) error {
	entry := &model.AuditLog{
		UserID:   &userID,
		Action:   action,
		EntityID: userID.String(),
		Details:  "{}",
	}
	if conn != nil {
		entry.EntityName = conn.AdministrationName
		details, _ := json.Marshal(map[string]string{"administration_id": conn.AdministrationID})
		entry.Details = string(details)
	}
	if err := s.audit.Log(ctx, entry); err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}

func (s *connectionService) publish(userID, eventType string, payload any) {
	if s.events == nil {
		return
	}
	s.events.Publish(userID, eventType, payload)
}

func statusOf(conn *model.MoneybirdConnection) *ConnectionStatus {
	st := &ConnectionStatus{
		Connected:          conn.AccessToken != "",
		AdministrationID:   conn.AdministrationID,
		AdministrationName: conn.AdministrationName,
	}
	if !conn.UpdatedAt.IsZero() {
		updated := conn.UpdatedAt
		st.UpdatedAt = &updated
	}
	return st
}
