package service

import (
	"context"
	"fmt"
	"strings"

	"go-trading-post/internal/model"
	"go-trading-post/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type PartyRequest struct {
	Name      string `json:"name" validate:"required,max=255"`
	Race      string `json:"race"`
	Specialty string `json:"specialty"`
	Location  string `json:"location" validate:"max=255"`
}

// PartyService manages hunters and merchants. The transaction engine only
// reads them, through PartyResolver.
type PartyService interface {
	Create(ctx context.Context, kind model.PartyKind, req *PartyRequest, actor string) (*model.Party, error)
	List(ctx context.Context, kind model.PartyKind, name string) ([]model.Party, error)
	Get(ctx context.Context, kind model.PartyKind, id uuid.UUID) (*model.Party, error)
	GetByName(ctx context.Context, kind model.PartyKind, name string) (*model.Party, error)
	Update(ctx context.Context, kind model.PartyKind, id uuid.UUID, req *PartyRequest, actor string) (*model.Party, error)
	Delete(ctx context.Context, kind model.PartyKind, id uuid.UUID, actor string) error
}

type partyService struct {
	repo   repository.PartyRepository
	logger *zap.Logger
}

func NewPartyService(repo repository.PartyRepository, logger *zap.Logger) PartyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &partyService{repo: repo, logger: logger}
}

func (r *PartyRequest) validate(kind model.PartyKind) error {
	if r == nil {
		return invalid("request body is required")
	}
	r.Name = strings.TrimSpace(r.Name)
	if err := validate(r); err != nil {
		return err
	}
	switch kind {
	case model.PartyHunter:
		if !contains(model.HunterRaces, r.Race) {
			return invalid("race must be one of %s", strings.Join(model.HunterRaces, ", "))
		}
		if r.Specialty != "" {
			return invalid("hunters have no specialty")
		}
	case model.PartyMerchant:
		if !contains(model.MerchantSpecialties, r.Specialty) {
			return invalid("specialty must be one of %s", strings.Join(model.MerchantSpecialties, ", "))
		}
		if r.Race != "" {
			return invalid("merchants have no race")
		}
	default:
		return invalid("unknown party kind '%s'", kind)
	}
	return nil
}

func (s *partyService) Create(ctx context.Context, kind model.PartyKind, req *PartyRequest, actor string) (*model.Party, error) {
	if err := req.validate(kind); err != nil {
		return nil, err
	}

	existing, err := s.repo.Lookup(nil, kind, req.Name)
	if err != nil && !isRecordNotFound(err) {
		return nil, storageFailure("create party", err)
	}
	if err == nil && existing.ID != uuid.Nil {
		return nil, fmt.Errorf("%w: %s '%s'", ErrPartyExists, kind, req.Name)
	}

	party := &model.Party{
		Kind:      kind,
		Name:      req.Name,
		Race:      req.Race,
		Specialty: req.Specialty,
		Location:  req.Location,
	}
	party.CreatedBy = actor
	party.UpdatedBy = actor

	if err := s.repo.Create(party); err != nil {
		return nil, storageFailure("create party", err)
	}
	s.logger.Info("party created", zap.String("kind", string(kind)), zap.String("name", party.Name), zap.String("actor", actor))
	return party, nil
}

func (s *partyService) List(ctx context.Context, kind model.PartyKind, name string) ([]model.Party, error) {
	parties, err := s.repo.FindAll(kind, strings.TrimSpace(name))
	if err != nil {
		return nil, storageFailure("list parties", err)
	}
	return parties, nil
}

func (s *partyService) Get(ctx context.Context, kind model.PartyKind, id uuid.UUID) (*model.Party, error) {
	party, err := s.repo.FindByID(kind, id)
	if isRecordNotFound(err) {
		return nil, &NotFoundError{Kind: ErrPartyNotFound, Key: fmt.Sprintf("%s %s", kind, id)}
	}
	if err != nil {
		return nil, storageFailure("get party", err)
	}
	return party, nil
}

func (s *partyService) GetByName(ctx context.Context, kind model.PartyKind, name string) (*model.Party, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("name is required")
	}
	party, err := s.repo.FindByName(kind, name)
	if isRecordNotFound(err) {
		return nil, &NotFoundError{Kind: ErrPartyNotFound, Key: fmt.Sprintf("%s '%s'", kind, name)}
	}
	if err != nil {
		return nil, storageFailure("get party", err)
	}
	return party, nil
}

// Update edits a party. Renaming does not rewrite the name snapshots already
// stored on transactions.
func (s *partyService) Update(ctx context.Context, kind model.PartyKind, id uuid.UUID, req *PartyRequest, actor string) (*model.Party, error) {
	if err := req.validate(kind); err != nil {
		return nil, err
	}
	party, err := s.Get(ctx, kind, id)
	if err != nil {
		return nil, err
	}

	if req.Name != party.Name {
		clash, err := s.repo.Lookup(nil, kind, req.Name)
		if err != nil && !isRecordNotFound(err) {
			return nil, storageFailure("update party", err)
		}
		if err == nil && clash.ID != party.ID {
			return nil, fmt.Errorf("%w: %s '%s'", ErrPartyExists, kind, req.Name)
		}
	}

	party.Name = req.Name
	party.Race = req.Race
	party.Specialty = req.Specialty
	party.Location = req.Location
	party.UpdatedBy = actor

	if err := s.repo.Update(party); err != nil {
		return nil, storageFailure("update party", err)
	}
	s.logger.Info("party updated", zap.String("kind", string(kind)), zap.String("party_id", id.String()), zap.String("actor", actor))
	return party, nil
}

func (s *partyService) Delete(ctx context.Context, kind model.PartyKind, id uuid.UUID, actor string) error {
	err := s.repo.Delete(kind, id)
	if isRecordNotFound(err) {
		return &NotFoundError{Kind: ErrPartyNotFound, Key: fmt.Sprintf("%s %s", kind, id)}
	}
	if err != nil {
		return storageFailure("delete party", err)
	}
	s.logger.Info("party deleted", zap.String("kind", string(kind)), zap.String("party_id", id.String()), zap.String("actor", actor))
	return nil
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
