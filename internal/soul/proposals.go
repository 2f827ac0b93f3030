package soul

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/Shawm69/fbigposter/internal/apperr"
	"github.com/Shawm69/fbigposter/internal/models"
	"github.com/Shawm69/fbigposter/internal/storage"
)

type proposalsDoc struct {
	Proposals []models.SoulProposal `json:"proposals"`
}

func (s *Store) loadProposals() (*proposalsDoc, error) {
	data, err := s.store.Read(storage.ProposalsPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &proposalsDoc{}, nil
		}
		return nil, err
	}
	var doc proposalsDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("soul: decode proposals: %w", err)
	}
	return &doc, nil
}

func (s *Store) saveProposals(doc *proposalsDoc) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("soul: encode proposals: %w", err)
	}
	return s.store.Write(storage.ProposalsPath, data)
}

// Propose records a pending identity-change suggestion. Nothing is applied
// until an operator resolves it.
func (s *Store) Propose(field, value, reason, evidence string, postIDs []string) (*models.SoulProposal, error) {
	req := struct{ Field, Value, Reason, Evidence string }{field, value, reason, evidence}
	err := validation.ValidateStruct(&req,
		validation.Field(&req.Field, validation.Required),
		validation.Field(&req.Value, validation.Required),
		validation.Field(&req.Reason, validation.Required),
		validation.Field(&req.Evidence, validation.Required),
	)
	if err != nil {
		return nil, fmt.Errorf("soul: %w: %v", apperr.ErrValidation, err)
	}
	if !KnownField(field) {
		return nil, fmt.Errorf("soul: %w: unknown field %q", apperr.ErrValidation, field)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.loadProposals()
	if err != nil {
		return nil, err
	}

	prop := models.SoulProposal{
		ID:        uuid.NewString(),
		CreatedAt: s.now(),
		Field:     field,
		Value:     value,
		Reason:    reason,
		Evidence:  evidence,
		PostIDs:   postIDs,
		Status:    models.ProposalPending,
	}
	doc.Proposals = append(doc.Proposals, prop)

	if err := s.saveProposals(doc); err != nil {
		return nil, err
	}
	return &prop, nil
}

// ListProposals returns proposals, optionally filtered by status.
func (s *Store) ListProposals(status string) ([]models.SoulProposal, error) {
	doc, err := s.loadProposals()
	if err != nil {
		return nil, err
	}
	if status == "" {
		return doc.Proposals, nil
	}
	var out []models.SoulProposal
	for _, p := range doc.Proposals {
		if p.Status == status {
			out = append(out, p)
		}
	}
	return out, nil
}

// Resolve approves or rejects a pending proposal. Approval applies the
// identity change through the same audited path as a direct operator edit,
// and the change must succeed before the approved status is persisted; a
// failed apply leaves the proposal pending and resolvable again.
func (s *Store) Resolve(id string, approve bool) (*models.SoulProposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.loadProposals()
	if err != nil {
		return nil, err
	}

	var target *models.SoulProposal
	for i := range doc.Proposals {
		if doc.Proposals[i].ID == id {
			target = &doc.Proposals[i]
			break
		}
	}
	if target == nil {
		return nil, fmt.Errorf("soul: proposal %s: %w", id, apperr.ErrNotFound)
	}
	if target.Status != models.ProposalPending {
		return nil, fmt.Errorf("soul: proposal %s already %s: %w", id, target.Status, apperr.ErrConflict)
	}

	if approve {
		reason := fmt.Sprintf("approved proposal %s: %s", target.ID, target.Reason)
		if _, err := s.applyChange(target.Field, target.Value, reason); err != nil {
			return nil, err
		}
		target.Status = models.ProposalApproved
	} else {
		target.Status = models.ProposalRejected
	}
	target.ResolvedAt = s.now()

	if err := s.saveProposals(doc); err != nil {
		return nil, err
	}
	resolved := *target
	return &resolved, nil
}
