// Package store is the record store for locals and visitors.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/backpack-city/backpack-api/internal/models"
	"gorm.io/gorm"
)

var (
	ErrDuplicateCode  = errors.New("referral code already exists")
	ErrNotFound       = errors.New("record not found")
	ErrStatusConflict = errors.New("visitor status does not allow this transition")
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// InsertLocal creates a local. A colliding referral code is rejected by the
// unique index and reported as ErrDuplicateCode; the existing row is untouched.
func (s *Store) InsertLocal(ctx context.Context, local *models.Local) error {
	if err := s.db.WithContext(ctx).Create(local).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert local %q: %w", local.ReferralCode, ErrDuplicateCode)
		}
		return fmt.Errorf("insert local: %w", err)
	}
	return nil
}

// FindLocalByCode is an exact, case-sensitive lookup.
func (s *Store) FindLocalByCode(ctx context.Context, code string) (*models.Local, error) {
	var local models.Local
	err := s.db.WithContext(ctx).Where("referral_code = ?", code).First(&local).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find local by code: %w", err)
	}
	return &local, nil
}

func (s *Store) ListLocals(ctx context.Context) ([]models.Local, error) {
	locals := []models.Local{}
	if err := s.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Find(&locals).Error; err != nil {
		return nil, fmt.Errorf("list locals: %w", err)
	}
	return locals, nil
}

func (s *Store) CountLocals(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Local{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count locals: %w", err)
	}
	return n, nil
}

func (s *Store) InsertVisitor(ctx context.Context, visitor *models.Visitor) error {
	if visitor.VerificationStatus == "" {
		visitor.VerificationStatus = models.StatusPending
	}
	if err := s.db.WithContext(ctx).Create(visitor).Error; err != nil {
		return fmt.Errorf("insert visitor: %w", err)
	}
	return nil
}

func (s *Store) GetVisitor(ctx context.Context, id uint) (*models.Visitor, error) {
	var visitor models.Visitor
	if err := s.db.WithContext(ctx).First(&visitor, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get visitor %d: %w", id, err)
	}
	return &visitor, nil
}

func (s *Store) ListVisitors(ctx context.Context) ([]models.Visitor, error) {
	visitors := []models.Visitor{}
	if err := s.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Find(&visitors).Error; err != nil {
		return nil, fmt.Errorf("list visitors: %w", err)
	}
	return visitors, nil
}

// UpdateVisitorStatus overwrites the status regardless of its current value.
func (s *Store) UpdateVisitorStatus(ctx context.Context, id uint, status models.VerificationStatus) (*models.Visitor, error) {
	return s.TransitionVisitor(ctx, id, status, nil)
}

// TransitionVisitor sets the status of visitor id to status, but only while
// the stored status is one of from. An empty from means any status. The
// guarded UPDATE and the re-read run in one transaction, so the returned row
// is the one this call wrote.
func (s *Store) TransitionVisitor(ctx context.Context, id uint, status models.VerificationStatus, from []models.VerificationStatus) (*models.Visitor, error) {
	var (
		visitor models.Visitor
		changed bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Model(&models.Visitor{}).Where("id = ?", id)
		if len(from) > 0 {
			q = q.Where("verification_status IN ?", from)
		}
		res := q.Updates(map[string]interface{}{
			"verification_status": status,
			"reviewed_at":         time.Now(),
		})
		if res.Error != nil {
			return fmt.Errorf("update visitor %d status: %w", id, res.Error)
		}
		changed = res.RowsAffected > 0

		if err := tx.First(&visitor, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("get visitor %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !changed {
		return &visitor, ErrStatusConflict
	}
	return &visitor, nil
}

// CodeLookup is a diagnostic view of a referral code. Only Exact reflects
// the redemption contract; the other fields help answer "why was my code
// rejected" questions.
type CodeLookup struct {
	Code            string           `json:"code"`
	Exact           *models.Local    `json:"exact"`
	CaseInsensitive *models.Local    `json:"case_insensitive"`
	Similar         []models.Local   `json:"similar"`
	UsedBy          []models.Visitor `json:"used_by"`
}

func (s *Store) LookupCode(ctx context.Context, code string) (*CodeLookup, error) {
	out := &CodeLookup{Code: code, Similar: []models.Local{}, UsedBy: []models.Visitor{}}
	db := s.db.WithContext(ctx)

	exact, err := s.FindLocalByCode(ctx, code)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	out.Exact = exact

	var folded models.Local
	err = db.Where("UPPER(referral_code) = UPPER(?)", code).First(&folded).Error
	switch {
	case err == nil:
		out.CaseInsensitive = &folded
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("case-insensitive lookup: %w", err)
	}

	if core := codeCore(code); core != "" {
		pattern := "%" + escapeLike(core) + "%"
		if err := db.Where("referral_code LIKE ? ESCAPE '\\'", pattern).
			Order("id DESC").Find(&out.Similar).Error; err != nil {
			return nil, fmt.Errorf("similar code lookup: %w", err)
		}
	}

	if err := db.Where("referral_code_used = ?", code).
		Order("created_at DESC").Find(&out.UsedBy).Error; err != nil {
		return nil, fmt.Errorf("code usage lookup: %w", err)
	}
	return out, nil
}

func codeCore(code string) string {
	code = strings.TrimSpace(code)
	if len(code) >= 3 && strings.EqualFold(code[:3], "BP-") {
		code = code[3:]
	}
	return code
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
