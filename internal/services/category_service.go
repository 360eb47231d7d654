package services

import (
	"context"
	"fmt"

	"kantong/internal/cache"
	"kantong/internal/core"
	"kantong/internal/log"

	"github.com/google/uuid"
)

// CategoryService manages the category catalogue. Lookups go through a small
// read-through cache since every expense write and read resolves its category.
type CategoryService struct {
	store  CategoryStore
	cache  cache.Cache[core.Category]
	clock  Clock
	logger *log.Logger
}

func NewCategoryService(store CategoryStore, c cache.Cache[core.Category], clock Clock, logger *log.Logger) *CategoryService {
	return &CategoryService{
		store:  store,
		cache:  c,
		clock:  clock,
		logger: logger.WithComponent(log.ComponentCategory),
	}
}

func visibleTo(c core.Category, userID string) bool {
	return c.IsSystem || (c.UserID != nil && *c.UserID == userID)
}

// Lookup returns a live category by id regardless of owner.
func (s *CategoryService) Lookup(ctx context.Context, id string) (core.Category, error) {
	if c, ok := s.cache.Get(id); ok {
		return c, nil
	}
	c, err := s.store.GetCategory(ctx, id)
	if err != nil {
		return core.Category{}, notFound(err, "category")
	}
	s.cache.Set(id, c)
	return c, nil
}

// Get returns a category the user can see: a system one or their own.
func (s *CategoryService) Get(ctx context.Context, id, userID string) (core.Category, error) {
	c, err := s.Lookup(ctx, id)
	if err != nil {
		return core.Category{}, err
	}
	if !visibleTo(c, userID) {
		return core.Category{}, core.NotFound("category not found")
	}
	return c, nil
}

func (s *CategoryService) List(ctx context.Context, userID string) ([]core.Category, error) {
	cats, err := s.store.ListCategories(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}

func (s *CategoryService) Create(ctx context.Context, userID string, d core.CategoryDraft) (core.Category, error) {
	if err := d.Validate(); err != nil {
		return core.Category{}, err
	}
	if d.ParentID != nil {
		if _, err := s.Get(ctx, *d.ParentID, userID); err != nil {
			return core.Category{}, core.NotFound("parent category not found")
		}
	}

	now := s.clock.now()
	owner := userID
	c := core.Category{
		ID:        uuid.NewString(),
		Name:      d.Name,
		Type:      d.Type,
		Icon:      d.Icon,
		Color:     d.Color,
		ParentID:  d.ParentID,
		UserID:    &owner,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateCategory(ctx, c); err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}

	s.logger.InfoContext(ctx, "Category created", log.FieldUserID, userID, log.FieldCategoryID, c.ID)
	return c, nil
}

// owned loads a category the user may modify. System categories are read-only.
func (s *CategoryService) owned(ctx context.Context, id, userID string) (core.Category, error) {
	c, err := s.Get(ctx, id, userID)
	if err != nil {
		return core.Category{}, err
	}
	if c.IsSystem {
		return core.Category{}, core.Forbidden("System categories cannot be modified")
	}
	return c, nil
}

func (s *CategoryService) Update(ctx context.Context, id, userID string, p core.CategoryPatch) (core.Category, error) {
	if err := p.Validate(); err != nil {
		return core.Category{}, err
	}
	c, err := s.owned(ctx, id, userID)
	if err != nil {
		return core.Category{}, err
	}

	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Type != nil {
		c.Type = *p.Type
	}
	if p.Icon != nil {
		c.Icon = *p.Icon
	}
	if p.Color != nil {
		c.Color = *p.Color
	}
	if p.ParentID != nil {
		if *p.ParentID == c.ID {
			return core.Category{}, core.Invalid("parentCategoryId", "a category cannot be its own parent")
		}
		if _, err := s.Get(ctx, *p.ParentID, userID); err != nil {
			return core.Category{}, core.NotFound("parent category not found")
		}
		c.ParentID = p.ParentID
	}
	c.UpdatedAt = s.clock.now()

	if err := s.store.UpdateCategory(ctx, c); err != nil {
		return core.Category{}, notFound(err, "category")
	}
	s.cache.Delete(id)

	s.logger.InfoContext(ctx, "Category updated", log.FieldUserID, userID, log.FieldCategoryID, id)
	return c, nil
}

// Remove soft-deletes a user category that no live expense references.
func (s *CategoryService) Remove(ctx context.Context, id, userID string) error {
	if _, err := s.owned(ctx, id, userID); err != nil {
		return err
	}

	n, err := s.store.CountCategoryExpenses(ctx, id)
	if err != nil {
		return fmt.Errorf("count category expenses: %w", err)
	}
	if n > 0 {
		return core.Invalid("categoryId", fmt.Sprintf("category is used by %d expenses", n))
	}

	if err := s.store.DeleteCategory(ctx, id, s.clock.now()); err != nil {
		return notFound(err, "category")
	}
	s.cache.Delete(id)

	s.logger.InfoContext(ctx, "Category removed", log.FieldUserID, userID, log.FieldCategoryID, id)
	return nil
}
