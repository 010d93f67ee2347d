package service

import (
	"context"
	"strings"

	"tiendapos/internal/apierror"
	"tiendapos/internal/dto"
	"tiendapos/internal/model"
	"tiendapos/internal/repository"

	"github.com/google/uuid"
)

type CategoryService interface {
	Create(ctx context.Context, req dto.CategoryRequest) (*dto.CategoryResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.CategoryResponse, error)
	List(ctx context.Context, q dto.ListQuery) ([]dto.CategoryResponse, int64, error)
	Update(ctx context.Context, id uuid.UUID, req dto.CategoryRequest) (*dto.CategoryResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type categoryService struct {
	repo repository.CategoryRepository
}

func NewCategoryService(repo repository.CategoryRepository) CategoryService {
	return &categoryService{repo: repo}
}

func duplicateName(err error) error {
	if repository.IsUniqueViolation(err, "") {
		return apierror.Validation("Ya existe un registro con ese nombre", map[string]string{"name": "duplicado"})
	}
	return err
}

func (s *categoryService) Create(ctx context.Context, req dto.CategoryRequest) (*dto.CategoryResponse, error) {
	c := &model.Category{ID: uuid.New(), Name: strings.TrimSpace(req.Name), Description: req.Description}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, duplicateName(err)
	}
	resp := categoryToResponse(c)
	return &resp, nil
}

func (s *categoryService) Get(ctx context.Context, id uuid.UUID) (*dto.CategoryResponse, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Categoria")
	}
	resp := categoryToResponse(c)
	return &resp, nil
}

func (s *categoryService) List(ctx context.Context, q dto.ListQuery) ([]dto.CategoryResponse, int64, error) {
	rows, total, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	out := make([]dto.CategoryResponse, len(rows))
	for i := range rows {
		out[i] = categoryToResponse(&rows[i])
	}
	return out, total, nil
}

func (s *categoryService) Update(ctx context.Context, id uuid.UUID, req dto.CategoryRequest) (*dto.CategoryResponse, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Categoria")
	}
	c.Name = strings.TrimSpace(req.Name)
	c.Description = req.Description
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, duplicateName(err)
	}
	resp := categoryToResponse(c)
	return &resp, nil
}

// Delete refuses categories that still have products.
func (s *categoryService) Delete(ctx context.Context, id uuid.UUID) error {
	n, err := s.repo.CountProducts(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return apierror.Validation("La categoria tiene productos asociados", map[string]string{"products": "no vacio"})
	}
	return notFound(s.repo.Delete(ctx, id), "Categoria")
}
