// Package repository provides typed wrappers over the backend's record
// collections. Each repo validates its inputs against closed allow-lists
// before anything is interpolated into a filter expression or path, so
// malformed or hostile input never reaches the query language.
package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Atan0707/lepakmasjid/internal/models"
	"github.com/Atan0707/lepakmasjid/pkg/pocketbase"
)

const UsersCollection = "users"

type UserRepo struct {
	pb *pocketbase.Client
}

func NewUserRepo(pb *pocketbase.Client) *UserRepo {
	return &UserRepo{pb: pb}
}

func (r *UserRepo) List(ctx context.Context, page, perPage int) ([]models.User, int, error) {
	result, err := r.pb.List(ctx, UsersCollection, &pocketbase.ListOptions{
		Page:    page,
		PerPage: perPage,
		Sort:    "-created",
	})
	if err != nil {
		return nil, 0, err
	}
	users := make([]models.User, 0, len(result.Items))
	for _, doc := range result.Items {
		u, err := docToUser(doc)
		if err != nil {
			continue
		}
		users = append(users, *u)
	}
	return users, result.TotalItems, nil
}

func (r *UserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if !models.IsValidRecordID(id) {
		return nil, fmt.Errorf("%w: %q", models.ErrInvalidRecordID, id)
	}
	doc, err := r.pb.GetOne(ctx, UsersCollection, id, "")
	if err != nil {
		return nil, err
	}
	return docToUser(doc)
}

func (r *UserRepo) Create(ctx context.Context, email, password, name string) (*models.User, error) {
	doc, err := r.pb.Create(ctx, UsersCollection, map[string]any{
		"email":           email,
		"password":        password,
		"passwordConfirm": password,
		"name":            name,
	})
	if err != nil {
		return nil, err
	}
	return docToUser(doc)
}

func (r *UserRepo) Update(ctx context.Context, id string, fields map[string]any) (*models.User, error) {
	if !models.IsValidRecordID(id) {
		return nil, fmt.Errorf("%w: %q", models.ErrInvalidRecordID, id)
	}
	doc, err := r.pb.Update(ctx, UsersCollection, id, fields)
	if err != nil {
		return nil, err
	}
	return docToUser(doc)
}

func docToUser(doc map[string]any) (*models.User, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal user doc: %w", err)
	}
	var u models.User
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, fmt.Errorf("unmarshal user: %w", err)
	}
	return &u, nil
}
