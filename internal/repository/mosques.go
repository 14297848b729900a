package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Atan0707/lepakmasjid/internal/models"
	"github.com/Atan0707/lepakmasjid/pkg/pocketbase"
)

const MosquesCollection = "mosques"

type MosqueRepo struct {
	pb *pocketbase.Client
}

func NewMosqueRepo(pb *pocketbase.Client) *MosqueRepo {
	return &MosqueRepo{pb: pb}
}

// List returns one page of mosques, newest first, optionally filtered by
// status ("" lists all). Mosques share the submission status vocabulary.
func (r *MosqueRepo) List(ctx context.Context, status string, page, perPage int) ([]models.Mosque, int, error) {
	filter := ""
	if status != "" {
		st, err := models.ParseStatus(status)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: %q", err, status)
		}
		filter = fmt.Sprintf("status = %q", st)
	}
	result, err := r.pb.List(ctx, MosquesCollection, &pocketbase.ListOptions{
		Page:    page,
		PerPage: perPage,
		Filter:  filter,
		Sort:    "-created",
	})
	if err != nil {
		return nil, 0, err
	}
	mosques := make([]models.Mosque, 0, len(result.Items))
	for _, doc := range result.Items {
		m, err := docToMosque(doc)
		if err != nil {
			continue
		}
		mosques = append(mosques, *m)
	}
	return mosques, result.TotalItems, nil
}

func (r *MosqueRepo) FindByID(ctx context.Context, id string) (*models.Mosque, error) {
	if !models.IsValidRecordID(id) {
		return nil, fmt.Errorf("%w: %q", models.ErrInvalidRecordID, id)
	}
	doc, err := r.pb.GetOne(ctx, MosquesCollection, id, "")
	if err != nil {
		return nil, err
	}
	return docToMosque(doc)
}

// Create inserts a mosque record, as multipart when an image is attached.
func (r *MosqueRepo) Create(ctx context.Context, fields map[string]any, image *pocketbase.File) (*models.Mosque, error) {
	var (
		doc map[string]any
		err error
	)
	if image != nil {
		doc, err = r.pb.CreateWithFiles(ctx, MosquesCollection, fields, []pocketbase.File{*image})
	} else {
		doc, err = r.pb.Create(ctx, MosquesCollection, fields)
	}
	if err != nil {
		return nil, err
	}
	return docToMosque(doc)
}

// Update patches a mosque record, as multipart when an image is attached.
func (r *MosqueRepo) Update(ctx context.Context, id string, fields map[string]any, image *pocketbase.File) (*models.Mosque, error) {
	if !models.IsValidRecordID(id) {
		return nil, fmt.Errorf("%w: %q", models.ErrInvalidRecordID, id)
	}
	var (
		doc map[string]any
		err error
	)
	if image != nil {
		doc, err = r.pb.UpdateWithFiles(ctx, MosquesCollection, id, fields, []pocketbase.File{*image})
	} else {
		doc, err = r.pb.Update(ctx, MosquesCollection, id, fields)
	}
	if err != nil {
		return nil, err
	}
	return docToMosque(doc)
}

func docToMosque(doc map[string]any) (*models.Mosque, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal mosque doc: %w", err)
	}
	var m models.Mosque
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal mosque: %w", err)
	}
	return &m, nil
}
