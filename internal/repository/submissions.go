package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Atan0707/lepakmasjid/internal/models"
	"github.com/Atan0707/lepakmasjid/pkg/pocketbase"
)

const SubmissionsCollection = "submissions"

type SubmissionRepo struct {
	pb *pocketbase.Client
}

func NewSubmissionRepo(pb *pocketbase.Client) *SubmissionRepo {
	return &SubmissionRepo{pb: pb}
}

// List returns one page of submissions, newest first. status filters by
// review state and must be one of the closed status set; "" lists all.
func (r *SubmissionRepo) List(ctx context.Context, status string, page, perPage int) ([]models.Submission, int, error) {
	filter := ""
	if status != "" {
		st, err := models.ParseStatus(status)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: %q", err, status)
		}
		filter = fmt.Sprintf("status = %q", st)
	}
	return r.list(ctx, filter, page, perPage)
}

// ListBySubmitter returns the submissions created by one user.
func (r *SubmissionRepo) ListBySubmitter(ctx context.Context, userID string, page, perPage int) ([]models.Submission, int, error) {
	if !models.IsValidRecordID(userID) {
		return nil, 0, fmt.Errorf("%w: %q", models.ErrInvalidRecordID, userID)
	}
	return r.list(ctx, fmt.Sprintf("submitted_by = %q", userID), page, perPage)
}

func (r *SubmissionRepo) list(ctx context.Context, filter string, page, perPage int) ([]models.Submission, int, error) {
	result, err := r.pb.List(ctx, SubmissionsCollection, &pocketbase.ListOptions{
		Page:    page,
		PerPage: perPage,
		Filter:  filter,
		Sort:    "-created",
	})
	if err != nil {
		return nil, 0, err
	}
	subs := make([]models.Submission, 0, len(result.Items))
	for _, doc := range result.Items {
		s, err := docToSubmission(doc)
		if err != nil {
			continue
		}
		subs = append(subs, *s)
	}
	return subs, result.TotalItems, nil
}

func (r *SubmissionRepo) FindByID(ctx context.Context, id string) (*models.Submission, error) {
	if !models.IsValidRecordID(id) {
		return nil, fmt.Errorf("%w: %q", models.ErrInvalidRecordID, id)
	}
	doc, err := r.pb.GetOne(ctx, SubmissionsCollection, id, "")
	if err != nil {
		return nil, err
	}
	return docToSubmission(doc)
}

// Create submits a new proposal. The record goes up as multipart form data
// only when an image is attached, plain JSON otherwise. The submitter is
// taken from the client's authenticated session when present.
func (r *SubmissionRepo) Create(ctx context.Context, typ string, data map[string]any, image *pocketbase.File) (*models.Submission, error) {
	st, err := models.ParseType(typ)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", err, typ)
	}
	body := map[string]any{
		"type":   string(st),
		"data":   data,
		"status": string(models.StatusPending),
	}
	if submitter := r.pb.AuthStore().RecordID(); submitter != "" {
		body["submitted_by"] = submitter
	}

	var doc map[string]any
	if image != nil {
		doc, err = r.pb.CreateWithFiles(ctx, SubmissionsCollection, body, []pocketbase.File{*image})
	} else {
		doc, err = r.pb.Create(ctx, SubmissionsCollection, body)
	}
	if err != nil {
		return nil, err
	}
	return docToSubmission(doc)
}

func (r *SubmissionRepo) Update(ctx context.Context, id string, fields map[string]any) (*models.Submission, error) {
	if !models.IsValidRecordID(id) {
		return nil, fmt.Errorf("%w: %q", models.ErrInvalidRecordID, id)
	}
	doc, err := r.pb.Update(ctx, SubmissionsCollection, id, fields)
	if err != nil {
		return nil, err
	}
	return docToSubmission(doc)
}

// SetStatus records a review decision: the new status, who reviewed it and
// when, plus the rejection reason when one is given.
func (r *SubmissionRepo) SetStatus(ctx context.Context, id string, status models.SubmissionStatus, reviewerID, reason string) (*models.Submission, error) {
	if !models.IsValidRecordID(id) {
		return nil, fmt.Errorf("%w: %q", models.ErrInvalidRecordID, id)
	}
	if reviewerID != "" && !models.IsValidRecordID(reviewerID) {
		return nil, fmt.Errorf("%w: reviewer %q", models.ErrInvalidRecordID, reviewerID)
	}
	fields := map[string]any{
		"status":      string(status),
		"reviewed_by": reviewerID,
		"reviewed_at": models.NowDateTime(),
	}
	if reason != "" {
		fields["rejection_reason"] = reason
	}
	return r.Update(ctx, id, fields)
}

func docToSubmission(doc map[string]any) (*models.Submission, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal submission doc: %w", err)
	}
	var s models.Submission
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshal submission: %w", err)
	}
	return &s, nil
}
