// Package service implements the moderation and account workflows that run
// on top of the collection wrappers.
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/Atan0707/lepakmasjid/internal/models"
	"github.com/Atan0707/lepakmasjid/internal/repository"
	"github.com/Atan0707/lepakmasjid/pkg/pocketbase"
)

var (
	ErrNotPending       = errors.New("submission has already been reviewed")
	ErrMissingMosqueRef = errors.New("edit submission has no mosque reference")
)

// approvedMosqueFields is the fixed set of keys copied from submission data
// into a mosque record on approval. Anything else a submitter managed to
// stuff into the data object is dropped.
var approvedMosqueFields = []string{"name", "address", "latitude", "longitude", "description"}

// Allowed image MIME types and extensions for re-attached submission images.
var (
	allowedImageTypes = map[string]struct{}{
		"image/jpeg": {},
		"image/jpg":  {},
		"image/png":  {},
		"image/webp": {},
		"image/gif":  {},
	}
	allowedImageExtensions = map[string]struct{}{
		".jpg":  {},
		".jpeg": {},
		".png":  {},
		".webp": {},
		".gif":  {},
	}
)

type ReviewService struct {
	subs    *repository.SubmissionRepo
	mosques *repository.MosqueRepo
	pb      *pocketbase.Client
	logger  *zap.Logger
}

func NewReviewService(subs *repository.SubmissionRepo, mosques *repository.MosqueRepo, pb *pocketbase.Client, logger *zap.Logger) *ReviewService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReviewService{subs: subs, mosques: mosques, pb: pb, logger: logger}
}

// Approve applies a pending submission: its allow-listed fields become a new
// mosque record or an update to the referenced one, the attached image is
// carried over when it can be fetched and passes the type check, and the
// submission is marked approved with the reviewer and timestamp.
//
// A failed image fetch downgrades to an approval without image. A failed
// mosque write aborts the approval.
func (s *ReviewService) Approve(ctx context.Context, submissionID, reviewerID string) (*models.Submission, error) {
	sub, err := s.subs.FindByID(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if sub.Status != models.StatusPending {
		return nil, fmt.Errorf("%w: %s is %s", ErrNotPending, sub.ID, sub.Status)
	}
	if reviewerID != "" && !models.IsValidRecordID(reviewerID) {
		return nil, fmt.Errorf("%w: reviewer %q", models.ErrInvalidRecordID, reviewerID)
	}

	fields := copyApprovedFields(sub.Data)
	image := s.fetchSubmissionImage(ctx, sub)

	decision := map[string]any{
		"status":      string(models.StatusApproved),
		"reviewed_by": reviewerID,
		"reviewed_at": models.NowDateTime(),
	}

	switch sub.Type {
	case models.TypeNewMosque:
		fields["status"] = string(models.StatusApproved)
		if sub.SubmittedBy != "" {
			fields["created_by"] = sub.SubmittedBy
		}
		mosque, err := s.mosques.Create(ctx, fields, image)
		if err != nil {
			return nil, fmt.Errorf("create mosque: %w", err)
		}
		decision["mosque_id"] = mosque.ID
	case models.TypeEditMosque:
		if sub.MosqueID == "" {
			return nil, fmt.Errorf("%w: %s", ErrMissingMosqueRef, sub.ID)
		}
		if _, err := s.mosques.Update(ctx, sub.MosqueID, fields, image); err != nil {
			return nil, fmt.Errorf("update mosque %s: %w", sub.MosqueID, err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", models.ErrInvalidType, sub.Type)
	}

	approved, err := s.subs.Update(ctx, sub.ID, decision)
	if err != nil {
		return nil, fmt.Errorf("mark submission approved: %w", err)
	}
	return approved, nil
}

// Reject marks a pending submission rejected, recording the reviewer and the
// reason shown to the submitter.
func (s *ReviewService) Reject(ctx context.Context, submissionID, reviewerID, reason string) (*models.Submission, error) {
	sub, err := s.subs.FindByID(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if sub.Status != models.StatusPending {
		return nil, fmt.Errorf("%w: %s is %s", ErrNotPending, sub.ID, sub.Status)
	}
	return s.subs.SetStatus(ctx, sub.ID, models.StatusRejected, reviewerID, reason)
}

// fetchSubmissionImage re-downloads the submission's attached image so it can
// be re-uploaded onto the mosque record. Any failure here only costs the
// image, never the approval.
func (s *ReviewService) fetchSubmissionImage(ctx context.Context, sub *models.Submission) *pocketbase.File {
	if sub.Image == "" {
		return nil
	}
	data, contentType, err := s.pb.DownloadFile(ctx, repository.SubmissionsCollection, sub.ID, sub.Image)
	if err != nil {
		s.logger.Warn("submission image fetch failed, approving without image",
			zap.String("submission", sub.ID),
			zap.String("image", sub.Image),
			zap.Error(err),
		)
		return nil
	}
	if !allowedImage(contentType, sub.Image) {
		s.logger.Warn("submission image type not allowed, approving without image",
			zap.String("submission", sub.ID),
			zap.String("content_type", contentType),
		)
		return nil
	}
	return &pocketbase.File{Field: "image", Name: sub.Image, Reader: bytes.NewReader(data)}
}

func copyApprovedFields(data map[string]any) map[string]any {
	fields := make(map[string]any, len(approvedMosqueFields))
	for _, key := range approvedMosqueFields {
		if value, ok := data[key]; ok {
			fields[key] = value
		}
	}
	return fields
}

// allowedImage accepts when either the content type or the file extension is
// on the image allow-list.
func allowedImage(contentType, filename string) bool {
	if contentType != "" {
		mediaType := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
		if _, ok := allowedImageTypes[mediaType]; ok {
			return true
		}
	}
	if ext := strings.ToLower(path.Ext(filename)); ext != "" {
		if _, ok := allowedImageExtensions[ext]; ok {
			return true
		}
	}
	return false
}
