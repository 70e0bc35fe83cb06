package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/sakif/ai-directory/internal/apperror"
	"github.com/sakif/ai-directory/internal/auth"
	"github.com/sakif/ai-directory/internal/metrics"
	"github.com/sakif/ai-directory/internal/model"
	"github.com/sakif/ai-directory/internal/repository"
)

// OptionalString tells a JSON field that is absent apart from one that is
// explicitly null. Set is true whenever the key was present.
type OptionalString struct {
	Set   bool
	Value *string
}

func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(data, []byte("null")) {
		o.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}

// ApproveOverrides lets the moderator correct a submission while approving
// it. Empty strings fall back to the submission's value. CategoryID may be
// set to null to publish the product without a category.
type ApproveOverrides struct {
	Name         *string        `json:"name"`
	Description  *string        `json:"description"`
	URL          *string        `json:"url"`
	CategoryID   OptionalString `json:"category_id"`
	CategoryName *string        `json:"category_name"`
	Pricing      *model.Pricing `json:"pricing"`
}

// ExportRow is one line of the submissions CSV export.
type ExportRow struct {
	ID              string `csv:"id"`
	Slug            string `csv:"slug"`
	Name            string `csv:"name"`
	URL             string `csv:"url"`
	Category        string `csv:"category"`
	Pricing         string `csv:"pricing"`
	Email           string `csv:"email"`
	Status          string `csv:"status"`
	RejectionReason string `csv:"rejection_reason"`
	CreatedAt       string `csv:"created_at"`
}

// AdminService holds the moderation operations. Route guards check the
// admin token; the service itself assumes an authorized caller.
type AdminService struct {
	credentials *auth.AdminCredentials
	tokens      *auth.TokenService
	submissions repository.SubmissionRepository
	products    repository.ProductRepository
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

func NewAdminService(
	credentials *auth.AdminCredentials,
	tokens *auth.TokenService,
	submissions repository.SubmissionRepository,
	products repository.ProductRepository,
	m *metrics.Metrics,
	logger *slog.Logger,
) *AdminService {
	return &AdminService{
		credentials: credentials,
		tokens:      tokens,
		submissions: submissions,
		products:    products,
		metrics:     m,
		logger:      logger,
	}
}

// Login checks the admin password and returns an admin session token.
func (s *AdminService) Login(password string) (string, error) {
	if password == "" {
		return "", apperror.ValidationFailed("password", "Password is required")
	}
	if err := s.credentials.Check(password); err != nil {
		s.logger.Warn("failed admin login")
		return "", apperror.Unauthorized("Invalid password")
	}

	token, err := s.tokens.GenerateAdmin()
	if err != nil {
		return "", fmt.Errorf("service/admin: generating admin token: %w", err)
	}
	s.logger.Info("admin logged in")
	return token, nil
}

// ListSubmissions returns submissions newest first. An empty status lists
// all of them.
func (s *AdminService) ListSubmissions(ctx context.Context, status string) ([]model.Submission, error) {
	if status != "" && !model.ValidSubmissionStatus(status) {
		return nil, apperror.ValidationFailed("status", fmt.Sprintf("unknown status %q", status))
	}
	subs, err := s.submissions.ListSubmissions(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("service/admin: listing submissions: %w", err)
	}
	return subs, nil
}

// ExportCSV writes the same list as ListSubmissions as CSV with a header
// row.
func (s *AdminService) ExportCSV(ctx context.Context, status string, w io.Writer) error {
	subs, err := s.ListSubmissions(ctx, status)
	if err != nil {
		return err
	}

	rows := make([]ExportRow, 0, len(subs))
	for _, sub := range subs {
		rows = append(rows, ExportRow{
			ID:              sub.ID,
			Slug:            sub.Slug,
			Name:            sub.Name,
			URL:             sub.URL,
			Category:        deref(sub.CategoryName),
			Pricing:         string(sub.Pricing),
			Email:           deref(sub.Email),
			Status:          sub.Status,
			RejectionReason: deref(sub.RejectionReason),
			CreatedAt:       sub.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("service/admin: writing CSV: %w", err)
	}
	return nil
}

// UpdateSubmission applies the non-nil fields of upd. Each field is
// validated as on intake. An empty CategoryID or CategoryName clears it.
// The slug never changes.
func (s *AdminService) UpdateSubmission(ctx context.Context, id string, upd model.SubmissionUpdate) (*model.Submission, error) {
	sub, err := s.submissions.GetSubmission(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/admin: loading submission: %w", err)
	}

	if upd.Name != nil {
		if sub.Name, err = validateName(*upd.Name); err != nil {
			return nil, err
		}
	}
	if upd.Description != nil {
		if sub.Description, err = validateDescription(*upd.Description); err != nil {
			return nil, err
		}
	}
	if upd.URL != nil {
		if sub.URL, err = NormalizeURL(*upd.URL); err != nil {
			return nil, err
		}
	}
	if upd.Pricing != nil {
		if sub.Pricing, err = validatePricing(string(*upd.Pricing)); err != nil {
			return nil, err
		}
	}
	if upd.Email != nil {
		if sub.Email, err = validateEmail(*upd.Email); err != nil {
			return nil, err
		}
	}
	if upd.CategoryID != nil {
		sub.CategoryID = nonEmpty(*upd.CategoryID)
	}
	if upd.CategoryName != nil {
		sub.CategoryName = nonEmpty(*upd.CategoryName)
	}

	if err := s.submissions.UpdateSubmission(ctx, sub); err != nil {
		return nil, fmt.Errorf("service/admin: updating submission: %w", err)
	}
	s.logger.Info("submission updated", slog.String("submissionID", id))
	return sub, nil
}

// Approve publishes a submission as an active, non-featured product and
// marks the submission approved.
//
// The product takes the submission's slug and records its ID. There is no
// transaction: if marking the submission fails after the product insert,
// the product stays and the error is returned.
func (s *AdminService) Approve(ctx context.Context, id string, o ApproveOverrides) (*model.Product, error) {
	sub, err := s.submissions.GetSubmission(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/admin: loading submission: %w", err)
	}
	if sub.Status == model.SubmissionApproved {
		return nil, apperror.Conflictf("submission %s is already approved", id)
	}

	p := &model.Product{
		Name:         sub.Name,
		Description:  sub.Description,
		URL:          sub.URL,
		CategoryID:   sub.CategoryID,
		CategoryName: sub.CategoryName,
		Pricing:      sub.Pricing,
		LogoURL:      sub.LogoURL,
		ImageURL:     sub.ImageURL,
		Featured:     false,
		Status:       model.ProductActive,
		Slug:         sub.Slug,
		SubmissionID: &sub.ID,
	}

	if v := trimmed(o.Name); v != "" {
		if p.Name, err = validateName(v); err != nil {
			return nil, err
		}
	}
	if v := trimmed(o.Description); v != "" {
		if p.Description, err = validateDescription(v); err != nil {
			return nil, err
		}
	}
	if v := trimmed(o.URL); v != "" {
		if p.URL, err = NormalizeURL(v); err != nil {
			return nil, err
		}
	}
	if o.CategoryID.Set {
		p.CategoryID = o.CategoryID.Value
	}
	if v := trimmed(o.CategoryName); v != "" {
		p.CategoryName = &v
	}
	if o.Pricing != nil && *o.Pricing != "" {
		if p.Pricing, err = validatePricing(string(*o.Pricing)); err != nil {
			return nil, err
		}
	}

	if err := s.products.CreateProduct(ctx, p); err != nil {
		return nil, fmt.Errorf("service/admin: creating product: %w", err)
	}

	sub.Status = model.SubmissionApproved
	sub.RejectionReason = nil
	if err := s.submissions.UpdateSubmission(ctx, sub); err != nil {
		s.logger.Error("product created but submission not marked approved",
			slog.String("submissionID", id),
			slog.String("productID", p.ID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service/admin: marking submission approved: %w", err)
	}

	s.metrics.SubmissionModerated(metrics.ActionApprove)
	s.logger.Info("submission approved",
		slog.String("submissionID", id),
		slog.String("productID", p.ID),
		slog.String("slug", p.Slug),
	)
	return p, nil
}

// Reject marks a submission rejected with an optional reason. An approved
// submission already has a product and cannot be rejected.
func (s *AdminService) Reject(ctx context.Context, id, reason string) (*model.Submission, error) {
	sub, err := s.submissions.GetSubmission(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/admin: loading submission: %w", err)
	}
	if sub.Status == model.SubmissionApproved {
		return nil, apperror.Conflictf("submission %s is already approved", id)
	}

	sub.Status = model.SubmissionRejected
	sub.RejectionReason = nonEmpty(reason)
	if err := s.submissions.UpdateSubmission(ctx, sub); err != nil {
		return nil, fmt.Errorf("service/admin: rejecting submission: %w", err)
	}

	s.metrics.SubmissionModerated(metrics.ActionReject)
	s.logger.Info("submission rejected", slog.String("submissionID", id))
	return sub, nil
}

func (s *AdminService) SetFeatured(ctx context.Context, productID string, featured bool) error {
	if err := s.products.SetFeatured(ctx, productID, featured); err != nil {
		return fmt.Errorf("service/admin: setting featured: %w", err)
	}
	s.logger.Info("product featured flag changed",
		slog.String("productID", productID),
		slog.Bool("featured", featured),
	)
	return nil
}

// DeleteProduct removes a product; its likes go with it.
func (s *AdminService) DeleteProduct(ctx context.Context, productID string) error {
	if err := s.products.DeleteProduct(ctx, productID); err != nil {
		return fmt.Errorf("service/admin: deleting product: %w", err)
	}
	s.logger.Info("product deleted", slog.String("productID", productID))
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

// nonEmpty returns nil for a blank string.
func nonEmpty(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
