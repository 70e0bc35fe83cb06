package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/ai-directory/internal/apperror"
	"github.com/sakif/ai-directory/internal/metrics"
	"github.com/sakif/ai-directory/internal/model"
	"github.com/sakif/ai-directory/internal/repository"
	"github.com/sakif/ai-directory/internal/storage"
)

// maxSlugAttempts bounds how often Create re-resolves the slug after the
// store rejects it as taken.
const maxSlugAttempts = 3

// Upload is one file from the submission form.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// SubmissionInput is the raw submission form.
type SubmissionInput struct {
	Name        string
	Description string
	URL         string
	Category    string // category display name
	Pricing     string
	Email       string
	Slug        string // optional custom slug
	Logo        *Upload
	Image       *Upload
}

// CategoryFinder resolves a category name to its row.
type CategoryFinder interface {
	GetCategoryByName(ctx context.Context, name string) (*model.Category, error)
}

// SubmissionService accepts new listings from visitors into the
// moderation queue.
type SubmissionService struct {
	submissions repository.SubmissionRepository
	categories  CategoryFinder
	slugs       *SlugService
	store       storage.Store
	metrics     *metrics.Metrics
	logger      *slog.Logger
	now         func() time.Time
}

func NewSubmissionService(
	submissions repository.SubmissionRepository,
	categories CategoryFinder,
	slugs *SlugService,
	store storage.Store,
	m *metrics.Metrics,
	logger *slog.Logger,
) *SubmissionService {
	return &SubmissionService{
		submissions: submissions,
		categories:  categories,
		slugs:       slugs,
		store:       store,
		metrics:     m,
		logger:      logger,
		now:         time.Now,
	}
}

// uploaded tracks files written for one submission so they can be removed
// if the submission is not stored.
type uploaded struct {
	bucket, name string
}

// Create validates in, uploads its files and stores it as a pending
// submission.
//
// Files go up before the insert so their URLs can be stored with the row.
// If the insert fails for good, the files are removed again.
func (s *SubmissionService) Create(ctx context.Context, in SubmissionInput) (*model.Submission, error) {
	sub, err := s.validate(in)
	if err != nil {
		return nil, err
	}

	logoExt, imageExt, err := s.checkFiles(in)
	if err != nil {
		return nil, err
	}

	resolve := func() (string, error) {
		if strings.TrimSpace(in.Slug) != "" {
			return s.slugs.ValidateCustomSlug(ctx, in.Slug)
		}
		return s.slugs.GenerateProductSlug(ctx, sub.Name)
	}
	sub.Slug, err = resolve()
	if err != nil {
		return nil, fmt.Errorf("service/submission: resolving slug: %w", err)
	}
	if sub.Slug == "" {
		field := "name"
		if strings.TrimSpace(in.Slug) != "" {
			field = "slug"
		}
		return nil, apperror.ValidationFailed(field, "The name must contain at least one letter or digit")
	}

	var files []uploaded
	if in.Logo != nil {
		obj, err := s.putLogo(ctx, logoExt, in.Logo.Body)
		if err != nil {
			return nil, fmt.Errorf("service/submission: uploading logo: %w", err)
		}
		files = append(files, uploaded{obj.Bucket, obj.Name})
		sub.LogoURL = &obj.URL
	}
	if in.Image != nil {
		name := xid.New().String() + "." + imageExt
		obj, err := s.store.Put(ctx, storage.BucketProductImages, name, in.Image.Body)
		if err != nil {
			s.cleanup(ctx, files)
			return nil, fmt.Errorf("service/submission: uploading product image: %w", err)
		}
		files = append(files, uploaded{obj.Bucket, obj.Name})
		sub.ImageURL = &obj.URL
	}

	if sub.CategoryName != nil {
		category, err := s.categories.GetCategoryByName(ctx, *sub.CategoryName)
		if err != nil {
			s.logger.Warn("looking up category for submission",
				slog.String("category", *sub.CategoryName),
				slog.String("error", err.Error()),
			)
		} else {
			sub.CategoryID = &category.ID
		}
	}

	for attempt := 1; ; attempt++ {
		err = s.submissions.CreateSubmission(ctx, sub)
		if err == nil {
			break
		}
		if !errors.Is(err, apperror.ErrConflict) || attempt == maxSlugAttempts {
			s.cleanup(ctx, files)
			return nil, fmt.Errorf("service/submission: creating submission: %w", err)
		}

		s.metrics.SlugRetried()
		s.logger.Info("slug taken concurrently, re-resolving",
			slog.String("slug", sub.Slug),
			slog.Int("attempt", attempt),
		)
		sub.ID = ""
		if sub.Slug, err = resolve(); err != nil {
			s.cleanup(ctx, files)
			return nil, fmt.Errorf("service/submission: resolving slug: %w", err)
		}
	}

	s.metrics.SubmissionCreated()
	s.logger.Info("submission created",
		slog.String("submissionID", sub.ID),
		slog.String("slug", sub.Slug),
	)
	return sub, nil
}

func (s *SubmissionService) validate(in SubmissionInput) (*model.Submission, error) {
	name, err := validateName(in.Name)
	if err != nil {
		return nil, err
	}
	desc, err := validateDescription(in.Description)
	if err != nil {
		return nil, err
	}
	u, err := NormalizeURL(in.URL)
	if err != nil {
		return nil, err
	}
	category := strings.TrimSpace(in.Category)
	if category == "" {
		return nil, apperror.ValidationFailed("category", "Please select or enter a category")
	}
	pricing, err := validatePricing(in.Pricing)
	if err != nil {
		return nil, err
	}
	email, err := validateEmail(in.Email)
	if err != nil {
		return nil, err
	}

	return &model.Submission{
		Name:         name,
		Description:  desc,
		URL:          u,
		CategoryName: &category,
		Pricing:      pricing,
		Email:        email,
		Status:       model.SubmissionPending,
	}, nil
}

// checkFiles applies the upload rules before anything is written.
func (s *SubmissionService) checkFiles(in SubmissionInput) (logoExt, imageExt string, err error) {
	if in.Logo != nil {
		if logoExt, err = storage.LogoRule.Check(in.Logo.ContentType, in.Logo.Size); err != nil {
			s.metrics.UploadRejected(storage.BucketLogos)
			return "", "", apperror.ValidationFailed("logo", err.Error())
		}
	}
	if in.Image != nil {
		if imageExt, err = storage.ImageRule.Check(in.Image.ContentType, in.Image.Size); err != nil {
			s.metrics.UploadRejected(storage.BucketProductImages)
			return "", "", apperror.ValidationFailed("image", err.Error())
		}
	}
	return logoExt, imageExt, nil
}

// cleanup removes uploaded files. It uses a fresh context because the
// request context may be the reason the insert failed.
// putLogo stores a logo as logo_<unix-ms>.<ext>. When another upload
// already took that name in the same millisecond, an xid is appended
// instead of replacing the other submission's file.
func (s *SubmissionService) putLogo(ctx context.Context, ext string, body io.Reader) (*storage.Object, error) {
	base := "logo_" + strconv.FormatInt(s.now().UnixMilli(), 10)
	obj, err := s.store.Put(ctx, storage.BucketLogos, base+"."+ext, body)
	if !errors.Is(err, storage.ErrExists) {
		return obj, err
	}
	// Put has drained body; uploads from a multipart form can be rewound
	seeker, ok := body.(io.Seeker)
	if !ok {
		return nil, err
	}
	if _, serr := seeker.Seek(0, io.SeekStart); serr != nil {
		return nil, fmt.Errorf("rewinding logo: %w", serr)
	}
	return s.store.Put(ctx, storage.BucketLogos, base+"_"+xid.New().String()+"."+ext, body)
}

func (s *SubmissionService) cleanup(ctx context.Context, files []uploaded) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	for _, f := range files {
		if err := s.store.Remove(ctx, f.bucket, f.name); err != nil {
			s.logger.Error("removing orphaned upload",
				slog.String("bucket", f.bucket),
				slog.String("name", f.name),
				slog.String("error", err.Error()),
			)
		}
	}
}
