package service

import (
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"path"
	"strings"
	"time"

	_ "image/gif"
	_ "image/png"

	"github.com/avelasco/fotomaton/internal/composite"
	"github.com/avelasco/fotomaton/internal/errs"
	"github.com/avelasco/fotomaton/internal/filestore"
	"github.com/avelasco/fotomaton/internal/model"
	"github.com/avelasco/fotomaton/internal/repository"
	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"
)

// PhotoService owns individual captures and assembled composites, including
// the physical-file cleanup that accompanies every logical deletion.
type PhotoService interface {
	// AddPhoto stores the upload and records the capture.
	AddPhoto(ctx context.Context, sessionID uuid.UUID, order int, filename string, r io.Reader) (*model.IndividualPhoto, error)
	// ListPhotos returns a session's captures in assembly order.
	ListPhotos(ctx context.Context, sessionID uuid.UUID) ([]model.IndividualPhoto, error)
	// DeletePhoto removes the capture record and its backing file.
	DeletePhoto(ctx context.Context, id uuid.UUID) error
	// GenerateComposite assembles the session's captures into a strip,
	// stores it and marks the session completed.
	GenerateComposite(ctx context.Context, sessionID uuid.UUID) (*model.CompositePhoto, error)
	// ListComposites returns a session's composites, newest first.
	ListComposites(ctx context.Context, sessionID uuid.UUID) ([]model.CompositePhoto, error)
	// DeleteComposite removes the composite record and its backing file.
	DeleteComposite(ctx context.Context, id uuid.UUID) error
}

type PhotoServiceImpl struct {
	photos   repository.PhotoRepository
	sessions repository.SessionRepository
	files    filestore.Store
	log      *zap.Logger
	layout   composite.Layout

	now   func() time.Time
	newID func() (uuid.UUID, error)
}

// NewPhotoService constructs PhotoService with required dependencies.
func NewPhotoService(photos repository.PhotoRepository, sessions repository.SessionRepository, files filestore.Store, log *zap.Logger) *PhotoServiceImpl {
	return &PhotoServiceImpl{
		photos:   photos,
		sessions: sessions,
		files:    files,
		log:      log,
		now:      time.Now,
		newID:    uuid.NewV4,
	}
}

// AddPhoto validates the session state and capture budget, stores the file
// and records the capture. A failed insert rolls the stored file back.
func (s *PhotoServiceImpl) AddPhoto(ctx context.Context, sessionID uuid.UUID, order int, filename string, r io.Reader) (*model.IndividualPhoto, error) {
	sess, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.IsExpired(s.now()) {
		return nil, errs.ErrSessionExpired
	}

	set, err := s.sessions.GetSettings(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	count, err := s.photos.CountPhotos(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if count >= set.NumPhotos {
		return nil, errs.Validation("image", fmt.Sprintf("session already has its %d photos", set.NumPhotos))
	}

	id, err := s.newID()
	if err != nil {
		return nil, err
	}
	stored, err := s.files.Save(filestore.SessionPhotoPath(sess.ID.String(), id.String()+imageExt(filename)), r)
	if err != nil {
		return nil, err
	}

	p := &model.IndividualPhoto{
		ID:        id,
		SessionID: sessionID,
		ImagePath: stored,
		Order:     order,
		CreatedAt: s.now(),
	}
	if err := s.photos.AddPhoto(ctx, p); err != nil {
		if rmErr := s.files.Remove(stored); rmErr != nil {
			s.log.Warn("roll back stored photo", zap.String("path", stored), zap.Error(rmErr))
		}
		return nil, err
	}
	return p, nil
}

// ListPhotos returns a session's captures in assembly order.
func (s *PhotoServiceImpl) ListPhotos(ctx context.Context, sessionID uuid.UUID) ([]model.IndividualPhoto, error) {
	return s.photos.ListPhotos(ctx, sessionID)
}

// DeletePhoto removes the record, then the backing file. A missing or
// stubborn file never fails the deletion.
func (s *PhotoServiceImpl) DeletePhoto(ctx context.Context, id uuid.UUID) error {
	path, err := s.photos.DeletePhoto(ctx, id)
	if err != nil {
		return err
	}
	s.removeFile(path)
	return nil
}

// GenerateComposite decodes the session's captures, assembles the strip,
// stores it and marks the session completed.
func (s *PhotoServiceImpl) GenerateComposite(ctx context.Context, sessionID uuid.UUID) (*model.CompositePhoto, error) {
	sess, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	photos, err := s.photos.ListPhotos(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if len(photos) == 0 {
		return nil, errs.Validation("photos", "session has no photos to assemble")
	}

	captures := make([]image.Image, 0, len(photos))
	for _, p := range photos {
		img, err := s.decode(p.ImagePath)
		if err != nil {
			return nil, fmt.Errorf("decode photo %s: %w", p.ID, err)
		}
		captures = append(captures, img)
	}

	strip, err := composite.Strip(captures, s.layout)
	if err != nil {
		return nil, err
	}

	id, err := s.newID()
	if err != nil {
		return nil, err
	}
	pr, pw := io.Pipe()
	go func() {
		pw.CloseWithError(jpeg.Encode(pw, strip, &jpeg.Options{Quality: 90}))
	}()
	stored, err := s.files.Save(filestore.SessionCompositePath(sess.ID.String(), "composite_"+id.String()+".jpg"), pr)
	if err != nil {
		return nil, err
	}

	c := &model.CompositePhoto{
		ID:        id,
		SessionID: sessionID,
		ImagePath: stored,
		CreatedAt: s.now(),
	}
	if err := s.photos.AddComposite(ctx, c); err != nil {
		s.removeFile(stored)
		return nil, err
	}

	if _, err := s.sessions.Complete(ctx, sessionID, s.now()); err != nil {
		return nil, err
	}
	return c, nil
}

// ListComposites returns a session's composites, newest first.
func (s *PhotoServiceImpl) ListComposites(ctx context.Context, sessionID uuid.UUID) ([]model.CompositePhoto, error) {
	return s.photos.ListComposites(ctx, sessionID)
}

// DeleteComposite removes the record, then the backing file.
func (s *PhotoServiceImpl) DeleteComposite(ctx context.Context, id uuid.UUID) error {
	path, err := s.photos.DeleteComposite(ctx, id)
	if err != nil {
		return err
	}
	s.removeFile(path)
	return nil
}

func (s *PhotoServiceImpl) decode(path string) (image.Image, error) {
	f, err := s.files.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	return img, err
}

// removeFile deletes a backing file best-effort; the logical deletion has
// already happened and must stand regardless.
func (s *PhotoServiceImpl) removeFile(path string) {
	if path == "" {
		return
	}
	if err := s.files.Remove(path); err != nil {
		s.log.Warn("remove photo file", zap.String("path", path), zap.Error(err))
	}
}

// imageExt returns a normalized extension for an uploaded filename.
func imageExt(filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif":
		return ext
	default:
		return ".jpg"
	}
}
