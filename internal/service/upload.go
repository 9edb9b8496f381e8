package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Ry1and/flockr/internal/database"
	"github.com/Ry1and/flockr/internal/gateway"
	"github.com/Ry1and/flockr/internal/imaging"
	"github.com/Ry1and/flockr/internal/models"
)

// PhotoStorage abstracts object storage operations for testability.
type PhotoStorage interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	KeyFromURL(url string) string
	Delete(ctx context.Context, key string) error
}

// ImageFetcher downloads the source image of a profile photo.
type ImageFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// PhotoService crops and stores profile photos.
type PhotoService struct {
	users   database.UserRepository
	fetcher ImageFetcher
	storage PhotoStorage
	gateway gateway.Dispatcher
}

// NewPhotoService creates a PhotoService. A nil storage disables uploads.
func NewPhotoService(
	users database.UserRepository,
	fetcher ImageFetcher,
	storage PhotoStorage,
	gw gateway.Dispatcher,
) *PhotoService {
	return &PhotoService{
		users:   users,
		fetcher: fetcher,
		storage: storage,
		gateway: gw,
	}
}

// UploadPhoto fetches the JPEG at url, crops it to rect and makes it the
// caller's profile image.
func (s *PhotoService) UploadPhoto(ctx context.Context, userID int64, url string, rect imaging.Rect) (*models.User, error) {
	if s.storage == nil {
		return nil, Unavailable("STORAGE_DISABLED", "profile photo storage is not configured")
	}
	if url == "" {
		return nil, BadRequest("INVALID_URL", "img_url is required")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, internalError("users.GetByID", err)
	}
	if user == nil {
		return nil, unknownUser()
	}

	data, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, BadRequest("IMAGE_FETCH_FAILED", "could not retrieve the image")
	}

	cropped, err := imaging.CropJPEG(data, rect)
	if err != nil {
		switch {
		case errors.Is(err, imaging.ErrNotJPEG):
			return nil, BadRequest("NOT_JPEG", "image must be a JPEG")
		case errors.Is(err, imaging.ErrBadCrop):
			return nil, BadRequest("INVALID_CROP", "crop box must lie within the image")
		}
		return nil, BadRequest("INVALID_IMAGE", "image could not be decoded")
	}

	key := fmt.Sprintf("profiles/%s.jpg", uuid.NewString())
	imgURL, err := s.storage.Put(ctx, key, cropped, "image/jpeg")
	if err != nil {
		return nil, NewError(ErrInternal, "UPLOAD_FAILED", "failed to store image")
	}

	previous := user.ProfileImgURL
	user.ProfileImgURL = imgURL
	if err := s.users.Update(ctx, user); err != nil {
		_ = s.storage.Delete(ctx, key)
		return nil, internalError("users.Update", err)
	}

	if old := s.storage.KeyFromURL(previous); old != "" {
		if err := s.storage.Delete(ctx, old); err != nil {
			slog.Warn("delete old profile photo", "key", old, "error", err)
		}
	}

	s.gateway.DispatchToAll(gateway.EventUserUpdate, user)
	return user, nil
}
