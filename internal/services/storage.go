package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrFileNotFound = errors.New("stored file not found")

// StoredFile describes an uploaded resume after it has been persisted.
type StoredFile struct {
	Filename string
	Location string
	MimeType string
	Size     int64
}

type StorageService interface {
	Init(ctx context.Context) error
	SaveFile(ctx context.Context, file *multipart.FileHeader, fileType string) (*StoredFile, error)
	ReadFile(ctx context.Context, location string) ([]byte, error)
	DeleteFile(ctx context.Context, location string) error
}

type storageService struct {
	uploadPath string
	logger     *zap.Logger
}

func NewStorageService(uploadPath string, log *zap.Logger) StorageService {
	if log == nil {
		log = zap.NewNop()
	}
	return &storageService{
		uploadPath: uploadPath,
		logger:     log,
	}
}

func (s *storageService) Init(_ context.Context) error {
	if err := os.MkdirAll(s.uploadPath, 0755); err != nil {
		return fmt.Errorf("failed to create upload directory: %w", err)
	}

	return nil
}

func (s *storageService) SaveFile(_ context.Context, file *multipart.FileHeader, fileType string) (*StoredFile, error) {
	uniqueFilename, mimeType, err := storedName(file.Filename, fileType)
	if err != nil {
		return nil, err
	}
	filePath := filepath.Join(s.uploadPath, uniqueFilename)

	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create destination file: %w", err)
	}
	defer dst.Close()

	size, err := io.Copy(dst, src)
	if err != nil {
		return nil, fmt.Errorf("failed to save file: %w", err)
	}

	s.logger.Debug("file stored", zap.String("path", filePath), zap.Int64("size", size))

	return &StoredFile{
		Filename: uniqueFilename,
		Location: filePath,
		MimeType: mimeType,
		Size:     size,
	}, nil
}

func (s *storageService) ReadFile(_ context.Context, location string) ([]byte, error) {
	data, err := os.ReadFile(location)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, location)
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

func (s *storageService) DeleteFile(_ context.Context, location string) error {
	if err := os.Remove(location); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// storedName validates the upload extension and builds a unique object name.
func storedName(originalName, fileType string) (string, string, error) {
	mimeType, err := MimeTypeFor(originalName)
	if err != nil {
		return "", "", fmt.Errorf("invalid file extension: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(originalName))
	return fmt.Sprintf("%s_%s%s", fileType, uuid.New().String(), ext), mimeType, nil
}
