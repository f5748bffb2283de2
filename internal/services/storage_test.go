package services

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"strings"
	"testing"
)

func newFileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("resume", filename)
	if err != nil {
		t.Fatalf("creating form file: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("writing form file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("closing multipart writer: %v", err)
	}

	form, err := multipart.NewReader(&body, writer.Boundary()).ReadForm(1 << 20)
	if err != nil {
		t.Fatalf("reading form: %v", err)
	}
	t.Cleanup(func() { _ = form.RemoveAll() })

	return form.File["resume"][0]
}

func TestLocalStorageRoundTrip(t *testing.T) {
	ctx := context.Background()
	storage := NewStorageService(t.TempDir(), nil)

	if err := storage.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	stored, err := storage.SaveFile(ctx, newFileHeader(t, "Jane Resume.PDF", []byte("%PDF-1.4 body")), "resume")
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	if !strings.HasPrefix(stored.Filename, "resume_") || !strings.HasSuffix(stored.Filename, ".pdf") {
		t.Fatalf("unexpected stored filename %q", stored.Filename)
	}
	if stored.MimeType != MimePDF {
		t.Fatalf("expected %s, got %s", MimePDF, stored.MimeType)
	}
	if stored.Size != int64(len("%PDF-1.4 body")) {
		t.Fatalf("unexpected size %d", stored.Size)
	}

	data, err := storage.ReadFile(ctx, stored.Location)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "%PDF-1.4 body" {
		t.Fatalf("unexpected content %q", data)
	}

	if err := storage.DeleteFile(ctx, stored.Location); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := storage.ReadFile(ctx, stored.Location); !errors.Is(err, ErrFileNotFound) {
		t.Fatalf("expected ErrFileNotFound after delete, got %v", err)
	}
}

func TestLocalStorageRejectsUnsupportedExtension(t *testing.T) {
	storage := NewStorageService(t.TempDir(), nil)

	_, err := storage.SaveFile(context.Background(), newFileHeader(t, "resume.exe", []byte("MZ")), "resume")
	if !errors.Is(err, ErrUnsupportedDocument) {
		t.Fatalf("expected ErrUnsupportedDocument, got %v", err)
	}
}

func TestRetryStopsOnPermanentError(t *testing.T) {
	calls := 0
	_, err := retry(context.Background(), 3, func() (int, error) {
		calls++
		return 0, permanent(ErrFileNotFound)
	})

	if !errors.Is(err, ErrFileNotFound) {
		t.Fatalf("expected ErrFileNotFound, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestRetryEventuallySucceeds(t *testing.T) {
	calls := 0
	got, err := retry(context.Background(), 2, func() (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("transient")
		}
		return "ok", nil
	})

	if err != nil || got != "ok" {
		t.Fatalf("expected ok, got %q (%v)", got, err)
	}
}
