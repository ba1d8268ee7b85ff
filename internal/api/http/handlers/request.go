package handlers

import (
	"bytes"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-portal/internal/auth"
	"github.com/spec-kit/support-portal/internal/domain"
	"github.com/spec-kit/support-portal/internal/storage"
	apperrors "github.com/spec-kit/support-portal/pkg/util/errorutil"
)

func actorFrom(c *fiber.Ctx) (domain.ActorContext, error) {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return domain.ActorContext{}, apperrors.NewUnauthorized("authentication required")
	}
	return actor, nil
}

func paramID(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid "+name, map[string]any{name: c.Params(name)})
	}
	return id, nil
}

func optionalID(raw string) (*int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, apperrors.NewValidationError("invalid id", map[string]any{"value": raw})
	}
	return &id, nil
}

func isMultipart(c *fiber.Ctx) bool {
	return strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm)
}

// multipartForm returns the parsed form, or nil when the request is not
// multipart.
func multipartForm(c *fiber.Ctx) (*multipart.Form, error) {
	if !isMultipart(c) {
		return nil, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, apperrors.NewValidationError("invalid multipart body", nil)
	}
	return form, nil
}

// formValues returns every value of the first key present in form. Array
// style keys ("name[]") and plain keys are both accepted.
func formValues(form *multipart.Form, keys ...string) []string {
	if form == nil {
		return nil
	}
	for _, key := range keys {
		if values, ok := form.Value[key]; ok {
			return values
		}
	}
	return nil
}

// formUploads reads the files sent under any of keys. Contents are buffered
// so the multipart handles can be closed before the service call.
func formUploads(form *multipart.Form, keys ...string) ([]storage.Upload, error) {
	if form == nil {
		return nil, nil
	}
	var uploads []storage.Upload
	for _, key := range keys {
		for _, header := range form.File[key] {
			upload, err := readUpload(header)
			if err != nil {
				return nil, err
			}
			uploads = append(uploads, upload)
		}
	}
	return uploads, nil
}

func readUpload(header *multipart.FileHeader) (storage.Upload, error) {
	f, err := header.Open()
	if err != nil {
		return storage.Upload{}, apperrors.NewValidationError("unreadable upload", map[string]any{"file": header.Filename})
	}
	defer f.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(f); err != nil {
		return storage.Upload{}, apperrors.NewValidationError("unreadable upload", map[string]any{"file": header.Filename})
	}
	return storage.Upload{Filename: header.Filename, Content: &buf}, nil
}

// valueSet reads an enumerated filter from the query string. A key that is
// present yields a supplied set even when every value is blank; values may be
// repeated or comma separated.
func valueSet[T ~string](c *fiber.Ctx, key string) domain.ValueSet[T] {
	args := c.Context().QueryArgs()
	if !args.Has(key) {
		return domain.Absent[T]()
	}
	var values []T
	for _, raw := range args.PeekMulti(key) {
		for _, part := range strings.Split(string(raw), ",") {
			if part = strings.TrimSpace(part); part != "" {
				values = append(values, T(part))
			}
		}
	}
	return domain.Supplied(values...)
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed < 0 {
		return def
	}
	return parsed
}

// optionalFormValue returns the value of key when the multipart or
// urlencoded body carries it at all.
func optionalFormValue(c *fiber.Ctx, form *multipart.Form, key string) *string {
	if values := formValues(form, key); len(values) > 0 {
		return &values[0]
	}
	if args := c.Request().PostArgs(); args.Has(key) {
		value := string(args.Peek(key))
		return &value
	}
	return nil
}
