package minio

import (
	"context"
	"errors"
	"net/http"

	minioErr "github.com/minio/minio-go/v7"

	"github.com/schemasmith/schemasmith/internal/errs"
)

// mapError translates a MinIO SDK error into a *errs.Error.
func mapError(err error, msg string) *errs.Error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.KindStorage, msg, err)
	}

	// MinIO SDK exposes a typed ErrorResponse for S3-protocol errors.
	var resp minioErr.ErrorResponse
	if errors.As(err, &resp) {
		switch resp.StatusCode {
		case http.StatusBadRequest:
			return errs.Wrap(errs.KindInvalidInput, msg, err)
		}
		switch resp.Code {
		case "InvalidBucketName", "InvalidObjectName", "KeyTooLongError":
			return errs.Wrap(errs.KindInvalidInput, msg, err)
		}
	}

	return errs.Wrap(errs.KindStorage, msg, err)
}
