package handlers

import (
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"fieldserve-backend/internal/models"
)

// maxUploadBytes bounds a whole multipart request (photos and short videos)
const maxUploadBytes = 64 << 20

// maxAttachments caps files per problem or solution report
const maxAttachments = 5

// AssetUploader stores an uploaded file and returns its asset record
type AssetUploader interface {
	Upload(ctx context.Context, fh *multipart.FileHeader, prefix string) (*models.Asset, error)
}

// uploadOptionalPhoto extracts and stores the single optional "file" field
// used by catalog endpoints. Returns nil when no file was sent.
func uploadOptionalPhoto(r *http.Request, uploader AssetUploader, prefix string) (*models.Asset, error) {
	if r.MultipartForm == nil || len(r.MultipartForm.File["file"]) == 0 {
		return nil, nil
	}
	fh := r.MultipartForm.File["file"][0]
	return uploader.Upload(r.Context(), fh, prefix)
}

// uploadAttachments stores the "files" field of a problem or solution report
// and splits the results into photos and videos by content type. Between 1
// and maxAttachments files are required.
func uploadAttachments(r *http.Request, uploader AssetUploader, prefix string) (photos, videos []models.Asset, err error) {
	var files []*multipart.FileHeader
	if r.MultipartForm != nil {
		files = r.MultipartForm.File["files"]
	}
	if len(files) == 0 {
		return nil, nil, fmt.Errorf("at least one attachment is required")
	}
	if len(files) > maxAttachments {
		return nil, nil, fmt.Errorf("at most %d attachments are allowed", maxAttachments)
	}

	for _, fh := range files {
		asset, err := uploader.Upload(r.Context(), fh, prefix)
		if err != nil {
			return nil, nil, err
		}
		if strings.HasPrefix(asset.ContentType, "video/") {
			videos = append(videos, *asset)
		} else {
			photos = append(photos, *asset)
		}
	}
	return photos, videos, nil
}
