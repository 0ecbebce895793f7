package model

import (
	"errors"
	"strings"
)

const (
	MaxPictureSizeBytes = 5 * 1024 * 1024
	PictureSize         = 400
	PictureFolder       = "pictures"
	PictureExt          = ".jpg"
	PictureCacheControl = "public, max-age=31536000" // 1 year

	MaxUploadSizeBytes = 10 * 1024 * 1024
	PresignExpiry      = 15 * 60 // seconds
)

// Supported image content types for upload validation
const (
	ContentTypeJPEG = "image/jpeg"
	ContentTypePNG  = "image/png"
	ContentTypeGIF  = "image/gif"
	ContentTypeWebP = "image/webp"
)

var imageExtensions = map[string]string{
	ContentTypeJPEG: ".jpg",
	ContentTypePNG:  ".png",
	ContentTypeGIF:  ".gif",
	ContentTypeWebP: ".webp",
}

// Upload purposes accepted by POST /media/presign, mapped to the key folder
// the write shapes later check.
var uploadFolders = map[string]string{
	"post":    PostImageFolder,
	"comment": CommentImageFolder,
}

// Error codes for HTTP responses
const (
	CodeFileTooLarge     = "FILE_TOO_LARGE"
	CodeInvalidImageType = "INVALID_IMAGE_TYPE"
)

var (
	ErrFileTooLarge       = validationError("file too large")
	ErrInvalidImageType   = validationError("unsupported image type, allowed: jpeg, png, gif, webp")
	ErrInvalidPurpose     = validationError("purpose must be \"post\" or \"comment\"")
	ErrStorageUnavailable = errors.New("object storage is not configured")
)

// PresignUploadRequest asks for a presigned PUT URL.
// The client uploads the bytes to UploadURL then sends Key as image_key.
type PresignUploadRequest struct {
	Purpose     string `json:"purpose"` // "post" or "comment"
	ContentType string `json:"content_type"`
	FileSize    int64  `json:"file_size"`
}

type PresignUploadResponse struct {
	UploadURL  string `json:"upload_url"`
	PublicURL  string `json:"public_url"`
	Key        string `json:"key"`
	ExpiresInS int    `json:"expires_in"`
}

// UploadResult is the location of an object uploaded through the API.
type UploadResult struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

// IsAllowedImageType reports if the provided content type is supported
func IsAllowedImageType(contentType string) bool {
	_, ok := imageExtensions[contentType]
	return ok
}

// ImageExtension returns the file extension used for keys of the type.
func ImageExtension(contentType string) string {
	return imageExtensions[contentType]
}

// UploadFolder returns the key folder for an upload purpose.
func UploadFolder(purpose string) (string, bool) {
	folder, ok := uploadFolders[purpose]
	return folder, ok
}

// ValidImageKey reports whether key is an object key inside folder, as
// produced by the presign endpoint.
func ValidImageKey(key, folder string) bool {
	rest, ok := strings.CutPrefix(key, folder+"/")
	if !ok || rest == "" {
		return false
	}
	return !strings.Contains(rest, "/") && !strings.Contains(rest, "..")
}
