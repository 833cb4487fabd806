// Package upload implements the binary upload pipeline: validation,
// profile-image cropping, and transfer to an object store with a single
// fallback path.
//
// Validation runs entirely locally. A file that fails validation never
// reaches the network: the caller gets a specific error before any store
// is contacted.
package upload

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	_ "image/jpeg"
	_ "image/png"
)

// Kind selects the validation profile for an upload.
type Kind string

const (
	// KindProfileImage is the hero profile photo: JPEG/PNG, at least
	// 400x400 pixels.
	KindProfileImage Kind = "profile_image"
	// KindProjectMedia is a project screenshot or illustration.
	KindProjectMedia Kind = "project_media"
	// KindResume is the downloadable resume document.
	KindResume Kind = "resume"
)

// MaxFileSize is the upper bound for any upload.
const MaxFileSize = 10 << 20 // 10 MiB

// MinImageDim is the minimum width and height for image uploads.
const MinImageDim = 400

// ErrValidation marks all local validation failures.
var ErrValidation = errors.New("upload rejected")

var imageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

var resumeTypes = map[string]bool{
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
}

func allowedTypes(kind Kind) map[string]bool {
	if kind == KindResume {
		return resumeTypes
	}
	return imageTypes
}

// Validate checks data against the profile for kind. contentType is the
// declared MIME type of the file.
func Validate(kind Kind, contentType string, data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: file is empty", ErrValidation)
	}
	if len(data) > MaxFileSize {
		return fmt.Errorf("%w: file exceeds the %d MB limit", ErrValidation, MaxFileSize>>20)
	}
	if !allowedTypes(kind)[contentType] {
		return fmt.Errorf("%w: file type %q is not allowed for %s", ErrValidation, contentType, kind)
	}

	if kind == KindProfileImage || kind == KindProjectMedia {
		cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("%w: file is not a decodable image: %v", ErrValidation, err)
		}
		if cfg.Width < MinImageDim || cfg.Height < MinImageDim {
			return fmt.Errorf("%w: image is %dx%d, minimum is %dx%d",
				ErrValidation, cfg.Width, cfg.Height, MinImageDim, MinImageDim)
		}
	}
	return nil
}
