package folio

import (
	"io"
	"net/http"

	"github.com/foliohq/folio/pkg/models"
	"github.com/foliohq/folio/pkg/upload"
)

// readUploadedFile pulls the "file" part out of a multipart request. The
// form is limited to slightly above the validation cap so oversized files
// are rejected by validation with a specific message instead of a generic
// multipart error.
func readUploadedFile(r *http.Request) (name, contentType string, data []byte, err error) {
	if err = r.ParseMultipartForm(upload.MaxFileSize + 1<<20); err != nil {
		return "", "", nil, err
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return "", "", nil, err
	}
	defer file.Close()

	data, err = io.ReadAll(file)
	if err != nil {
		return "", "", nil, err
	}

	contentType = header.Header.Get("Content-Type")
	if contentType == "" && len(data) > 0 {
		contentType = http.DetectContentType(data)
	}
	return header.Filename, contentType, data, nil
}

// handleUploadProfileImage validates, circle-crops, and uploads a new
// profile photo, then swaps the profile document's URL. The previous blob
// is deleted best-effort.
func (a *App) handleUploadProfileImage(w http.ResponseWriter, r *http.Request) {
	name, contentType, data, err := readUploadedFile(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid upload request")
		return
	}

	ctx := r.Context()
	var previousURL string
	if cur, err := a.currentProfile(ctx); err == nil && cur != nil {
		previousURL = cur.ImageURL
	}

	result, err := a.uploads.Run(ctx, upload.Request{
		Kind:        upload.KindProfileImage,
		FileName:    name,
		ContentType: contentType,
		Data:        data,
		CircleCrop:  true,
		PreviousURL: previousURL,
	})
	if err != nil {
		respondStoreError(w, err)
		return
	}

	profile := &models.Profile{ImageURL: result.URL}
	if _, err := a.updateProfileDoc(ctx, profile); err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"profile": profile,
		"upload":  result,
	})
}

// handleUploadResume uploads a replacement resume and swaps the singleton
// pointer atomically with the new file's metadata.
func (a *App) handleUploadResume(w http.ResponseWriter, r *http.Request) {
	name, contentType, data, err := readUploadedFile(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid upload request")
		return
	}

	ctx := r.Context()
	var previousURL string
	if cur, err := a.currentResume(ctx); err == nil && cur != nil {
		previousURL = cur.FileURL
	}

	result, err := a.uploads.Run(ctx, upload.Request{
		Kind:        upload.KindResume,
		FileName:    name,
		ContentType: contentType,
		Data:        data,
		PreviousURL: previousURL,
	})
	if err != nil {
		respondStoreError(w, err)
		return
	}

	resume := &models.Resume{
		FileURL:     result.URL,
		FileName:    result.FileName,
		SizeBytes:   result.SizeBytes,
		ContentType: result.ContentType,
		UploadedAt:  result.UploadedAt,
	}
	if _, err := a.updateResumeDoc(ctx, resume); err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"resume": resume,
		"upload": result,
	})
}
