package upload

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pngBytes encodes a solid-color PNG of the given dimensions.
func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestValidate(t *testing.T) {
	valid := pngBytes(t, 500, 500)
	small := pngBytes(t, 100, 100)

	tests := []struct {
		name        string
		kind        Kind
		contentType string
		data        []byte
		wantErr     string
	}{
		{"valid profile image", KindProfileImage, "image/png", valid, ""},
		{"valid project media", KindProjectMedia, "image/png", valid, ""},
		{"empty file", KindProfileImage, "image/png", nil, "file is empty"},
		{"oversized file", KindResume, "application/pdf", make([]byte, MaxFileSize+1), "exceeds"},
		{"wrong type for image", KindProfileImage, "application/pdf", valid, "not allowed"},
		{"wrong type for resume", KindResume, "image/png", valid, "not allowed"},
		{"undecodable image", KindProfileImage, "image/png", []byte("not a png"), "not a decodable image"},
		{"image too small", KindProfileImage, "image/png", small, "minimum"},
		{"valid resume", KindResume, "application/pdf", []byte("%PDF-1.4 content"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.kind, tt.contentType, tt.data)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidation)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCropSquare(t *testing.T) {
	data := pngBytes(t, 800, 500)

	out, err := CropSquare(data)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 500, img.Bounds().Dx())
	assert.Equal(t, 500, img.Bounds().Dy())
}

func TestCropSquareRejectsGarbage(t *testing.T) {
	_, err := CropSquare([]byte("garbage"))
	assert.Error(t, err)
}

func TestCropCircle(t *testing.T) {
	data := pngBytes(t, 600, 600)

	out, err := CropCircle(data)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	require.Equal(t, 600, img.Bounds().Dx())
	require.Equal(t, 600, img.Bounds().Dy())

	// Corners fall outside the inscribed circle and must be transparent;
	// the center must keep the source pixel.
	_, _, _, a := img.At(2, 2).RGBA()
	assert.Zero(t, a, "corner pixel should be fully transparent")
	_, _, _, a = img.At(300, 300).RGBA()
	assert.NotZero(t, a, "center pixel should be opaque")
}

// fakeObjectStore records puts and deletes and can be told to fail.
type fakeObjectStore struct {
	urlPrefix string
	putErr    error
	delErr    error
	puts      []string
	deletes   []string
}

func (f *fakeObjectStore) Put(ctx context.Context, name, contentType string, data []byte) (string, error) {
	if f.putErr != nil {
		return "", f.putErr
	}
	f.puts = append(f.puts, name)
	return f.urlPrefix + "/" + name, nil
}

func (f *fakeObjectStore) Delete(ctx context.Context, url string) error {
	if f.delErr != nil {
		return f.delErr
	}
	f.deletes = append(f.deletes, url)
	return nil
}

func TestPipelinePrimaryUpload(t *testing.T) {
	primary := &fakeObjectStore{urlPrefix: "https://cdn.example.com"}
	secondary := &fakeObjectStore{urlPrefix: "/uploads"}
	p := NewPipeline(primary, secondary, zerolog.Nop())

	res, err := p.Run(context.Background(), Request{
		Kind:        KindResume,
		FileName:    "resume.pdf",
		ContentType: "application/pdf",
		Data:        []byte("%PDF-1.4 content"),
	})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/resume.pdf", res.URL)
	assert.Equal(t, "application/pdf", res.ContentType)
	assert.Equal(t, int64(16), res.SizeBytes)
	assert.Empty(t, secondary.puts)
}

func TestPipelineFallsBackToSecondary(t *testing.T) {
	primary := &fakeObjectStore{putErr: errors.New("cdn unreachable")}
	secondary := &fakeObjectStore{urlPrefix: "/uploads"}
	p := NewPipeline(primary, secondary, zerolog.Nop())

	res, err := p.Run(context.Background(), Request{
		Kind:        KindResume,
		FileName:    "resume.pdf",
		ContentType: "application/pdf",
		Data:        []byte("%PDF"),
	})
	require.NoError(t, err)
	assert.Equal(t, "/uploads/resume.pdf", res.URL)
	assert.Equal(t, []string{"resume.pdf"}, secondary.puts)
}

func TestPipelineBothPathsFail(t *testing.T) {
	primary := &fakeObjectStore{putErr: errors.New("cdn down")}
	secondary := &fakeObjectStore{putErr: errors.New("disk full")}
	p := NewPipeline(primary, secondary, zerolog.Nop())

	_, err := p.Run(context.Background(), Request{
		Kind:        KindResume,
		FileName:    "resume.pdf",
		ContentType: "application/pdf",
		Data:        []byte("%PDF"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "both paths")
}

func TestPipelineRejectsBeforeUpload(t *testing.T) {
	primary := &fakeObjectStore{urlPrefix: "https://cdn.example.com"}
	p := NewPipeline(primary, nil, zerolog.Nop())

	_, err := p.Run(context.Background(), Request{
		Kind:        KindResume,
		FileName:    "resume.exe",
		ContentType: "application/octet-stream",
		Data:        []byte("MZ"),
	})
	require.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, primary.puts, "invalid file must not reach the store")
}

func TestPipelineDeletesPreviousObject(t *testing.T) {
	primary := &fakeObjectStore{urlPrefix: "https://cdn.example.com", delErr: errors.New("unsupported")}
	secondary := &fakeObjectStore{urlPrefix: "/uploads"}
	p := NewPipeline(primary, secondary, zerolog.Nop())

	_, err := p.Run(context.Background(), Request{
		Kind:        KindResume,
		FileName:    "resume-v2.pdf",
		ContentType: "application/pdf",
		Data:        []byte("%PDF"),
		PreviousURL: "/uploads/resume-v1.pdf",
	})
	require.NoError(t, err)
	// Primary refuses deletes; the secondary picks it up.
	assert.Equal(t, []string{"/uploads/resume-v1.pdf"}, secondary.deletes)
}

func TestPipelineDeleteFailureDoesNotFailUpload(t *testing.T) {
	primary := &fakeObjectStore{urlPrefix: "https://cdn.example.com", delErr: errors.New("nope")}
	secondary := &fakeObjectStore{urlPrefix: "/uploads", delErr: errors.New("nope")}
	p := NewPipeline(primary, secondary, zerolog.Nop())

	res, err := p.Run(context.Background(), Request{
		Kind:        KindResume,
		FileName:    "resume.pdf",
		ContentType: "application/pdf",
		Data:        []byte("%PDF"),
		PreviousURL: "/uploads/old.pdf",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.URL)
}

func TestPipelineCircleCrop(t *testing.T) {
	primary := &fakeObjectStore{urlPrefix: "https://cdn.example.com"}
	p := NewPipeline(primary, nil, zerolog.Nop())

	res, err := p.Run(context.Background(), Request{
		Kind:        KindProfileImage,
		FileName:    "avatar.jpg",
		ContentType: "image/png",
		Data:        pngBytes(t, 500, 500),
		CircleCrop:  true,
	})
	require.NoError(t, err)
	assert.Equal(t, "image/png", res.ContentType)
	assert.Equal(t, "avatar.png", res.FileName)
	assert.Equal(t, "https://cdn.example.com/avatar.png", res.URL)
}

func TestProgress(t *testing.T) {
	pr := &Progress{Interval: 5 * time.Millisecond}
	pr.start()

	require.Eventually(t, func() bool { return pr.Percent() >= 5 },
		time.Second, time.Millisecond)
	assert.Less(t, pr.Percent(), 100, "progress stays below 100 until the upload resolves")

	pr.finish()
	assert.Equal(t, 100, pr.Percent())
}

func TestPipelineRunReportsProgress(t *testing.T) {
	primary := &fakeObjectStore{urlPrefix: "https://cdn.example.com"}
	p := NewPipeline(primary, nil, zerolog.Nop())

	pr := &Progress{Interval: time.Millisecond}
	_, err := p.Run(context.Background(), Request{
		Kind:        KindResume,
		FileName:    "resume.pdf",
		ContentType: "application/pdf",
		Data:        []byte("%PDF"),
		Progress:    pr,
	})
	require.NoError(t, err)
	assert.Equal(t, 100, pr.Percent())
}
