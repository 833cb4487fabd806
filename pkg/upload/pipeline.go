package upload

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ObjectStore stores and deletes binary blobs. Put returns the public URL
// of the stored object.
type ObjectStore interface {
	Put(ctx context.Context, name, contentType string, data []byte) (string, error)
	Delete(ctx context.Context, url string) error
}

// Result describes a completed upload.
type Result struct {
	URL         string
	FileName    string
	SizeBytes   int64
	ContentType string
	UploadedAt  time.Time
}

// Pipeline validates and uploads files, preferring the CDN-backed primary
// store and falling back exactly once to the secondary on failure.
type Pipeline struct {
	primary   ObjectStore
	secondary ObjectStore
	log       zerolog.Logger
	now       func() time.Time
}

// NewPipeline creates a pipeline. secondary may be nil, in which case a
// primary failure is final.
func NewPipeline(primary, secondary ObjectStore, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		primary:   primary,
		secondary: secondary,
		log:       log,
		now:       time.Now,
	}
}

// Request is one upload job.
type Request struct {
	Kind        Kind
	FileName    string
	ContentType string
	Data        []byte

	// CircleCrop applies the circular profile crop before upload. Only
	// meaningful for image kinds.
	CircleCrop bool

	// PreviousURL, when non-empty, is deleted from both stores after a
	// successful upload. Deletion is best-effort and never fails the
	// upload.
	PreviousURL string

	// Progress, when non-nil, receives the 0-100 progress of this upload.
	Progress *Progress
}

// Run validates, optionally transforms, and uploads the file, then deletes
// the previous object best-effort.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	if req.Progress != nil {
		req.Progress.start()
		defer req.Progress.finish()
	}

	if err := Validate(req.Kind, req.ContentType, req.Data); err != nil {
		return nil, err
	}

	data := req.Data
	contentType := req.ContentType
	fileName := req.FileName
	if req.CircleCrop {
		cropped, err := CropCircle(data)
		if err != nil {
			return nil, err
		}
		data = cropped
		contentType = "image/png"
		fileName = pngName(fileName)
	}

	url, err := p.primary.Put(ctx, fileName, contentType, data)
	if err != nil {
		if p.secondary == nil {
			return nil, fmt.Errorf("upload failed: %w", err)
		}
		p.log.Warn().Err(err).Str("file", fileName).Msg("primary upload failed, trying fallback")
		url, err = p.secondary.Put(ctx, fileName, contentType, data)
		if err != nil {
			return nil, fmt.Errorf("upload failed on both paths: %w", err)
		}
	}

	if req.PreviousURL != "" && req.PreviousURL != url {
		p.deleteOld(ctx, req.PreviousURL)
	}

	return &Result{
		URL:         url,
		FileName:    fileName,
		SizeBytes:   int64(len(data)),
		ContentType: contentType,
		UploadedAt:  p.now(),
	}, nil
}

// deleteOld removes the replaced object from whichever store holds it.
// Failures are logged and swallowed.
func (p *Pipeline) deleteOld(ctx context.Context, url string) {
	for _, os := range []ObjectStore{p.primary, p.secondary} {
		if os == nil {
			continue
		}
		if err := os.Delete(ctx, url); err == nil {
			return
		}
	}
	p.log.Warn().Str("url", url).Msg("could not delete replaced object")
}

func pngName(name string) string {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			return name[:i] + ".png"
		}
	}
	return name + ".png"
}

// Progress approximates upload progress as a 0-100 percentage. The object
// stores report no byte-level progress, so the value advances on a timed
// schedule and stays capped below 100 until the upload resolves.
type Progress struct {
	mu      sync.Mutex
	percent int
	done    bool
	stop    chan struct{}

	// Interval between increments; defaults to 200ms.
	Interval time.Duration
}

// Percent returns the current 0-100 value.
func (p *Progress) Percent() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.percent
}

func (p *Progress) start() {
	p.mu.Lock()
	interval := p.Interval
	if interval <= 0 {
		interval = 200 * time.Millisecond
	}
	p.stop = make(chan struct{})
	stop := p.stop
	p.mu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				p.mu.Lock()
				if !p.done && p.percent < 95 {
					p.percent += 5
				}
				p.mu.Unlock()
			case <-stop:
				return
			}
		}
	}()
}

func (p *Progress) finish() {
	p.mu.Lock()
	p.done = true
	p.percent = 100
	if p.stop != nil {
		close(p.stop)
		p.stop = nil
	}
	p.mu.Unlock()
}
