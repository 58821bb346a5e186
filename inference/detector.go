package inference

import (
	"context"
	"image"
	"log"
	"os"
	"sync"

	"github.com/nvr-ai/carcheck/common"
	"github.com/pkg/errors"
)

// Detector runs one YOLOv8 model. Calls to Detect are serialized because the
// bound tensors are shared by every run.
type Detector struct {
	cfg     Config
	logger  *log.Logger
	mu      sync.Mutex
	session *Session
}

// Option configures a Detector.
type Option func(*Detector)

// WithLogger sets the logger for model load and close messages.
func WithLogger(l *log.Logger) Option {
	return func(d *Detector) {
		if l != nil {
			d.logger = l
		}
	}
}

// NewDetector validates cfg and loads the model.
//
// Arguments:
//   - cfg: The model configuration.
//   - opts: Optional logger.
//
// Returns:
//   - *Detector: The detector.
//   - error: An error if cfg is invalid or the model cannot be loaded.
func NewDetector(cfg Config, opts ...Option) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "model %s", cfg.ModelPath)
	}
	session, err := NewSession(cfg)
	if err != nil {
		return nil, err
	}
	d := &Detector{
		cfg:     cfg,
		logger:  log.New(os.Stderr, "", log.LstdFlags),
		session: session,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger.Printf("✅ Loaded %s (%d classes, input %d)", cfg.ModelPath, len(cfg.Classes), cfg.InputSize)
	return d, nil
}

// Config returns the configuration the detector was built with.
func (d *Detector) Config() Config {
	return d.cfg
}

// Detect runs the model on img and returns detections in img's pixel coordinates,
// relative to img.Bounds().Min.
//
// Arguments:
//   - ctx: Checked before the model runs.
//   - img: The image to detect objects in.
//
// Returns:
//   - []common.BoundingBox: The detections, highest confidence first.
//   - error: An error if the context is done or inference fails.
func (d *Detector) Detect(ctx context.Context, img image.Image) ([]common.BoundingBox, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.session == nil {
		return nil, errors.New("detector closed")
	}

	lb, err := PrepareInput(img, d.cfg.InputSize, d.session.Input.GetData())
	if err != nil {
		return nil, errors.Wrap(err, "prepare input")
	}
	if err := d.session.Session.Run(); err != nil {
		return nil, errors.Wrapf(err, "run %s", d.cfg.ModelPath)
	}

	b := img.Bounds()
	return DecodeOutput(d.session.Output.GetData(), d.cfg, lb, b.Dx(), b.Dy())
}

// Close releases the model. Detect fails afterwards.
func (d *Detector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.session != nil {
		d.session.Close()
		d.session = nil
		if d.logger != nil {
			d.logger.Printf("🔒 Closed %s", d.cfg.ModelPath)
		}
	}
	return nil
}
