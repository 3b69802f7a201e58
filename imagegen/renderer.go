// renderer.go implements the Renderer organism: the end-to-end render of
// one painting.
//
// This organism composes:
//   - provider.go: generate / edit calls
//   - downloader.go: URL payload normalization
//   - atoms.go: data URL codecs, snapshot serialization
//   - db.PaintingRepository: guarded status transitions
package imagegen

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"paintflow/db"
	"paintflow/logging"
)

// RenderItem is one unit of render work: a pending painting, its prompt,
// and the reference images snapshotted for it at batch time.
type RenderItem struct {
	PaintingID int64
	IdeaID     int64
	Prompt     string
	References []db.ReferenceImage
}

// Renderer renders paintings one at a time. The render pool runs several
// Renderer calls concurrently; the Renderer itself is stateless between
// calls and safe for concurrent use.
type Renderer struct {
	provider   Provider
	downloader *Downloader
	paintings  *db.PaintingRepository
	uploadsDir string
	logger     *logging.Logger
}

// NewRenderer creates a Renderer that stores finished images under
// uploadsDir, creating the directory if needed.
func NewRenderer(provider Provider, downloader *Downloader, paintings *db.PaintingRepository, uploadsDir string, logger *logging.Logger) (*Renderer, error) {
	if uploadsDir == "" {
		uploadsDir = "uploads"
	}
	if err := os.MkdirAll(uploadsDir, 0755); err != nil {
		return nil, fmt.Errorf("imagegen: failed to create uploads directory: %w", err)
	}

	return &Renderer{
		provider:   provider,
		downloader: downloader,
		paintings:  paintings,
		uploadsDir: uploadsDir,
		logger:     logger.Named("renderer"),
	}, nil
}

// Render takes one painting from pending to a terminal state.
//
// The processing transition happens before any external work so status
// polls see the painting leave pending as soon as a worker picks it up.
// Any failure after that point lands the painting in failed with a
// truncated message; the error is also returned for logging, but a failed
// painting never affects its siblings.
func (r *Renderer) Render(ctx context.Context, item RenderItem) error {
	log := r.logger.With(zap.Int64("painting_id", item.PaintingID))

	if err := r.paintings.MarkProcessing(ctx, item.PaintingID); err != nil {
		if errors.Is(err, db.ErrInvalidTransition) {
			log.Warn("painting not pending, skipping render")
		}
		return fmt.Errorf("imagegen: could not start render: %w", err)
	}

	imageData, usedIDs, err := r.produce(ctx, item)
	if err != nil {
		log.Error("render failed", zap.Error(err))
		if markErr := r.paintings.MarkFailed(ctx, item.PaintingID, TruncateMessage(err.Error(), db.MaxErrorMessageLen)); markErr != nil {
			log.Error("failed to record render failure", zap.Error(markErr))
		}
		return err
	}

	imageURL, err := r.saveImage(item.PaintingID, imageData)
	if err != nil {
		log.Error("failed to store rendered image", zap.Error(err))
		if markErr := r.paintings.MarkFailed(ctx, item.PaintingID, TruncateMessage(err.Error(), db.MaxErrorMessageLen)); markErr != nil {
			log.Error("failed to record render failure", zap.Error(markErr))
		}
		return err
	}

	if err := r.paintings.MarkCompleted(ctx, item.PaintingID, imageURL, EncodeDataURL(imageData), ReferenceIDsJSON(usedIDs)); err != nil {
		log.Error("failed to record render completion", zap.Error(err))
		return fmt.Errorf("imagegen: failed to complete painting: %w", err)
	}

	log.Info("painting rendered",
		zap.String("image_url", imageURL),
		zap.Int("reference_count", len(usedIDs)),
	)
	return nil
}

// produce runs the provider call and normalizes the result to raw bytes.
// Returns the bytes and the reference IDs used, in supply order.
func (r *Renderer) produce(ctx context.Context, item RenderItem) ([]byte, []int64, error) {
	var result *ImageResult
	var usedIDs []int64

	if len(item.References) > 0 {
		paths, ids, cleanup, err := writeScratchFiles(item.References)
		if err != nil {
			return nil, nil, err
		}
		defer cleanup()
		usedIDs = ids

		result, err = r.provider.Edit(ctx, item.Prompt, paths)
		if err != nil {
			return nil, nil, err
		}
	} else {
		var err error
		usedIDs = []int64{}
		result, err = r.provider.Generate(ctx, item.Prompt)
		if err != nil {
			return nil, nil, err
		}
	}

	if result.B64JSON != "" {
		data, err := DecodeDataURL(result.B64JSON)
		if err != nil {
			return nil, nil, err
		}
		return data, usedIDs, nil
	}

	data, _, err := r.downloader.DownloadBytes(ctx, result.URL)
	if err != nil {
		return nil, nil, err
	}
	return data, usedIDs, nil
}

// saveImage writes the PNG bytes under the uploads directory and returns
// the web path stored on the painting.
func (r *Renderer) saveImage(paintingID int64, data []byte) (string, error) {
	name := fmt.Sprintf("painting-%d-%s.png", paintingID, uuid.NewString())
	fullPath := filepath.Join(r.uploadsDir, name)

	if err := os.WriteFile(fullPath, data, 0644); err != nil {
		return "", fmt.Errorf("imagegen: failed to write image file: %w", err)
	}
	return "uploads/" + name, nil
}

// writeScratchFiles decodes reference payloads to temporary PNG files for
// the multipart edit call. The returned cleanup removes every file that
// was created, including on partial failure, and must always run.
func writeScratchFiles(refs []db.ReferenceImage) (paths []string, ids []int64, cleanup func(), err error) {
	cleanup = func() {
		for _, p := range paths {
			os.Remove(p)
		}
	}

	for _, ref := range refs {
		data, decErr := DecodeDataURL(ref.ImageData)
		if decErr != nil {
			cleanup()
			return nil, nil, func() {}, fmt.Errorf("imagegen: reference %d: %w", ref.ID, decErr)
		}

		path := filepath.Join(os.TempDir(), fmt.Sprintf("ref-%d-%s.png", ref.ID, uuid.NewString()))
		if writeErr := os.WriteFile(path, data, 0600); writeErr != nil {
			cleanup()
			return nil, nil, func() {}, fmt.Errorf("imagegen: failed to write scratch file for reference %d: %w", ref.ID, writeErr)
		}

		paths = append(paths, path)
		ids = append(ids, ref.ID)
	}

	return paths, ids, cleanup, nil
}
