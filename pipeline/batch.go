// batch.go implements the batch coordinator: the organism behind the
// generate operation.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"paintflow/db"
	"paintflow/imagegen"
	"paintflow/logging"
)

// ErrQuantityOutOfRange is returned when a batch quantity is negative or
// above the configured maximum.
var ErrQuantityOutOfRange = errors.New("pipeline: quantity out of range")

// IdeaGenerator produces one persisted idea per call. Satisfied by
// ideas.Generator.
type IdeaGenerator interface {
	GenerateIdea(ctx context.Context, title *db.Title, refs []db.ReferenceImage, priorSummaries []string) (*db.Idea, error)
}

// BatchEntry pairs a created idea with its pending painting.
type BatchEntry struct {
	Idea       db.Idea
	PaintingID int64
}

// Coordinator runs batches: N sequential idea generations, a pending
// painting per idea, then a detached render pool over the batch.
type Coordinator struct {
	generator  IdeaGenerator
	dispatcher *Dispatcher
	titles     *db.TitleRepository
	refs       *db.ReferenceRepository
	ideas      *db.IdeaRepository
	paintings  *db.PaintingRepository

	defaultQuantity int
	maxQuantity     int
	logger          *logging.Logger
}

// NewCoordinator wires a Coordinator from its collaborators.
func NewCoordinator(
	generator IdeaGenerator,
	dispatcher *Dispatcher,
	titles *db.TitleRepository,
	refs *db.ReferenceRepository,
	ideas *db.IdeaRepository,
	paintings *db.PaintingRepository,
	defaultQuantity, maxQuantity int,
	logger *logging.Logger,
) *Coordinator {
	return &Coordinator{
		generator:       generator,
		dispatcher:      dispatcher,
		titles:          titles,
		refs:            refs,
		ideas:           ideas,
		paintings:       paintings,
		defaultQuantity: defaultQuantity,
		maxQuantity:     maxQuantity,
		logger:          logger.Named("pipeline"),
	}
}

// StartBatch generates quantity ideas for the title and returns once every
// idea has a persisted row and a pending painting. Rendering continues in
// the background after return; callers observe progress by polling.
//
// quantity 0 means the configured default. The title must exist and belong
// to userID (db.ErrNotFound otherwise).
//
// Idea generation is strictly sequential so each call sees the summaries
// of all prior ideas. If a generation fails mid-batch the already-created
// entries are kept and dispatched; the batch is simply shorter. A failure
// on the very first idea fails the batch.
func (c *Coordinator) StartBatch(ctx context.Context, userID, titleID int64, quantity int) ([]BatchEntry, error) {
	if quantity == 0 {
		quantity = c.defaultQuantity
	}
	if quantity < 0 || quantity > c.maxQuantity {
		return nil, fmt.Errorf("%w: must be between 1 and %d, got %d", ErrQuantityOutOfRange, c.maxQuantity, quantity)
	}

	title, err := c.titles.GetByID(ctx, titleID, userID)
	if err != nil {
		return nil, fmt.Errorf("pipeline: failed to load title: %w", err)
	}

	refs, err := c.refs.ListForTitle(ctx, userID, titleID)
	if err != nil {
		return nil, fmt.Errorf("pipeline: failed to load references: %w", err)
	}

	// Prior summaries from every earlier batch seed the digest
	summaries, err := c.ideas.ListSummariesByTitle(ctx, titleID)
	if err != nil {
		return nil, fmt.Errorf("pipeline: failed to load prior summaries: %w", err)
	}

	batchID := uuid.NewString()
	log := c.logger.With(
		zap.String("batch_id", batchID),
		zap.Int64("title_id", titleID),
	)
	log.Info("batch starting",
		zap.Int("quantity", quantity),
		zap.Int("references", len(refs)),
		zap.Int("prior_ideas", len(summaries)),
	)

	var entries []BatchEntry
	var items []imagegen.RenderItem
	for i := 0; i < quantity; i++ {
		idea, err := c.generator.GenerateIdea(ctx, title, refs, summaries)
		if err != nil {
			if i == 0 {
				return nil, fmt.Errorf("pipeline: first idea generation failed: %w", err)
			}
			// Keep what we have; a shorter batch beats losing finished ideas
			log.Warn("idea generation failed mid-batch, dispatching partial batch",
				zap.Int("generated", i),
				zap.Error(err),
			)
			break
		}

		paintingID, err := c.paintings.CreatePending(ctx, idea.ID)
		if err != nil {
			if i == 0 {
				return nil, fmt.Errorf("pipeline: failed to create pending painting: %w", err)
			}
			// The earlier pending rows are committed; dispatch them so
			// none is stranded in pending
			log.Warn("pending painting creation failed mid-batch, dispatching partial batch",
				zap.Int("generated", i),
				zap.Error(err),
			)
			break
		}

		summaries = append(summaries, idea.Summary)
		entries = append(entries, BatchEntry{Idea: *idea, PaintingID: paintingID})
		items = append(items, imagegen.RenderItem{
			PaintingID: paintingID,
			IdeaID:     idea.ID,
			Prompt:     idea.FullPrompt,
			References: refs,
		})
	}

	log.Info("batch created, starting renders", zap.Int("entries", len(entries)))

	// Detached from the request: rendering outlives the caller's context
	go c.dispatcher.Run(context.Background(), items)

	return entries, nil
}
