package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mini-rag-backend/internal/ai"
	"mini-rag-backend/internal/config"
	"mini-rag-backend/internal/logger"
	"mini-rag-backend/internal/telemetry"
	"mini-rag-backend/internal/vectorstore"
	"mini-rag-backend/models"
	"mini-rag-backend/services"
	"mini-rag-backend/utils"
)

func SetupIngestRoutes(router *gin.Engine, cfg *config.Config, chunker *services.TextChunker, embedder *ai.EmbeddingClient, store vectorstore.Store, metrics *telemetry.Metrics) {
	// POST /ingest - chunk, embed and index a document
	router.POST("/ingest", func(c *gin.Context) {
		var req models.IngestRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request body", err.Error())
			return
		}

		source := req.Source
		if source == "" {
			source = "unknown"
		}

		chunks := chunker.ChunkText(req.Text, source, req.Title, "")
		if len(chunks) == 0 {
			utils.RespondWithBadRequest(c, "Text produced no chunks", nil)
			return
		}

		texts := make([]string, len(chunks))
		for i, ch := range chunks {
			texts[i] = ch.Text
		}

		vectors, err := embedder.EmbedBatch(c.Request.Context(), texts)
		if err != nil {
			logger.Error("Failed to embed document chunks", "error", err, "source", source)
			utils.RespondWithInternalError(c, "Failed to generate embeddings", nil)
			return
		}

		records := make([]vectorstore.Record, len(chunks))
		for i, ch := range chunks {
			records[i] = vectorstore.Record{
				ID:       utils.ChunkID(ch.Text, ch.Metadata.Source, ch.Metadata.Position),
				Values:   vectors[i],
				Text:     ch.Text,
				Metadata: ch.Metadata,
			}
		}

		if err := store.Upsert(c.Request.Context(), records); err != nil {
			logger.Error("Failed to upsert chunks", "error", err, "source", source)
			utils.RespondWithInternalError(c, "Failed to index document", nil)
			return
		}

		details := make([]models.ChunkDetail, len(chunks))
		for i, ch := range chunks {
			details[i] = models.ChunkDetail{
				Text:       ch.Text,
				Source:     ch.Metadata.Source,
				Title:      ch.Metadata.Title,
				Section:    ch.Metadata.Section,
				Position:   ch.Metadata.Position,
				TokenCount: ch.Metadata.TokenCount,
			}
		}

		if metrics != nil {
			metrics.RecordIngest(len(chunks))
		}
		logger.Info("Document ingested", "source", source, "chunks", len(chunks))

		c.JSON(http.StatusOK, models.IngestResponse{
			Success:    true,
			Message:    "Document ingested successfully",
			ChunkCount: len(chunks),
			DocumentID: utils.DocumentID(req.Text),
			Chunks:     details,
		})
	})

	// DELETE /ingest - clear the whole index
	router.DELETE("/ingest", func(c *gin.Context) {
		if err := store.DeleteAll(c.Request.Context()); err != nil {
			logger.Error("Failed to clear index", "error", err)
			utils.RespondWithInternalError(c, "Failed to clear index", nil)
			return
		}
		logger.Info("Vector index cleared")
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Index cleared"})
	})

	// GET /ingest/stats - index statistics
	router.GET("/ingest/stats", func(c *gin.Context) {
		stats, err := store.Stats(c.Request.Context())
		if err != nil {
			logger.Error("Failed to read index stats", "error", err)
			utils.RespondWithInternalError(c, "Failed to read index stats", nil)
			return
		}
		c.JSON(http.StatusOK, models.IndexStatsResponse{
			VectorCount: stats.VectorCount,
			Dimension:   stats.Dimension,
		})
	})
}
