package routes

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"mini-rag-backend/internal/config"
	"mini-rag-backend/internal/logger"
	"mini-rag-backend/internal/telemetry"
	"mini-rag-backend/models"
	"mini-rag-backend/services"
	"mini-rag-backend/utils"
)

func SetupQueryRoutes(
	router *gin.Engine,
	cfg *config.Config,
	retrieval *services.RetrievalService,
	reranker *services.RerankerService,
	answerer *services.AnswerService,
	metrics *telemetry.Metrics,
) {
	// POST /query - retrieve, rerank and synthesize a grounded answer
	router.POST("/query", func(c *gin.Context) {
		start := time.Now()

		var req models.QueryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request body", err.Error())
			return
		}

		topK := cfg.RerankTopK
		if req.TopK != nil {
			topK = *req.TopK
		}
		if topK < 1 || topK > cfg.MaxTopK {
			utils.RespondWithBadRequest(c, "top_k out of range", gin.H{"min": 1, "max": cfg.MaxTopK})
			return
		}

		ctx := c.Request.Context()

		retrieved, err := retrieval.Retrieve(ctx, req.Query, cfg.RetrievalTopK)
		if err != nil {
			if errors.Is(err, services.ErrEmptyQuery) {
				utils.RespondWithBadRequest(c, "Query cannot be empty", nil)
				return
			}
			logger.Error("Retrieval failed", "error", err)
			utils.RespondWithInternalError(c, "Retrieval failed", nil)
			return
		}
		if metrics != nil {
			metrics.RecordRetrieval(len(retrieved))
		}

		if len(retrieved) == 0 {
			utils.RespondWithNotFound(c, services.NoInformationAnswer)
			return
		}

		rerankRes, err := reranker.Rerank(ctx, req.Query, retrieved, topK)
		if err != nil {
			logger.Error("Rerank failed", "error", err)
			utils.RespondWithInternalError(c, "Rerank failed", nil)
			return
		}
		if rerankRes.Fallback && metrics != nil {
			metrics.RecordFallback("reranker")
		}

		answerRes, err := answerer.GenerateAnswer(ctx, req.Query, rerankRes.Chunks)
		if err != nil {
			logger.Error("Answer synthesis failed", "error", err)
			utils.RespondWithInternalError(c, "Answer synthesis failed", nil)
			return
		}
		if answerRes.Fallback && metrics != nil {
			metrics.RecordFallback("llm")
		}

		latency := float64(time.Since(start).Microseconds()) / 1000.0
		logger.Info("Query answered",
			"retrieved", len(retrieved),
			"reranked", len(rerankRes.Chunks),
			"citations", len(answerRes.Citations),
			"latency_ms", latency,
		)

		c.JSON(http.StatusOK, models.QueryResponse{
			Answer:          answerRes.Answer,
			Citations:       answerRes.Citations,
			RetrievedChunks: len(retrieved),
			LatencyMs:       latency,
			Fallback:        rerankRes.Fallback || answerRes.Fallback,
		})
	})
}
