package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/toutvamal/newsroom/app/database"
	"github.com/toutvamal/newsroom/app/pipeline"
)

func NewHandler(sourceRepo database.SourceRepository, articleRepo database.ArticleRepository,
	journalistRepo database.JournalistRepository, ledger database.GenerationLogRepository,
	runner PipelineRunner) *Handler {
	return &Handler{
		sourceRepo:     sourceRepo,
		articleRepo:    articleRepo,
		journalistRepo: journalistRepo,
		ledger:         ledger,
		runner:         runner,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if count, err := h.articleRepo.CountArticles(c.Request.Context(), database.ArticleStatusPublished); err == nil {
		health["published_articles"] = count
	}

	if count, err := h.journalistRepo.GetActiveJournalistCount(c.Request.Context()); err == nil {
		health["active_journalists"] = count
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	ctx := c.Request.Context()

	articles := map[string]interface{}{}
	for _, status := range []string{database.ArticleStatusPublished, database.ArticleStatusDraft} {
		if count, err := h.articleRepo.CountArticles(ctx, status); err == nil {
			articles[status] = count
		}
	}

	generations := map[string]interface{}{}
	if count, err := h.ledger.CountLogs(ctx, ""); err == nil {
		generations["total"] = count
	}
	for _, status := range []string{
		database.GenerationStatusPending,
		database.GenerationStatusSuccess,
		database.GenerationStatusDeclined,
		database.GenerationStatusError,
	} {
		if count, err := h.ledger.CountLogs(ctx, status); err == nil {
			generations[status] = count
		}
	}

	sources := map[string]interface{}{}
	if all, err := h.sourceRepo.GetSources(ctx, false); err == nil {
		active := 0
		for _, source := range all {
			if source.Active {
				active++
			}
		}
		sources["total"] = len(all)
		sources["active"] = active
	}

	c.JSON(http.StatusOK, gin.H{
		"articles":    articles,
		"generations": generations,
		"sources":     sources,
	})
}

// APIGenerate triggers one pipeline run synchronously. With ?retry=<log id>
// it re-runs a failed ledger entry instead of picking a fresh item.
func (h *Handler) APIGenerate(c *gin.Context) {
	var req GenerateRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
			return
		}
	}

	opts := pipeline.Options{
		SourceURL:         req.SourceURL,
		SourceTitle:       req.SourceTitle,
		SourceDescription: req.SourceDescription,
		JournalistID:      req.JournalistID,
		AutoPublish:       true,
		GenerateImage:     true,
	}
	if req.AutoPublish != nil {
		opts.AutoPublish = *req.AutoPublish
	}
	if req.GenerateImage != nil {
		opts.GenerateImage = *req.GenerateImage
	}

	var result *pipeline.Result
	var err error

	if retryParam := c.Query("retry"); retryParam != "" {
		logID, parseErr := strconv.ParseInt(retryParam, 10, 64)
		if parseErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid retry parameter"})
			return
		}
		result, err = h.runner.Retry(c.Request.Context(), logID, opts)
	} else {
		result, err = h.runner.Run(c.Request.Context(), opts)
	}

	if err != nil {
		switch {
		case errors.Is(err, pipeline.ErrLogNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Generation log not found"})
		case errors.Is(err, pipeline.ErrNotRetryable):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Can only retry failed generations"})
		default:
			slog.Error("Generation run failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Generation failed", "details": err.Error()})
		}
		return
	}

	switch result.Outcome {
	case pipeline.OutcomeGenerated:
		response := gin.H{
			"message": "Article generated successfully",
			"log_id":  result.LogID,
		}
		if article, err := h.articleRepo.GetArticleByID(c.Request.Context(), *result.ArticleID); err == nil && article != nil {
			response["article"] = article
		} else {
			response["article_id"] = result.ArticleID
		}
		c.JSON(http.StatusCreated, response)

	case pipeline.OutcomeDeclined:
		c.JSON(http.StatusOK, gin.H{
			"message": "Generator declined the source item",
			"outcome": result.Outcome,
			"log_id":  result.LogID,
		})

	case pipeline.OutcomeNoEligibleItem:
		c.JSON(http.StatusConflict, gin.H{
			"error":   "No eligible feed item available",
			"outcome": result.Outcome,
		})

	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Generation failed",
			"details": result.Reason,
			"log_id":  result.LogID,
		})
	}
}

func (h *Handler) APIListGenerationLogs(c *gin.Context) {
	status := c.Query("status")

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 || limit > 200 {
		limit = 50
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	entries, total, err := h.ledger.ListLogs(c.Request.Context(), status, limit, offset)
	if err != nil {
		slog.Error("Database error", "operation", "list_generation_logs", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if entries == nil {
		entries = []database.GenerationLog{}
	}

	c.JSON(http.StatusOK, gin.H{
		"logs":   entries,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

func (h *Handler) APIPurgeGenerationLogs(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("days", "90"))
	if err != nil || days < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid days parameter"})
		return
	}

	deleted, err := h.ledger.PurgeOlderThan(c.Request.Context(), days)
	if err != nil {
		slog.Error("Database error", "operation", "purge_generation_logs", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Generation logs purged",
		"days":    days,
		"deleted": deleted,
	})
}

func (h *Handler) APIListSources(c *gin.Context) {
	sources, err := h.sourceRepo.GetSources(c.Request.Context(), false)
	if err != nil {
		slog.Error("Database error", "operation", "list_sources", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if sources == nil {
		sources = []database.RssSource{}
	}

	c.JSON(http.StatusOK, gin.H{
		"sources": sources,
		"total":   len(sources),
	})
}
