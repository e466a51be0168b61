package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/siddarth24/joblo/cache"
	"github.com/siddarth24/joblo/llm"
	"github.com/siddarth24/joblo/models"
	"github.com/siddarth24/joblo/pipeline"
)

// Extract returns a handler for POST /api/v1/extract.
//
// Flow:
//  1. Parse & validate ExtractRequest, apply defaults.
//  2. Cache lookup (keyed on URL + model, bounded by the request's max age).
//  3. Run the extraction pipeline under the request's deadline.
//  4. Cache the record and assemble the response with timing.
//
// Pipeline outcomes — including extraction failures — always yield HTTP 200:
// an {"error": ...} record in Data is a valid result, not a transport error.
// Non-200 statuses are reserved for request-level failures.
func Extract(p *pipeline.Pipeline, cc *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		totalStart := time.Now()

		// ── 1. Parse request ────────────────────────────────────────
		var req models.ExtractRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ExtractResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}
		req.Defaults()

		// ── 2. Cache lookup ─────────────────────────────────────────
		key := cache.Key(req.URL, req.LLMModel)
		if rec, hit := cc.Get(key, req.CacheMaxAgeMs); hit {
			c.JSON(http.StatusOK, models.ExtractResponse{
				Success: !rec.Failed(),
				Data:    rec.AsMap(),
				Cached:  true,
				Timing: models.TimingInfo{
					TotalMs: time.Since(totalStart).Milliseconds(),
				},
			})
			return
		}

		// ── 3. Run the pipeline ─────────────────────────────────────
		ctx, cancel := context.WithTimeout(c.Request.Context(),
			time.Duration(req.Timeout)*time.Second)
		defer cancel()

		pipelineStart := time.Now()
		rec := p.Extract(ctx, req.URL, llm.Params{
			APIKey:  req.LLMAPIKey,
			Model:   req.LLMModel,
			BaseURL: req.LLMBaseURL,
		})
		pipelineMs := time.Since(pipelineStart).Milliseconds()

		// ── 4. Cache & respond ──────────────────────────────────────
		cc.Set(key, rec)

		c.JSON(http.StatusOK, models.ExtractResponse{
			Success: !rec.Failed(),
			Data:    rec.AsMap(),
			Timing: models.TimingInfo{
				TotalMs:    time.Since(totalStart).Milliseconds(),
				PipelineMs: pipelineMs,
			},
		})
	}
}
