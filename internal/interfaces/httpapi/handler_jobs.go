package httpapi

import (
	"net/http"
	"time"
)

// The internal job endpoints run one pass of the background loops on
// demand. Deploy hooks and operators use them; the scheduler process runs
// the same services on its own cadence.

func (h *Handler) RunIngestJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunIngestJob")
	defer span.End()

	if err := h.ingestionService.Bootstrap(ctx); err != nil {
		h.logger.ErrorContext(ctx, "run ingest job failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	result, err := h.ingestionService.IngestAll(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "run ingest job failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

func (h *Handler) RunPromoteLiveJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunPromoteLiveJob")
	defer span.End()

	promoted, next, err := h.lifecycleService.PromoteDue(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "run promote-live job failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	payload := map[string]any{"promoted": promoted}
	if next != nil {
		payload["nextScheduledStart"] = next.UTC().Format(time.RFC3339)
	}

	writeSuccess(ctx, w, http.StatusOK, payload)
}

func (h *Handler) RunCrawlLiveJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunCrawlLiveJob")
	defer span.End()

	crawled, err := h.crawlService.CrawlLive(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "run crawl-live job failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]int{"crawled": crawled})
}

func (h *Handler) RunGCJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunGCJob")
	defer span.End()

	report, err := h.gcService.Collect(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "run gc job failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, report)
}
