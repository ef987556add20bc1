package httpapi

import "net/http"

type crawlResponse struct {
	Crawled bool              `json:"crawled"`
	Sources []streamSourceDTO `json:"sources"`
}

// TriggerCrawl runs the same guarded crawl path the scheduler uses. A
// request while a crawl is in flight, or inside the cooldown, answers
// with the stored sources and crawled=false.
func (h *Handler) TriggerCrawl(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.TriggerCrawl")
	defer span.End()

	matchID, err := pathMatchID(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.crawlService.CrawlMatch(ctx, matchID)
	if err != nil {
		h.logger.WarnContext(ctx, "trigger crawl failed", "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, crawlResponse{
		Crawled: result.Crawled,
		Sources: streamSourcesToDTO(result.Sources),
	})
}
