package core

import (
	"cmp"
	"context"
	"slices"

	"github.com/google/uuid"
	"github.com/huangsam/stockpulse/internal/contract"
	"github.com/huangsam/stockpulse/schema"
)

// NotEnoughSessions is the diagnostic when there is nothing to compare against.
const NotEnoughSessions = "need two usable completed sessions to compare"

// BuildStockChanges compares the two latest usable completed sessions by product identity.
// Each list is capped at limit entries; limit <= 0 keeps everything.
func BuildStockChanges(ctx context.Context, snap contract.Snapshot, limit int) schema.ChangesResult {
	logger := loggerFrom(ctx)
	fail := func(err error) schema.ChangesResult {
		logger.Error("failed to build stock changes", "error", err)
		return schema.ChangesResult{Outcome: schema.OutcomeError, Diagnostic: err.Error()}
	}

	sessions, err := snap.CompletedSessions(ctx)
	if err != nil {
		return fail(err)
	}
	windows := latestWindows(sessions, 2)
	if len(windows) < 2 {
		return schema.ChangesResult{Outcome: schema.OutcomeEmpty, Diagnostic: NotEnoughSessions}
	}
	current, previous := windows[0], windows[1]

	after, err := snap.ObservationsBetween(ctx, current.Start, current.End)
	if err != nil {
		return fail(err)
	}
	before, err := snap.ObservationsBetween(ctx, previous.Start, previous.End)
	if err != nil {
		return fail(err)
	}

	result := DiffProducts(before, after, limit)
	result.Previous = previous
	result.Current = current
	return result
}

// latestWindows returns up to n windows of usable sessions, newest start first.
func latestWindows(sessions []schema.ScrapingSession, n int) []schema.Window {
	usable := make([]schema.ScrapingSession, 0, len(sessions))
	for _, s := range sessions {
		if s.Completed() && s.Usable() {
			usable = append(usable, s)
		}
	}
	slices.SortStableFunc(usable, func(a, b schema.ScrapingSession) int {
		if c := b.Start.Compare(*a.Start); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})

	windows := make([]schema.Window, 0, n)
	for _, s := range usable[:min(n, len(usable))] {
		w, _ := s.Window()
		windows = append(windows, w)
	}
	return windows
}

// DiffProducts classifies products between two snapshots of the catalog.
// When a product appears several times in one snapshot, its latest row wins.
func DiffProducts(before, after []schema.Observation, limit int) schema.ChangesResult {
	prev, cur := latestByProduct(before), latestByProduct(after)
	result := schema.ChangesResult{
		Outcome:   schema.OutcomeOK,
		Restocked: []schema.StockChange{},
		SoldOut:   []schema.StockChange{},
		Added:     []schema.StockChange{},
		Removed:   []schema.StockChange{},
	}

	titleKeyed := make(map[uuid.UUID]struct{})
	for id, a := range cur {
		if a.IdentitySource == schema.IdentityFromTitle {
			titleKeyed[id] = struct{}{}
		}
		b, seen := prev[id]
		switch {
		case !seen:
			result.Added = append(result.Added, change(a, "", a.StockStatus))
		case !b.InStock() && a.InStock():
			result.Restocked = append(result.Restocked, change(a, b.StockStatus, a.StockStatus))
		case b.InStock() && !a.InStock():
			result.SoldOut = append(result.SoldOut, change(a, b.StockStatus, a.StockStatus))
		}
	}
	for id, b := range prev {
		if b.IdentitySource == schema.IdentityFromTitle {
			titleKeyed[id] = struct{}{}
		}
		if _, ok := cur[id]; !ok {
			result.Removed = append(result.Removed, change(b, b.StockStatus, ""))
		}
	}
	result.TitleFallback = len(titleKeyed)

	result.Restocked = sortAndCap(result.Restocked, limit)
	result.SoldOut = sortAndCap(result.SoldOut, limit)
	result.Added = sortAndCap(result.Added, limit)
	result.Removed = sortAndCap(result.Removed, limit)
	return result
}

func latestByProduct(obs []schema.Observation) map[uuid.UUID]schema.Observation {
	out := make(map[uuid.UUID]schema.Observation, len(obs))
	for _, o := range obs {
		if prev, ok := out[o.ProductID]; ok && prev.ProcessedAt.After(o.ProcessedAt) {
			continue
		}
		out[o.ProductID] = o
	}
	return out
}

func change(o schema.Observation, before, after string) schema.StockChange {
	return schema.StockChange{
		ProductID:      o.ProductID,
		IdentitySource: o.IdentitySource,
		Title:          o.Title,
		Category:       o.Category,
		Before:         before,
		After:          after,
	}
}

func sortAndCap(changes []schema.StockChange, limit int) []schema.StockChange {
	slices.SortFunc(changes, func(a, b schema.StockChange) int {
		if c := cmp.Compare(a.Title, b.Title); c != 0 {
			return c
		}
		return cmp.Compare(a.ProductID.String(), b.ProductID.String())
	})
	if limit > 0 && len(changes) > limit {
		return changes[:limit]
	}
	return changes
}
