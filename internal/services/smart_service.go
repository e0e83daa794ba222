package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"housetab/internal/cache"
	"housetab/internal/core"
	"housetab/internal/smart"
)

// ErrParseBusy is returned while a parse call is outstanding. Only one may
// be in flight; manual entry, deletion and settlement are unaffected.
var ErrParseBusy = errors.New("a parse request is already in flight")

// SmartService runs free-text input through the external parser and the
// normalizer, caching successful results per input text.
type SmartService struct {
	parser smart.Parser
	cache  *cache.LRUCache[core.Draft]
	busy   atomic.Bool
}

func NewSmartService(parser smart.Parser, drafts *cache.LRUCache[core.Draft]) *SmartService {
	return &SmartService{parser: parser, cache: drafts}
}

// Parse turns free text into a validated draft, or fails without side
// effects. Completion and failure both clear the busy state exactly once.
func (s *SmartService) Parse(ctx context.Context, freeText string) (core.Draft, error) {
	key := strings.TrimSpace(freeText)
	if key == "" {
		return core.Draft{}, smart.ErrUnparseable
	}

	// Cached results skip the model call, so they bypass the busy gate too.
	if s.cache != nil {
		if draft, ok := s.cache.Get(key); ok {
			slog.DebugContext(ctx, "Parse cache hit", "operation", "parse")
			return draft, nil
		}
	}

	if !s.busy.CompareAndSwap(false, true) {
		return core.Draft{}, ErrParseBusy
	}
	defer s.busy.Store(false)

	res, err := s.parser.Parse(ctx, freeText)
	if err != nil {
		slog.WarnContext(ctx, "Structured parse failed", "error", err, "operation", "parse")
		return core.Draft{}, fmt.Errorf("structured parse: %w", err)
	}

	draft, err := core.Normalize(res)
	if err != nil {
		slog.WarnContext(ctx, "Parse result rejected by normalizer",
			"error", err,
			"operation", "parse")
		return core.Draft{}, fmt.Errorf("normalize parse result: %w", err)
	}

	if s.cache != nil {
		s.cache.Set(key, draft)
	}
	return draft, nil
}

// Busy reports whether a parse call is outstanding.
func (s *SmartService) Busy() bool {
	return s.busy.Load()
}
