// Package service orchestrates the engine and the document store: page text
// extraction, translated-page creation and update, chunked browsing, and
// structural mutations. The engine itself never touches storage; everything
// flows through here.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgallion1/pagetree/internal/config"
	"github.com/dgallion1/pagetree/internal/docstore"
	"github.com/dgallion1/pagetree/internal/pagetree"
	"github.com/dgallion1/pagetree/internal/translate"
	"github.com/google/uuid"
)

// ErrCapabilityMissing gates translation operations until the store reports
// the multilingual capability.
var ErrCapabilityMissing = errors.New("multilingual capability is not active")

type Service struct {
	store  *docstore.Store
	cfg    config.Config
	fields translate.FieldMap
	log    *slog.Logger
}

func New(store *docstore.Store, cfg config.Config, fields translate.FieldMap, log *slog.Logger) *Service {
	if fields == nil {
		fields = translate.DefaultFieldMap()
	}
	return &Service{store: store, cfg: cfg, fields: fields, log: log}
}

// FieldMap exposes the active field map (for the API's introspection
// endpoint).
func (s *Service) FieldMap() translate.FieldMap { return s.fields }

// CreatePage parses raw input and stores it as a new page. The parse result
// is returned in full so the caller sees the index and any duplicate ids.
func (s *Service) CreatePage(ctx context.Context, raw any, title, language string) (string, pagetree.ParseResult, error) {
	res := pagetree.ParseToResult(raw, s.cfg.Limits())
	if !res.Success {
		return "", res, nil
	}
	id := newPageID()
	page := &docstore.Page{ID: id, Title: title, Language: language, Raw: res.RawData}
	if err := s.store.SavePage(ctx, page); err != nil {
		return "", res, err
	}
	return id, res, nil
}

// ListPages returns metadata for every stored page.
func (s *Service) ListPages(ctx context.Context) ([]docstore.Page, error) {
	return s.store.ListPages(ctx)
}

// DeletePage removes a stored page.
func (s *Service) DeletePage(ctx context.Context, docID string) error {
	return s.store.DeletePage(ctx, docID)
}

// GetParsed fetches and indexes a stored page.
func (s *Service) GetParsed(ctx context.Context, docID string) (*docstore.Page, *pagetree.Index, error) {
	page, err := s.store.GetPage(ctx, docID)
	if err != nil {
		return nil, nil, err
	}
	doc, err := pagetree.Parse(page.Raw, s.cfg.Limits())
	if err != nil {
		return nil, nil, fmt.Errorf("stored page %s: %w", docID, err)
	}
	idx, err := pagetree.BuildIndex(doc, s.cfg.Limits())
	if err != nil {
		return nil, nil, fmt.Errorf("index page %s: %w", docID, err)
	}
	return page, idx, nil
}

// GetChunks splits a stored page into transport-sized chunks, resuming from
// token when given.
func (s *Service) GetChunks(ctx context.Context, docID string, maxBytes int, token string) ([]pagetree.Chunk, error) {
	_, idx, err := s.GetParsed(ctx, docID)
	if err != nil {
		return nil, err
	}
	if maxBytes <= 0 || maxBytes > s.cfg.MaxChunkBytes {
		maxBytes = s.cfg.MaxChunkBytes
	}
	if token != "" {
		return pagetree.ResumeSplit(idx.Document(), maxBytes, token)
	}
	return pagetree.SplitChunks(idx.Document(), maxBytes)
}

// GetStructure returns the settings-free structural summary of a stored
// page.
func (s *Service) GetStructure(ctx context.Context, docID string) ([]pagetree.StructureEntry, error) {
	_, idx, err := s.GetParsed(ctx, docID)
	if err != nil {
		return nil, err
	}
	return idx.StructureSummary(), nil
}

// PageText is the translation-facing extraction result.
type PageText struct {
	Language string           `json:"language"`
	Units    []translate.Unit `json:"units"`
}

// GetPageText extracts the translatable units of a stored page.
func (s *Service) GetPageText(ctx context.Context, docID string) (*PageText, error) {
	if err := s.requireMultilingual(ctx); err != nil {
		return nil, err
	}
	page, idx, err := s.GetParsed(ctx, docID)
	if err != nil {
		return nil, err
	}
	units := translate.NewExtractor(s.fields).Extract(idx)
	return &PageText{Language: page.Language, Units: units}, nil
}

// CreateResult reports a newly created translated page.
type CreateResult struct {
	NewDocumentID string                 `json:"newDocumentId"`
	Applied       int                    `json:"applied"`
	Unresolved    []translate.Unresolved `json:"unresolvedUnits"`
}

// CreateTranslatedPage duplicates the source page, applies the translated
// units to the copy, and tags it with the target language. Unresolved units
// are reported, never fatal.
func (s *Service) CreateTranslatedPage(ctx context.Context, docID string, units []translate.TranslatedUnit, targetLang string) (*CreateResult, error) {
	if err := s.requireMultilingual(ctx); err != nil {
		return nil, err
	}
	newID := newPageID()
	dup, err := s.store.DuplicatePage(ctx, docID, newID)
	if err != nil {
		return nil, err
	}

	doc, err := pagetree.Parse(dup.Raw, s.cfg.Limits())
	if err != nil {
		return nil, fmt.Errorf("stored page %s: %w", docID, err)
	}
	idx, err := pagetree.BuildIndex(doc, s.cfg.Limits())
	if err != nil {
		return nil, err
	}

	res := translate.NewApplier(s.fields).Apply(idx, units)
	if err := s.savePage(ctx, dup, doc, targetLang); err != nil {
		return nil, err
	}

	s.log.Info("created translated page",
		"source_id", docID, "new_id", newID, "language", targetLang,
		"applied", res.Applied, "unresolved", len(res.Unresolved))
	return &CreateResult{NewDocumentID: newID, Applied: res.Applied, Unresolved: res.Unresolved}, nil
}

// UpdateOptions controls UpdateTranslatedPage. FullUpdate replaces the
// target's tree with the source document's before reapplying units, for use
// when the two have diverged structurally. SourceDocumentID overrides the
// recorded origin.
type UpdateOptions struct {
	FullUpdate       bool   `json:"fullUpdate,omitempty"`
	SourceDocumentID string `json:"sourceDocumentId,omitempty"`
}

// UpdateResult reports an in-place translation update.
type UpdateResult struct {
	Applied    int                    `json:"applied"`
	Unresolved []translate.Unresolved `json:"unresolvedUnits"`
}

// UpdateTranslatedPage merges translated units into a stored page in place.
func (s *Service) UpdateTranslatedPage(ctx context.Context, docID string, units []translate.TranslatedUnit, opts UpdateOptions) (*UpdateResult, error) {
	if err := s.requireMultilingual(ctx); err != nil {
		return nil, err
	}
	page, idx, err := s.GetParsed(ctx, docID)
	if err != nil {
		return nil, err
	}
	doc := idx.Document()

	if opts.FullUpdate {
		sourceID := opts.SourceDocumentID
		if sourceID == "" {
			sourceID = page.SourceID
		}
		if sourceID == "" {
			return nil, fmt.Errorf("full update of %s: no source document recorded or supplied", docID)
		}
		_, srcIdx, err := s.GetParsed(ctx, sourceID)
		if err != nil {
			return nil, fmt.Errorf("full update of %s: %w", docID, err)
		}
		idx, err = translate.ReplaceTree(doc, srcIdx.Document(), s.cfg.Limits())
		if err != nil {
			return nil, fmt.Errorf("full update of %s: %w", docID, err)
		}
	}

	res := translate.NewApplier(s.fields).Apply(idx, units)
	if err := s.savePage(ctx, page, doc, page.Language); err != nil {
		return nil, err
	}

	s.log.Info("updated translated page",
		"doc_id", docID, "full_update", opts.FullUpdate,
		"applied", res.Applied, "unresolved", len(res.Unresolved))
	return &UpdateResult{Applied: res.Applied, Unresolved: res.Unresolved}, nil
}

func (s *Service) savePage(ctx context.Context, page *docstore.Page, doc *pagetree.Document, language string) error {
	data, err := doc.Serialize()
	if err != nil {
		return fmt.Errorf("serialize page %s: %w", page.ID, err)
	}
	// A document over the byte ceiling would persist fine and then fail every
	// later fetch; reject it here instead.
	if limit := s.cfg.MaxDocumentBytes; limit > 0 && len(data) > limit {
		return &pagetree.SizeLimitError{What: "bytes", Got: len(data), Limit: limit}
	}
	page.Raw = string(data)
	page.Language = language
	return s.store.SavePage(ctx, page)
}

func (s *Service) requireMultilingual(ctx context.Context) error {
	ok, err := s.store.HasCapability(ctx, docstore.CapMultilingual)
	if err != nil {
		return err
	}
	if !ok {
		return ErrCapabilityMissing
	}
	return nil
}

// newPageID mints a short hex page id.
func newPageID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
