package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/schedmaker/internal/core/domain"
	"github.com/custodia-labs/schedmaker/internal/core/ports/driven"
	"github.com/custodia-labs/schedmaker/internal/core/ports/driving"
	"github.com/custodia-labs/schedmaker/internal/logger"
)

// Ensure PersistenceAdapter implements the interface.
var _ driving.PersistenceService = (*PersistenceAdapter)(nil)

// Save and load outcomes reported to metrics.
const (
	OutcomeOK      = "ok"
	OutcomeAbsent  = "absent"
	OutcomePartial = "partial"
	OutcomeError   = "error"
)

// Reasons an image field was degraded to empty.
const (
	DegradeStoreUnavailable = "store_unavailable"
	DegradeUnresolved       = "unresolved_reference"
	DegradeInlinePayload    = "inline_payload"
	DegradeMalformed        = "malformed_value"
)

// PersistenceAdapter stores the configuration document in the fallback store
// and its images in the blob store.
//
// Raw image payloads never reach the fallback store: Save moves them into
// blobs and writes "id:<uuid>" tokens in their place, Load resolves the
// tokens back into payloads. Each field owns at most one blob; superseded
// blobs are deleted in the background once the document write succeeded.
type PersistenceAdapter struct {
	blobs    driven.BlobStore
	fallback driven.FallbackStore
	metrics  driven.PersistenceMetrics

	fields          []domain.FieldPath
	newID           func() string
	gcTimeout       time.Duration
	loadConcurrency int

	locks keyedMutex
	gc    sync.WaitGroup

	digestMu sync.Mutex
	digests  map[string]string
}

// PersistenceOption configures a PersistenceAdapter.
type PersistenceOption func(*PersistenceAdapter)

// WithMetrics records activity to m.
func WithMetrics(m driven.PersistenceMetrics) PersistenceOption {
	return func(a *PersistenceAdapter) {
		if m != nil {
			a.metrics = m
		}
	}
}

// WithGCTimeout bounds each background deletion pass.
func WithGCTimeout(d time.Duration) PersistenceOption {
	return func(a *PersistenceAdapter) {
		if d > 0 {
			a.gcTimeout = d
		}
	}
}

// WithLoadConcurrency limits parallel token resolution on load.
func WithLoadConcurrency(n int) PersistenceOption {
	return func(a *PersistenceAdapter) {
		if n > 0 {
			a.loadConcurrency = n
		}
	}
}

// WithIDGenerator replaces the blob id generator.
func WithIDGenerator(fn func() string) PersistenceOption {
	return func(a *PersistenceAdapter) {
		if fn != nil {
			a.newID = fn
		}
	}
}

// WithFields replaces the set of binary-capable field paths.
func WithFields(fields ...domain.FieldPath) PersistenceOption {
	return func(a *PersistenceAdapter) {
		a.fields = fields
	}
}

// NewPersistenceAdapter creates an adapter over the two storage tiers.
func NewPersistenceAdapter(
	blobs driven.BlobStore,
	fallback driven.FallbackStore,
	opts ...PersistenceOption,
) *PersistenceAdapter {
	defaults := domain.DefaultAppSettings().Storage
	a := &PersistenceAdapter{
		blobs:           blobs,
		fallback:        fallback,
		metrics:         noopMetrics{},
		fields:          domain.BinaryFields(),
		newID:           uuid.NewString,
		gcTimeout:       defaults.GCTimeout,
		loadConcurrency: defaults.LoadConcurrency,
		digests:         make(map[string]string),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Save persists doc under key.
//
// Blob puts happen before the document write. If a put fails because the blob
// store is unavailable, that field is saved as empty. Any other put failure
// aborts the save with domain.ErrPartialSave: blobs created by this call are
// discarded and the previously persisted document stays authoritative.
//
//nolint:gocyclo // Sequential save steps
func (a *PersistenceAdapter) Save(ctx context.Context, key string, doc []byte) (err error) {
	start := time.Now()
	outcome := OutcomeOK
	defer func() {
		if err != nil && outcome == OutcomeOK {
			outcome = OutcomeError
		}
		a.metrics.ObserveSave(outcome, time.Since(start))
	}()

	t, err := decodeTree(doc)
	if err != nil {
		return err
	}
	t = normalizeEnvelope(t)
	// Days outside the binary field set would otherwise keep their payloads inline.
	if state, ok := t[domain.SnapshotStateKey].(map[string]any); ok {
		dropUnknownDays(state)
	}

	// Validate every field before touching the blob store.
	assets := make([]domain.Asset, len(a.fields))
	present := make([]bool, len(a.fields))
	for i, field := range a.fields {
		asset, ok, err := assetAt(t, field)
		if err != nil {
			return fmt.Errorf("%w: field %s: %v", domain.ErrSerialization, field, err)
		}
		assets[i], present[i] = asset, ok
	}

	unlock := a.locks.Lock(key)
	defer unlock()

	previous := a.previousTokens(key)

	var created, pending []string
	for i, field := range a.fields {
		asset := assets[i]
		prevID := previous[field.String()]

		if asset.Kind == domain.AssetReference && asset.ID != prevID {
			asset = a.adopt(ctx, field, asset)
		}

		switch asset.Kind {
		case domain.AssetRaw:
			id, fresh, putErr := a.store(ctx, prevID, asset)
			if putErr != nil {
				if errors.Is(putErr, domain.ErrStoreUnavailable) {
					logger.Warn("Storing %s: %v; saving field as empty", field, putErr)
					a.metrics.FieldDegraded(DegradeStoreUnavailable)
					assign(t, field, "")
					pending = appendID(pending, prevID)
					continue
				}
				outcome = OutcomePartial
				a.discard(ctx, created)
				return fmt.Errorf("%w: storing %s: %w", domain.ErrPartialSave, field, putErr)
			}
			if fresh {
				created = append(created, id)
				pending = appendID(pending, prevID)
			}
			assign(t, field, domain.ReferenceAsset(id).String())

		case domain.AssetReference:
			// Unchanged token.
			assign(t, field, asset.String())

		default:
			pending = appendID(pending, prevID)
			if present[i] || asset.Kind != domain.AssetEmpty {
				assign(t, field, asset.String())
			}
		}
	}

	out, err := encodeTree(t)
	if err != nil {
		a.discard(ctx, created)
		return err
	}

	if err := a.fallback.SetItem(key, string(out)); err != nil {
		a.discard(ctx, created)
		return fmt.Errorf("writing %s: %w", key, err)
	}

	a.metrics.BlobsWritten(len(created))
	logger.Debug("Saved %s: %d bytes, %d new blobs, %d superseded", key, len(out), len(created), len(pending))

	a.collect(ctx, liveFilter(pending, t, a.fields))
	return nil
}

// Load returns the document for key with reference tokens resolved into
// inline payloads. Returns nil, nil if nothing is stored.
//
// Fields whose token cannot be resolved are returned empty; so are inline
// payloads found in the persisted document, which Save never writes.
func (a *PersistenceAdapter) Load(ctx context.Context, key string) (_ []byte, err error) {
	start := time.Now()
	outcome := OutcomeOK
	defer func() {
		if err != nil {
			outcome = OutcomeError
		}
		a.metrics.ObserveLoad(outcome, time.Since(start))
	}()

	unlock := a.locks.Lock(key)
	defer unlock()

	raw, ok, err := a.fallback.GetItem(key)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	if !ok {
		outcome = OutcomeAbsent
		return nil, nil
	}

	t, err := decodeTree([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", key, err)
	}
	t = normalizeEnvelope(t)

	resolved := make([]*domain.Asset, len(a.fields))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.loadConcurrency)
	for i, field := range a.fields {
		asset, present, parseErr := assetAt(t, field)
		switch {
		case parseErr != nil:
			logger.Warn("Ignoring malformed %s: %v", field, parseErr)
			a.metrics.FieldDegraded(DegradeMalformed)
			assign(t, field, "")
		case asset.Kind == domain.AssetRaw:
			logger.Warn("Ignoring inline payload in persisted %s", field)
			a.metrics.FieldDegraded(DegradeInlinePayload)
			assign(t, field, "")
		case asset.Kind == domain.AssetReference:
			g.Go(func() error {
				resolved[i] = a.resolve(gctx, field, asset.ID)
				return nil
			})
		case present && asset.Kind == domain.AssetEmpty:
			assign(t, field, "")
		}
	}
	_ = g.Wait()

	for i, asset := range resolved {
		if asset != nil {
			assign(t, a.fields[i], asset.String())
		}
	}

	return encodeTree(t)
}

// Sweep deletes every blob not referenced by the persisted document for key
// and returns the number removed. Blobs left behind by interrupted saves or
// failed background deletions are reclaimed this way.
func (a *PersistenceAdapter) Sweep(ctx context.Context, key string) (int, error) {
	a.WaitIdle()

	unlock := a.locks.Lock(key)
	defer unlock()

	live := make(map[string]bool)
	raw, ok, err := a.fallback.GetItem(key)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", key, err)
	}
	if ok {
		t, err := decodeTree([]byte(raw))
		if err != nil {
			return 0, fmt.Errorf("parsing %s: %w", key, err)
		}
		t = normalizeEnvelope(t)
		for _, id := range referencedIDs(t, a.fields) {
			live[id] = true
		}
	}

	ids, err := a.blobs.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing blobs: %w", err)
	}

	removed := 0
	for _, id := range ids {
		if live[id] {
			continue
		}
		if err := a.blobs.Delete(ctx, id); err != nil {
			a.metrics.CollectFailed(1)
			return removed, fmt.Errorf("deleting blob %s: %w", id, err)
		}
		a.forget(id)
		removed++
	}
	a.metrics.BlobsCollected(removed)
	logger.Info("Swept %d unreferenced blobs", removed)
	return removed, nil
}

// WaitIdle blocks until background deletions have settled.
func (a *PersistenceAdapter) WaitIdle() {
	a.gc.Wait()
}

// previousTokens maps field paths to the blob ids of the persisted document.
// A missing or unreadable document has no tokens.
func (a *PersistenceAdapter) previousTokens(key string) map[string]string {
	tokens := make(map[string]string)

	raw, ok, err := a.fallback.GetItem(key)
	if err != nil {
		logger.Warn("Reading previous %s: %v", key, err)
		return tokens
	}
	if !ok {
		return tokens
	}
	t, err := decodeTree([]byte(raw))
	if err != nil {
		logger.Warn("Previous %s is unreadable, treating as absent: %v", key, err)
		return tokens
	}
	t = normalizeEnvelope(t)

	for _, field := range a.fields {
		asset, _, err := assetAt(t, field)
		if err == nil && asset.Kind == domain.AssetReference {
			tokens[field.String()] = asset.ID
		}
	}
	return tokens
}

// adopt turns a reference this field does not own into a raw payload so the
// field gets its own copy. An unreadable reference becomes empty.
func (a *PersistenceAdapter) adopt(ctx context.Context, field domain.FieldPath, asset domain.Asset) domain.Asset {
	record, err := a.blobs.Get(ctx, asset.ID)
	if err != nil {
		logger.Warn("Resolving %s for %s: %v; saving field as empty", asset.Token(), field, err)
		a.metrics.FieldDegraded(DegradeUnresolved)
		return domain.EmptyAsset()
	}
	return record.Asset()
}

// store puts asset into a new blob unless prevID already holds the same
// payload. It reports whether a new blob was created.
func (a *PersistenceAdapter) store(ctx context.Context, prevID string, asset domain.Asset) (string, bool, error) {
	record := domain.NewBlobRecord("", asset, time.Now())
	sum := digest(record)
	if prevID != "" && a.digestOf(ctx, prevID) == sum {
		return prevID, false, nil
	}

	record.ID = a.newID()
	id := record.ID
	err := a.blobs.Put(ctx, record)
	if err != nil {
		return "", false, err
	}
	a.remember(id, sum)
	return id, true, nil
}

// resolve fetches the payload behind id. Failures yield an empty asset.
func (a *PersistenceAdapter) resolve(ctx context.Context, field domain.FieldPath, id string) *domain.Asset {
	record, err := a.blobs.Get(ctx, id)
	if err != nil {
		logger.Warn("Resolving %s: %v; loading field as empty", field, err)
		a.metrics.FieldDegraded(DegradeUnresolved)
		empty := domain.EmptyAsset()
		return &empty
	}
	a.remember(id, digest(*record))
	asset := record.Asset()
	return &asset
}

// collect deletes ids in the background. Failures are logged and counted.
func (a *PersistenceAdapter) collect(ctx context.Context, ids []string) {
	if len(ids) == 0 {
		return
	}

	a.gc.Add(1)
	go func() {
		defer a.gc.Done()

		gcCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.gcTimeout)
		defer cancel()

		removed := 0
		for _, id := range ids {
			if err := a.blobs.Delete(gcCtx, id); err != nil {
				logger.Warn("Deleting superseded blob %s: %v", id, err)
				a.metrics.CollectFailed(1)
				continue
			}
			a.forget(id)
			removed++
		}
		a.metrics.BlobsCollected(removed)
		logger.Debug("Collected %d/%d superseded blobs", removed, len(ids))
	}()
}

// discard removes blobs created by an aborted save, best effort.
func (a *PersistenceAdapter) discard(ctx context.Context, ids []string) {
	ctx = context.WithoutCancel(ctx)
	for _, id := range ids {
		if err := a.blobs.Delete(ctx, id); err != nil {
			logger.Warn("Discarding blob %s: %v", id, err)
			continue
		}
		a.forget(id)
	}
}

// digestOf returns the payload digest of id, fetching it on a cache miss.
// It returns "" if the blob cannot be read.
func (a *PersistenceAdapter) digestOf(ctx context.Context, id string) string {
	a.digestMu.Lock()
	sum, ok := a.digests[id]
	a.digestMu.Unlock()
	if ok {
		return sum
	}

	record, err := a.blobs.Get(ctx, id)
	if err != nil {
		return ""
	}
	sum = digest(*record)
	a.remember(id, sum)
	return sum
}

func (a *PersistenceAdapter) remember(id, sum string) {
	a.digestMu.Lock()
	a.digests[id] = sum
	a.digestMu.Unlock()
}

func (a *PersistenceAdapter) forget(id string) {
	a.digestMu.Lock()
	delete(a.digests, id)
	a.digestMu.Unlock()
}

// digest identifies a payload together with its media type and source text.
func digest(record domain.BlobRecord) string {
	h := sha256.New()
	h.Write([]byte(record.MediaType))
	h.Write([]byte{0})
	h.Write(record.Payload)
	h.Write([]byte{0})
	h.Write([]byte(record.Source))
	return hex.EncodeToString(h.Sum(nil))
}

// referencedIDs returns the blob ids referenced by fields of t, sorted.
func referencedIDs(t tree, fields []domain.FieldPath) []string {
	var ids []string
	for _, field := range fields {
		asset, _, err := assetAt(t, field)
		if err == nil && asset.Kind == domain.AssetReference {
			ids = append(ids, asset.ID)
		}
	}
	sort.Strings(ids)
	return ids
}

// liveFilter drops ids still referenced by t.
func liveFilter(ids []string, t tree, fields []domain.FieldPath) []string {
	if len(ids) == 0 {
		return nil
	}
	live := make(map[string]bool)
	for _, id := range referencedIDs(t, fields) {
		live[id] = true
	}
	out := ids[:0]
	for _, id := range ids {
		if !live[id] {
			out = append(out, id)
		}
	}
	return out
}

func appendID(ids []string, id string) []string {
	if id == "" {
		return ids
	}
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}

// noopMetrics discards all observations.
type noopMetrics struct{}

func (noopMetrics) ObserveSave(string, time.Duration) {}
func (noopMetrics) ObserveLoad(string, time.Duration) {}
func (noopMetrics) BlobsWritten(int)                  {}
func (noopMetrics) BlobsCollected(int)                {}
func (noopMetrics) CollectFailed(int)                 {}
func (noopMetrics) FieldDegraded(string)              {}
