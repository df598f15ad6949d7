package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/custodia-labs/schedmaker/internal/core/domain"
	"github.com/custodia-labs/schedmaker/internal/core/ports/driving"
	"github.com/custodia-labs/schedmaker/internal/logger"
)

// RehydrationSource says where the published state came from.
type RehydrationSource string

// Rehydration sources.
const (
	// SourcePersisted means the persisted document was merged onto the defaults.
	SourcePersisted RehydrationSource = "persisted"
	// SourceAbsent means nothing was persisted yet.
	SourceAbsent RehydrationSource = "absent"
	// SourceDefaults means the persisted document was unusable and was ignored.
	SourceDefaults RehydrationSource = "defaults"
)

// RehydrationOutcome reports the result of a rehydration.
type RehydrationOutcome struct {
	Source RehydrationSource
	// Err is the load or merge failure that caused defaults to be used.
	Err error
}

// Restored reports whether persisted state was used.
func (o RehydrationOutcome) Restored() bool {
	return o.Source == SourcePersisted
}

// RehydrationController publishes persisted state into a StateService on startup.
type RehydrationController struct {
	persistence driving.PersistenceService
	state       driving.StateService
	key         string
}

// NewRehydrationController creates a controller for the document under key.
func NewRehydrationController(
	persistence driving.PersistenceService,
	state driving.StateService,
	key string,
) *RehydrationController {
	return &RehydrationController{
		persistence: persistence,
		state:       state,
		key:         key,
	}
}

// Rehydrate loads the persisted document, deep-merges it onto the current
// state and publishes the result.
//
// Unreadable or corrupt documents are logged and the current state is kept.
// The only error returned is ctx's, so a broken store never blocks startup.
func (r *RehydrationController) Rehydrate(ctx context.Context) (RehydrationOutcome, error) {
	doc, err := r.persistence.Load(ctx, r.key)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return RehydrationOutcome{Source: SourceDefaults, Err: err}, ctxErr
	}
	if err != nil {
		logger.Warn("Loading persisted state failed, using defaults: %v", err)
		return RehydrationOutcome{Source: SourceDefaults, Err: err}, nil
	}
	if doc == nil {
		logger.Debug("No persisted state under %s", r.key)
		return RehydrationOutcome{Source: SourceAbsent}, nil
	}

	merged, err := mergeState(r.state.Get(), doc)
	if err != nil {
		logger.Warn("Persisted state is unusable, using defaults: %v", err)
		return RehydrationOutcome{Source: SourceDefaults, Err: err}, nil
	}

	r.state.Replace(merged)
	logger.Info("Restored persisted state from %s", r.key)
	return RehydrationOutcome{Source: SourcePersisted}, nil
}

// mergeState overlays the state in doc onto base.
//
// Empty and null values in doc are ignored, so absent or blank fields keep
// base's value. Day records are merged one by one; unknown days are dropped.
func mergeState(base domain.ConfigState, doc []byte) (domain.ConfigState, error) {
	t, err := decodeTree(doc)
	if err != nil {
		return base, err
	}
	t = normalizeEnvelope(t)

	loaded, ok := t[domain.SnapshotStateKey].(map[string]any)
	if !ok {
		return base, fmt.Errorf("%w: %q is not an object", domain.ErrSerialization, domain.SnapshotStateKey)
	}

	raw, err := json.Marshal(base)
	if err != nil {
		return base, fmt.Errorf("%w: encoding defaults: %v", domain.ErrSerialization, err)
	}
	defaults, err := decodeTree(raw)
	if err != nil {
		return base, err
	}

	pruned, _ := pruneEmpty(loaded).(map[string]any)
	merged := mergeTrees(defaults, pruned)
	dropUnknownDays(merged)

	out, err := json.Marshal(merged)
	if err != nil {
		return base, fmt.Errorf("%w: %v", domain.ErrSerialization, err)
	}

	var state domain.ConfigState
	if err := json.Unmarshal(out, &state); err != nil {
		return base, fmt.Errorf("%w: %v", domain.ErrSerialization, err)
	}

	sanitize(&state, base)
	return state, nil
}

// mergeTrees returns base with every value of overlay applied. Objects present
// on both sides are merged recursively; anything else in overlay wins.
func mergeTrees(base, overlay map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(overlay))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overlay {
		bm, baseIsMap := out[k].(map[string]any)
		om, overlayIsMap := v.(map[string]any)
		if baseIsMap && overlayIsMap {
			out[k] = mergeTrees(bm, om)
			continue
		}
		out[k] = v
	}
	return out
}

// pruneEmpty removes null values, empty strings and objects left empty.
// It returns nil if v itself is empty.
func pruneEmpty(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		if val == "" {
			return nil
		}
		return val
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, child := range val {
			if pruned := pruneEmpty(child); pruned != nil {
				out[k] = pruned
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	default:
		return val
	}
}

// dropUnknownDays removes day records whose key is not a day of the week.
func dropUnknownDays(t map[string]any) {
	week, ok := t["week"].(map[string]any)
	if !ok {
		return
	}
	days, ok := week["days"].(map[string]any)
	if !ok {
		return
	}
	for k := range days {
		if !domain.DayKey(k).IsValid() {
			logger.Debug("Dropping unknown day %q", k)
			delete(days, k)
		}
	}
}

// sanitize replaces invalid enumerations and settings with base's values.
func sanitize(state *domain.ConfigState, base domain.ConfigState) {
	if !state.WeekStart.IsValid() {
		state.WeekStart = base.WeekStart
	}
	if !state.Week.WeekStart.IsValid() {
		state.Week.WeekStart = state.WeekStart
	}
	if !state.Template.IsValid() {
		state.Template = base.Template
	}
	if state.ExportScale <= 0 || math.IsNaN(state.ExportScale) || math.IsInf(state.ExportScale, 0) {
		state.ExportScale = base.ExportScale
	}
	if state.Week.Days == nil {
		state.Week.Days = domain.DefaultDays()
	}
	for _, day := range domain.AllDayKeys() {
		if _, ok := state.Week.Days[day]; !ok {
			state.Week.Days[day] = domain.DefaultDay()
		}
	}
}
