package stats

import (
	"fmt"
	"sort"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/lox/pokerhud/internal/entity"
)

// Definition describes one pluggable metric.
type Definition struct {
	// ID uniquely names the metric; registering the same id twice
	// replaces the prior definition.
	ID string

	// Name is the display label.
	Name string

	// Order controls display position, lower first. Zero means
	// unspecified and sorts after every explicit order.
	Order int

	// Disabled registers the definition without enabling it.
	Disabled bool

	// Calculate aggregates a player's records into a value.
	Calculate func(ctx *CalcContext) (Value, error)

	// Format renders the value; nil falls back to the value's default
	// rendering.
	Format func(v Value) string

	// DetectTags inspects one action during conversion and returns the
	// situational tags to record on it. Optional.
	DetectTags func(ac *ActionContext) []entity.ActionTag

	// UpdateHandState mutates the shared per-hand state after an action.
	// Optional.
	UpdateHandState func(ac *ActionContext)
}

type registered struct {
	def     Definition
	enabled bool
	seq     int
}

// Registry holds the known statistic definitions.
type Registry struct {
	mu     sync.RWMutex
	defs   map[string]*registered
	seq    int
	logger *log.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *log.Logger) *Registry {
	return &Registry{
		defs:   make(map[string]*registered),
		logger: logger.WithPrefix("stats"),
	}
}

// Register adds or replaces a definition. The definition is enabled unless
// it is marked Disabled.
func (r *Registry) Register(def Definition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	r.defs[def.ID] = &registered{def: def, enabled: !def.Disabled, seq: r.seq}
}

// Unregister removes a definition by id.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.defs, id)
}

// SetEnabled toggles a definition without removing it.
func (r *Registry) SetEnabled(id string, enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if reg, ok := r.defs[id]; ok {
		reg.enabled = enabled
	}
}

// GetAll returns every definition sorted by ascending order, unspecified
// orders last, ties broken by registration sequence.
func (r *Registry) GetAll() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sorted(false)
}

// GetEnabled returns the enabled definitions in display order.
func (r *Registry) GetEnabled() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sorted(true)
}

func (r *Registry) sorted(enabledOnly bool) []Definition {
	regs := make([]*registered, 0, len(r.defs))
	for _, reg := range r.defs {
		if enabledOnly && !reg.enabled {
			continue
		}
		regs = append(regs, reg)
	}
	sort.SliceStable(regs, func(i, j int) bool {
		oi, oj := regs[i].def.Order, regs[j].def.Order
		if oi == 0 && oj == 0 {
			return regs[i].seq < regs[j].seq
		}
		if oi == 0 {
			return false
		}
		if oj == 0 {
			return true
		}
		if oi != oj {
			return oi < oj
		}
		return regs[i].seq < regs[j].seq
	})
	defs := make([]Definition, len(regs))
	for i, reg := range regs {
		defs[i] = reg.def
	}
	return defs
}

// DetectTags runs every enabled detector against one action and returns the
// union of their tags.
func (r *Registry) DetectTags(ac *ActionContext) []entity.ActionTag {
	var tags []entity.ActionTag
	seen := make(map[entity.ActionTag]struct{})
	for _, def := range r.GetEnabled() {
		if def.DetectTags == nil {
			continue
		}
		for _, tag := range def.DetectTags(ac) {
			if _, dup := seen[tag]; dup {
				continue
			}
			seen[tag] = struct{}{}
			tags = append(tags, tag)
		}
	}
	return tags
}

// UpdateHandState runs every enabled updater against one action. Updaters
// run after detectors so the state an action is judged against predates it.
func (r *Registry) UpdateHandState(ac *ActionContext) {
	for _, def := range r.GetEnabled() {
		if def.UpdateHandState != nil {
			def.UpdateHandState(ac)
		}
	}
}

// CalculateAll runs every enabled definition against one context. A failing
// definition yields a placeholder result and is logged; the batch carries
// on.
func (r *Registry) CalculateAll(ctx *CalcContext) []Result {
	defs := r.GetEnabled()
	results := make([]Result, 0, len(defs))
	for i := range defs {
		results = append(results, r.calculateOne(&defs[i], ctx))
	}
	return results
}

// CalculateWithConfig restricts and reorders the batch to the supplied stat
// ids. A nil or empty config falls back to CalculateAll. Unknown ids yield
// a placeholder result rather than failing the batch.
func (r *Registry) CalculateWithConfig(ctx *CalcContext, statIDs []string) []Result {
	if len(statIDs) == 0 {
		return r.CalculateAll(ctx)
	}
	results := make([]Result, 0, len(statIDs))
	for _, id := range statIDs {
		r.mu.RLock()
		reg, ok := r.defs[id]
		r.mu.RUnlock()
		if !ok {
			results = append(results, Result{ID: id, Name: "Unknown", Formatted: "-"})
			continue
		}
		def := reg.def
		results = append(results, r.calculateOne(&def, ctx))
	}
	return results
}

func (r *Registry) calculateOne(def *Definition, ctx *CalcContext) Result {
	value, err := func() (v Value, err error) {
		defer func() {
			if p := recover(); p != nil {
				err = fmt.Errorf("panic: %v", p)
			}
		}()
		return def.Calculate(ctx)
	}()
	if err != nil {
		r.logger.Warn("stat calculation failed", "stat", def.ID, "player_id", ctx.PlayerID, "err", err)
		return Result{ID: def.ID, Name: def.Name, Value: Fraction{}, Formatted: "-"}
	}
	return Result{ID: def.ID, Name: def.Name, Value: value, Formatted: formatValue(def, value)}
}
