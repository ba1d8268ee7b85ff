package domain

import (
	"sort"
	"strconv"
	"strings"
)

// Thread indexes a ticket's interactions by id. Parent links are weak
// references into the same arena; threads are at most two levels deep.
type Thread struct {
	byID     map[int64]*Interaction
	roots    []int64
	children map[int64][]int64
}

// NewThread builds a thread from a flat interaction list. Interactions whose
// parent is missing from the list are promoted to roots.
func NewThread(items []Interaction) *Thread {
	sorted := make([]Interaction, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].ID < sorted[j].ID
		}
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	t := &Thread{
		byID:     make(map[int64]*Interaction, len(sorted)),
		children: make(map[int64][]int64),
	}
	for i := range sorted {
		t.byID[sorted[i].ID] = &sorted[i]
	}
	for i := range sorted {
		item := &sorted[i]
		if item.ParentID != nil {
			if _, ok := t.byID[*item.ParentID]; ok {
				t.children[*item.ParentID] = append(t.children[*item.ParentID], item.ID)
				continue
			}
		}
		t.roots = append(t.roots, item.ID)
	}
	return t
}

// Get returns the interaction with id.
func (t *Thread) Get(id int64) (*Interaction, bool) {
	item, ok := t.byID[id]
	return item, ok
}

// Roots returns the top-level interactions in chronological order.
func (t *Thread) Roots() []*Interaction {
	out := make([]*Interaction, 0, len(t.roots))
	for _, id := range t.roots {
		out = append(out, t.byID[id])
	}
	return out
}

// Children returns the replies to the interaction with id.
func (t *Thread) Children(id int64) []*Interaction {
	ids := t.children[id]
	out := make([]*Interaction, 0, len(ids))
	for _, childID := range ids {
		out = append(out, t.byID[childID])
	}
	return out
}

func (t *Thread) Len() int {
	return len(t.byID)
}

// StageScope selects which part of a ticket thread a view shows.
type StageScope struct {
	kind    stageScopeKind
	stageID int64
}

type stageScopeKind int

const (
	scopeAll stageScopeKind = iota
	scopeGeneral
	scopeStage
)

// AllStages shows every interaction.
func AllStages() StageScope { return StageScope{kind: scopeAll} }

// GeneralScope shows only interactions not bound to a stage.
func GeneralScope() StageScope { return StageScope{kind: scopeGeneral} }

// StageOnly shows only interactions bound to the given stage.
func StageOnly(stageID int64) StageScope { return StageScope{kind: scopeStage, stageID: stageID} }

// ParseStageScope understands "", "general" and a numeric stage id. Unknown
// values fall back to AllStages.
func ParseStageScope(raw string) StageScope {
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "":
		return AllStages()
	case strings.EqualFold(raw, "general"):
		return GeneralScope()
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return AllStages()
	}
	return StageOnly(id)
}

// StageID returns the selected stage id, if the scope targets one stage.
func (s StageScope) StageID() (int64, bool) {
	return s.stageID, s.kind == scopeStage
}

// Matches reports whether an interaction belongs to the scope.
func (s StageScope) Matches(i *Interaction) bool {
	switch s.kind {
	case scopeGeneral:
		return i.StageID == nil
	case scopeStage:
		return i.StageID != nil && *i.StageID == s.stageID
	default:
		return true
	}
}

// FilterInteractions keeps the interactions matching scope. Children follow
// their parent so a thread is never split.
func FilterInteractions(items []Interaction, scope StageScope) []Interaction {
	if scope.kind == scopeAll {
		return items
	}
	keep := make(map[int64]bool, len(items))
	for i := range items {
		if items[i].ParentID == nil && scope.Matches(&items[i]) {
			keep[items[i].ID] = true
		}
	}
	out := make([]Interaction, 0, len(items))
	for i := range items {
		item := items[i]
		if item.ParentID == nil {
			if keep[item.ID] {
				out = append(out, item)
			}
			continue
		}
		if keep[*item.ParentID] || scope.Matches(&item) {
			out = append(out, item)
		}
	}
	return out
}
