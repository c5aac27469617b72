package translate

import (
	"github.com/dgallion1/pagetree/internal/pagetree"
)

// TranslatedUnit is one translated text value plus the resolution hints that
// came with the original Unit: id first, then path, then the original
// fingerprint for the full-tree fallback search.
type TranslatedUnit struct {
	ID          string        `json:"id,omitempty"`
	Path        pagetree.Path `json:"path,omitempty"`
	WidgetType  string        `json:"widgetType,omitempty"`
	Field       string        `json:"field,omitempty"`
	Fingerprint string        `json:"contentFingerprint,omitempty"`
	Text        string        `json:"text"`
}

// Unresolved records a unit that no resolution step could place. Non-fatal:
// the batch continues past it.
type Unresolved struct {
	Unit   TranslatedUnit `json:"unit"`
	Reason string         `json:"reason"`
}

// Result is the partial-success outcome of applying a translation batch.
type Result struct {
	Applied    int          `json:"applied"`
	Unresolved []Unresolved `json:"unresolved"`
}

// Applier merges translated text back into a document using the
// id → path → fingerprint fallback chain.
type Applier struct {
	fields FieldMap
}

// NewApplier returns an applier over the given field map (defaults when nil).
func NewApplier(fm FieldMap) *Applier {
	if fm == nil {
		fm = DefaultFieldMap()
	}
	return &Applier{fields: fm}
}

// Apply patches each unit's text into the indexed document. Resolution per
// unit: id when present and unambiguous, else path, else a full-tree search
// for a same-type node whose current text fingerprint equals the unit's
// original fingerprint (exact match only). Units that resolve nowhere are
// accumulated, never aborting the batch.
func (a *Applier) Apply(idx *pagetree.Index, units []TranslatedUnit) Result {
	res := Result{Unresolved: []Unresolved{}}
	for _, u := range units {
		entry, reason := a.resolveUnit(idx, u)
		if entry == nil {
			res.Unresolved = append(res.Unresolved, Unresolved{Unit: u, Reason: reason})
			continue
		}
		field := a.fieldFor(entry, u)
		if field == "" {
			res.Unresolved = append(res.Unresolved, Unresolved{Unit: u, Reason: "no translatable field for widget type " + entry.Node.WidgetType})
			continue
		}
		if _, err := idx.UpdateNodeSettings(pagetree.RefPath(entry.Path), map[string]any{field: u.Text}); err != nil {
			res.Unresolved = append(res.Unresolved, Unresolved{Unit: u, Reason: err.Error()})
			continue
		}
		res.Applied++
	}
	return res
}

func (a *Applier) resolveUnit(idx *pagetree.Index, u TranslatedUnit) (*pagetree.IndexEntry, string) {
	if u.ID != "" {
		if e, err := idx.FindByID(u.ID); err == nil {
			return e, ""
		}
	}
	if len(u.Path) > 0 {
		if e, err := idx.FindByPath(u.Path); err == nil {
			return e, ""
		}
	}
	if u.Fingerprint != "" {
		return a.findByFingerprint(idx, u)
	}
	return nil, "id and path did not resolve, and no fingerprint was supplied"
}

// findByFingerprint scans widgets of the unit's type (all mapped widgets when
// the type is unknown) and compares the fingerprint of each candidate's
// current text. A unique match resolves; zero or several fail closed.
func (a *Applier) findByFingerprint(idx *pagetree.Index, u TranslatedUnit) (*pagetree.IndexEntry, string) {
	candidates := idx.WidgetsByType(u.WidgetType)
	if u.WidgetType == "" {
		candidates = idx.NodesByType(pagetree.ElementWidget)
	}

	var match *pagetree.IndexEntry
	for e := range candidates {
		fields, ok := a.fields[e.Node.WidgetType]
		if !ok {
			continue
		}
		for _, f := range fields {
			if u.Field != "" && f.Key != u.Field {
				continue
			}
			current, ok := e.Node.Settings[f.Key].(string)
			if !ok {
				continue
			}
			if Fingerprint(current, f.Format) != u.Fingerprint {
				continue
			}
			if match != nil && match != e {
				return nil, "fingerprint matches more than one node"
			}
			match = e
		}
	}
	if match == nil {
		return nil, "no node matched by id, path, or fingerprint"
	}
	return match, ""
}

func (a *Applier) fieldFor(entry *pagetree.IndexEntry, u TranslatedUnit) string {
	if u.Field != "" {
		return u.Field
	}
	if fields, ok := a.fields[entry.Node.WidgetType]; ok && len(fields) > 0 {
		return fields[0].Key
	}
	return ""
}

// UnitsFromMap converts the compact id-keyed wire form into resolution
// units.
func UnitsFromMap(m map[string]string) []TranslatedUnit {
	units := make([]TranslatedUnit, 0, len(m))
	for id, text := range m {
		units = append(units, TranslatedUnit{ID: id, Text: text})
	}
	return units
}

// ReplaceTree discards the target document's tree and substitutes a verbatim
// copy of the source's, returning a fresh index over the result. Used before
// re-applying units when source and target have diverged structurally.
func ReplaceTree(target, source *pagetree.Document, lim pagetree.Limits) (*pagetree.Index, error) {
	target.Nodes = pagetree.CloneNodes(source.Nodes)
	return pagetree.BuildIndex(target, lim)
}
