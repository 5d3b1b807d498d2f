package actions

import (
	"sort"
	"strconv"
)

// ActionType is the closed set of action kinds the inspector classifies
type ActionType string

const (
	TypeJavaScript       ActionType = "JavaScript"
	TypeGoTo             ActionType = "GoTo"
	TypeGoToR            ActionType = "GoToR" // remote document
	TypeGoToE            ActionType = "GoToE" // embedded document
	TypeLaunch           ActionType = "Launch"
	TypeThread           ActionType = "Thread"
	TypeURI              ActionType = "URI"
	TypeSound            ActionType = "Sound"
	TypeMovie            ActionType = "Movie"
	TypeHide             ActionType = "Hide"
	TypeNamed            ActionType = "Named"
	TypeSubmitForm       ActionType = "SubmitForm"
	TypeResetForm        ActionType = "ResetForm"
	TypeImportData       ActionType = "ImportData"
	TypeSetOCGState      ActionType = "SetOCGState"
	TypeRendition        ActionType = "Rendition"
	TypeTrans            ActionType = "Trans"
	TypeGoTo3DView       ActionType = "GoTo3DView"
	TypeRichMediaExecute ActionType = "RichMediaExecute"
	TypeUnknown          ActionType = "Unknown" // missing or unrecognized /S
)

var knownTypes = map[ActionType]struct{}{
	TypeJavaScript: {}, TypeGoTo: {}, TypeGoToR: {}, TypeGoToE: {}, TypeLaunch: {},
	TypeThread: {}, TypeURI: {}, TypeSound: {}, TypeMovie: {}, TypeHide: {},
	TypeNamed: {}, TypeSubmitForm: {}, TypeResetForm: {}, TypeImportData: {},
	TypeSetOCGState: {}, TypeRendition: {}, TypeTrans: {}, TypeGoTo3DView: {},
	TypeRichMediaExecute: {},
}

// ParseActionType maps an /S name to an ActionType
func ParseActionType(name string) ActionType {
	t := ActionType(name)
	if _, ok := knownTypes[t]; ok {
		return t
	}
	return TypeUnknown
}

// Scope names the attachment point of an action
type Scope string

const (
	ScopeDocument    Scope = "document"
	ScopePages       Scope = "pages"
	ScopeAnnotations Scope = "annotations"
	ScopeFields      Scope = "fields"
)

// Action is a normalized action dictionary
type Action struct {
	Type        ActionType `json:"type"`
	ObjectRef   string     `json:"object_ref,omitempty"`
	Script      string     `json:"script,omitempty"`
	URI         string     `json:"uri,omitempty"`
	Destination any        `json:"destination,omitempty"`
	File        any        `json:"file,omitempty"`
	Named       string     `json:"named,omitempty"`

	// Dict is the rendered dictionary; names keep their slash, e.g. Dict["S"] == "/JavaScript"
	Dict             map[string]any `json:"dict"`
	UnrecognizedKeys []string       `json:"unrecognized_keys,omitempty"`
}

// PageEntry holds the actions attached to one page
type PageEntry struct {
	Index     int               `json:"index"`
	ObjectRef string            `json:"object_ref,omitempty"`
	Actions   map[string]Action `json:"actions"`
}

// AnnotationEntry holds the actions attached to one annotation
type AnnotationEntry struct {
	Page      int               `json:"page"`
	Subtype   string            `json:"subtype"`
	FieldName string            `json:"field_name,omitempty"`
	FieldType string            `json:"field_type,omitempty"`
	ObjectRef string            `json:"object_ref,omitempty"`
	Actions   map[string]Action `json:"actions"`
}

// FieldEntry holds the actions attached to one form field
type FieldEntry struct {
	Name      string            `json:"name"`
	FieldType string            `json:"field_type,omitempty"`
	ObjectRef string            `json:"object_ref,omitempty"`
	Actions   map[string]Action `json:"actions"`
}

// SkippedEntry records a node that could not be inspected
type SkippedEntry struct {
	Scope    Scope  `json:"scope"`
	Location string `json:"location"`
	Object   string `json:"object,omitempty"`
	Reason   string `json:"reason"`
}

// Report is the result of one extraction. Scope maps only hold entries with
// at least one action.
type Report struct {
	DocumentActions   map[string]Action           `json:"document_actions"`
	PageActions       map[int]*PageEntry          `json:"page_actions"`
	AnnotationActions map[string]*AnnotationEntry `json:"annotation_actions"`
	FieldActions      map[string]*FieldEntry      `json:"field_actions"`
	TotalActions      int                         `json:"total_actions"`
	ActionTypes       map[string]int              `json:"action_types"`
	Skipped           []SkippedEntry              `json:"skipped,omitempty"`
}

// NewReport creates an empty report
func NewReport() *Report {
	return &Report{
		DocumentActions:   make(map[string]Action),
		PageActions:       make(map[int]*PageEntry),
		AnnotationActions: make(map[string]*AnnotationEntry),
		FieldActions:      make(map[string]*FieldEntry),
		ActionTypes:       make(map[string]int),
	}
}

// Located is an action together with where it was found
type Located struct {
	Scope   Scope
	Key     string // page index, annotation label or field name; empty for document scope
	Trigger string
	Action  Action
}

// All lists every action in a stable order: document, pages, annotations,
// fields, each sorted by key then trigger.
func (r *Report) All() []Located {
	var out []Located

	for _, trigger := range sortedKeys(r.DocumentActions) {
		out = append(out, Located{Scope: ScopeDocument, Trigger: trigger, Action: r.DocumentActions[trigger]})
	}

	indexes := make([]int, 0, len(r.PageActions))
	for idx := range r.PageActions {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)
	for _, idx := range indexes {
		entry := r.PageActions[idx]
		for _, trigger := range sortedKeys(entry.Actions) {
			out = append(out, Located{Scope: ScopePages, Key: strconv.Itoa(idx), Trigger: trigger, Action: entry.Actions[trigger]})
		}
	}

	for _, label := range sortedKeys(r.AnnotationActions) {
		entry := r.AnnotationActions[label]
		for _, trigger := range sortedKeys(entry.Actions) {
			out = append(out, Located{Scope: ScopeAnnotations, Key: label, Trigger: trigger, Action: entry.Actions[trigger]})
		}
	}

	for _, name := range sortedKeys(r.FieldActions) {
		entry := r.FieldActions[name]
		for _, trigger := range sortedKeys(entry.Actions) {
			out = append(out, Located{Scope: ScopeFields, Key: name, Trigger: trigger, Action: entry.Actions[trigger]})
		}
	}

	return out
}

// Count returns the number of actions per scope
func (r *Report) Count() map[Scope]int {
	counts := map[Scope]int{ScopeDocument: len(r.DocumentActions)}
	for _, e := range r.PageActions {
		counts[ScopePages] += len(e.Actions)
	}
	for _, e := range r.AnnotationActions {
		counts[ScopeAnnotations] += len(e.Actions)
	}
	for _, e := range r.FieldActions {
		counts[ScopeFields] += len(e.Actions)
	}
	return counts
}

// HasJavaScript reports whether any JavaScript action was found
func (r *Report) HasJavaScript() bool {
	return r.ActionTypes[string(TypeJavaScript)] > 0
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
