// Package actions walks a document's object graph and collects every action
// dictionary reachable from the document, its pages, annotations and form
// fields.
package actions

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/a3tai/mcp-pdf-action-inspector/internal/pdf/objgraph"
)

const subtypeWidget = "Widget"

// Extract collects the actions of the document behind g. It never fails: nodes
// that cannot be read are recorded in Report.Skipped and the walk moves on.
func Extract(g *objgraph.Graph) *Report {
	e := &extractor{
		g:           g,
		report:      NewReport(),
		pageWidgets: make(map[objgraph.ObjectID]struct{}),
	}

	catalog, err := g.Catalog()
	if err != nil {
		e.skip(ScopeDocument, "catalog", objgraph.RefString(g.Trailer()[string(objgraph.KeyRoot)]), err)
		return e.finish()
	}
	if catalog == nil {
		return e.finish()
	}

	e.documentActions(catalog)

	pages, problems := g.Pages()
	for _, p := range problems {
		e.skip(ScopePages, p.Location, p.Object, p.Err)
	}
	for _, page := range pages {
		e.pageActions(page)
		e.annotationActions(page)
	}

	e.fieldActions(catalog)

	return e.finish()
}

type extractor struct {
	g      *objgraph.Graph
	report *Report

	// widgets already inspected through a page's /Annots
	pageWidgets map[objgraph.ObjectID]struct{}
}

func (e *extractor) skip(scope Scope, location, object string, err error) {
	reason := objgraph.Problem{Err: err}.Reason()
	e.report.Skipped = append(e.report.Skipped, SkippedEntry{
		Scope:    scope,
		Location: location,
		Object:   object,
		Reason:   reason,
	})
}

func (e *extractor) documentActions(catalog types.Dict) {
	if obj, err := e.g.Lookup(catalog, objgraph.KeyOpenAction); err != nil {
		e.skip(ScopeDocument, "OpenAction", objgraph.RefString(catalog[string(objgraph.KeyOpenAction)]), err)
	} else if _, isDest := obj.(types.Array); obj != nil && !isDest {
		// an array is an explicit destination, not an action
		e.record(ScopeDocument, e.report.DocumentActions, triggerOpenAction, catalog[string(objgraph.KeyOpenAction)], "OpenAction")
	}

	aa, err := e.g.DictAt(catalog, objgraph.KeyAA)
	if err != nil {
		e.skip(ScopeDocument, "AA", objgraph.RefString(catalog[string(objgraph.KeyAA)]), err)
	}
	for _, key := range sortedKeys(aa) {
		trigger := lookupTrigger(documentTriggers, key, "Doc:")
		e.record(ScopeDocument, e.report.DocumentActions, trigger, aa[key], "AA."+key)
	}

	names, err := e.g.DictAt(catalog, objgraph.KeyNames)
	if err != nil {
		e.skip(ScopeDocument, "Names", objgraph.RefString(catalog[string(objgraph.KeyNames)]), err)
		return
	}
	jsTree, found := names.Find(string(objgraph.KeyJavaScript))
	if !found || jsTree == nil {
		return
	}
	entries, problems := e.g.NameTree(jsTree, "Names.JavaScript")
	for _, p := range problems {
		e.skip(ScopeDocument, p.Location, p.Object, p.Err)
	}
	for _, entry := range entries {
		// a malformed tree may repeat a name; keep every entry
		trigger := uniqueKey(e.report.DocumentActions, prefixDocJS+entry.Name)
		e.record(ScopeDocument, e.report.DocumentActions, trigger, entry.Value,
			"Names.JavaScript."+entry.Name)
	}
}

func (e *extractor) pageActions(page objgraph.Page) {
	location := fmt.Sprintf("page%d", page.Index)
	aa, err := e.g.DictAt(page.Dict, objgraph.KeyAA)
	if err != nil {
		e.skip(ScopePages, location+".AA", page.Ref, err)
		return
	}
	if len(aa) == 0 {
		return
	}

	found := make(map[string]Action)
	for _, key := range sortedKeys(aa) {
		trigger := lookupTrigger(pageTriggers, key, "Page:")
		e.record(ScopePages, found, trigger, aa[key], location+".AA."+key)
	}
	if len(found) > 0 {
		e.report.PageActions[page.Index] = &PageEntry{Index: page.Index, ObjectRef: page.Ref, Actions: found}
	}
}

func (e *extractor) annotationActions(page objgraph.Page) {
	pageLoc := fmt.Sprintf("page%d", page.Index)
	annots, err := e.g.ArrayAt(page.Dict, objgraph.KeyAnnots)
	if err != nil {
		e.skip(ScopeAnnotations, pageLoc+".Annots", page.Ref, err)
		return
	}

	for i, annot := range annots {
		location := fmt.Sprintf("%s.Annots[%d]", pageLoc, i)
		refStr := objgraph.RefString(annot)

		d, err := e.g.DictOf(annot)
		if err != nil {
			e.skip(ScopeAnnotations, location, refStr, err)
			continue
		}
		if d == nil {
			continue
		}

		subtype := e.g.NameAt(d, objgraph.KeySubtype)
		isWidget := subtype == subtypeWidget
		if ref, ok := objgraph.AsRef(annot); ok && isWidget {
			e.pageWidgets[objgraph.IDOf(ref)] = struct{}{}
		}

		found := make(map[string]Action)
		e.collectAnnotation(ScopeAnnotations, found, d, location, isWidget)
		if len(found) == 0 {
			continue
		}

		if subtype == "" {
			subtype = "Annot"
		}
		fieldName, fieldType := e.fieldIdentity(ScopeAnnotations, annot, d, location)
		label := e.uniqueAnnotationLabel(annotationLabel(page.Index, subtype, fieldType, fieldName))
		e.report.AnnotationActions[label] = &AnnotationEntry{
			Page:      page.Index,
			Subtype:   subtype,
			FieldName: fieldName,
			FieldType: fieldType,
			ObjectRef: refStr,
			Actions:   found,
		}
	}
}

// collectAnnotation records /A and the annotation triggers of /AA. Field
// triggers of a widget merged with its field are left to the field walk.
func (e *extractor) collectAnnotation(scope Scope, found map[string]Action, d types.Dict, location string, isWidget bool) {
	if a, ok := d.Find(string(objgraph.KeyA)); ok && a != nil {
		e.record(scope, found, triggerAnnotAction, a, location+".A")
	}

	aa, err := e.g.DictAt(d, objgraph.KeyAA)
	if err != nil {
		e.skip(scope, location+".AA", objgraph.RefString(d[string(objgraph.KeyAA)]), err)
		return
	}
	for _, key := range sortedKeys(aa) {
		if _, isField := fieldTriggers[key]; isWidget && isField {
			continue
		}
		trigger := lookupTrigger(annotationTriggers, key, "Annot:")
		e.record(scope, found, trigger, aa[key], location+".AA."+key)
	}
}

func annotationLabel(page int, subtype, fieldType, fieldName string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "page%d %s", page, subtype)
	if fieldType != "" {
		fmt.Fprintf(&b, " %s field", fieldType)
	}
	if fieldName != "" {
		fmt.Fprintf(&b, " '%s'", fieldName)
	}
	return b.String()
}

func (e *extractor) uniqueAnnotationLabel(label string) string {
	return uniqueKey(e.report.AnnotationActions, label)
}

// uniqueKey returns key, or key with a " #k" suffix when key is already taken
func uniqueKey[V any](m map[string]V, key string) string {
	if _, taken := m[key]; !taken {
		return key
	}
	for k := 2; ; k++ {
		candidate := fmt.Sprintf("%s #%d", key, k)
		if _, taken := m[candidate]; !taken {
			return candidate
		}
	}
}

// fieldIdentity returns the fully qualified name and the inherited field type
// of a widget or field by following /Parent.
func (e *extractor) fieldIdentity(scope Scope, node types.Object, d types.Dict, location string) (string, string) {
	var parts []string
	fieldType := ""
	seen := objgraph.NewVisited()
	_ = seen.EnterObject(node)

	cur := d
	for depth := 0; cur != nil && depth <= objgraph.MaxDepth; depth++ {
		if t := e.g.TextAt(cur, objgraph.KeyT); t != "" {
			parts = append(parts, t)
		}
		if fieldType == "" {
			fieldType = e.g.NameAt(cur, objgraph.KeyFT)
		}

		parent, found := cur.Find(string(objgraph.KeyParent))
		if !found || parent == nil {
			break
		}
		if err := seen.EnterObject(parent); err != nil {
			e.skip(scope, location+".Parent", objgraph.RefString(parent), err)
			break
		}
		next, err := e.g.DictOf(parent)
		if err != nil {
			e.skip(scope, location+".Parent", objgraph.RefString(parent), err)
			break
		}
		cur = next
	}

	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "."), fieldType
}

func (e *extractor) fieldActions(catalog types.Dict) {
	acroForm, err := e.g.DictAt(catalog, objgraph.KeyAcroForm)
	if err != nil {
		e.skip(ScopeFields, "AcroForm", objgraph.RefString(catalog[string(objgraph.KeyAcroForm)]), err)
		return
	}
	fields, err := e.g.ArrayAt(acroForm, objgraph.KeyFields)
	if err != nil {
		e.skip(ScopeFields, "AcroForm.Fields", objgraph.RefString(acroForm[string(objgraph.KeyFields)]), err)
		return
	}

	w := &fieldWalker{e: e, seen: objgraph.NewVisited()}
	for i, field := range fields {
		w.walk(field, "", "", fmt.Sprintf("AcroForm.Fields[%d]", i), 0)
	}
}

type fieldWalker struct {
	e    *extractor
	seen *objgraph.Visited
}

func (w *fieldWalker) walk(node types.Object, parentName, inheritedFT, location string, depth int) {
	e := w.e
	refStr := objgraph.RefString(node)

	if depth > objgraph.MaxDepth {
		e.report.Skipped = append(e.report.Skipped, SkippedEntry{
			Scope: ScopeFields, Location: location, Object: refStr, Reason: "field tree too deep",
		})
		return
	}
	if err := w.seen.EnterObject(node); err != nil {
		e.skip(ScopeFields, location, refStr, err)
		return
	}

	d, err := e.g.DictOf(node)
	if err != nil {
		e.skip(ScopeFields, location, refStr, err)
		return
	}
	if d == nil {
		return
	}

	name := parentName
	if partial := e.g.TextAt(d, objgraph.KeyT); partial != "" {
		if name != "" {
			name += "."
		}
		name += partial
	}
	fieldType := e.g.NameAt(d, objgraph.KeyFT)
	if fieldType == "" {
		fieldType = inheritedFT
	}

	found := make(map[string]Action)
	w.collect(found, node, d, location)
	if len(found) > 0 {
		key := name
		if key == "" {
			key = "<unnamed " + location + ">"
		}
		key = w.uniqueFieldKey(key)
		e.report.FieldActions[key] = &FieldEntry{
			Name:      name,
			FieldType: fieldType,
			ObjectRef: refStr,
			Actions:   found,
		}
	}

	kids, err := e.g.ArrayAt(d, objgraph.KeyKids)
	if err != nil {
		e.skip(ScopeFields, location+".Kids", refStr, err)
		return
	}
	for i, kid := range kids {
		w.walk(kid, name, fieldType, fmt.Sprintf("%s.Kids[%d]", location, i), depth+1)
	}
}

// collect records field triggers. A widget that no page references was never
// seen by the annotation walk, so its annotation actions are recorded here.
func (w *fieldWalker) collect(found map[string]Action, node types.Object, d types.Dict, location string) {
	e := w.e
	isWidget := e.g.NameAt(d, objgraph.KeySubtype) == subtypeWidget
	onPage := false
	if ref, ok := objgraph.AsRef(node); ok {
		_, onPage = e.pageWidgets[objgraph.IDOf(ref)]
	}
	orphan := isWidget && !onPage

	if orphan {
		e.collectAnnotation(ScopeFields, found, d, location, true)
	} else if !isWidget {
		if a, ok := d.Find(string(objgraph.KeyA)); ok && a != nil {
			e.record(ScopeFields, found, triggerFieldAction, a, location+".A")
		}
	}

	aa, err := e.g.DictAt(d, objgraph.KeyAA)
	if err != nil {
		if !orphan {
			e.skip(ScopeFields, location+".AA", objgraph.RefString(d[string(objgraph.KeyAA)]), err)
		}
		return
	}
	for _, key := range sortedKeys(aa) {
		if trigger, ok := fieldTriggers[key]; ok {
			e.record(ScopeFields, found, trigger, aa[key], location+".AA."+key)
			continue
		}
		if isWidget {
			// annotation scope (or the orphan pass above) owns the rest
			continue
		}
		e.record(ScopeFields, found, "Field:"+key, aa[key], location+".AA."+key)
	}
}

func (w *fieldWalker) uniqueFieldKey(key string) string {
	fields := w.e.report.FieldActions
	if _, taken := fields[key]; !taken {
		return key
	}
	for k := 2; ; k++ {
		candidate := fmt.Sprintf("%s #%d", key, k)
		if _, taken := fields[candidate]; !taken {
			return candidate
		}
	}
}

// record parses the action at obj, stores it under trigger and follows its
// /Next chain. Chained actions are stored as "<trigger>.Next<k>".
func (e *extractor) record(scope Scope, into map[string]Action, trigger string, obj types.Object, location string) {
	seen := objgraph.NewVisited()
	if err := seen.EnterObject(obj); err != nil {
		e.skip(scope, location, objgraph.RefString(obj), err)
		return
	}

	d, ok := e.parseInto(scope, into, trigger, obj, location)
	if !ok {
		return
	}

	type pending struct {
		obj      types.Object
		location string
	}
	var next []pending
	for _, obj := range e.nextOf(scope, d, location) {
		next = append(next, pending{obj: obj, location: location + ".Next"})
	}

	k := 0
	for len(next) > 0 && k < objgraph.MaxDepth {
		cur := next[0]
		next = next[1:]

		if err := seen.EnterObject(cur.obj); err != nil {
			e.skip(scope, cur.location, objgraph.RefString(cur.obj), err)
			continue
		}
		k++
		nd, ok := e.parseInto(scope, into, fmt.Sprintf("%s.Next%d", trigger, k), cur.obj, cur.location)
		if !ok {
			continue
		}
		for _, obj := range e.nextOf(scope, nd, cur.location) {
			next = append(next, pending{obj: obj, location: cur.location + ".Next"})
		}
	}
}

// nextOf returns the /Next entry as a list; it may be a single action or an array
func (e *extractor) nextOf(scope Scope, d types.Dict, location string) []types.Object {
	obj, found := d.Find(string(objgraph.KeyNext))
	if !found || obj == nil {
		return nil
	}
	resolved, err := e.g.Deref(obj)
	if err != nil {
		e.skip(scope, location+".Next", objgraph.RefString(obj), err)
		return nil
	}
	if arr, ok := resolved.(types.Array); ok {
		return arr
	}
	return []types.Object{obj}
}

func (e *extractor) parseInto(scope Scope, into map[string]Action, trigger string, obj types.Object, location string) (types.Dict, bool) {
	d, err := e.g.DictOf(obj)
	if err != nil {
		e.skip(scope, location, objgraph.RefString(obj), err)
		return nil, false
	}
	if d == nil {
		return nil, false
	}
	into[trigger] = e.parseAction(d, objgraph.RefString(obj))
	return d, true
}

func (e *extractor) parseAction(d types.Dict, refStr string) Action {
	a := Action{
		Type:      ParseActionType(e.g.NameAt(d, objgraph.KeyS)),
		ObjectRef: refStr,
		Dict:      objgraph.RenderDict(d),
	}

	switch a.Type {
	case TypeJavaScript, TypeRendition:
		a.Script = e.script(d)
	case TypeURI:
		a.URI = e.g.TextAt(d, objgraph.KeyURI)
	case TypeGoTo, TypeGoToR, TypeGoToE:
		a.Destination = e.rendered(d, objgraph.KeyD)
	case TypeNamed:
		a.Named = e.g.NameAt(d, objgraph.KeyN)
	}

	switch a.Type {
	case TypeGoToR, TypeGoToE, TypeLaunch, TypeSubmitForm, TypeImportData:
		a.File = e.rendered(d, objgraph.KeyF)
	}

	for key := range d {
		if !IsActionKey(key) {
			a.UnrecognizedKeys = append(a.UnrecognizedKeys, key)
		}
	}
	sort.Strings(a.UnrecognizedKeys)

	return a
}

// script decodes /JS, which is either a text string or a stream
func (e *extractor) script(d types.Dict) string {
	obj, err := e.g.Lookup(d, objgraph.KeyJS)
	if err != nil || obj == nil {
		return ""
	}
	if sd, err := e.g.StreamOf(obj); err == nil && sd != nil {
		text, err := e.g.StreamText(sd)
		if err != nil {
			return ""
		}
		return text
	}
	text, _ := e.g.TextOf(obj)
	return text
}

func (e *extractor) rendered(d types.Dict, key objgraph.Key) any {
	obj, err := e.g.Lookup(d, key)
	if err != nil || obj == nil {
		return nil
	}
	return objgraph.Render(obj, objgraph.DefaultRenderDepth)
}

func (e *extractor) finish() *Report {
	r := e.report
	for _, loc := range r.All() {
		r.ActionTypes[string(loc.Action.Type)]++
		r.TotalActions++
	}
	return r
}
