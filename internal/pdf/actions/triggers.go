package actions

import (
	"github.com/a3tai/mcp-pdf-action-inspector/internal/pdf/objgraph"
)

// Trigger names recorded in the report, keyed by the /AA entry that holds them
var (
	documentTriggers = map[string]string{
		"WC": "DocWillClose",
		"WS": "DocWillSave",
		"DS": "DocDidSave",
		"WP": "DocWillPrint",
		"DP": "DocDidPrint",
	}

	pageTriggers = map[string]string{
		"O": "PageOpen",
		"C": "PageClose",
	}

	annotationTriggers = map[string]string{
		"E":  "AnnotCursorEnter",
		"X":  "AnnotCursorExit",
		"D":  "AnnotMouseDown",
		"U":  "AnnotMouseUp",
		"Fo": "AnnotFocus",
		"Bl": "AnnotBlur",
		"PO": "AnnotPageOpen",
		"PC": "AnnotPageClose",
		"PV": "AnnotPageVisible",
		"PI": "AnnotPageInvisible",
	}

	fieldTriggers = map[string]string{
		"K": "FieldKeystroke",
		"F": "FieldFormat",
		"V": "FieldValidate",
		"C": "FieldCalculate",
	}
)

const (
	triggerOpenAction  = "DocOpen"
	triggerAnnotAction = "AnnotAction"
	triggerFieldAction = "FieldAction"
	prefixDocJS        = "DocJavaScript:"
)

// Keys of an action dictionary beyond those objgraph enumerates
const (
	keyIsMap      objgraph.Key = "IsMap"
	keySD         objgraph.Key = "SD"
	keyNewWindow  objgraph.Key = "NewWindow"
	keyWin        objgraph.Key = "Win"
	keyMac        objgraph.Key = "Mac"
	keyUnix       objgraph.Key = "Unix"
	keyTarget     objgraph.Key = "T"
	keyHide       objgraph.Key = "H"
	keyFlags      objgraph.Key = "Flags"
	keyState      objgraph.Key = "State"
	keyPreserveRB objgraph.Key = "PreserveRB"
	keyRendition  objgraph.Key = "R"
	keyAnnotation objgraph.Key = "AN"
	keyOperation  objgraph.Key = "OP"
	keyBead       objgraph.Key = "B"
	keySound      objgraph.Key = "Sound"
	keyVolume     objgraph.Key = "Volume"
	keySync       objgraph.Key = "Synchronous"
	keyRepeat     objgraph.Key = "Repeat"
	keyMix        objgraph.Key = "Mix"
	keyMovie      objgraph.Key = "Movie"
	keyTrans      objgraph.Key = "Trans"
	keyTA         objgraph.Key = "TA"
	keyView       objgraph.Key = "V"
	keyCommand    objgraph.Key = "CMD"
)

// actionKeys is every key an action dictionary may legitimately carry. Other
// keys are reported as unrecognized so vendor extensions stay visible.
var actionKeys = map[objgraph.Key]struct{}{
	objgraph.KeyType: {}, objgraph.KeyS: {}, objgraph.KeyNext: {}, objgraph.KeyJS: {},
	objgraph.KeyURI: {}, objgraph.KeyD: {}, objgraph.KeyF: {}, objgraph.KeyN: {},
	objgraph.KeyFields: {},
	keyIsMap: {}, keySD: {}, keyNewWindow: {}, keyWin: {}, keyMac: {}, keyUnix: {},
	keyTarget: {}, keyHide: {}, keyFlags: {}, keyState: {}, keyPreserveRB: {},
	keyRendition: {}, keyAnnotation: {}, keyOperation: {}, keyBead: {}, keySound: {},
	keyVolume: {}, keySync: {}, keyRepeat: {}, keyMix: {}, keyMovie: {}, keyTrans: {},
	keyTA: {}, keyView: {}, keyCommand: {},
}

// IsActionKey reports whether key belongs to the action dictionary vocabulary
func IsActionKey(key string) bool {
	_, ok := actionKeys[objgraph.Key(key)]
	return ok
}

func lookupTrigger(table map[string]string, key, fallbackPrefix string) string {
	if name, ok := table[key]; ok {
		return name
	}
	return fallbackPrefix + key
}
