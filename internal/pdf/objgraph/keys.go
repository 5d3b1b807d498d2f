package objgraph

// Key is a PDF dictionary key as pdfcpu stores it (without the leading slash).
// Every key the inspector reads is enumerated here; anything else a document
// carries is reached only through generic rendering.
type Key string

// Trailer and catalog keys
const (
	KeyRoot       Key = "Root"
	KeyInfo       Key = "Info"
	KeyEncrypt    Key = "Encrypt"
	KeyID         Key = "ID"
	KeySize       Key = "Size"
	KeyPages      Key = "Pages"
	KeyAcroForm   Key = "AcroForm"
	KeyNames      Key = "Names"
	KeyOutlines   Key = "Outlines"
	KeyOpenAction Key = "OpenAction"
	KeyJavaScript Key = "JavaScript"
)

// Page tree, annotation and form field keys
const (
	KeyType     Key = "Type"
	KeySubtype  Key = "Subtype"
	KeyKids     Key = "Kids"
	KeyCount    Key = "Count"
	KeyParent   Key = "Parent"
	KeyAnnots   Key = "Annots"
	KeyRect     Key = "Rect"
	KeyContents Key = "Contents"
	KeyPage     Key = "P"
	KeyFields   Key = "Fields"
	KeyT        Key = "T"
	KeyTU       Key = "TU"
	KeyFT       Key = "FT"
	KeyV        Key = "V"
	KeyFf       Key = "Ff"
)

// Action keys
const (
	KeyA    Key = "A"
	KeyAA   Key = "AA"
	KeyS    Key = "S"
	KeyJS   Key = "JS"
	KeyNext Key = "Next"
	KeyURI  Key = "URI"
	KeyD    Key = "D"
	KeyF    Key = "F"
	KeyN    Key = "N"
)

// Encryption dictionary keys
const (
	KeyFilter      Key = "Filter"
	KeyPermissions Key = "P"
	KeyRevision    Key = "R"
	KeyLength      Key = "Length"
)

// Info dictionary keys
const (
	KeyTitle        Key = "Title"
	KeyAuthor       Key = "Author"
	KeySubject      Key = "Subject"
	KeyCreator      Key = "Creator"
	KeyProducer     Key = "Producer"
	KeyCreationDate Key = "CreationDate"
	KeyModDate      Key = "ModDate"
)

// Name tree keys
const (
	KeyNamesArray Key = "Names"
	KeyLimits     Key = "Limits"
)

// Type names
const (
	TypePages = "Pages"
	TypePage  = "Page"
)
