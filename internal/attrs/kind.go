// Package attrs parses model attribute specifications of the form
// "name:string,age:integer,owner:ref(users),status:enum(open|closed)".
package attrs

import "fmt"

// Kind is the closed set of attribute kinds
type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindInteger
	KindBoolean
	KindFloat
	KindDate
	KindReference
	KindEnum
)

// kindInfo holds the per-kind mapping used by generators
type kindInfo struct {
	name    string
	storage string
}

// kindTable must have one entry per Kind, in declaration order
var kindTable = [...]kindInfo{
	KindString:    {name: "string", storage: "STRING"},
	KindNumber:    {name: "number", storage: "BIGINT"},
	KindInteger:   {name: "integer", storage: "INTEGER"},
	KindBoolean:   {name: "boolean", storage: "BOOLEAN"},
	KindFloat:     {name: "float", storage: "FLOAT"},
	KindDate:      {name: "date", storage: "DATE"},
	KindReference: {name: "reference", storage: "INTEGER"},
	KindEnum:      {name: "enum", storage: "ENUM"},
}

// scalarTypes is the accepted vocabulary for plain type specs
var scalarTypes = map[string]Kind{
	"string":  KindString,
	"number":  KindNumber,
	"integer": KindInteger,
	"bool":    KindBoolean,
	"boolean": KindBoolean,
	"float":   KindFloat,
	"date":    KindDate,
}

// supportedTypes is listed in error messages
const supportedTypes = "string, number, integer, bool, boolean, float, date, ref(model), enum(a|b)"

// String returns the canonical kind name
func (k Kind) String() string {
	if !k.valid() {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindTable[k].name
}

// StorageType returns the schema column type code for the kind
func (k Kind) StorageType() string {
	if !k.valid() {
		return ""
	}
	return kindTable[k].storage
}

func (k Kind) valid() bool {
	return k >= KindString && int(k) < len(kindTable)
}
