package attrs

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{"empty", "", 0, false},
		{"whitespace", "   ", 0, false},
		{"single string", "name:string", 1, false},
		{"multiple fields", "name:string,age:integer,active:bool", 3, false},
		{"empty segments skipped", "name:string,, ,age:integer,", 2, false},
		{"reference", "owner:ref(users)", 1, false},
		{"enum then field", "status:enum(a|b),title:string", 2, false},
		{"uppercase type", "name:STRING", 1, false},
		{"invalid type", "name:unknown", 0, true},
		{"invalid format", "namestring", 0, true},
		{"invalid identifier", "bad name:string", 0, true},
		{"leading digit", "1name:string", 0, true},
		{"missing type", "name:", 0, true},
		{"duplicate names", "name:string,name:integer", 0, true},
		{"empty ref", "owner:ref()", 0, true},
		{"bad ref target", "owner:ref(bad-target)", 0, true},
		{"unbalanced open", "status:enum(a|b", 0, true},
		{"unbalanced close", "status:a|b)", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				var pe *ParseError
				assert.True(t, errors.As(err, &pe), "expected *ParseError, got %T", err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}
}

func TestParseStorageTypes(t *testing.T) {
	got, err := Parse("name:string,age:integer")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "name", got[0].Name)
	assert.Equal(t, KindString, got[0].Kind)
	assert.Equal(t, "STRING", got[0].StorageType)

	assert.Equal(t, "age", got[1].Name)
	assert.Equal(t, KindInteger, got[1].Kind)
	assert.Equal(t, "INTEGER", got[1].StorageType)
}

func TestParseAllScalarKinds(t *testing.T) {
	tests := []struct {
		spec    string
		kind    Kind
		storage string
	}{
		{"string", KindString, "STRING"},
		{"number", KindNumber, "BIGINT"},
		{"integer", KindInteger, "INTEGER"},
		{"bool", KindBoolean, "BOOLEAN"},
		{"boolean", KindBoolean, "BOOLEAN"},
		{"float", KindFloat, "FLOAT"},
		{"date", KindDate, "DATE"},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			got, err := Parse("field:" + tt.spec)
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, tt.kind, got[0].Kind)
			assert.Equal(t, tt.storage, got[0].StorageType)
		})
	}
}

func TestParseEnum(t *testing.T) {
	got, err := Parse("status:enum(pending|completed|cancelled)")
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, KindEnum, got[0].Kind)
	assert.Equal(t, "ENUM", got[0].StorageType)
	assert.Equal(t, []string{"pending", "completed", "cancelled"}, got[0].EnumValues)
	assert.True(t, got[0].IsEnum())
}

func TestParseEnumLimits(t *testing.T) {
	ten := make([]string, 10)
	for i := range ten {
		ten[i] = fmt.Sprintf("v%d", i)
	}

	_, err := Parse("s:enum(" + strings.Join(ten, "|") + ")")
	assert.NoError(t, err)

	_, err = Parse("s:enum(" + strings.Join(append(ten, "v10"), "|") + ")")
	assert.ErrorContains(t, err, "maximum is 10")

	_, err = Parse("s:enum(a||b)")
	assert.ErrorContains(t, err, "must not be empty")

	_, err = Parse("s:enum(a|b|a)")
	assert.ErrorContains(t, err, "duplicate enum value")
}

func TestParseReference(t *testing.T) {
	got, err := Parse("userId:ref(users)")
	require.NoError(t, err)
	require.Len(t, got, 1)

	attr := got[0]
	assert.True(t, attr.IsReference())
	assert.Equal(t, "INTEGER", attr.StorageType)
	require.NotNil(t, attr.Reference)
	assert.Equal(t, "users", attr.Reference.Target)
	assert.Equal(t, "CASCADE", attr.Reference.OnDelete)
	assert.Equal(t, "CASCADE", attr.Reference.OnUpdate)
}

func TestParseCommaInsideParens(t *testing.T) {
	_, err := Parse("label:enum(a,b|c),title:string")

	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "label:enum(a,b|c)", perr.Segment, "the comma stays inside the enum segment")
	assert.Contains(t, perr.Msg, "separate enum values with '|'")

	got, err := Parse("label:enum(a|b|c),title:string")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, []string{"a", "b", "c"}, got[0].EnumValues)
	assert.Equal(t, "title", got[1].Name)
}

func TestParseLimits(t *testing.T) {
	_, err := Parse(strings.Repeat("a", MaxInputLength+1))
	assert.ErrorContains(t, err, "maximum is 2000")

	fields := make([]string, MaxAttributes)
	for i := range fields {
		fields[i] = fmt.Sprintf("f%d:string", i)
	}
	got, err := Parse(strings.Join(fields, ","))
	require.NoError(t, err)
	assert.Len(t, got, MaxAttributes)

	_, err = Parse(strings.Join(append(fields, "extra:string"), ","))
	assert.ErrorContains(t, err, "maximum is 30")
}

func TestParseUnknownTypeNamesSupportedSet(t *testing.T) {
	_, err := Parse("price:money")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "string, number, integer, bool, boolean, float, date")
}

func TestAttributeStringRoundTrip(t *testing.T) {
	input := "name:string,active:bool,owner:ref(users),status:enum(open|closed)"
	got, err := Parse(input)
	require.NoError(t, err)

	parts := make([]string, len(got))
	for i, a := range got {
		parts[i] = a.String()
	}
	assert.Equal(t, input, strings.Join(parts, ","))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "reference", KindReference.String())
	assert.Equal(t, "Kind(99)", Kind(99).String())
	assert.Equal(t, "", Kind(99).StorageType())
}
