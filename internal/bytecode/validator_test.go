package bytecode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func meta(super string, interfaces []string, fields, methods [][2]string) Metadata {
	m := Metadata{Name: "com/example/Service", Super: super, Interfaces: interfaces}
	for _, f := range fields {
		m.Fields = append(m.Fields, FieldDescriptor{Name: f[0], Descriptor: f[1]})
	}
	for _, mm := range methods {
		m.Methods = append(m.Methods, MethodDescriptor{Name: mm[0], Descriptor: mm[1]})
	}
	return m
}

func TestClassify_NoPriorMetadataIsUnknown(t *testing.T) {
	c, _ := Classify(false, Metadata{}, meta("java/lang/Object", nil, nil, nil), nil, nil)
	assert.Equal(t, Unknown, c)
}

func TestClassify_IdenticalSchemaDifferentBytesIsMethodBodyOnly(t *testing.T) {
	old := meta("java/lang/Object", []string{"java/io/Serializable"}, [][2]string{{"count", "I"}}, [][2]string{{"run", "()V"}})
	newM := old

	c, _ := Classify(true, old, newM, []byte{1, 2, 3}, []byte{4, 5, 6})
	assert.Equal(t, MethodBodyOnly, c)
}

func TestClassify_AddedFieldIsSafeAdditive(t *testing.T) {
	old := meta("java/lang/Object", nil, nil, nil)
	newM := meta("java/lang/Object", nil, [][2]string{{"count", "I"}}, nil)

	c, _ := Classify(true, old, newM, nil, nil)
	assert.Equal(t, SafeAdditive, c)
}

func TestClassify_AddedMethodIsSafeAdditive(t *testing.T) {
	old := meta("java/lang/Object", nil, nil, nil)
	newM := meta("java/lang/Object", nil, nil, [][2]string{{"run", "()V"}})

	c, _ := Classify(true, old, newM, nil, nil)
	assert.Equal(t, SafeAdditive, c)
}

func TestClassify_RemovedFieldIsSchemaIncompatible(t *testing.T) {
	old := meta("java/lang/Object", nil, [][2]string{{"count", "I"}}, nil)
	newM := meta("java/lang/Object", nil, nil, nil)

	c, detail := Classify(true, old, newM, nil, nil)
	assert.Equal(t, SchemaIncompatible, c)
	assert.NotEmpty(t, detail)
}

func TestClassify_ChangedMethodSignatureIsSchemaIncompatible(t *testing.T) {
	old := meta("java/lang/Object", nil, nil, [][2]string{{"run", "()V"}})
	newM := meta("java/lang/Object", nil, nil, [][2]string{{"run", "(I)V"}})

	c, _ := Classify(true, old, newM, nil, nil)
	assert.Equal(t, SchemaIncompatible, c)
}

func TestClassify_ChangedSupertypeIsSchemaIncompatible(t *testing.T) {
	old := meta("java/lang/Object", nil, nil, nil)
	newM := meta("java/lang/Number", nil, nil, nil)

	c, _ := Classify(true, old, newM, nil, nil)
	assert.Equal(t, SchemaIncompatible, c)
}

func TestClassify_ChangedInterfaceSetIsSchemaIncompatible(t *testing.T) {
	old := meta("java/lang/Object", []string{"java/io/Serializable"}, nil, nil)
	newM := meta("java/lang/Object", []string{"java/lang/Comparable"}, nil, nil)

	c, _ := Classify(true, old, newM, nil, nil)
	assert.Equal(t, SchemaIncompatible, c)
}

func TestEligible_MethodBodyOnlyAlwaysEligible(t *testing.T) {
	assert.True(t, Eligible(MethodBodyOnly, false))
	assert.True(t, Eligible(MethodBodyOnly, true))
}

func TestEligible_SafeAdditiveDependsOnPlatform(t *testing.T) {
	assert.True(t, Eligible(SafeAdditive, true))
	assert.False(t, Eligible(SafeAdditive, false))
}

func TestEligible_SchemaIncompatibleAndUnknownNeverEligible(t *testing.T) {
	assert.False(t, Eligible(SchemaIncompatible, true))
	assert.False(t, Eligible(Unknown, true))
}
