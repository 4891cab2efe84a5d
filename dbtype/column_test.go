// SPDX-License-Identifier: Apache-2.0

package dbtype

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestColumnType_Check(t *testing.T) {
	intCol := NewInt(false)
	assert.True(t, intCol.Check(OfInt64(1)))
	assert.False(t, intCol.Check(OfNull()), "non-nullable INT rejects NULL")
	assert.False(t, intCol.Check(OfStr("x")))

	nullableInt := NewInt(true)
	assert.True(t, nullableInt.Check(OfNull()))

	charCol := NewChar(3, false)
	assert.True(t, charCol.Check(OfStr("abc")))
	assert.False(t, charCol.Check(OfStr("abcd")), "over length is rejected")

	dateCol := NewDate(false)
	assert.True(t, dateCol.Check(OfDate(time.Now())))
}

func TestTypeClass_String(t *testing.T) {
	assert.Equal(t, "INT", INT.String())
	assert.Equal(t, "CHAR", CHAR.String())
	assert.Equal(t, "DATE", DATE.String())
	assert.Panics(t, func() { TypeClass(99).String() })
}
