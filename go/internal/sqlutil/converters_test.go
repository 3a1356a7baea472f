package sqlutil

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromSqlStringPtr(t *testing.T) {
	s := "Digite !participar"

	assert.Nil(t, FromSqlStringPtr(sql.NullString{}))
	got := FromSqlStringPtr(sql.NullString{String: s, Valid: true})
	if assert.NotNil(t, got) {
		assert.Equal(t, s, *got)
	}
}

func TestToSqlID(t *testing.T) {
	assert.Equal(t, sql.NullInt64{}, ToSqlID(0))
	assert.Equal(t, sql.NullInt64{Int64: 7, Valid: true}, ToSqlID(7))
}
