package errorutil

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode_MatchesWrappedDomainError(t *testing.T) {
	err := fmt.Errorf("assign: %w", NewInvalidTransition("Asignado", "Asignado", nil))

	assert.True(t, HasCode(err, CodeInvalidTransition))
	assert.False(t, HasCode(err, CodeNotFound))
	assert.False(t, HasCode(errors.New("plain"), CodeInvalidTransition))
}

func TestNewInvalidTransition_RecordsStatuses(t *testing.T) {
	de := ToDomainError(NewInvalidTransition("Solucionado", "Pendiente", map[string]any{"incident_id": int64(3)}))

	require.NotNil(t, de)
	assert.Equal(t, http.StatusConflict, de.HTTPStatus)
	assert.Equal(t, "Solucionado", de.Details["from"])
	assert.Equal(t, "Pendiente", de.Details["to"])
	assert.Equal(t, int64(3), de.Details["incident_id"])
}

func TestStorageError_UnwrapsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := NewStorageError("insert incident", cause)

	assert.ErrorIs(t, err, cause)
	assert.True(t, HasCode(err, CodeStorage))
	assert.Contains(t, err.Error(), "insert incident failed")
}

func TestToDomainError_NoRowsBecomesNotFound(t *testing.T) {
	for _, err := range []error{sql.ErrNoRows, pgx.ErrNoRows, fmt.Errorf("get: %w", sql.ErrNoRows)} {
		de := ToDomainError(err)
		require.NotNil(t, de)
		assert.Equal(t, CodeNotFound, de.Code)
	}
}

func TestToDomainError_UnknownBecomesInternal(t *testing.T) {
	de := ToDomainError(errors.New("boom"))

	require.NotNil(t, de)
	assert.Equal(t, CodeInternal, de.Code)
	assert.Equal(t, http.StatusInternalServerError, de.HTTPStatus)
	assert.Nil(t, ToDomainError(nil))
}
