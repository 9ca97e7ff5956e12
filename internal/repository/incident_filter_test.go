package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/fixpoint/internal/domain"
)

func TestIncidentFilter_Where(t *testing.T) {
	tech := int64(7)
	filter := IncidentFilter{
		TechnicianID: &tech,
		Statuses:     []domain.IncidentStatus{domain.StatusAssigned, domain.StatusDeferred},
	}

	clause, args := filter.where(dollarPlaceholder)
	assert.Equal(t, "1=1 AND codigotecnico=$1 AND estado IN ($2,$3)", clause)
	assert.Equal(t, []any{int64(7), "Asignado", "Pendiente"}, args)

	clause, _ = filter.where(questionPlaceholder)
	assert.Equal(t, "1=1 AND codigotecnico=? AND estado IN (?,?)", clause)
}

func TestIncidentFilter_WhereEmpty(t *testing.T) {
	clause, args := IncidentFilter{}.where(dollarPlaceholder)
	assert.Equal(t, "1=1", clause)
	assert.Empty(t, args)
}

func TestTransitionQuery_NumbersSourceStatuses(t *testing.T) {
	query := transitionQuery(dollarPlaceholder, domain.SourcesFor(domain.StatusResolved))
	assert.Contains(t, query, "WHERE codigo=$5 AND estado IN ($6,$7)")

	args := transitionArgs(3, IncidentChange{Status: domain.StatusResolved}, domain.SourcesFor(domain.StatusResolved), "now")
	assert.Len(t, args, 7)
	assert.Equal(t, "Solucionado", args[0])
	assert.Equal(t, int64(3), args[4])
}
