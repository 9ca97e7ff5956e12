package repository

import (
	"fmt"
	"strings"

	"github.com/spec-kit/fixpoint/internal/domain"
)

// IncidentFilter narrows an incident listing. Zero fields do not filter.
type IncidentFilter struct {
	Statuses     []domain.IncidentStatus
	TechnicianID *int64
	Reporter     *string
}

// IncidentChange describes the fields a transition writes.
// Nil pointers leave the stored value untouched.
type IncidentChange struct {
	Status       domain.IncidentStatus
	TechnicianID *int64
	Description  *string
}

const incidentColumns = `codigo, nombreUsuario, area_de_usuario, descripcion, estado, codigotecnico, codigoEquipo, created_at, updated_at`

// placeholderFunc renders the n-th (1-based) bind parameter for a dialect.
type placeholderFunc func(n int) string

func dollarPlaceholder(n int) string { return fmt.Sprintf("$%d", n) }

func questionPlaceholder(int) string { return "?" }

// where renders the filter as a WHERE clause body and its arguments.
func (f IncidentFilter) where(ph placeholderFunc) (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	if f.TechnicianID != nil {
		args = append(args, *f.TechnicianID)
		clauses = append(clauses, "codigotecnico="+ph(len(args)))
	}
	if f.Reporter != nil {
		args = append(args, *f.Reporter)
		clauses = append(clauses, "nombreUsuario="+ph(len(args)))
	}
	if len(f.Statuses) > 0 {
		clause, statusArgs := statusIn(f.Statuses, ph, len(args))
		args = append(args, statusArgs...)
		clauses = append(clauses, clause)
	}
	return strings.Join(clauses, " AND "), args
}

// statusIn renders "estado IN (...)" with placeholders numbered after offset.
func statusIn(statuses []domain.IncidentStatus, ph placeholderFunc, offset int) (string, []any) {
	placeholders := make([]string, len(statuses))
	args := make([]any, len(statuses))
	for i, status := range statuses {
		args[i] = string(status)
		placeholders[i] = ph(offset + i + 1)
	}
	return fmt.Sprintf("estado IN (%s)", strings.Join(placeholders, ",")), args
}

// transitionQuery renders the conditional update used by every lifecycle move.
func transitionQuery(ph placeholderFunc, from []domain.IncidentStatus) string {
	in, _ := statusIn(from, ph, 5)
	return fmt.Sprintf(`
        UPDATE Incidente
        SET estado=%s, codigotecnico=COALESCE(%s, codigotecnico), descripcion=COALESCE(%s, descripcion), updated_at=%s
        WHERE codigo=%s AND %s`,
		ph(1), ph(2), ph(3), ph(4), ph(5), in)
}

func transitionArgs(id int64, change IncidentChange, from []domain.IncidentStatus, now any) []any {
	args := []any{string(change.Status), change.TechnicianID, change.Description, now, id}
	for _, status := range from {
		args = append(args, string(status))
	}
	return args
}
