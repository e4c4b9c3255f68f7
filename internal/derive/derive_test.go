package derive

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/localnerve/recordsdb/internal/models"
)

func strPtr(s string) *string { return &s }

func TestMemberStatus(t *testing.T) {
	assert.Equal(t, MemberActive, MemberStatus(nil))
	assert.Equal(t, MemberActive, MemberStatus(strPtr("")))
	assert.Equal(t, MemberActive, MemberStatus(strPtr("  ")))
	assert.Equal(t, MemberInactive, MemberStatus(strPtr("2024-06-30")))
}

func TestScopeProgress(t *testing.T) {
	tests := []struct {
		name  string
		items []Quantity
		want  int
	}{
		{"empty", nil, 0},
		{"half", []Quantity{{Target: 100, Current: 50}}, 50},
		{"mean of ratios", []Quantity{{Target: 10, Current: 10}, {Target: 4, Current: 1}}, 63},
		{"capped after averaging", []Quantity{{Target: 10, Current: 30}, {Target: 10, Current: 0}}, 100},
		{"over target", []Quantity{{Target: 10, Current: 25}}, 100},
		{"zero target counts as zero", []Quantity{{Target: 0, Current: 5}, {Target: 10, Current: 10}}, 50},
		{"rounds to nearest", []Quantity{{Target: 3, Current: 1}}, 33},
		{"rounds half up", []Quantity{{Target: 8, Current: 1}}, 13},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ScopeProgress(tt.items))
		})
	}
}

func TestScopeProgressMatchesFormula(t *testing.T) {
	items := []Quantity{
		{Target: 1200, Current: 300},
		{Target: 80, Current: 79},
		{Target: 15, Current: 2},
	}
	var sum float64
	for _, it := range items {
		sum += it.Current / it.Target
	}
	want := int(math.Min(100, math.Round(100*sum/float64(len(items)))))
	assert.Equal(t, want, ScopeProgress(items))
}

func TestQuantities(t *testing.T) {
	q := Quantities([]models.ScopeItem{{ServiceType: "digitalização", TargetQuantity: 10, CurrentQuantity: 4}})
	assert.Equal(t, []Quantity{{Target: 10, Current: 4}}, q)
}

func TestPlanProgress(t *testing.T) {
	assert.Equal(t, 0, PlanProgress(nil))
	assert.Equal(t, 50, PlanProgress([]models.PlanObjective{{Progress: 40}, {Progress: 60}}))
	assert.Equal(t, 34, PlanProgress([]models.PlanObjective{{Progress: 0}, {Progress: 0}, {Progress: 100}, {Progress: 35}}))
	assert.Equal(t, 67, PlanProgress([]models.PlanObjective{{Progress: 100}, {Progress: 100}, {Progress: 0}}))
}

func TestObjectiveAndProjectProgress(t *testing.T) {
	assert.Equal(t, 0, ObjectiveProgress(nil))
	assert.Equal(t, 75, ObjectiveProgress([]models.PlanAction{{Progress: 50}, {Progress: 100}}))
	assert.Equal(t, 20, ProjectProgress([]models.Goal{{Progress: 20}}))
}

func TestStatusForProgress(t *testing.T) {
	assert.Equal(t, models.StatusPending, StatusForProgress(models.StatusPending, 0))
	assert.Equal(t, models.StatusInProgress, StatusForProgress(models.StatusPending, 10))
	assert.Equal(t, models.StatusCompleted, StatusForProgress(models.StatusInProgress, 100))
	assert.Equal(t, models.StatusDelayed, StatusForProgress(models.StatusDelayed, 40))
	assert.Equal(t, models.StatusInProgress, StatusForProgress(models.StatusCompleted, 90))
}

func TestUtilization(t *testing.T) {
	assert.Equal(t, UtilizationHigh, UtilizationClass(85))
	assert.Equal(t, UtilizationMedium, UtilizationClass(80))
	assert.Equal(t, UtilizationMedium, UtilizationClass(51))
	assert.Equal(t, UtilizationLow, UtilizationClass(50))
	assert.Equal(t, "85%", CapacityLabel(85))
	assert.Equal(t, "100%", CapacityLabel(120))
}

func TestCountTasks(t *testing.T) {
	tasks := []models.Task{
		{ColumnID: models.ColumnTodo, DueDate: "2025-01-01"},
		{ColumnID: models.ColumnInProgress},
		{ColumnID: models.ColumnReview},
		{ColumnID: models.ColumnDone, DueDate: "2025-01-01"},
	}
	c := CountTasks(tasks, "2025-02-01")
	assert.Equal(t, TaskCounters{Total: 4, Todo: 1, InProgress: 2, Done: 1, Overdue: 1}, c)
	assert.Equal(t, map[string]int{"A Fazer": 1, "Em Andamento": 2, "Concluídas": 1}, c.Labeled())
}
