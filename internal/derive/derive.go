// Package derive computes the values shown next to records but never stored
// as entered: member status, progress percentages and dashboard counters.
// Every function is pure.
package derive

import (
	"math"
	"strconv"
	"strings"

	"github.com/localnerve/recordsdb/internal/models"
)

// Member statuses.
const (
	MemberActive   = "ativo"
	MemberInactive = "inativo"
)

// MemberStatus is "inativo" when endDate is present and non-blank.
func MemberStatus(endDate *string) string {
	if endDate != nil && strings.TrimSpace(*endDate) != "" {
		return MemberInactive
	}
	return MemberActive
}

// Quantity is one physical-scope line item reduced to its two numbers.
type Quantity struct {
	Target  float64
	Current float64
}

// Quantities extracts the numbers of scope items.
func Quantities(items []models.ScopeItem) []Quantity {
	out := make([]Quantity, len(items))
	for i, item := range items {
		out[i] = Quantity{Target: item.TargetQuantity, Current: item.CurrentQuantity}
	}
	return out
}

// ScopeProgress is min(100, round(100 × mean(current/target))). An item
// with no target contributes zero. No items give zero.
func ScopeProgress(items []Quantity) int {
	if len(items) == 0 {
		return 0
	}
	var sum float64
	for _, item := range items {
		if item.Target <= 0 {
			continue
		}
		sum += item.Current / item.Target
	}
	pct := int(math.Round(100 * sum / float64(len(items))))
	return clamp(pct)
}

// Average is round(mean(values)), or zero for no values.
func Average(values []int) int {
	if len(values) == 0 {
		return 0
	}
	sum := 0
	for _, v := range values {
		sum += v
	}
	return int(math.Round(float64(sum) / float64(len(values))))
}

// PlanProgress averages the progress of a plan's objectives.
func PlanProgress(objectives []models.PlanObjective) int {
	values := make([]int, len(objectives))
	for i, o := range objectives {
		values[i] = o.Progress
	}
	return Average(values)
}

// ObjectiveProgress averages the progress of an objective's actions.
func ObjectiveProgress(actions []models.PlanAction) int {
	values := make([]int, len(actions))
	for i, a := range actions {
		values[i] = a.Progress
	}
	return Average(values)
}

// ProjectProgress averages the progress of a project's goals.
func ProjectProgress(goals []models.Goal) int {
	values := make([]int, len(goals))
	for i, g := range goals {
		values[i] = g.Progress
	}
	return Average(values)
}

// StatusForProgress moves a pending item to in_progress once work starts and
// to completed at 100. Delayed items stay delayed until completed.
func StatusForProgress(current string, progress int) string {
	switch {
	case progress >= 100:
		return models.StatusCompleted
	case current == models.StatusDelayed:
		return current
	case progress > 0:
		return models.StatusInProgress
	case current == models.StatusCompleted:
		return models.StatusInProgress
	default:
		return current
	}
}

// Utilization classes of a storage location.
const (
	UtilizationHigh   = "high"
	UtilizationMedium = "medium"
	UtilizationLow    = "low"
)

// UtilizationClass buckets a capacity percentage: above 80 is high, above 50
// is medium.
func UtilizationClass(capacity int) string {
	switch {
	case capacity > 80:
		return UtilizationHigh
	case capacity > 50:
		return UtilizationMedium
	default:
		return UtilizationLow
	}
}

// CapacityLabel renders a percentage as shown on the progress bar.
func CapacityLabel(capacity int) string {
	return strconv.Itoa(clamp(capacity)) + "%"
}

// Dashboard counter labels.
const (
	LabelTodo       = "A Fazer"
	LabelInProgress = "Em Andamento"
	LabelDone       = "Concluídas"
)

// TaskCounters are the tracking dashboard totals. Review counts as in
// progress.
type TaskCounters struct {
	Total      int `json:"total"`
	Todo       int `json:"todo"`
	InProgress int `json:"in_progress"`
	Done       int `json:"done"`
	Overdue    int `json:"overdue"`
}

// Labeled returns the counters keyed by their dashboard labels.
func (c TaskCounters) Labeled() map[string]int {
	return map[string]int{
		LabelTodo:       c.Todo,
		LabelInProgress: c.InProgress,
		LabelDone:       c.Done,
	}
}

// CountTasks tallies tasks by column. A task is overdue when it is not done
// and its due date (YYYY-MM-DD) is before today.
func CountTasks(tasks []models.Task, today string) TaskCounters {
	var c TaskCounters
	for _, t := range tasks {
		c.Total++
		switch t.ColumnID {
		case models.ColumnTodo:
			c.Todo++
		case models.ColumnInProgress, models.ColumnReview:
			c.InProgress++
		case models.ColumnDone:
			c.Done++
		}
		if t.ColumnID != models.ColumnDone && t.DueDate != "" && today != "" && t.DueDate < today {
			c.Overdue++
		}
	}
	return c
}

func clamp(pct int) int {
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
