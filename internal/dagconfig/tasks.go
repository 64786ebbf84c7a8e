package dagconfig

import (
	"fmt"
	"sort"
	"strings"
)

// AddTask appends a normalized task to the document's task list.
//
// task_type defaults to BashOperator, parameters must be a mapping (anything
// else is dropped) and dependencies accept comma text or a sequence.
func (b *Builder) AddTask(raw map[string]any) {
	task := map[string]any{
		"task_id":      text(raw["task_id"]),
		"task_type":    text(raw["task_type"]),
		"dependencies": splitList(raw["dependencies"]),
	}
	if task["task_type"] == "" {
		task["task_type"] = defaultTaskType
	}
	if params, ok := raw["parameters"].(map[string]any); ok {
		task["parameters"] = cloneValue(params)
	}
	clean(task)

	tasks, _ := b.doc[KeyTasks].([]any)
	b.doc[KeyTasks] = append(tasks, task)
}

// taskView is the validation-side view of one task entry.
type taskView struct {
	pos  int
	id   string
	deps []string
}

func tasksOf(doc Document) []taskView {
	var raw []any
	switch x := doc[KeyTasks].(type) {
	case []any:
		raw = x
	case []map[string]any:
		for _, m := range x {
			raw = append(raw, m)
		}
	default:
		return nil
	}
	out := make([]taskView, 0, len(raw))
	for i, item := range raw {
		m, _ := item.(map[string]any)
		out = append(out, taskView{pos: i + 1, id: text(m["task_id"]), deps: splitList(m["dependencies"])})
	}
	return out
}

// validateTasks checks ids, dependency references and acyclicity.
func validateTasks(doc Document) []string {
	tasks := tasksOf(doc)
	if len(tasks) == 0 {
		return nil
	}
	var errs []string

	known := make(map[string]int, len(tasks))
	for _, t := range tasks {
		if t.id == "" {
			errs = append(errs, fmt.Sprintf("task %d: task_id is required", t.pos))
			continue
		}
		if _, dup := known[t.id]; dup {
			errs = append(errs, fmt.Sprintf("duplicate task_id %q", t.id))
			continue
		}
		known[t.id] = t.pos
	}

	edges := map[string][]string{}
	for _, t := range tasks {
		if t.id == "" || known[t.id] != t.pos {
			continue
		}
		for _, dep := range t.deps {
			if _, ok := known[dep]; !ok {
				errs = append(errs, fmt.Sprintf("task %q depends on unknown task %q", t.id, dep))
				continue
			}
			edges[dep] = append(edges[dep], t.id)
		}
	}

	if left := cycleMembers(known, edges); len(left) > 0 {
		errs = append(errs, fmt.Sprintf("task dependencies contain a cycle (unresolved: %s)", strings.Join(left, ", ")))
	}
	return errs
}

// cycleMembers runs Kahn's algorithm and returns the sorted ids that could not
// be ordered (nil when the graph is acyclic).
func cycleMembers(nodes map[string]int, edges map[string][]string) []string {
	indeg := make(map[string]int, len(nodes))
	for id := range nodes {
		indeg[id] = 0
	}
	for _, tos := range edges {
		for _, to := range tos {
			indeg[to]++
		}
	}
	queue := make([]string, 0, len(nodes))
	for id, n := range indeg {
		if n == 0 {
			queue = append(queue, id)
		}
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		delete(indeg, id)
		for _, to := range edges[id] {
			indeg[to]--
			if indeg[to] == 0 {
				queue = append(queue, to)
			}
		}
	}
	if len(indeg) == 0 {
		return nil
	}
	left := make([]string, 0, len(indeg))
	for id := range indeg {
		left = append(left, id)
	}
	sort.Strings(left)
	return left
}
