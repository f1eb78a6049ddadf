// Package projectfile reads the YAML project-file format consumed by
// cmd/rcpsp-solver and pkg/api's project-upload path: named tasks and
// resources instead of the bare integer indices pkg/rcpsp works in.
package projectfile

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/khryptorgraphics/rcpspga/pkg/rcpsp"
)

// ResourceSpec names one renewable resource and its capacity.
type ResourceSpec struct {
	Name     string `yaml:"name"`
	Capacity int    `yaml:"capacity"`
}

// TaskSpec names one real task (never the source or sink, which are
// implicit in the file format and added by ToRawProject).
type TaskSpec struct {
	ID           string         `yaml:"id"`
	Duration     int            `yaml:"duration"`
	Requirements map[string]int `yaml:"requirements"`
}

// File is the parsed project-file document.
type File struct {
	Resources   []ResourceSpec `yaml:"resources"`
	Tasks       []TaskSpec     `yaml:"tasks"`
	Precedences [][2]string    `yaml:"precedences"`
}

// Load reads and parses a project file from path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("projectfile: reading %s: %w", path, err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("projectfile: parsing %s: %w", path, err)
	}
	return &f, nil
}

// taskIndex maps a file's task IDs to pkg/rcpsp indices: 0 is always
// the source, len(Tasks)+1 is always the sink, and real tasks occupy
// 1..len(Tasks) in file order.
type taskIndex struct {
	idOf map[string]int
}

func (f *File) buildTaskIndex() taskIndex {
	idOf := make(map[string]int, len(f.Tasks)+2)
	idOf["source"] = 0
	for i, t := range f.Tasks {
		idOf[t.ID] = i + 1
	}
	idOf["sink"] = len(f.Tasks) + 1
	return taskIndex{idOf: idOf}
}

// ToRawProject compiles the named file into the positional
// rcpsp.RawProject form BuildProject validates. Resource order in the
// file determines column order in the resulting requirement rows.
func (f *File) ToRawProject() (rcpsp.RawProject, error) {
	n := len(f.Tasks) + 2
	m := len(f.Resources)
	idx := f.buildTaskIndex()

	resourceCol := make(map[string]int, m)
	capacities := make([]int, m)
	for i, r := range f.Resources {
		resourceCol[r.Name] = i
		capacities[i] = r.Capacity
	}

	durations := make([]int, n)
	requirements := make([][]int, n)
	for i := range requirements {
		requirements[i] = make([]int, m)
	}

	for _, t := range f.Tasks {
		id, ok := idx.idOf[t.ID]
		if !ok {
			return rcpsp.RawProject{}, fmt.Errorf("projectfile: task %q not indexed", t.ID)
		}
		durations[id] = t.Duration
		for name, qty := range t.Requirements {
			col, ok := resourceCol[name]
			if !ok {
				return rcpsp.RawProject{}, fmt.Errorf("projectfile: task %q references unknown resource %q", t.ID, name)
			}
			requirements[id][col] = qty
		}
	}

	precedences := make([][2]int, 0, len(f.Precedences))
	for _, edge := range f.Precedences {
		u, ok := idx.idOf[edge[0]]
		if !ok {
			return rcpsp.RawProject{}, fmt.Errorf("projectfile: precedence references unknown task %q", edge[0])
		}
		v, ok := idx.idOf[edge[1]]
		if !ok {
			return rcpsp.RawProject{}, fmt.Errorf("projectfile: precedence references unknown task %q", edge[1])
		}
		precedences = append(precedences, [2]int{u, v})
	}

	return rcpsp.RawProject{
		Durations:    durations,
		Requirements: requirements,
		Capacities:   capacities,
		Precedences:  precedences,
	}, nil
}

// TaskIDs returns the file's task IDs in declared order, "source"
// first and "sink" last, matching the index order ToRawProject uses.
func (f *File) TaskIDs() []string {
	ids := make([]string, 0, len(f.Tasks)+2)
	ids = append(ids, "source")
	for _, t := range f.Tasks {
		ids = append(ids, t.ID)
	}
	ids = append(ids, "sink")
	return ids
}

// PriorityFile is the YAML form of a priority list: task IDs instead
// of bare indices, resolved against a File's task index by
// ResolvePriorityList.
type PriorityFile struct {
	PriorityList []string `yaml:"priority_list"`
}

// LoadPriorityFile reads and parses a priority-list file from path.
func LoadPriorityFile(path string) (*PriorityFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("projectfile: reading %s: %w", path, err)
	}
	var pf PriorityFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("projectfile: parsing %s: %w", path, err)
	}
	return &pf, nil
}

// ResolvePriorityList converts pf's named IDs to the integer priority
// list BuildProject's index expects, using f's task index.
func (f *File) ResolvePriorityList(pf *PriorityFile) (rcpsp.PriorityList, error) {
	idx := f.buildTaskIndex()
	list := make(rcpsp.PriorityList, 0, len(pf.PriorityList))
	for _, id := range pf.PriorityList {
		pos, ok := idx.idOf[id]
		if !ok {
			return nil, fmt.Errorf("projectfile: priority list references unknown task %q", id)
		}
		list = append(list, pos)
	}
	return list, nil
}

// PriorityListToIDs converts a resolved priority list back to file
// task IDs, for printing results in the same vocabulary the file used.
func (f *File) PriorityListToIDs(pl rcpsp.PriorityList) []string {
	ids := f.TaskIDs()
	out := make([]string, len(pl))
	for i, taskID := range pl {
		if taskID >= 0 && taskID < len(ids) {
			out[i] = ids[taskID]
		}
	}
	return out
}
