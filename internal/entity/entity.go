// Package entity defines the three record kinds the workbench manages and the
// raw field variants their spreadsheet encodings arrive in. Raw values cross
// into canonical form only through the normalize package.
package entity

// Type identifies one of the three entity collections.
type Type string

const (
	TypeClient Type = "client"
	TypeWorker Type = "worker"
	TypeTask   Type = "task"
)

// QualificationLevel is the canonical worker qualification enum.
type QualificationLevel string

const (
	QualJunior QualificationLevel = "Junior"
	QualMid    QualificationLevel = "Mid"
	QualSenior QualificationLevel = "Senior"
	QualExpert QualificationLevel = "Expert"
)

// SeniorOrAbove reports whether q counts toward high-priority client coverage.
func (q QualificationLevel) SeniorOrAbove() bool {
	return q == QualSenior || q == QualExpert
}

// Client is a raw client row. Field names match the spreadsheet headers the
// upload parser produces.
type Client struct {
	ClientID         string  `json:"ClientID"`
	ClientName       string  `json:"ClientName"`
	PriorityLevel    FlexInt `json:"PriorityLevel"`
	RequestedTaskIDs string  `json:"RequestedTaskIDs"`
	GroupTag         string  `json:"GroupTag"`
	AttributesJSON   string  `json:"AttributesJSON"`
}

// Worker is a raw worker row.
type Worker struct {
	WorkerID           string         `json:"WorkerID"`
	WorkerName         string         `json:"WorkerName"`
	Skills             string         `json:"Skills"`
	AvailableSlots     StringOrNumber `json:"AvailableSlots"`
	MaxLoadPerPhase    FlexInt        `json:"MaxLoadPerPhase"`
	WorkerGroup        string         `json:"WorkerGroup"`
	QualificationLevel StringOrNumber `json:"QualificationLevel"`
}

// Task is a raw task row.
type Task struct {
	TaskID          string         `json:"TaskID"`
	TaskName        string         `json:"TaskName"`
	Category        string         `json:"Category"`
	Duration        FlexInt        `json:"Duration"`
	RequiredSkills  string         `json:"RequiredSkills"`
	PreferredPhases StringOrNumber `json:"PreferredPhases"`
	MaxConcurrent   FlexInt        `json:"MaxConcurrent"`
}

// Dataset is one immutable snapshot of the three collections. Mutating code
// must work on a Clone and publish the result, never edit a shared snapshot.
type Dataset struct {
	Clients []Client `json:"clients"`
	Workers []Worker `json:"workers"`
	Tasks   []Task   `json:"tasks"`
}

// Clone deep-copies the dataset, including the raw byte buffers inside
// variant fields.
func (d Dataset) Clone() Dataset {
	out := Dataset{
		Clients: make([]Client, len(d.Clients)),
		Workers: make([]Worker, len(d.Workers)),
		Tasks:   make([]Task, len(d.Tasks)),
	}
	for i, c := range d.Clients {
		c.PriorityLevel = c.PriorityLevel.clone()
		out.Clients[i] = c
	}
	for i, w := range d.Workers {
		w.AvailableSlots = w.AvailableSlots.clone()
		w.MaxLoadPerPhase = w.MaxLoadPerPhase.clone()
		w.QualificationLevel = w.QualificationLevel.clone()
		out.Workers[i] = w
	}
	for i, t := range d.Tasks {
		t.Duration = t.Duration.clone()
		t.PreferredPhases = t.PreferredPhases.clone()
		t.MaxConcurrent = t.MaxConcurrent.clone()
		out.Tasks[i] = t
	}
	return out
}

// Counts returns the collection sizes in client/worker/task order.
func (d Dataset) Counts() (int, int, int) {
	return len(d.Clients), len(d.Workers), len(d.Tasks)
}
