package state

import "time"

// Status represents the lifecycle of one stage record.
type Status string

const (
	StatusPending Status = "pending"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

// StageName identifies one pipeline stage.
type StageName string

const (
	StageResearch   StageName = "research"
	StageDraft      StageName = "draft"
	StageBroll      StageName = "broll"
	StageVoiceover  StageName = "voiceover"
	StageTranscribe StageName = "transcribe"
	StageCaptions   StageName = "captions"
	StageMusic      StageName = "music"
	StageAssemble   StageName = "assemble"
	StageThumbnail  StageName = "thumbnail"
	StageUpload     StageName = "upload"
)

// declaredOrder is the fixed stage sequence. A stage may only complete after
// every stage before it has completed.
var declaredOrder = []StageName{
	StageResearch,
	StageDraft,
	StageBroll,
	StageVoiceover,
	StageTranscribe,
	StageCaptions,
	StageMusic,
	StageAssemble,
	StageThumbnail,
	StageUpload,
}

// sharedStages are produced once per work unit; everything after them is
// tracked per language variant.
var sharedStages = map[StageName]struct{}{
	StageResearch: {},
	StageDraft:    {},
}

// Order returns the declared stage order.
func Order() []StageName {
	out := make([]StageName, len(declaredOrder))
	copy(out, declaredOrder)
	return out
}

// OrdinalOf returns a stage's position in the declared order.
func OrdinalOf(name StageName) (int, bool) {
	for i, stage := range declaredOrder {
		if stage == name {
			return i, true
		}
	}
	return 0, false
}

// IsShared reports whether a stage is tracked once per unit rather than per
// language variant.
func IsShared(name StageName) bool {
	_, ok := sharedStages[name]
	return ok
}

// VariantFor maps a requested variant onto the variant a stage record is
// stored under: shared stages always live under the empty variant.
func VariantFor(name StageName, variant string) string {
	if IsShared(name) {
		return ""
	}
	return variant
}

// Record is the persisted outcome of one stage execution.
type Record struct {
	Name        StageName
	Status      Status
	OutputRef   string
	CompletedAt *time.Time
	Error       string
}

// Unit is one topic's end-to-end production attempt.
type Unit struct {
	ID        string
	Topic     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Snapshot is a read-only view of one work unit's stage records for a given
// language variant, in declared order. It is a passive record: order
// invariants are enforced by the stage runner, not here.
type Snapshot struct {
	UnitID  string
	Variant string
	records []Record
	index   map[StageName]int
}

func newSnapshot(unitID, variant string, records []Record) *Snapshot {
	index := make(map[StageName]int, len(records))
	for i, rec := range records {
		index[rec.Name] = i
	}
	return &Snapshot{UnitID: unitID, Variant: variant, records: records, index: index}
}

// Records returns all stage records in declared order.
func (s *Snapshot) Records() []Record {
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

// Record returns the record for one stage.
func (s *Snapshot) Record(name StageName) (Record, bool) {
	i, ok := s.index[name]
	if !ok {
		return Record{}, false
	}
	return s.records[i], true
}

// IsDone reports whether a stage completed successfully.
func (s *Snapshot) IsDone(name StageName) bool {
	rec, ok := s.Record(name)
	return ok && rec.Status == StatusDone
}

// CompleteThrough reports whether every stage up to and including name is done.
func (s *Snapshot) CompleteThrough(name StageName) bool {
	for _, rec := range s.records {
		if rec.Status != StatusDone {
			return false
		}
		if rec.Name == name {
			return true
		}
	}
	return false
}

// Output returns the output reference of a completed stage, or empty.
func (s *Snapshot) Output(name StageName) string {
	rec, ok := s.Record(name)
	if !ok || rec.Status != StatusDone {
		return ""
	}
	return rec.OutputRef
}

// Outputs returns the output references of all completed stages.
func (s *Snapshot) Outputs() map[StageName]string {
	out := make(map[StageName]string)
	for _, rec := range s.records {
		if rec.Status == StatusDone && rec.OutputRef != "" {
			out[rec.Name] = rec.OutputRef
		}
	}
	return out
}
