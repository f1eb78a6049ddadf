package store

import (
	"crypto/sha256"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/khryptorgraphics/rcpspga/pkg/rcpsp"
)

// RunRecord is one persisted evolve invocation.
type RunRecord struct {
	ID                 uuid.UUID `db:"id" json:"id"`
	ProjectFingerprint string    `db:"project_fingerprint" json:"project_fingerprint"`
	Config             JSONMap   `db:"config" json:"config"`
	BestMakespan       int       `db:"best_makespan" json:"best_makespan"`
	BestPriorityList   JSONArray `db:"best_priority_list" json:"best_priority_list"`
	GenerationsRun     int       `db:"generations_run" json:"generations_run"`
	StoppedReason      string    `db:"stopped_reason" json:"stopped_reason"`
	BaselineMakespan   *int      `db:"baseline_makespan" json:"baseline_makespan,omitempty"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
}

// ProjectFingerprint derives a stable content hash for raw, used to
// group runs of the same project for RunRepository.CompareToBaseline.
func ProjectFingerprint(raw rcpsp.RawProject) string {
	h := sha256.New()
	enc := json.NewEncoder(h)
	_ = enc.Encode(raw.Durations)
	_ = enc.Encode(raw.Requirements)
	_ = enc.Encode(raw.Capacities)
	_ = enc.Encode(raw.Precedences)
	return fmt.Sprintf("%x", h.Sum(nil))
}

// JSONMap is a JSON object stored as JSONB in Postgres.
type JSONMap map[string]interface{}

func (j JSONMap) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*j = make(JSONMap)
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("store: cannot scan %T into JSONMap", value)
	}
	return json.Unmarshal(bytes, j)
}

// JSONArray is a JSON array stored as JSONB in Postgres.
type JSONArray []interface{}

func (j JSONArray) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONArray) Scan(value interface{}) error {
	if value == nil {
		*j = make(JSONArray, 0)
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("store: cannot scan %T into JSONArray", value)
	}
	return json.Unmarshal(bytes, j)
}

// PriorityListToJSONArray converts a decoded priority list to the
// JSONB-storable form.
func PriorityListToJSONArray(pl rcpsp.PriorityList) JSONArray {
	arr := make(JSONArray, len(pl))
	for i, v := range pl {
		arr[i] = v
	}
	return arr
}
