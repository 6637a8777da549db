package domain

import (
	"encoding/json"
	"strings"
)

// SkillShape tags the form raw skill data arrived in.
type SkillShape uint8

const (
	SkillsAbsent SkillShape = iota
	SkillsDelimited
	SkillsStructured
	SkillsList
)

// RawSkills is skill data before reconciliation. Exactly one of the shape
// specific fields is meaningful, selected by Shape.
type RawSkills struct {
	Shape     SkillShape
	Delimited string
	OnProfile []string
	Missing   []string
	List      []string
}

func DelimitedSkills(s string) RawSkills {
	return RawSkills{Shape: SkillsDelimited, Delimited: s}
}

func StructuredSkills(onProfile, missing []string) RawSkills {
	return RawSkills{Shape: SkillsStructured, OnProfile: onProfile, Missing: missing}
}

func SkillList(xs []string) RawSkills {
	return RawSkills{Shape: SkillsList, List: xs}
}

// RawSkillsFrom classifies a decoded JSON value.
func RawSkillsFrom(v any) RawSkills {
	switch t := v.(type) {
	case string:
		if IsUnspecified(t) {
			return RawSkills{}
		}
		return DelimitedSkills(t)
	case map[string]any:
		var on, missing []string
		if xs, ok := t["onProfile"].([]any); ok {
			on = stringsOf(xs)
		}
		if xs, ok := t["missing"].([]any); ok {
			missing = stringsOf(xs)
		}
		return StructuredSkills(on, missing)
	case []any:
		return SkillList(stringsOf(t))
	case []string:
		return SkillList(t)
	}
	return RawSkills{}
}

func (r *RawSkills) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*r = RawSkillsFrom(v)
	return nil
}

func (r RawSkills) MarshalJSON() ([]byte, error) {
	switch r.Shape {
	case SkillsDelimited:
		return json.Marshal(r.Delimited)
	case SkillsStructured:
		return json.Marshal(struct {
			OnProfile []string `json:"onProfile"`
			Missing   []string `json:"missing"`
		}{r.OnProfile, r.Missing})
	case SkillsList:
		return json.Marshal(r.List)
	}
	return []byte("null"), nil
}

// SkillSet is a deduplicated list of non-empty skill names in first-seen order.
type SkillSet []string

// Contains reports an exact match.
func (s SkillSet) Contains(name string) bool {
	for _, x := range s {
		if x == name {
			return true
		}
	}
	return false
}

// Lower returns the skills lowercased, as a lookup set.
func (s SkillSet) Lower() map[string]struct{} {
	out := make(map[string]struct{}, len(s))
	for _, x := range s {
		out[strings.ToLower(x)] = struct{}{}
	}
	return out
}
