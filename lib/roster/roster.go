package roster

import (
	"sort"
	"time"

	"academytracker/lib/textutil"
)

// Source identifies one academy roster site.
type Source struct {
	// AwardID is the tracker's stable id for the roster, carried
	// over into snapshots and report filenames.
	AwardID string
	Code    string
	Name    string
}

var (
	NAM = Source{AwardID: "1909", Code: "NAM", Name: "National Academy of Medicine"}
	NAS = Source{AwardID: "2023", Code: "NAS", Name: "National Academy of Sciences"}
	NAE = Source{AwardID: "3008", Code: "NAE", Name: "National Academy of Engineering"}
)

var Sources = []Source{NAM, NAS, NAE}

func SourceByAward(id string) (Source, bool) {
	for _, s := range Sources {
		if s.AwardID == id {
			return s, true
		}
	}
	return Source{}, false
}

func SourceByCode(code string) (Source, bool) {
	code = textutil.NormalizeKey(code)
	for _, s := range Sources {
		if textutil.NormalizeKey(s.Code) == code {
			return s, true
		}
	}
	return Source{}, false
}

// KeyField holds the identity key used to match the same member across
// two snapshots. The sites expose no numeric member id; the profile url
// is the only value they keep stable between visits. Name strings drift
// in spelling and formatting, see RenameSuspicions for how that risk is
// surfaced.
const KeyField = "profile_url"

// Record is one roster entry, a mapping from field name to string value.
// Records are immutable once captured.
type Record map[string]string

// Key returns the record's identity key, case-folded and
// whitespace-collapsed so casing drift cannot produce spurious
// added/removed pairs.
func (r Record) Key() string {
	return textutil.NormalizeKey(r[KeyField])
}

// Fields returns the record's field names in sorted order.
func (r Record) Fields() []string {
	fields := make([]string, 0, len(r))
	for f := range r {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

func (r Record) Clone() Record {
	out := make(Record, len(r))
	for f, v := range r {
		out[f] = v
	}
	return out
}

// Snapshot is one dated capture of a roster for one source.
// Snapshots are append-only once stored.
type Snapshot struct {
	Source     Source
	CapturedAt time.Time
	// Fields is the column order the records were scraped with,
	// preserved so reports reproduce the site's layout.
	Fields  []string
	Records []Record
}

// FieldSet returns the set of fields present across the snapshot: the
// declared column order unioned with every field actually carried by a
// record. Sites with dynamic profile metadata produce record fields
// that never appear in the fixed header, and those still participate
// in comparison and drift detection.
func (s Snapshot) FieldSet() map[string]bool {
	set := make(map[string]bool)
	for _, f := range s.Fields {
		set[f] = true
	}
	for _, r := range s.Records {
		for f := range r {
			set[f] = true
		}
	}
	return set
}
