package extract

import (
	"bytes"
	"encoding/json"
)

// Summary is the flattened, display-ready projection of one check record.
// Fields holds every column of the record's report context, in column order.
type Summary struct {
	ID      int64
	Fields  map[string]string
	Results map[string]any

	order []string
}

// Get returns a column value and whether the column exists.
func (s *Summary) Get(col string) (string, bool) {
	v, ok := s.Fields[col]
	return v, ok
}

// Columns lists the column names in render order.
func (s *Summary) Columns() []string { return append([]string(nil), s.order...) }

// MarshalJSON renders {"id": <n>, <columns...>, "results": {...}} keeping the
// column order stable so repeated renders are byte-identical.
func (s Summary) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"id":`)
	idb, _ := json.Marshal(s.ID)
	buf.Write(idb)
	for _, col := range s.order {
		k, err := json.Marshal(col)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(s.Fields[col])
		if err != nil {
			return nil, err
		}
		buf.WriteByte(',')
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	results := s.Results
	if results == nil {
		results = map[string]any{}
	}
	rb, err := json.Marshal(results)
	if err != nil {
		return nil, err
	}
	buf.WriteString(`,"results":`)
	buf.Write(rb)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// sheet collects derived fields for one record. Each derivation runs in
// isolation: a panic inside one leaves that column at its default.
type sheet struct {
	fields map[string]string
}

func newSheet() *sheet { return &sheet{fields: make(map[string]string, 64)} }

// set stores a literal value.
func (s *sheet) set(col, v string) { s.fields[col] = v }

// derive stores fn's result under col, or def when fn panics.
func (s *sheet) derive(col, def string, fn func() string) {
	s.fields[col] = def
	defer func() {
		if recover() != nil {
			s.fields[col] = def
		}
	}()
	s.fields[col] = fn()
}

// alias copies an already derived column.
func (s *sheet) alias(col, from string) { s.fields[col] = s.fields[from] }
