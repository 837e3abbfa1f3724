package models

import "encoding/json"

// ClassificationCode is one HS/HTS tariff line.
type ClassificationCode struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	Policy      string `json:"policy"`
}

// Registry maps code to its classification record. Iteration follows the
// order in which codes were first seen; a later upsert of the same code
// overwrites the record in place.
type Registry struct {
	entries orderedMap[ClassificationCode]
}

func NewRegistry() *Registry {
	return &Registry{entries: newOrderedMap[ClassificationCode]()}
}

func (r *Registry) Upsert(c ClassificationCode) {
	r.entries.set(c.Code, c)
}

func (r *Registry) Get(code string) (ClassificationCode, bool) {
	if r == nil {
		return ClassificationCode{}, false
	}
	return r.entries.get(code)
}

func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return r.entries.len()
}

// Range calls fn for every record in insertion order until fn returns false.
func (r *Registry) Range(fn func(ClassificationCode) bool) {
	if r == nil {
		return
	}
	r.entries.each(func(_ string, c ClassificationCode) bool {
		return fn(c)
	})
}

func (r *Registry) Codes() []string {
	codes := make([]string, 0, r.Len())
	r.Range(func(c ClassificationCode) bool {
		codes = append(codes, c.Code)
		return true
	})
	return codes
}

func (r *Registry) All() []ClassificationCode {
	all := make([]ClassificationCode, 0, r.Len())
	r.Range(func(c ClassificationCode) bool {
		all = append(all, c)
		return true
	})
	return all
}

// Merge upserts every record of other into r, last write wins.
func (r *Registry) Merge(other *Registry) {
	other.Range(func(c ClassificationCode) bool {
		r.Upsert(c)
		return true
	})
}

func (r *Registry) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.entries)
}

func (r *Registry) UnmarshalJSON(data []byte) error {
	var entries orderedMap[ClassificationCode]
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	// the object key is authoritative for the code
	for _, k := range entries.keys {
		c := entries.m[k]
		c.Code = k
		entries.m[k] = c
	}
	r.entries = entries
	return nil
}

// TermIndex maps a normalized term to a single code. A term shared by two
// codes resolves to whichever code was indexed last.
type TermIndex struct {
	terms orderedMap[string]
}

func NewTermIndex() *TermIndex {
	return &TermIndex{terms: newOrderedMap[string]()}
}

func (t *TermIndex) Put(term, code string) {
	t.terms.set(term, code)
}

func (t *TermIndex) Lookup(term string) (string, bool) {
	if t == nil {
		return "", false
	}
	return t.terms.get(term)
}

func (t *TermIndex) Len() int {
	if t == nil {
		return 0
	}
	return t.terms.len()
}

// Range calls fn for every term in insertion order until fn returns false.
func (t *TermIndex) Range(fn func(term, code string) bool) {
	if t == nil {
		return
	}
	t.terms.each(fn)
}

func (t *TermIndex) Merge(other *TermIndex) {
	other.Range(func(term, code string) bool {
		t.Put(term, code)
		return true
	})
}

func (t *TermIndex) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.terms)
}

func (t *TermIndex) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &t.terms)
}
