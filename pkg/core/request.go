package core

import (
	"strings"
)

// Param is a single payload entry.
type Param struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Params is an insertion ordered set of string key/value pairs.
// Signatures are computed over the entries in order, so Params never
// reorders: Set on an existing key replaces the value in place and Del keeps
// the relative order of the remaining entries.
// The zero value is an empty payload ready to use.
type Params struct {
	entries []Param
}

// NewParams builds Params from alternating key, value arguments.
// A trailing key without a value is stored with an empty value.
func NewParams(kv ...string) *Params {
	p := &Params{}
	for i := 0; i < len(kv); i += 2 {
		v := ""
		if i+1 < len(kv) {
			v = kv[i+1]
		}
		p.Set(kv[i], v)
	}
	return p
}

func (p *Params) index(key string) int {
	for i, e := range p.entries {
		if e.Key == key {
			return i
		}
	}
	return -1
}

// Set stores value under key and returns p for chaining.
func (p *Params) Set(key, value string) *Params {
	if i := p.index(key); i >= 0 {
		p.entries[i].Value = value
		return p
	}
	p.entries = append(p.entries, Param{Key: key, Value: value})
	return p
}

// Get returns the value stored under key.
func (p *Params) Get(key string) (string, bool) {
	if p == nil {
		return "", false
	}
	if i := p.index(key); i >= 0 {
		return p.entries[i].Value, true
	}
	return "", false
}

// Has reports whether key is present.
func (p *Params) Has(key string) bool {
	_, ok := p.Get(key)
	return ok
}

// Del removes key and reports whether it was present.
func (p *Params) Del(key string) bool {
	if p == nil {
		return false
	}
	i := p.index(key)
	if i < 0 {
		return false
	}
	p.entries = append(p.entries[:i], p.entries[i+1:]...)
	return true
}

// Len returns the number of entries.
func (p *Params) Len() int {
	if p == nil {
		return 0
	}
	return len(p.entries)
}

// IsEmpty reports whether there are no entries.
func (p *Params) IsEmpty() bool {
	return p.Len() == 0
}

// Entries returns a copy of the entries in insertion order.
func (p *Params) Entries() []Param {
	if p == nil {
		return nil
	}
	out := make([]Param, len(p.entries))
	copy(out, p.entries)
	return out
}

// Keys returns the keys in insertion order.
func (p *Params) Keys() []string {
	if p == nil {
		return nil
	}
	keys := make([]string, len(p.entries))
	for i, e := range p.entries {
		keys[i] = e.Key
	}
	return keys
}

// Clone returns a deep copy of p. Cloning nil returns an empty Params.
func (p *Params) Clone() *Params {
	return &Params{entries: p.Entries()}
}

// Encode joins the entries as key=value pairs with "&" in insertion order.
// Values are passed through escape when it is non-nil, otherwise written raw.
func (p *Params) Encode(escape func(string) string) string {
	if p.Len() == 0 {
		return ""
	}
	var b strings.Builder
	for i, e := range p.entries {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(e.Key)
		b.WriteByte('=')
		if escape != nil {
			b.WriteString(escape(e.Value))
		} else {
			b.WriteString(e.Value)
		}
	}
	return b.String()
}

// Request is a fully described HTTP call before dispatch.
type Request struct {
	Operation   Operation         `json:"operation"`
	Method      string            `json:"method"`
	Path        string            `json:"path"`
	Params      *Params           `json:"params,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
	RequireAuth bool              `json:"require_auth"`
}

func NewRequest(method, path string) *Request {
	return &Request{
		Method:  method,
		Path:    path,
		Params:  &Params{},
		Headers: make(map[string]string),
	}
}

func (r *Request) SetParam(key, value string) *Request {
	if r.Params == nil {
		r.Params = &Params{}
	}
	r.Params.Set(key, value)
	return r
}

// SetParams replaces the payload with a copy of params.
func (r *Request) SetParams(params *Params) *Request {
	r.Params = params.Clone()
	return r
}

func (r *Request) SetHeader(key, value string) *Request {
	if r.Headers == nil {
		r.Headers = make(map[string]string)
	}
	r.Headers[key] = value
	return r
}

func (r *Request) SetOperation(op Operation) *Request {
	r.Operation = op
	return r
}

func (r *Request) SetRequireAuth(require bool) *Request {
	r.RequireAuth = require
	return r
}
