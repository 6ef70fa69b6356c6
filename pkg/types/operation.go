package types

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Operation namespaces and actions recognized in esyr command sequences.
const (
	NamespaceEsyr = "esyr"
	ActionMkDunes = "mkdunes"
	ActionMvExe   = "mvexe"

	// EsyMarker splits a command sequence into the operations run before
	// the build tool and those run after it.
	EsyMarker = "esy"
)

// Operation is one entry of an esyr command sequence. The concrete types are
// MkDunes, MvExe, EsySentinel and Unrecognized.
type Operation interface {
	// Raw returns the JSON the operation was declared with.
	Raw() json.RawMessage
	isOperation()
}

// MkDunes generates the dune/jbuilder build files for the project.
type MkDunes struct {
	Args []string
	raw  json.RawMessage
}

// MvExe moves the executable built by esy to Dest.
type MvExe struct {
	Dest string
	raw  json.RawMessage
}

// EsySentinel marks where the build tool runs inside a sequence.
type EsySentinel struct {
	raw json.RawMessage
}

// Unrecognized holds a descriptor this version of esyr does not know.
type Unrecognized struct {
	raw json.RawMessage
}

func (o MkDunes) Raw() json.RawMessage      { return o.raw }
func (o MvExe) Raw() json.RawMessage        { return o.raw }
func (o EsySentinel) Raw() json.RawMessage  { return o.raw }
func (o Unrecognized) Raw() json.RawMessage { return o.raw }

func (MkDunes) isOperation()      {}
func (MvExe) isOperation()        {}
func (EsySentinel) isOperation()  {}
func (Unrecognized) isOperation() {}

// String renders the descriptor for warnings.
func (o Unrecognized) String() string { return string(o.raw) }

// NewMkDunes builds a mkdunes operation as it would be declared in a manifest.
func NewMkDunes(args ...string) MkDunes {
	return MkDunes{Args: args, raw: descriptor(ActionMkDunes, args...)}
}

// NewMvExe builds a mvexe operation as it would be declared in a manifest.
func NewMvExe(dest string) MvExe {
	return MvExe{Dest: dest, raw: descriptor(ActionMvExe, dest)}
}

func descriptor(action string, args ...string) json.RawMessage {
	parts := append([]string{NamespaceEsyr, action}, args...)
	data, _ := json.Marshal(parts)
	return data
}

// ParseOperation classifies one raw descriptor. It never fails: anything it
// does not understand becomes Unrecognized.
func ParseOperation(raw json.RawMessage) Operation {
	raw = append(json.RawMessage(nil), bytes.TrimSpace(raw)...)

	var marker string
	if err := json.Unmarshal(raw, &marker); err == nil {
		if marker == EsyMarker {
			return EsySentinel{raw: raw}
		}
		return Unrecognized{raw: raw}
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var elems []any
	if err := dec.Decode(&elems); err != nil || len(elems) < 2 {
		return Unrecognized{raw: raw}
	}
	if ns, _ := elems[0].(string); ns != NamespaceEsyr {
		return Unrecognized{raw: raw}
	}

	switch action, _ := elems[1].(string); action {
	case ActionMkDunes:
		args := make([]string, 0, len(elems)-2)
		for _, e := range elems[2:] {
			args = append(args, fmt.Sprint(e))
		}
		return MkDunes{Args: args, raw: raw}
	case ActionMvExe:
		if len(elems) < 3 {
			return Unrecognized{raw: raw}
		}
		dest, ok := elems[2].(string)
		if !ok || dest == "" {
			return Unrecognized{raw: raw}
		}
		return MvExe{Dest: dest, raw: raw}
	}
	return Unrecognized{raw: raw}
}

// OperationList is an ordered esyr command sequence.
type OperationList []Operation

// UnmarshalJSON parses a JSON array of descriptors.
func (l *OperationList) UnmarshalJSON(data []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return err
	}
	out := make(OperationList, 0, len(raws))
	for _, r := range raws {
		out = append(out, ParseOperation(r))
	}
	*l = out
	return nil
}

// MarshalJSON writes every descriptor back exactly as it was declared.
func (l OperationList) MarshalJSON() ([]byte, error) {
	raws := make([]json.RawMessage, 0, len(l))
	for _, op := range l {
		raws = append(raws, op.Raw())
	}
	return json.Marshal(raws)
}

// Split divides the list at the first esy marker. Without a marker every
// operation runs before the build tool and none after.
func (l OperationList) Split() (before, after OperationList) {
	for i, op := range l {
		if _, ok := op.(EsySentinel); ok {
			return l[:i], l[i+1:]
		}
	}
	return l, nil
}
