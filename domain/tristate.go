package domain

// TriState is a three-valued flag: a fact can be known true, known
// false, or not (yet) observed. Unknown never overwrites a known
// value during merges.
type TriState int

const (
	TriUnknown TriState = 0
	TriTrue    TriState = 1
	TriFalse   TriState = 2
)

func TriStateFromBool(b bool) TriState {
	if b {
		return TriTrue
	}
	return TriFalse
}

// TriStateFromID restores a TriState stored in the database.
func TriStateFromID(id int64) TriState {
	switch id {
	case 1:
		return TriTrue
	case 2:
		return TriFalse
	default:
		return TriUnknown
	}
}

func (t TriState) ID() int64 {
	return int64(t)
}

func (t TriState) Known() bool {
	return t != TriUnknown
}

func (t TriState) IsTrue() bool {
	return t == TriTrue
}

func (t TriState) IsFalse() bool {
	return t == TriFalse
}

// ToBool resolves the flag, falling back to def when unknown.
func (t TriState) ToBool(def bool) bool {
	if !t.Known() {
		return def
	}
	return t == TriTrue
}

func (t TriState) String() string {
	switch t {
	case TriTrue:
		return "true"
	case TriFalse:
		return "false"
	default:
		return "unknown"
	}
}
