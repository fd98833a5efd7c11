package pyenv

// Truth is the result of statically evaluating a boolean-looking condition.
// Unknown is a first-class value, not a sentinel: a branch guarded by Unknown
// is still visited, only a definite False excludes it.
type Truth int

const (
	Unknown Truth = iota
	True
	False
)

func FromBool(b bool) Truth {
	if b {
		return True
	}
	return False
}

func (t Truth) Not() Truth {
	switch t {
	case True:
		return False
	case False:
		return True
	default:
		return Unknown
	}
}

func (t Truth) And(o Truth) Truth {
	if t == False || o == False {
		return False
	}
	if t == True && o == True {
		return True
	}
	return Unknown
}

func (t Truth) Or(o Truth) Truth {
	if t == True || o == True {
		return True
	}
	if t == False && o == False {
		return False
	}
	return Unknown
}

func (t Truth) String() string {
	switch t {
	case True:
		return "true"
	case False:
		return "false"
	default:
		return "unknown"
	}
}
