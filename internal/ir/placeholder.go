package ir

// CaptureValue marks where an effect result is spliced into a message.
const CaptureValue = "$CAPTURE_VALUE"

// ReplacePlaceholder returns a copy of msg with every string equal to
// CaptureValue replaced by value, at any depth. Only object messages are
// rewritten; any other message is returned unchanged.
func ReplacePlaceholder(msg IRValue, value IRValue) IRValue {
	obj, ok := msg.(IRObject)
	if !ok {
		return msg
	}
	if value == nil {
		value = IRNull{}
	}
	return replaceIn(obj, value)
}

func replaceIn(v IRValue, value IRValue) IRValue {
	switch val := v.(type) {
	case IRString:
		if val == CaptureValue {
			return value
		}
		return val
	case IRArray:
		out := make(IRArray, len(val))
		for i, elem := range val {
			out[i] = replaceIn(elem, value)
		}
		return out
	case IRObject:
		out := make(IRObject, len(val))
		for k, elem := range val {
			out[k] = replaceIn(elem, value)
		}
		return out
	}
	return v
}
