package conceptual

// ObjectKey identifies one moving thing, eg. a cat, a phone, a flight.
// Samples sharing an ObjectKey are assembled together.
type ObjectKey string

func (k ObjectKey) String() string {
	return string(k)
}

func (k ObjectKey) Empty() bool {
	return k == ""
}
