package domain

// Represents a physical waste-drop location with a fixed container capacity.
// Locked is true while a non-terminal route references the point; it is the only
// field the dispatch engine mutates.
type CollectionPoint struct {
	ID       int64
	Address  string
	Location *Coordinates
	Capacity int
	Locked   bool
	KioskID  *int64
	AdminID  *int64
}

// Load is the pending demand at a collection point.
// Value is the summed weight when any active order carries a weight, otherwise the
// summed requested container capacity.
type Load struct {
	Value              float64
	HasWeightSignal    bool
	HasAnyActiveOrders bool
}

// FillRatio returns Load/capacity. ok is false when the point has no usable
// capacity, in which case the ratio is undefined.
func (p CollectionPoint) FillRatio(l Load) (ratio float64, ok bool) {
	if p.Capacity <= 0 {
		return 0, false
	}
	return l.Value / float64(p.Capacity), true
}
