package domain

// Courier represents a delivery courier known to the courier directory.
type Courier struct {
	ID                string
	Name              string
	Phone             string
	Location          *Point
	City              string
	Available         bool
	ActiveJobs        int
	MaxConcurrentJobs int
	Rating            float64 // 1..5
	CompletedJobs     int
}

// Eligible reports whether the courier may take another job.
func (c *Courier) Eligible() bool {
	return c.Available && c.ActiveJobs < c.MaxConcurrentJobs
}

// PartialCourierUpdate carries optional fields to update a courier.
// A nil field means “do not change” that attribute.
type PartialCourierUpdate struct {
	ID        string
	Available *bool
	Location  *Point
	City      *string
}
