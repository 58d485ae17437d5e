package metrics

import "github.com/san-kum/verletsim/internal/physics"

// Contacts is the mean number of corrected contacts per frame.
type Contacts struct {
	name    string
	sum     float64
	samples int
}

func NewContacts() *Contacts {
	return &Contacts{
		name: "contacts",
	}
}

func (c *Contacts) Name() string {
	return c.name
}

func (c *Contacts) Observe(s *physics.Solver) {
	c.sum += float64(s.Stats().Contacts)
	c.samples++
}

func (c *Contacts) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return c.sum / float64(c.samples)
}

func (c *Contacts) Reset() {
	c.sum = 0
	c.samples = 0
}
