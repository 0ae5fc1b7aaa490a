// EventFilter narrows the stored events listing.
package dto

import "time"

type EventFilter struct {
	Session string
	Camera  string
	Label   string
	Source  string
	Action  string
	Since   time.Time
	Limit   int
}
