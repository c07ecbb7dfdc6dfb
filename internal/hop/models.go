package hop

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Varieties lists the accepted values of Hop.Type, in display order.
var Varieties = []string{"aroma", "bittering", "dual purpose"}

// Hop is a single hop-plant variety in the catalog.
type Hop struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Origin      string             `bson:"origin" json:"origin"`
	Type        string             `bson:"type" json:"type"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Alpha       Alpha              `bson:"alpha" json:"alpha"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Alpha is the alpha-acid percentage range. Either bound may be unset and
// the bounds are not required to be ordered.
type Alpha struct {
	Low  *float64 `bson:"low,omitempty" json:"low,omitempty"`
	High *float64 `bson:"high,omitempty" json:"high,omitempty"`
}

// Clone returns a deep copy so callers never share alpha pointers.
func (h *Hop) Clone() *Hop {
	if h == nil {
		return nil
	}
	c := *h
	if h.Alpha.Low != nil {
		v := *h.Alpha.Low
		c.Alpha.Low = &v
	}
	if h.Alpha.High != nil {
		v := *h.Alpha.High
		c.Alpha.High = &v
	}
	return &c
}

// ParseID converts the hex form of an identifier. Anything that is not a
// well-formed ObjectID is reported as ErrNotFound.
func ParseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, ErrNotFound
	}
	return oid, nil
}
