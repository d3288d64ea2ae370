package formats

import (
	"encoding/json"
	"fmt"

	"github.com/Faultbox/cubekit/pkg/math"
)

// Vector3 is a JSON [x, y, z] array.
type Vector3 [3]float32

// UnmarshalJSON requires exactly three numbers.
func (v *Vector3) UnmarshalJSON(data []byte) error {
	var arr []float32
	if err := json.Unmarshal(data, &arr); err != nil {
		return fmt.Errorf("%w: expected [x, y, z]: %v", ErrMalformedDocument, err)
	}
	if len(arr) != 3 {
		return fmt.Errorf("%w: expected 3 components, got %d", ErrMalformedDocument, len(arr))
	}
	copy(v[:], arr)
	return nil
}

// Vec returns the vector as math.Vec3.
func (v Vector3) Vec() math.Vec3 {
	return math.FromArray(v)
}

// Vector2 is a JSON [u, v] array.
type Vector2 [2]float32

// UnmarshalJSON requires exactly two numbers.
func (v *Vector2) UnmarshalJSON(data []byte) error {
	var arr []float32
	if err := json.Unmarshal(data, &arr); err != nil {
		return fmt.Errorf("%w: expected [u, v]: %v", ErrMalformedDocument, err)
	}
	if len(arr) != 2 {
		return fmt.Errorf("%w: expected 2 components, got %d", ErrMalformedDocument, len(arr))
	}
	copy(v[:], arr)
	return nil
}

// Vec returns the vector as math.Vec2.
func (v Vector2) Vec() math.Vec2 {
	return math.Vec2{X: v[0], Y: v[1]}
}
