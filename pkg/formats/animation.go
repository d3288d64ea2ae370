package formats

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/multierr"
)

// Value is one channel component: a literal number or an expression.
type Value struct {
	Num  float64
	Expr string // Non-empty when the component must be evaluated
}

// Number returns a literal value.
func Number(n float64) Value {
	return Value{Num: n}
}

// Expression returns an expression value.
// Numeric strings collapse to literals.
func Expression(s string) Value {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return Value{Num: n}
	}
	return Value{Expr: s}
}

// IsExpr reports whether the value needs an evaluator.
func (v Value) IsExpr() bool {
	return v.Expr != ""
}

// String returns the value as written.
func (v Value) String() string {
	if v.IsExpr() {
		return strconv.Quote(v.Expr)
	}
	return strconv.FormatFloat(v.Num, 'g', -1, 64)
}

// UnmarshalJSON accepts a number or a string.
func (v *Value) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*v = Number(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: component must be a number or expression, got %s", ErrMalformedChannel, data)
	}
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: empty expression", ErrMalformedChannel)
	}
	*v = Expression(s)
	return nil
}

// Triple is the three components of a channel sample.
type Triple [3]Value

// Keyframe is one timed sample. Pre is used when interpolating into the key,
// Post when interpolating out of it; they are equal unless written separately.
type Keyframe struct {
	Time float64 // Seconds
	Pre  Triple
	Post Triple
}

// Channel is a rotation or position track.
// Exactly one of Constant or Keyframes is set.
type Channel struct {
	Constant  *Triple
	Keyframes []Keyframe // Sorted by Time, unique times
}

// IsKeyed reports whether the channel is time-keyed.
func (c *Channel) IsKeyed() bool {
	return c.Constant == nil
}

// Period returns the largest keyframe time (0 for constant channels).
func (c *Channel) Period() float64 {
	if len(c.Keyframes) == 0 {
		return 0
	}
	return c.Keyframes[len(c.Keyframes)-1].Time
}

// ParseChannel parses a channel value: [a, b, c] or {"time": [a, b, c], ...}.
func ParseChannel(data []byte) (*Channel, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty channel", ErrMalformedChannel)
	}

	switch data[0] {
	case '[':
		t, err := parseTriple(data)
		if err != nil {
			return nil, err
		}
		return &Channel{Constant: &t}, nil
	case '{':
		return parseKeyedChannel(data)
	default:
		return nil, fmt.Errorf("%w: expected array or keyframe map, got %s", ErrMalformedChannel, data)
	}
}

func parseTriple(data []byte) (Triple, error) {
	var vals []Value
	if err := json.Unmarshal(data, &vals); err != nil {
		return Triple{}, err
	}
	if len(vals) != 3 {
		return Triple{}, fmt.Errorf("%w: expected 3 components, got %d", ErrMalformedChannel, len(vals))
	}
	return Triple{vals[0], vals[1], vals[2]}, nil
}

func parseKeyedChannel(data []byte) (*Channel, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedChannel, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: no keyframes", ErrMalformedChannel)
	}

	keys := make([]Keyframe, 0, len(raw))
	for stamp, body := range raw {
		t, err := strconv.ParseFloat(strings.TrimSpace(stamp), 64)
		if err != nil || t < 0 {
			return nil, fmt.Errorf("%w: invalid timestamp %q", ErrMalformedChannel, stamp)
		}
		kf, err := parseKeyframe(t, body)
		if err != nil {
			return nil, fmt.Errorf("key %s: %w", stamp, err)
		}
		keys = append(keys, kf)
	}

	sort.Slice(keys, func(i, j int) bool { return keys[i].Time < keys[j].Time })
	for i := 1; i < len(keys); i++ {
		if keys[i].Time == keys[i-1].Time {
			return nil, fmt.Errorf("%w: two keyframes at %gs", ErrDegenerateInterval, keys[i].Time)
		}
	}
	return &Channel{Keyframes: keys}, nil
}

func parseKeyframe(t float64, body json.RawMessage) (Keyframe, error) {
	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '{' {
		var prePost struct {
			Pre  json.RawMessage `json:"pre"`
			Post json.RawMessage `json:"post"`
		}
		if err := json.Unmarshal(body, &prePost); err != nil {
			return Keyframe{}, fmt.Errorf("%w: %v", ErrMalformedChannel, err)
		}
		if prePost.Post == nil && prePost.Pre == nil {
			return Keyframe{}, fmt.Errorf("%w: keyframe object needs pre or post", ErrMalformedChannel)
		}
		kf := Keyframe{Time: t}
		var err error
		if prePost.Post != nil {
			if kf.Post, err = parseTriple(prePost.Post); err != nil {
				return Keyframe{}, err
			}
		}
		if prePost.Pre != nil {
			if kf.Pre, err = parseTriple(prePost.Pre); err != nil {
				return Keyframe{}, err
			}
		}
		if prePost.Pre == nil {
			kf.Pre = kf.Post
		}
		if prePost.Post == nil {
			kf.Post = kf.Pre
		}
		return kf, nil
	}

	v, err := parseTriple(body)
	if err != nil {
		return Keyframe{}, err
	}
	return Keyframe{Time: t, Pre: v, Post: v}, nil
}

// BoneChannel holds the animated channels of one bone.
type BoneChannel struct {
	Rotation *Channel
	Position *Channel
}

// Clip is one named animation.
type Clip struct {
	Name      string // Full dotted name
	ShortName string // Last dotted segment
	Loop      bool
	Length    float64 // animation_length, 0 when absent
	Bones     map[string]BoneChannel
}

// Duration returns animation_length or, if absent, the longest channel period.
func (c *Clip) Duration() float64 {
	if c.Length > 0 {
		return c.Length
	}
	var d float64
	for _, bc := range c.Bones {
		for _, ch := range []*Channel{bc.Rotation, bc.Position} {
			if ch != nil && ch.Period() > d {
				d = ch.Period()
			}
		}
	}
	return d
}

// BoneNames returns the animated bone names in sorted order.
func (c *Clip) BoneNames() []string {
	names := make([]string, 0, len(c.Bones))
	for name := range c.Bones {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AnimationDocument is a parsed animation document.
type AnimationDocument struct {
	FormatVersion string
	Clips         map[string]*Clip // Keyed by full name
}

// Names returns full clip names in sorted order.
func (d *AnimationDocument) Names() []string {
	names := make([]string, 0, len(d.Clips))
	for name := range d.Clips {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clip looks up a clip by full name, then by unique short name.
func (d *AnimationDocument) Clip(name string) (*Clip, error) {
	if c, ok := d.Clips[name]; ok {
		return c, nil
	}
	var found *Clip
	for _, full := range d.Names() {
		c := d.Clips[full]
		if c.ShortName != name {
			continue
		}
		if found != nil {
			return nil, fmt.Errorf("%w: %q is ambiguous (%s, %s)", ErrUnknownAnimation, name, found.Name, c.Name)
		}
		found = c
	}
	if found == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAnimation, name)
	}
	return found, nil
}

// ShortName returns the last dotted segment of a clip name.
func ShortName(full string) string {
	if i := strings.LastIndexByte(full, '.'); i >= 0 {
		return full[i+1:]
	}
	return full
}

type rawAnimationFile struct {
	FormatVersion string                  `json:"format_version"`
	Animations    map[string]rawAnimation `json:"animations"`
}

type rawAnimation struct {
	Loop   json.RawMessage                `json:"loop"`
	Length float64                        `json:"animation_length"`
	Bones  map[string]rawAnimationChannel `json:"bones"`
}

type rawAnimationChannel struct {
	Rotation json.RawMessage `json:"rotation"`
	Position json.RawMessage `json:"position"`
}

// LoadAnimations reads and parses an animation document from disk.
func LoadAnimations(path string) (*AnimationDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading animations: %w", err)
	}
	return ParseAnimations(data)
}

// ParseAnimations parses an animation document. Every channel is validated up front
// so evaluation never sees a malformed or degenerate track.
func ParseAnimations(data []byte) (*AnimationDocument, error) {
	var raw rawAnimationFile
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	if raw.Animations == nil {
		return nil, fmt.Errorf("%w: missing \"animations\"", ErrMalformedDocument)
	}

	doc := &AnimationDocument{
		FormatVersion: raw.FormatVersion,
		Clips:         make(map[string]*Clip, len(raw.Animations)),
	}

	var errs error
	for name, ra := range raw.Animations {
		clip := &Clip{
			Name:      name,
			ShortName: ShortName(name),
			Loop:      parseLoop(ra.Loop),
			Length:    ra.Length,
			Bones:     make(map[string]BoneChannel, len(ra.Bones)),
		}
		for bone, rc := range ra.Bones {
			var bc BoneChannel
			var err error
			if len(rc.Rotation) > 0 {
				if bc.Rotation, err = ParseChannel(rc.Rotation); err != nil {
					errs = multierr.Append(errs, fmt.Errorf("%s/%s rotation: %w", name, bone, err))
				}
			}
			if len(rc.Position) > 0 {
				if bc.Position, err = ParseChannel(rc.Position); err != nil {
					errs = multierr.Append(errs, fmt.Errorf("%s/%s position: %w", name, bone, err))
				}
			}
			clip.Bones[bone] = bc
		}
		doc.Clips[name] = clip
	}

	if errs != nil {
		return nil, errs
	}
	return doc, nil
}

// parseLoop treats anything but a JSON true, including "hold_on_last_frame", as non-looping.
func parseLoop(data json.RawMessage) bool {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		return b
	}
	return false
}
