package animation

import (
	"github.com/Faultbox/cubekit/internal/engine/model"
	"github.com/Faultbox/cubekit/internal/molang"
	"github.com/Faultbox/cubekit/pkg/formats"
)

// Player drives one clip on one skeleton. It owns the time cursor for the session
// and is not safe for concurrent use.
type Player struct {
	sk       *model.Skeleton
	clip     *formats.Clip
	eval     molang.Evaluator
	queries  map[string]float64
	loop     bool
	duration float64
	time     float64 // Seconds into the clip
	life     float64 // Seconds since the player started
}

// NewPlayer looks up a clip by full or short name and binds it to sk.
func NewPlayer(sk *model.Skeleton, doc *formats.AnimationDocument, name string, eval molang.Evaluator) (*Player, error) {
	clip, err := doc.Clip(name)
	if err != nil {
		return nil, err
	}
	return &Player{
		sk:       sk,
		clip:     clip,
		eval:     eval,
		loop:     clip.Loop,
		duration: clip.Duration(),
	}, nil
}

// Clip returns the clip being played.
func (p *Player) Clip() *formats.Clip {
	return p.clip
}

// Duration returns the clip length in seconds.
func (p *Player) Duration() float64 {
	return p.duration
}

// Time returns the cursor position in seconds.
func (p *Player) Time() float64 {
	return p.time
}

// Loop reports whether the cursor wraps at the end of the clip.
func (p *Player) Loop() bool {
	return p.loop
}

// SetLoop overrides the clip's loop flag.
func (p *Player) SetLoop(loop bool) {
	p.loop = loop
}

// SetQuery sets an extra query.* value visible to expressions.
func (p *Player) SetQuery(name string, v float64) {
	if p.queries == nil {
		p.queries = make(map[string]float64)
	}
	p.queries[name] = v
}

// Finished reports whether a non-looping clip has reached its end.
func (p *Player) Finished() bool {
	return !p.loop && p.time >= p.duration
}

// Seek moves the cursor to t and poses the skeleton.
func (p *Player) Seek(t float64) error {
	p.time = p.clamp(t)
	return p.frame()
}

// Advance moves the cursor by dt and poses the skeleton.
func (p *Player) Advance(dt float64) error {
	p.life += dt
	p.time = p.clamp(p.time + dt)
	return p.frame()
}

func (p *Player) clamp(t float64) float64 {
	if p.loop {
		return t
	}
	if t < 0 {
		return 0
	}
	if t > p.duration {
		return p.duration
	}
	return t
}

// frame evaluates the clip at the cursor with a cache that lives for this frame only.
func (p *Player) frame() error {
	ctx := molang.Context{AnimTime: p.time, LifeTime: p.life, Queries: p.queries}
	s := sampler{ctx: ctx, hold: !p.loop}
	if p.eval != nil {
		s.ev = molang.NewFrameCache(p.eval, ctx)
	}
	pose, err := s.pose(p.sk, p.clip)
	if err != nil {
		return err
	}
	pose.Apply()
	return nil
}
